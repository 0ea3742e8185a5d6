/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkpbbs

import (
	ml "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// Non-revocation is proven without revealing the witness C or the element y: the holder blinds
// the witness as E = C + (sigma+rho)*K and proves
//
//	e(E, G2)^y * e(K, G2)^-(delta_sigma+delta_rho) * e(K, P)^-(sigma+rho) = e(V, G2) / e(E, P)
//
// with delta_sigma = y*sigma and delta_rho = y*rho enforced through T_sigma = sigma*X and
// T_rho = rho*Y. The response for y is shared with the credential proof, tying the accumulator
// element to the revocation handle signed into the credential.

const nonRevocationGeneratorLabel = "vade-evan-cl/non-revocation-generator"

type accumulatorKey struct {
	raw     []byte
	p       *ml.G2
	k, x, y *ml.G1
}

func parseAccumulatorKey(publicKey []byte) (*accumulatorKey, error) {
	p, err := curve.NewG2FromBytes(publicKey)
	if err != nil {
		return nil, errors.Wrap(err, "parse accumulator public key")
	}

	gen := func(name string) *ml.G1 {
		data := make([]byte, 0, len(nonRevocationGeneratorLabel)+len(publicKey)+len(name))
		data = append(data, nonRevocationGeneratorLabel...)
		data = append(data, publicKey...)
		data = append(data, name...)

		return curve.HashToG1(data)
	}

	return &accumulatorKey{raw: publicKey, p: p, k: gen("k"), x: gen("x"), y: gen("y")}, nil
}

type nonRevocationProof struct {
	E           []byte `json:"e"`
	TSigma      []byte `json:"tSigma"`
	TRho        []byte `json:"tRho"`
	SSigma      []byte `json:"sSigma"`
	SRho        []byte `json:"sRho"`
	SDeltaSigma []byte `json:"sDeltaSigma"`
	SDeltaRho   []byte `json:"sDeltaRho"`
}

type nonRevocationProver struct {
	key         *accumulatorKey
	accumulator *ml.G1

	sigma, rho, deltaSigma, deltaRho     *ml.Zr
	rSigma, rRho, rDeltaSigma, rDeltaRho *ml.Zr
	rY                                   *ml.Zr

	e, tSigma, tRho *ml.G1
}

// newNonRevocationProver blinds witness for element y. rY is the randomness of y in the
// credential proof.
func newNonRevocationProver(key *accumulatorKey, accumulator, witness *ml.G1, y, rY *ml.Zr) *nonRevocationProver {
	r := randomScalars(6) //nolint:gomnd
	nr := &nonRevocationProver{
		key:         key,
		accumulator: accumulator,
		sigma:       r[0],
		rho:         r[1],
		rSigma:      r[2],
		rRho:        r[3],
		rDeltaSigma: r[4],
		rDeltaRho:   r[5],
		rY:          rY,
	}

	nr.deltaSigma = curve.ModMul(y, nr.sigma, curve.GroupOrder)
	nr.deltaRho = curve.ModMul(y, nr.rho, curve.GroupOrder)

	nr.e = witness.Copy()
	nr.e.Add(key.k.Mul(curve.ModAdd(nr.sigma, nr.rho, curve.GroupOrder)))
	nr.tSigma = key.x.Mul(nr.sigma)
	nr.tRho = key.y.Mul(nr.rho)

	return nr
}

func (nr *nonRevocationProver) commit(t *transcript) {
	rSigma := nr.key.x.Mul(nr.rSigma)
	rRho := nr.key.y.Mul(nr.rRho)

	rDeltaSigma := nr.tSigma.Mul(nr.rY)
	rDeltaSigma.Sub(nr.key.x.Mul(nr.rDeltaSigma))

	rDeltaRho := nr.tRho.Mul(nr.rY)
	rDeltaRho.Sub(nr.key.y.Mul(nr.rDeltaRho))

	rE := nonRevocationPairings(nr.key, nr.e, nr.rY, nr.rDeltaSigma, nr.rDeltaRho, nr.rSigma, nr.rRho)

	appendNonRevocation(t, nr.key, nr.accumulator, nr.e, nr.tSigma, nr.tRho,
		rSigma, rRho, rDeltaSigma, rDeltaRho, rE)
}

func (nr *nonRevocationProver) respond(c *ml.Zr) *nonRevocationProof {
	return &nonRevocationProof{
		E:           nr.e.Bytes(),
		TSigma:      nr.tSigma.Bytes(),
		TRho:        nr.tRho.Bytes(),
		SSigma:      response(nr.rSigma, c, nr.sigma).Bytes(),
		SRho:        response(nr.rRho, c, nr.rho).Bytes(),
		SDeltaSigma: response(nr.rDeltaSigma, c, nr.deltaSigma).Bytes(),
		SDeltaRho:   response(nr.rDeltaRho, c, nr.deltaRho).Bytes(),
	}
}

// verifyNonRevocation recomputes the commitments of proof against the current accumulator and
// appends them to t. sY is the response of the revocation handle in the credential proof.
func verifyNonRevocation(t *transcript, key *accumulatorKey, accumulator *ml.G1, proof *nonRevocationProof,
	c, sY *ml.Zr) error {
	if len(proof.SSigma) == 0 || len(proof.SRho) == 0 || len(proof.SDeltaSigma) == 0 || len(proof.SDeltaRho) == 0 {
		return errors.New("one of the non-revocation proof values is undefined")
	}

	e, err := curve.NewG1FromBytes(proof.E)
	if err != nil {
		return errors.Wrap(err, "parse blinded witness")
	}

	tSigma, err := curve.NewG1FromBytes(proof.TSigma)
	if err != nil {
		return errors.Wrap(err, "parse T_sigma")
	}

	tRho, err := curve.NewG1FromBytes(proof.TRho)
	if err != nil {
		return errors.Wrap(err, "parse T_rho")
	}

	sSigma := curve.NewZrFromBytes(proof.SSigma)
	sRho := curve.NewZrFromBytes(proof.SRho)
	sDeltaSigma := curve.NewZrFromBytes(proof.SDeltaSigma)
	sDeltaRho := curve.NewZrFromBytes(proof.SDeltaRho)

	rSigma := key.x.Mul(sSigma)
	rSigma.Sub(tSigma.Mul(c))

	rRho := key.y.Mul(sRho)
	rRho.Sub(tRho.Mul(c))

	rDeltaSigma := tSigma.Mul(sY)
	rDeltaSigma.Sub(key.x.Mul(sDeltaSigma))

	rDeltaRho := tRho.Mul(sY)
	rDeltaRho.Sub(key.y.Mul(sDeltaRho))

	// (e(V, G2) / e(E, P))^-c
	psi := pairing(accumulator, curve.GenG2)
	den := pairing(e, key.p)
	den.Inverse()
	psi.Mul(den)
	psi = psi.Exp(curve.ModNeg(c, curve.GroupOrder))

	rE := nonRevocationPairings(key, e, sY, sDeltaSigma, sDeltaRho, sSigma, sRho)
	rE.Mul(psi)

	appendNonRevocation(t, key, accumulator, e, tSigma, tRho, rSigma, rRho, rDeltaSigma, rDeltaRho, rE)

	return nil
}

// nonRevocationPairings returns e(E, G2)^y * e(K, G2)^-(ds+dr) * e(K, P)^-(s+r).
func nonRevocationPairings(key *accumulatorKey, e *ml.G1, y, deltaSigma, deltaRho, sigma, rho *ml.Zr) *ml.Gt {
	out := pairing(e, curve.GenG2).Exp(y)
	out.Mul(pairing(key.k, curve.GenG2).Exp(curve.ModNeg(curve.ModAdd(deltaSigma, deltaRho, curve.GroupOrder),
		curve.GroupOrder)))
	out.Mul(pairing(key.k, key.p).Exp(curve.ModNeg(curve.ModAdd(sigma, rho, curve.GroupOrder), curve.GroupOrder)))

	return out
}

func appendNonRevocation(t *transcript, key *accumulatorKey, accumulator, e, tSigma, tRho,
	rSigma, rRho, rDeltaSigma, rDeltaRho *ml.G1, rE *ml.Gt) {
	t.append(key.raw)
	t.appendG1(accumulator, e, tSigma, tRho, rSigma, rRho, rDeltaSigma, rDeltaRho)
	t.append(rE.Bytes())
}
