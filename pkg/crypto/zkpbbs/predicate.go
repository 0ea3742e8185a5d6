/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkpbbs

import (
	"crypto/rand"
	"math/big"

	ml "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
)

// A predicate m OP b is proven by committing to the non-negative difference d (m-b for >=,
// m-b-1 for >, b-m for <=, b-1-m for <) bit by bit, B_j = bit_j*U + t_j*H, with an OR proof per
// bit. D = sum(2^j*B_j) then opens to d, and Q = ±D + o*U opens to the hidden attribute m, whose
// response is shared with the credential proof.

const (
	rangeGeneratorLabel = "vade-evan-cl/range-generator"
	rangeBits           = 64
)

// nolint:gochecknoglobals
var (
	rangeU = curve.HashToG1([]byte(rangeGeneratorLabel + "/u"))
	rangeH = curve.HashToG1([]byte(rangeGeneratorLabel + "/h"))
)

type bitProof struct {
	C0 []byte `json:"c0"`
	S0 []byte `json:"s0"`
	S1 []byte `json:"s1"`
}

type predicateProof struct {
	Commitments [][]byte   `json:"commitments"`
	STau        []byte     `json:"sTau"`
	Bits        []bitProof `json:"bits"`
}

// predicateShape returns the offset o and whether D enters Q negated, so that Q = ±D + o*U.
func predicateShape(pred *zkp.Predicate) (*ml.Zr, bool, error) {
	one := curve.NewZrFromInt(1)
	b := intScalar(pred.Value)

	switch pred.Type {
	case zkp.PredicateGE:
		return b, false, nil
	case zkp.PredicateGT:
		return curve.ModAdd(b, one, curve.GroupOrder), false, nil
	case zkp.PredicateLE:
		return b, true, nil
	case zkp.PredicateLT:
		return curve.ModSub(b, one, curve.GroupOrder), true, nil
	default:
		return nil, false, errors.Errorf("unsupported predicate type %q", pred.Type)
	}
}

// predicateDelta returns the difference committed to, failing when the predicate does not hold.
func predicateDelta(pred *zkp.Predicate, value int64) (*big.Int, error) {
	m := big.NewInt(value)
	b := big.NewInt(pred.Value)
	one := big.NewInt(1)

	d := new(big.Int)

	switch pred.Type {
	case zkp.PredicateGE:
		d.Sub(m, b)
	case zkp.PredicateGT:
		d.Sub(m, b).Sub(d, one)
	case zkp.PredicateLE:
		d.Sub(b, m)
	case zkp.PredicateLT:
		d.Sub(b, m).Sub(d, one)
	default:
		return nil, errors.Errorf("unsupported predicate type %q", pred.Type)
	}

	if d.Sign() < 0 || d.BitLen() > rangeBits {
		return nil, errors.Errorf("predicate %s %s %d is not satisfied", pred.Attribute, pred.Type, pred.Value)
	}

	return d, nil
}

type predicateProver struct {
	pred  *zkp.Predicate
	index int
	rM    *ml.Zr

	commitments []*ml.G1
	bits        []uint
	blindings   []*ml.Zr
	tau, rTau   *ml.Zr

	// per bit: the real branch nonce, the simulated branch challenge and response
	k, cFake, sFake []*ml.Zr
}

// newPredicateProver commits to the bits of the predicate difference of value, the attribute at
// message index. rM is the attribute's randomness in the credential proof.
func newPredicateProver(pred *zkp.Predicate, index int, value int64, rM *ml.Zr) (*predicateProver, error) {
	d, err := predicateDelta(pred, value)
	if err != nil {
		return nil, err
	}

	_, negated, err := predicateShape(pred)
	if err != nil {
		return nil, err
	}

	pp := &predicateProver{
		pred:        pred,
		index:       index,
		rM:          rM,
		commitments: make([]*ml.G1, rangeBits),
		bits:        make([]uint, rangeBits),
		blindings:   randomScalars(rangeBits),
		rTau:        curve.NewRandomZr(rand.Reader),
		k:           randomScalars(rangeBits),
		cFake:       randomScalars(rangeBits),
		sFake:       randomScalars(rangeBits),
	}

	for j := 0; j < rangeBits; j++ {
		pp.bits[j] = d.Bit(j)
		pp.commitments[j] = rangeH.Mul(pp.blindings[j])

		if pp.bits[j] == 1 {
			pp.commitments[j].Add(rangeU)
		}
	}

	pp.tau = horner(pp.blindings)
	if negated {
		pp.tau = curve.ModNeg(pp.tau, curve.GroupOrder)
	}

	return pp, nil
}

func (pp *predicateProver) commit(t *transcript) {
	appendPredicate(t, pp.pred, pp.index, pp.commitments)

	t.appendG1(rangeU.Mul2(pp.rM, rangeH, pp.rTau))

	for j := 0; j < rangeBits; j++ {
		honest := rangeH.Mul(pp.k[j])
		simulated := bitCommitment(pp.commitments[j], 1-pp.bits[j], pp.sFake[j], pp.cFake[j])

		if pp.bits[j] == 0 {
			t.appendG1(honest, simulated)
		} else {
			t.appendG1(simulated, honest)
		}
	}
}

func (pp *predicateProver) respond(c *ml.Zr) *predicateProof {
	proof := &predicateProof{
		Commitments: make([][]byte, rangeBits),
		STau:        response(pp.rTau, c, pp.tau).Bytes(),
		Bits:        make([]bitProof, rangeBits),
	}

	for j := 0; j < rangeBits; j++ {
		proof.Commitments[j] = pp.commitments[j].Bytes()

		cReal := curve.ModSub(c, pp.cFake[j], curve.GroupOrder)
		sReal := response(pp.k[j], cReal, pp.blindings[j])

		if pp.bits[j] == 0 {
			proof.Bits[j] = bitProof{C0: cReal.Bytes(), S0: sReal.Bytes(), S1: pp.sFake[j].Bytes()}
		} else {
			proof.Bits[j] = bitProof{C0: pp.cFake[j].Bytes(), S0: pp.sFake[j].Bytes(), S1: sReal.Bytes()}
		}
	}

	return proof
}

// verifyPredicate recomputes the commitments of proof and appends them to t. sM is the response
// of the constrained attribute in the credential proof.
func verifyPredicate(t *transcript, pred *zkp.Predicate, index int, proof *predicateProof, c, sM *ml.Zr) error {
	if len(proof.Commitments) != rangeBits || len(proof.Bits) != rangeBits || len(proof.STau) == 0 {
		return errors.Errorf("predicate proof for %s is malformed", pred.Attribute)
	}

	offset, negated, err := predicateShape(pred)
	if err != nil {
		return err
	}

	commitments := make([]*ml.G1, rangeBits)

	for j := range commitments {
		if commitments[j], err = curve.NewG1FromBytes(proof.Commitments[j]); err != nil {
			return errors.Wrapf(err, "parse bit commitment %d", j)
		}
	}

	appendPredicate(t, pred, index, commitments)

	// Q = ±D + o*U
	q := hornerG1(commitments)
	if negated {
		q.Neg()
	}

	q.Add(rangeU.Mul(offset))

	rQ := rangeU.Mul2(sM, rangeH, curve.NewZrFromBytes(proof.STau))
	rQ.Sub(q.Mul(c))
	t.appendG1(rQ)

	for j, bp := range proof.Bits {
		if len(bp.C0) == 0 || len(bp.S0) == 0 || len(bp.S1) == 0 {
			return errors.Errorf("bit proof %d of %s is malformed", j, pred.Attribute)
		}

		c0 := curve.NewZrFromBytes(bp.C0)
		c1 := curve.ModSub(c, c0, curve.GroupOrder)

		t.appendG1(bitCommitment(commitments[j], 0, curve.NewZrFromBytes(bp.S0), c0),
			bitCommitment(commitments[j], 1, curve.NewZrFromBytes(bp.S1), c1))
	}

	return nil
}

// bitCommitment returns s*H - c*(B - bit*U), the OR proof commitment of branch bit.
func bitCommitment(b *ml.G1, bit uint, s, c *ml.Zr) *ml.G1 {
	opened := b.Copy()
	if bit == 1 {
		opened.Sub(rangeU)
	}

	out := rangeH.Mul(s)
	out.Sub(opened.Mul(c))

	return out
}

func appendPredicate(t *transcript, pred *zkp.Predicate, index int, commitments []*ml.G1) {
	t.appendInt(index)
	t.appendString(pred.Type)
	t.append(intScalar(pred.Value).Bytes())
	t.appendG1(commitments...)
}

// horner returns sum(2^j * x_j).
func horner(x []*ml.Zr) *ml.Zr {
	two := curve.NewZrFromInt(2) //nolint:gomnd
	out := x[len(x)-1].Copy()

	for j := len(x) - 2; j >= 0; j-- {
		out = curve.ModAdd(curve.ModMul(out, two, curve.GroupOrder), x[j], curve.GroupOrder)
	}

	return out
}

// hornerG1 returns sum(2^j * P_j).
func hornerG1(p []*ml.G1) *ml.G1 {
	two := curve.NewZrFromInt(2) //nolint:gomnd
	out := p[len(p)-1].Copy()

	for j := len(p) - 2; j >= 0; j-- {
		out = out.Mul(two)
		out.Add(p[j])
	}

	return out
}
