/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkpbbs

import (
	"crypto/rand"
	"encoding/json"

	ml "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

const blindedSecretLabel = "vade-evan-cl/blinded-secret"

// nym returns ms*HSk + r*HRand, the commitment the issuer signs in place of the master secret.
func nym(key *issuerKey, ms, r *ml.Zr) *ml.G1 {
	return key.h(masterSecretIndex).Mul2(ms, key.hRand, r)
}

type blindedSecretProof struct {
	C  []byte `json:"c"`
	S1 []byte `json:"s1"`
	S2 []byte `json:"s2"`
}

// BlindMasterSecret commits to the master secret under the issuer's generators and proves
// knowledge of the opening, bound to the issuer key and the issuance nonce.
func (p *Primitives) BlindMasterSecret(publicKey, masterSecret []byte, nonce string) (*api.BlindedSecret, error) {
	if len(masterSecret) == 0 {
		return nil, errors.New("empty master secret")
	}

	key, err := parseIssuerKey(publicKey)
	if err != nil {
		return nil, err
	}

	ms := curve.NewZrFromBytes(masterSecret)
	r := curve.NewRandomZr(rand.Reader)
	c := nym(key, ms, r)

	rMs := curve.NewRandomZr(rand.Reader)
	rR := curve.NewRandomZr(rand.Reader)
	challenge := blindedSecretChallenge(nym(key, rMs, rR), c, key, nonce)

	proof, err := json.Marshal(&blindedSecretProof{
		C:  challenge.Bytes(),
		S1: curve.ModAdd(curve.ModMul(challenge, ms, curve.GroupOrder), rMs, curve.GroupOrder).Bytes(),
		S2: curve.ModAdd(curve.ModMul(challenge, r, curve.GroupOrder), rR, curve.GroupOrder).Bytes(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal blinded secret proof")
	}

	return &api.BlindedSecret{Blinded: c.Bytes(), BlindingFactors: r.Bytes(), CorrectnessProof: proof}, nil
}

// VerifyBlindedSecret checks the proof of knowledge produced by BlindMasterSecret.
func (p *Primitives) VerifyBlindedSecret(publicKey, blinded, correctnessProof []byte, nonce string) error {
	key, err := parseIssuerKey(publicKey)
	if err != nil {
		return err
	}

	c, err := curve.NewG1FromBytes(blinded)
	if err != nil {
		return errors.Wrap(err, "parse blinded secret")
	}

	var proof blindedSecretProof
	if err = json.Unmarshal(correctnessProof, &proof); err != nil {
		return errors.Wrap(err, "parse blinded secret proof")
	}

	if len(proof.C) == 0 || len(proof.S1) == 0 || len(proof.S2) == 0 {
		return errors.New("one of the proof values is undefined")
	}

	challenge := curve.NewZrFromBytes(proof.C)

	// t = s1*HSk + s2*HRand - c*C
	t := nym(key, curve.NewZrFromBytes(proof.S1), curve.NewZrFromBytes(proof.S2))
	t.Sub(c.Mul(challenge))

	if !challenge.Equals(blindedSecretChallenge(t, c, key, nonce)) {
		return errors.New("blinded secret proof is invalid")
	}

	return nil
}

func blindedSecretChallenge(t, c *ml.G1, key *issuerKey, nonce string) *ml.Zr {
	tr := newTranscript(blindedSecretLabel)
	tr.appendG1(t, key.h(masterSecretIndex), key.hRand, c)
	tr.append(key.raw)
	tr.appendString(nonce)

	return tr.challenge()
}
