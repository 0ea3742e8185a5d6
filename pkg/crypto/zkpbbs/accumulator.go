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

// The accumulator of a set X under secret s is A = A0 * prod(s + x). A witness w for x satisfies
// w * (s + x) = A, checked as e(w, P + x*G2) = e(A, G2) with P = s*G2.

const (
	opAdd    = "add"
	opRemove = "remove"
)

type accumulatorUpdate struct {
	Op     string `json:"op"`
	Handle string `json:"handle"`
	Before []byte `json:"before"`
	After  []byte `json:"after"`
}

// NewAccumulator creates an empty accumulator.
func (p *Primitives) NewAccumulator(capacity uint32) (*api.AccumulatorKeys, error) {
	if capacity == 0 {
		return nil, errors.New("accumulator capacity must be positive")
	}

	s := curve.NewRandomZr(rand.Reader)
	pub := curve.GenG2.Mul(s)
	acc := curve.GenG1.Mul(curve.NewRandomZr(rand.Reader))

	return &api.AccumulatorKeys{PublicKey: pub.Bytes(), PrivateKey: s.Bytes(), Accumulator: acc.Bytes()}, nil
}

// AccumulatorAdd adds handle. The returned witness is the accumulator before the addition.
func (p *Primitives) AccumulatorAdd(privateKey, accumulator []byte, handle string) (*api.AccumulatorUpdate, error) {
	before, err := curve.NewG1FromBytes(accumulator)
	if err != nil {
		return nil, errors.Wrap(err, "parse accumulator")
	}

	e := curve.ModAdd(curve.NewZrFromBytes(privateKey), handleScalar(handle), curve.GroupOrder)
	after := before.Mul(e)

	update, err := json.Marshal(&accumulatorUpdate{Op: opAdd, Handle: handle, Before: before.Bytes(), After: after.Bytes()})
	if err != nil {
		return nil, errors.Wrap(err, "marshal accumulator update")
	}

	return &api.AccumulatorUpdate{Accumulator: after.Bytes(), Update: update, Witness: before.Bytes()}, nil
}

// AccumulatorRemove removes handle.
func (p *Primitives) AccumulatorRemove(privateKey, accumulator []byte, handle string) (*api.AccumulatorUpdate, error) {
	before, err := curve.NewG1FromBytes(accumulator)
	if err != nil {
		return nil, errors.Wrap(err, "parse accumulator")
	}

	e := curve.ModAdd(curve.NewZrFromBytes(privateKey), handleScalar(handle), curve.GroupOrder)
	e.InvModP(curve.GroupOrder)
	after := before.Mul(e)

	update, err := json.Marshal(&accumulatorUpdate{Op: opRemove, Handle: handle, Before: before.Bytes(), After: after.Bytes()})
	if err != nil {
		return nil, errors.Wrap(err, "marshal accumulator update")
	}

	return &api.AccumulatorUpdate{Accumulator: after.Bytes(), Update: update}, nil
}

// UpdateWitness folds updates into the witness of handle. It fails with api.ErrHandleRevoked when
// one of the updates removes handle itself.
func (p *Primitives) UpdateWitness(witness []byte, handle string, updates [][]byte) ([]byte, error) {
	w, err := curve.NewG1FromBytes(witness)
	if err != nil {
		return nil, errors.Wrap(err, "parse witness")
	}

	x := handleScalar(handle)

	for i, raw := range updates {
		var u accumulatorUpdate
		if err = json.Unmarshal(raw, &u); err != nil {
			return nil, errors.Wrapf(err, "parse update %d", i)
		}

		if u.Handle == handle {
			if u.Op == opRemove {
				return nil, api.ErrHandleRevoked
			}

			continue
		}

		if w, err = foldUpdate(w, x, &u); err != nil {
			return nil, errors.Wrapf(err, "apply update %d", i)
		}
	}

	return w.Bytes(), nil
}

// foldUpdate moves witness w of x across one update of element y:
//
//	add:    w' = before + (y - x) * w
//	remove: w' = (w - after) / (y - x)
func foldUpdate(w *ml.G1, x *ml.Zr, u *accumulatorUpdate) (*ml.G1, error) {
	d := curve.ModSub(handleScalar(u.Handle), x, curve.GroupOrder)

	switch u.Op {
	case opAdd:
		before, err := curve.NewG1FromBytes(u.Before)
		if err != nil {
			return nil, err
		}

		before.Add(w.Mul(d))

		return before, nil
	case opRemove:
		after, err := curve.NewG1FromBytes(u.After)
		if err != nil {
			return nil, err
		}

		n := w.Copy()
		n.Sub(after)
		d.InvModP(curve.GroupOrder)

		return n.Mul(d), nil
	default:
		return nil, errors.Errorf("unknown update operation %q", u.Op)
	}
}

// VerifyWitness checks that witness proves membership of handle in accumulator.
func (p *Primitives) VerifyWitness(publicKey, accumulator, witness []byte, handle string) error {
	pub, err := curve.NewG2FromBytes(publicKey)
	if err != nil {
		return errors.Wrap(err, "parse accumulator public key")
	}

	acc, err := curve.NewG1FromBytes(accumulator)
	if err != nil {
		return errors.Wrap(err, "parse accumulator")
	}

	w, err := curve.NewG1FromBytes(witness)
	if err != nil {
		return errors.Wrap(err, "parse witness")
	}

	q := curve.GenG2.Mul(handleScalar(handle))
	q.Add(pub)

	acc.Neg()

	if !compareTwoPairings(w, q, acc, curve.GenG2) {
		return errors.New("witness does not match accumulator")
	}

	return nil
}

func handleScalar(handle string) *ml.Zr {
	return curve.HashToZr([]byte(handle))
}
