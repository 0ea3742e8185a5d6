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
	"golang.org/x/exp/slices"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

// A presentation proves knowledge of a BBS+ signature per credential after randomizing it:
//
//	A' = r1*A, Abar = r1*B - e*A', B' = r1*B - r2*HRand, r3 = 1/r1, s' = s - r2*r3
//
// with e(A', W) = e(Abar, G2). All sub proofs share one Fiat-Shamir challenge and one response
// for the master secret, so every presented credential is bound to the same holder.

const proofLabel = "vade-evan-cl/presentation"

type hiddenResponse struct {
	Index int    `json:"index"`
	S     []byte `json:"s"`
}

type credentialProof struct {
	APrime        []byte              `json:"aPrime"`
	ABar          []byte              `json:"aBar"`
	BPrime        []byte              `json:"bPrime"`
	SE            []byte              `json:"sE"`
	SR2           []byte              `json:"sR2"`
	SR3           []byte              `json:"sR3"`
	SSPrime       []byte              `json:"sSPrime"`
	Hidden        []hiddenResponse    `json:"hidden"`
	NonRevocation *nonRevocationProof `json:"nonRevocation,omitempty"`
	Predicates    []*predicateProof   `json:"predicates,omitempty"`
}

type aggregatedProof struct {
	C         []byte            `json:"c"`
	SSk       []byte            `json:"sSk"`
	SubProofs []credentialProof `json:"subProofs"`
}

// BuildProof proves all credentials in one aggregated proof bound to nonce. Each credential must
// open under the master secret and each witness must match its accumulator.
func (p *Primitives) BuildProof(in *api.ProofInput) ([]byte, error) {
	if len(in.Credentials) == 0 {
		return nil, errors.New("no credentials to prove")
	}

	if len(in.MasterSecret) == 0 {
		return nil, errors.New("empty master secret")
	}

	ms := curve.NewZrFromBytes(in.MasterSecret)

	for i := range in.Credentials {
		if err := p.checkCredential(&in.Credentials[i], ms); err != nil {
			return nil, errors.Wrapf(err, "credential %d", i)
		}
	}

	return buildProof(in)
}

func (p *Primitives) checkCredential(c *api.CredentialProof, ms *ml.Zr) error {
	key, err := parseIssuerKey(c.PublicKey)
	if err != nil {
		return err
	}

	sig, err := parseSignature(c.Signature)
	if err != nil {
		return err
	}

	if err = verifySignature(key, sig, messageScalars(ms, c.DefinitionID, c.RevocationHandle, c.Values)); err != nil {
		return err
	}

	if r := c.Revocation; r != nil {
		if r.Handle != c.RevocationHandle {
			return errors.Errorf("witness is for %s, credential is bound to %s", r.Handle, c.RevocationHandle)
		}

		if err = p.VerifyWitness(r.PublicKey, r.Accumulator, r.Witness, r.Handle); err != nil {
			return errors.Wrap(err, "non-revocation")
		}
	}

	return nil
}

// buildProof runs the prover without checking its inputs.
func buildProof(in *api.ProofInput) ([]byte, error) {
	ms := curve.NewZrFromBytes(in.MasterSecret)
	rSk := curve.NewRandomZr(rand.Reader)

	t := newTranscript(proofLabel)
	t.appendString(in.Nonce)
	t.appendInt(len(in.Credentials))

	provers := make([]*credentialProver, 0, len(in.Credentials))

	for i := range in.Credentials {
		cp, err := newCredentialProver(&in.Credentials[i], ms, rSk)
		if err != nil {
			return nil, errors.Wrapf(err, "credential %d", i)
		}

		cp.commit(t)
		provers = append(provers, cp)
	}

	c := t.challenge()
	agg := aggregatedProof{
		C:         c.Bytes(),
		SSk:       response(rSk, c, ms).Bytes(),
		SubProofs: make([]credentialProof, 0, len(provers)),
	}

	for _, cp := range provers {
		agg.SubProofs = append(agg.SubProofs, *cp.respond(c))
	}

	return json.Marshal(&agg)
}

type credentialProver struct {
	key      *issuerKey
	msgs     []*ml.Zr
	revealed []int
	hidden   []int
	r        map[int]*ml.Zr

	e, r2, r3, sPrime     *ml.Zr
	rE, rR2, rR3, rSPrime *ml.Zr
	aPrime, aBar, bPrime  *ml.G1

	nonRevocation *nonRevocationProver
	predicates    []*predicateProver
}

func newCredentialProver(c *api.CredentialProof, ms, rSk *ml.Zr) (*credentialProver, error) {
	key, err := parseIssuerKey(c.PublicKey)
	if err != nil {
		return nil, err
	}

	sig, err := parseSignature(c.Signature)
	if err != nil {
		return nil, err
	}

	cp := &credentialProver{
		key:  key,
		msgs: messageScalars(ms, c.DefinitionID, c.RevocationHandle, c.Values),
		r:    map[int]*ml.Zr{},
	}

	revealed := map[int]bool{definitionIndex: true}

	for _, name := range c.Revealed {
		idx, e := attributeIndex(c.Values, name)
		if e != nil {
			return nil, e
		}

		revealed[idx] = true
	}

	for i := range cp.msgs {
		if revealed[i] {
			cp.revealed = append(cp.revealed, i)

			continue
		}

		cp.hidden = append(cp.hidden, i)

		if i == masterSecretIndex {
			cp.r[i] = rSk
		} else {
			cp.r[i] = curve.NewRandomZr(rand.Reader)
		}
	}

	r := randomScalars(6) //nolint:gomnd
	r1 := r[0]
	cp.r2 = r[1]
	cp.rE, cp.rR2, cp.rR3, cp.rSPrime = r[2], r[3], r[4], r[5]
	cp.e = sig.e

	cp.r3 = r1.Copy()
	cp.r3.InvModP(curve.GroupOrder)

	cp.aPrime = sig.a.Mul(r1)

	cp.aBar = sig.b.Mul(r1)
	cp.aBar.Sub(cp.aPrime.Mul(sig.e))

	cp.bPrime = sig.b.Mul(r1)
	cp.bPrime.Sub(key.hRand.Mul(cp.r2))

	cp.sPrime = curve.ModSub(sig.s, curve.ModMul(cp.r2, cp.r3, curve.GroupOrder), curve.GroupOrder)

	if rev := c.Revocation; rev != nil {
		if cp.nonRevocation, err = newRevocationProver(rev, cp.msgs[handleIndex], cp.r[handleIndex]); err != nil {
			return nil, errors.Wrap(err, "non-revocation")
		}
	}

	for i := range c.Predicates {
		pred := &c.Predicates[i]

		idx, e := attributeIndex(c.Values, pred.Attribute)
		if e != nil {
			return nil, e
		}

		if revealed[idx] {
			continue
		}

		n, ok := integerValue(c.Values[idx-firstAttributeIndex].Value)
		if !ok {
			return nil, errors.Errorf("attribute %s is not an integer", pred.Attribute)
		}

		pp, e := newPredicateProver(pred, idx, n, cp.r[idx])
		if e != nil {
			return nil, e
		}

		cp.predicates = append(cp.predicates, pp)
	}

	return cp, nil
}

func newRevocationProver(rev *api.RevocationProof, y, rY *ml.Zr) (*nonRevocationProver, error) {
	key, err := parseAccumulatorKey(rev.PublicKey)
	if err != nil {
		return nil, err
	}

	acc, err := curve.NewG1FromBytes(rev.Accumulator)
	if err != nil {
		return nil, errors.Wrap(err, "parse accumulator")
	}

	w, err := curve.NewG1FromBytes(rev.Witness)
	if err != nil {
		return nil, errors.Wrap(err, "parse witness")
	}

	return newNonRevocationProver(key, acc, w, y, rY), nil
}

func (cp *credentialProver) commit(t *transcript) {
	appendRevealed(t, cp.key, cp.revealed, cp.msgs)

	t1 := cp.aPrime.Mul2(cp.rE, cp.key.hRand, cp.rR2)

	t2 := cp.key.hRand.Mul2(cp.rSPrime, cp.bPrime, cp.rR3)
	for _, i := range cp.hidden {
		t2.Add(cp.key.h(i).Mul(cp.r[i]))
	}

	t.appendG1(cp.aPrime, cp.aBar, cp.bPrime, t1, t2)

	if cp.nonRevocation != nil {
		cp.nonRevocation.commit(t)
	}

	for _, pp := range cp.predicates {
		pp.commit(t)
	}
}

func (cp *credentialProver) respond(c *ml.Zr) *credentialProof {
	proof := &credentialProof{
		APrime:  cp.aPrime.Bytes(),
		ABar:    cp.aBar.Bytes(),
		BPrime:  cp.bPrime.Bytes(),
		SE:      curve.ModSub(cp.rE, curve.ModMul(c, cp.e, curve.GroupOrder), curve.GroupOrder).Bytes(),
		SR2:     response(cp.rR2, c, cp.r2).Bytes(),
		SR3:     curve.ModSub(cp.rR3, curve.ModMul(c, cp.r3, curve.GroupOrder), curve.GroupOrder).Bytes(),
		SSPrime: response(cp.rSPrime, c, cp.sPrime).Bytes(),
	}

	for _, i := range cp.hidden {
		if i == masterSecretIndex {
			continue
		}

		proof.Hidden = append(proof.Hidden, hiddenResponse{Index: i, S: response(cp.r[i], c, cp.msgs[i]).Bytes()})
	}

	if cp.nonRevocation != nil {
		proof.NonRevocation = cp.nonRevocation.respond(c)
	}

	for _, pp := range cp.predicates {
		proof.Predicates = append(proof.Predicates, pp.respond(c))
	}

	return proof
}

// VerifyProof checks the aggregated proof against the disclosed values, the requested
// predicates and, for revocable credentials, the supplied accumulator.
func (p *Primitives) VerifyProof(proof []byte, nonce string, disclosed []*api.DisclosedCredential) error {
	var agg aggregatedProof
	if err := json.Unmarshal(proof, &agg); err != nil {
		return errors.Wrap(err, "parse aggregated proof")
	}

	if len(agg.SubProofs) != len(disclosed) {
		return errors.Errorf("proof covers %d credentials, %d presented", len(agg.SubProofs), len(disclosed))
	}

	if len(agg.C) == 0 || len(agg.SSk) == 0 {
		return errors.New("one of the proof values is undefined")
	}

	c := curve.NewZrFromBytes(agg.C)
	sSk := curve.NewZrFromBytes(agg.SSk)

	t := newTranscript(proofLabel)
	t.appendString(nonce)
	t.appendInt(len(disclosed))

	for i, d := range disclosed {
		if err := verifyCredential(t, &agg.SubProofs[i], d, c, sSk); err != nil {
			return errors.Wrapf(err, "credential %d", i)
		}
	}

	if !c.Equals(t.challenge()) {
		return errors.New("presentation proof is invalid")
	}

	return nil
}

//nolint:gocyclo,funlen
func verifyCredential(t *transcript, sp *credentialProof, d *api.DisclosedCredential, c, sSk *ml.Zr) error {
	key, err := parseIssuerKey(d.PublicKey)
	if err != nil {
		return err
	}

	values := make(map[int]string, len(d.Revealed))
	msgs := make([]*ml.Zr, firstAttributeIndex+len(d.Attributes))
	msgs[definitionIndex] = definitionScalar(d.DefinitionID)

	for _, a := range d.Revealed {
		idx := slices.Index(d.Attributes, a.Name)
		if idx < 0 {
			return errors.Errorf("attribute %s is not part of the credential", a.Name)
		}

		values[idx+firstAttributeIndex] = a.Value
		msgs[idx+firstAttributeIndex] = attributeScalar(a.Value)
	}

	var revealed, hidden []int

	for i, m := range msgs {
		if m != nil {
			revealed = append(revealed, i)
		} else if i != masterSecretIndex {
			hidden = append(hidden, i)
		}
	}

	s := make(map[int]*ml.Zr, len(sp.Hidden))
	for _, h := range sp.Hidden {
		s[h.Index] = curve.NewZrFromBytes(h.S)
	}

	if len(s) != len(hidden) {
		return errors.Errorf("proof hides %d messages, expected %d", len(s), len(hidden))
	}

	for _, i := range hidden {
		if _, ok := s[i]; !ok {
			return errors.Errorf("no response for message %d", i)
		}
	}

	if len(sp.SE) == 0 || len(sp.SR2) == 0 || len(sp.SR3) == 0 || len(sp.SSPrime) == 0 {
		return errors.New("one of the proof values is undefined")
	}

	aPrime, err := curve.NewG1FromBytes(sp.APrime)
	if err != nil {
		return errors.Wrap(err, "parse A'")
	}

	aBar, err := curve.NewG1FromBytes(sp.ABar)
	if err != nil {
		return errors.Wrap(err, "parse Abar")
	}

	bPrime, err := curve.NewG1FromBytes(sp.BPrime)
	if err != nil {
		return errors.Wrap(err, "parse B'")
	}

	if aPrime.IsInfinity() {
		return errors.New("A' is the point at infinity")
	}

	negABar := aBar.Copy()
	negABar.Neg()

	if !compareTwoPairings(aPrime, key.w, negABar, curve.GenG2) {
		return errors.New("randomized signature is invalid")
	}

	// t1 = sE*A' + sR2*HRand - c*(Abar - B')
	t1 := aPrime.Mul2(curve.NewZrFromBytes(sp.SE), key.hRand, curve.NewZrFromBytes(sp.SR2))
	diff := aBar.Copy()
	diff.Sub(bPrime)
	t1.Sub(diff.Mul(c))

	// t2 = sS'*HRand + sR3*B' + sum(s_i*H_i) + c*(G1 + sum(m_j*H_j))
	t2 := key.hRand.Mul2(curve.NewZrFromBytes(sp.SSPrime), bPrime, curve.NewZrFromBytes(sp.SR3))
	t2.Add(key.h(masterSecretIndex).Mul(sSk))

	for _, i := range hidden {
		t2.Add(key.h(i).Mul(s[i]))
	}

	disclosedPoint := curve.GenG1.Copy()
	for _, i := range revealed {
		disclosedPoint.Add(key.h(i).Mul(msgs[i]))
	}

	t2.Add(disclosedPoint.Mul(c))

	appendRevealed(t, key, revealed, msgs)
	t.appendG1(aPrime, aBar, bPrime, t1, t2)

	switch {
	case d.Revocation != nil && sp.NonRevocation == nil:
		return errors.New("missing non-revocation proof")
	case d.Revocation == nil && sp.NonRevocation != nil:
		return errors.New("unexpected non-revocation proof")
	case d.Revocation != nil:
		accKey, e := parseAccumulatorKey(d.Revocation.PublicKey)
		if e != nil {
			return e
		}

		acc, e := curve.NewG1FromBytes(d.Revocation.Accumulator)
		if e != nil {
			return errors.Wrap(e, "parse accumulator")
		}

		if e = verifyNonRevocation(t, accKey, acc, sp.NonRevocation, c, s[handleIndex]); e != nil {
			return e
		}
	}

	next := 0

	for i := range d.Predicates {
		pred := &d.Predicates[i]

		idx := slices.Index(d.Attributes, pred.Attribute)
		if idx < 0 {
			return errors.Errorf("predicate attribute %s is not part of the credential", pred.Attribute)
		}

		idx += firstAttributeIndex

		if v, ok := values[idx]; ok {
			n, isInt := integerValue(v)
			if !isInt {
				return errors.Errorf("attribute %s is not an integer", pred.Attribute)
			}

			if _, e := predicateDelta(pred, n); e != nil {
				return e
			}

			continue
		}

		if next >= len(sp.Predicates) {
			return errors.Errorf("missing predicate proof for %s", pred.Attribute)
		}

		if e := verifyPredicate(t, pred, idx, sp.Predicates[next], c, s[idx]); e != nil {
			return e
		}

		next++
	}

	if next != len(sp.Predicates) {
		return errors.Errorf("%d predicate proofs for %d hidden predicates", len(sp.Predicates), next)
	}

	return nil
}

func appendRevealed(t *transcript, key *issuerKey, revealed []int, msgs []*ml.Zr) {
	t.append(key.raw)
	t.appendInt(len(msgs))

	for _, i := range revealed {
		t.appendInt(i)
		t.append(msgs[i].Bytes())
	}
}

func attributeIndex(values []zkp.Attribute, name string) (int, error) {
	idx := slices.IndexFunc(values, func(a zkp.Attribute) bool { return a.Name == name })
	if idx < 0 {
		return 0, errors.Errorf("attribute %s is not part of the credential", name)
	}

	return firstAttributeIndex + idx, nil
}

// response returns r + c*x.
func response(r, c, x *ml.Zr) *ml.Zr {
	return curve.ModAdd(r, curve.ModMul(c, x, curve.GroupOrder), curve.GroupOrder)
}
