/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zkpbbs implements the anonymous credential primitives on BLS12-381: blind BBS+
// signatures in which the holder's master secret is a hidden message, zero-knowledge
// presentation proofs with range predicates, and a pairing based accumulator for revocation
// whose membership is proven without revealing the element.
//
// Every signed message is a scalar. Message layout of a credential signature:
//
//	0      master secret (never revealed)
//	1      hash of the credential definition ID (always revealed)
//	2      revocation handle, the accumulator element (never revealed)
//	3...   schema attributes in canonical order
//
// Attribute values in canonical decimal integer form are signed as the integer itself so range
// predicates can be proven over them; every other value is hashed.
package zkpbbs

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"strconv"

	ml "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

const (
	// SignatureType is the scheme name reported by Primitives.
	SignatureType = "BbsBlsSignature2020"

	keyCorrectnessLabel       = "vade-evan-cl/key-correctness"
	signatureCorrectnessLabel = "vade-evan-cl/signature-correctness"
	messageGeneratorLabel     = "vade-evan-cl/message-generator"
	randomnessGeneratorLabel  = "vade-evan-cl/randomness-generator"
	definitionPrefix          = "definition:"
	attributePrefix           = "attribute:"

	masterSecretIndex   = 0
	definitionIndex     = 1
	handleIndex         = 2
	firstAttributeIndex = 3
)

// Primitives is the BBS+ backed api.Primitives.
type Primitives struct{}

// New returns the BBS+ primitives.
func New() *Primitives {
	return &Primitives{}
}

// SignatureType implements api.Primitives.
func (p *Primitives) SignatureType() string {
	return SignatureType
}

// issuerKey is a parsed issuer public key W = isk*G2. All G1 generators are derived from W by
// hashing, so nobody knows a discrete log relation between them.
type issuerKey struct {
	raw   []byte
	w     *ml.G2
	hRand *ml.G1
}

func parseIssuerKey(publicKey []byte) (*issuerKey, error) {
	w, err := curve.NewG2FromBytes(publicKey)
	if err != nil {
		return nil, errors.Wrap(err, "parse public key")
	}

	return &issuerKey{
		raw:   publicKey,
		w:     w,
		hRand: curve.HashToG1(append([]byte(randomnessGeneratorLabel), publicKey...)),
	}, nil
}

// h returns the generator of message i.
func (k *issuerKey) h(i int) *ml.G1 {
	data := make([]byte, 0, len(messageGeneratorLabel)+len(k.raw)+4)
	data = append(data, messageGeneratorLabel...)
	data = append(data, k.raw...)
	data = binary.BigEndian.AppendUint32(data, uint32(i))

	return curve.HashToG1(data)
}

type keyCorrectnessProof struct {
	C []byte `json:"c"`
	S []byte `json:"s"`
}

// NewCredentialKeys generates an issuer key pair. The correctness proof is a proof of knowledge
// of the secret key.
func (p *Primitives) NewCredentialKeys() (*api.CredentialKeys, error) {
	isk := curve.NewRandomZr(rand.Reader)
	w := curve.GenG2.Mul(isk)

	r := curve.NewRandomZr(rand.Reader)
	t := curve.GenG2.Mul(r)
	c := keyCorrectnessChallenge(t, w)

	proof, err := json.Marshal(&keyCorrectnessProof{
		C: c.Bytes(),
		S: curve.ModAdd(r, curve.ModMul(c, isk, curve.GroupOrder), curve.GroupOrder).Bytes(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal key correctness proof")
	}

	return &api.CredentialKeys{PublicKey: w.Bytes(), PrivateKey: isk.Bytes(), CorrectnessProof: proof}, nil
}

// VerifyCredentialKeys checks the key correctness proof.
func (p *Primitives) VerifyCredentialKeys(publicKey, correctnessProof []byte) error {
	w, err := curve.NewG2FromBytes(publicKey)
	if err != nil {
		return errors.Wrap(err, "parse public key")
	}

	var proof keyCorrectnessProof
	if err = json.Unmarshal(correctnessProof, &proof); err != nil {
		return errors.Wrap(err, "parse key correctness proof")
	}

	if len(proof.C) == 0 || len(proof.S) == 0 {
		return errors.New("one of the proof values is undefined")
	}

	c := curve.NewZrFromBytes(proof.C)

	// t = s*G2 - c*W
	t := curve.GenG2.Mul(curve.NewZrFromBytes(proof.S))
	t.Sub(w.Mul(c))

	if !c.Equals(keyCorrectnessChallenge(t, w)) {
		return errors.New("invalid key correctness proof")
	}

	return nil
}

func keyCorrectnessChallenge(t, w *ml.G2) *ml.Zr {
	tr := newTranscript(keyCorrectnessLabel)
	tr.append(curve.GenG2.Bytes(), t.Bytes(), w.Bytes())

	return tr.challenge()
}

// NewMasterSecret returns a fresh random scalar.
func (p *Primitives) NewMasterSecret() ([]byte, error) {
	return curve.NewRandomZr(rand.Reader).Bytes(), nil
}

// credentialSignature is a BBS+ signature (A, B, e, s) with A = B/(e+isk). The issued form carries
// the issuer's part of s; FinishCredential adds the holder's blinding factor.
type credentialSignature struct {
	A []byte `json:"a"`
	B []byte `json:"b"`
	E []byte `json:"e"`
	S []byte `json:"s"`
}

type parsedSignature struct {
	a, b *ml.G1
	e, s *ml.Zr
}

func parseSignature(raw []byte) (*parsedSignature, error) {
	var sig credentialSignature
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, errors.Wrap(err, "parse signature")
	}

	if len(sig.E) == 0 || len(sig.S) == 0 {
		return nil, errors.New("one of the signature values is undefined")
	}

	a, err := curve.NewG1FromBytes(sig.A)
	if err != nil {
		return nil, errors.Wrap(err, "parse signature point A")
	}

	b, err := curve.NewG1FromBytes(sig.B)
	if err != nil {
		return nil, errors.Wrap(err, "parse signature point B")
	}

	return &parsedSignature{a: a, b: b, e: curve.NewZrFromBytes(sig.E), s: curve.NewZrFromBytes(sig.S)}, nil
}

type signatureCorrectnessProof struct {
	C []byte `json:"c"`
	S []byte `json:"s"`
}

// SignCredential places a BBS+ signature on the blinded master secret together with the
// definition, the revocation handle and the attribute values. The correctness proof shows that A
// was computed with the secret key behind the public key, bound to the issuance nonce.
func (p *Primitives) SignCredential(req *api.SignRequest) (*api.IssuedSignature, error) {
	nym, err := curve.NewG1FromBytes(req.Blinded)
	if err != nil {
		return nil, errors.Wrap(err, "parse blinded secret")
	}

	key, err := parseIssuerKey(req.PublicKey)
	if err != nil {
		return nil, err
	}

	isk := curve.NewZrFromBytes(req.PrivateKey)
	if !curve.GenG2.Mul(isk).Equals(key.w) {
		return nil, errors.New("private key does not match public key")
	}

	e := curve.NewRandomZr(rand.Reader)
	s := curve.NewRandomZr(rand.Reader)

	msgs := messageScalars(nil, req.DefinitionID, req.RevocationHandle, req.Values)

	b := curve.GenG1.Copy()
	b.Add(nym)
	b.Add(key.hRand.Mul(s))

	for i := definitionIndex; i < len(msgs); i++ {
		b.Add(key.h(i).Mul(msgs[i]))
	}

	exp := curve.ModAdd(isk, e, curve.GroupOrder)
	exp.InvModP(curve.GroupOrder)
	a := b.Mul(exp)

	// DLEQ of isk: W = isk*G2 and B - e*A = isk*A.
	r := curve.NewRandomZr(rand.Reader)
	c := signatureCorrectnessChallenge(curve.GenG2.Mul(r), a.Mul(r), a, b, key, req.Nonce)

	proof, err := json.Marshal(&signatureCorrectnessProof{
		C: c.Bytes(),
		S: curve.ModAdd(r, curve.ModMul(c, isk, curve.GroupOrder), curve.GroupOrder).Bytes(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal signature correctness proof")
	}

	sig, err := json.Marshal(&credentialSignature{A: a.Bytes(), B: b.Bytes(), E: e.Bytes(), S: s.Bytes()})
	if err != nil {
		return nil, errors.Wrap(err, "marshal signature")
	}

	return &api.IssuedSignature{Signature: sig, CorrectnessProof: proof}, nil
}

func signatureCorrectnessChallenge(t1 *ml.G2, t2, a, b *ml.G1, key *issuerKey, nonce string) *ml.Zr {
	tr := newTranscript(signatureCorrectnessLabel)
	tr.append(t1.Bytes(), t2.Bytes(), a.Bytes(), b.Bytes(), key.raw)
	tr.appendString(nonce)

	return tr.challenge()
}

// FinishCredential checks the issuer's signature and correctness proof and adds the holder's
// blinding factor. The result only verifies together with the master secret.
func (p *Primitives) FinishCredential(req *api.FinishRequest) ([]byte, error) {
	key, err := parseIssuerKey(req.PublicKey)
	if err != nil {
		return nil, err
	}

	sig, err := parseSignature(req.Signature)
	if err != nil {
		return nil, err
	}

	var proof signatureCorrectnessProof
	if err = json.Unmarshal(req.CorrectnessProof, &proof); err != nil {
		return nil, errors.Wrap(err, "parse signature correctness proof")
	}

	if len(proof.C) == 0 || len(proof.S) == 0 {
		return nil, errors.New("one of the proof values is undefined")
	}

	c := curve.NewZrFromBytes(proof.C)
	z := curve.NewZrFromBytes(proof.S)

	// t1 = z*G2 - c*W, t2 = z*A - c*(B - e*A)
	t1 := curve.GenG2.Mul(z)
	t1.Sub(key.w.Mul(c))

	ba := sig.b.Copy()
	ba.Sub(sig.a.Mul(sig.e))

	t2 := sig.a.Mul(z)
	t2.Sub(ba.Mul(c))

	if !c.Equals(signatureCorrectnessChallenge(t1, t2, sig.a, sig.b, key, req.Nonce)) {
		return nil, errors.New("invalid signature correctness proof")
	}

	sig.s = curve.ModAdd(sig.s, curve.NewZrFromBytes(req.BlindingFactors), curve.GroupOrder)

	msgs := messageScalars(curve.NewZrFromBytes(req.MasterSecret), req.DefinitionID, req.RevocationHandle, req.Values)
	if err = verifySignature(key, sig, msgs); err != nil {
		return nil, err
	}

	return json.Marshal(&credentialSignature{A: sig.a.Bytes(), B: sig.b.Bytes(), E: sig.e.Bytes(), S: sig.s.Bytes()})
}

// verifySignature checks that B opens to msgs and that e(A, W + e*G2) = e(B, G2).
func verifySignature(key *issuerKey, sig *parsedSignature, msgs []*ml.Zr) error {
	if !sig.b.Equals(signedPoint(key, sig.s, msgs)) {
		return errors.New("signature does not match the credential values")
	}

	q := curve.GenG2.Mul(sig.e)
	q.Add(key.w)

	negB := sig.b.Copy()
	negB.Neg()

	if !compareTwoPairings(sig.a, q, negB, curve.GenG2) {
		return errors.New("invalid credential signature")
	}

	return nil
}

// signedPoint returns G1 + s*HRand + sum(m_i*H_i).
func signedPoint(key *issuerKey, s *ml.Zr, msgs []*ml.Zr) *ml.G1 {
	b := curve.GenG1.Copy()
	b.Add(key.hRand.Mul(s))

	for i, m := range msgs {
		b.Add(key.h(i).Mul(m))
	}

	return b
}

// messageScalars returns the signed messages. A nil master secret leaves slot 0 empty for the
// issuer, who only sees it blinded.
func messageScalars(ms *ml.Zr, definitionID, handle string, values []zkp.Attribute) []*ml.Zr {
	msgs := make([]*ml.Zr, 0, firstAttributeIndex+len(values))
	msgs = append(msgs, ms, definitionScalar(definitionID), handleScalar(handle))

	for _, v := range values {
		msgs = append(msgs, attributeScalar(v.Value))
	}

	return msgs
}

func definitionScalar(id string) *ml.Zr {
	return curve.HashToZr([]byte(definitionPrefix + id))
}

func attributeScalar(value string) *ml.Zr {
	if n, ok := integerValue(value); ok {
		return intScalar(n)
	}

	return curve.HashToZr([]byte(attributePrefix + value))
}

// integerValue parses value when it is a canonical decimal integer.
func integerValue(value string) (int64, bool) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != value {
		return 0, false
	}

	return n, true
}

func intScalar(n int64) *ml.Zr {
	return curve.ModAdd(curve.NewZrFromInt(n), curve.NewZrFromInt(0), curve.GroupOrder)
}

// compareTwoPairings reports whether e(p1, q1) * e(p2, q2) is the identity.
func compareTwoPairings(p1 *ml.G1, q1 *ml.G2, p2 *ml.G1, q2 *ml.G2) bool {
	p := curve.Pairing2(q1, p1, q2, p2)
	p = curve.FExp(p)

	return p.IsUnity()
}

// pairing returns the final exponentiated e(g1, g2).
func pairing(g1 *ml.G1, g2 *ml.G2) *ml.Gt {
	return curve.FExp(curve.Pairing(g2, g1))
}

func randomScalars(n int) []*ml.Zr {
	r := make([]*ml.Zr, n)
	for i := range r {
		r[i] = curve.NewRandomZr(rand.Reader)
	}

	return r
}
