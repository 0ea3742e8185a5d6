/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/util/fingerprint"
)

const (
	// AssertionProofType is the type of JWS assertion proofs over published records.
	AssertionProofType = "JsonWebSignature2020"
	// AssertionMethodPurpose is the proof purpose of assertion proofs.
	AssertionMethodPurpose = "assertionMethod"
)

var (
	// ErrKeyNotFound is returned by KeyResolver implementations for unknown verification methods.
	ErrKeyNotFound = errors.New("verification method not found")
	// ErrNoSigningKey is returned for identities without an Ed25519 private key.
	ErrNoSigningKey = errors.New("identity has no signing key")
)

// AssertionProof is an author's JWS over a published record.
type AssertionProof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	JWS                string    `json:"jws"`
}

type assertionPayload struct {
	IssuedAt int64           `json:"iat"`
	Doc      json.RawMessage `json:"doc"`
	Issuer   string          `json:"iss"`
}

// Identity is the DID and signing key of an issuer.
type Identity struct {
	ID                 string
	VerificationMethod string
	PrivateKey         ed25519.PrivateKey
}

// NewDIDKeyIdentity returns the did:key identity of key.
func NewDIDKeyIdentity(key ed25519.PrivateKey) *Identity {
	pub, _ := key.Public().(ed25519.PublicKey) //nolint:errcheck
	did, vm := fingerprint.CreateDIDKey(pub)

	return &Identity{ID: did, VerificationMethod: vm, PrivateKey: key}
}

// Authorize checks that i may act for author. The identity must be author and hold a signing key
// under one of author's verification methods; with a resolver that method must resolve to the
// public half of the key.
func (i *Identity) Authorize(author string, resolver KeyResolver) error {
	if i == nil || i.ID == "" {
		return errors.New("issuer identity is required")
	}

	if i.ID != author {
		return fmt.Errorf("%s cannot act for %s", i.ID, author)
	}

	if len(i.PrivateKey) != ed25519.PrivateKeySize {
		return ErrNoSigningKey
	}

	if !strings.HasPrefix(i.VerificationMethod, author+"#") {
		return fmt.Errorf("verification method %q is not controlled by %s", i.VerificationMethod, author)
	}

	if resolver == nil {
		return nil
	}

	key, err := resolver.Resolve(i.VerificationMethod)
	if err != nil {
		return err
	}

	pub, ok := i.PrivateKey.Public().(ed25519.PublicKey)
	if !ok || !pub.Equal(key) {
		return fmt.Errorf("signing key does not match %s", i.VerificationMethod)
	}

	return nil
}

// Sign creates an assertion proof over doc.
func (i *Identity) Sign(doc interface{}, now time.Time) (*AssertionProof, error) {
	if i == nil || len(i.PrivateKey) != ed25519.PrivateKeySize {
		return nil, ErrNoSigningKey
	}

	raw, err := normalize(doc)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(assertionPayload{IssuedAt: now.Unix(), Doc: raw, Issuer: i.ID})
	if err != nil {
		return nil, fmt.Errorf("marshal assertion payload: %w", err)
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: i.PrivateKey},
		(&jose.SignerOptions{}).WithHeader("kid", i.VerificationMethod))
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	obj, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign assertion: %w", err)
	}

	jws, err := obj.CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("serialize assertion: %w", err)
	}

	return &AssertionProof{
		Type:               AssertionProofType,
		Created:            now.UTC(),
		ProofPurpose:       AssertionMethodPurpose,
		VerificationMethod: i.VerificationMethod,
		JWS:                jws,
	}, nil
}

// KeyResolver resolves verification methods to ed25519 public keys.
type KeyResolver interface {
	Resolve(verificationMethod string) (ed25519.PublicKey, error)
}

// StaticKeyResolver is an in-memory KeyResolver.
type StaticKeyResolver struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PublicKey
}

// NewStaticKeyResolver returns an empty StaticKeyResolver.
func NewStaticKeyResolver() *StaticKeyResolver {
	return &StaticKeyResolver{keys: map[string]ed25519.PublicKey{}}
}

// Add registers the public key of a verification method.
func (r *StaticKeyResolver) Add(verificationMethod string, key ed25519.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[verificationMethod] = key
}

// Resolve implements KeyResolver.
func (r *StaticKeyResolver) Resolve(verificationMethod string) (ed25519.PublicKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[verificationMethod]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, verificationMethod)
	}

	return k, nil
}

// DIDKeyResolver resolves verification methods of did:key DIDs from the DID itself.
type DIDKeyResolver struct{}

// Resolve implements KeyResolver.
func (DIDKeyResolver) Resolve(verificationMethod string) (ed25519.PublicKey, error) {
	did, _, _ := strings.Cut(verificationMethod, "#")
	if !strings.HasPrefix(did, "did:key:") {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, verificationMethod)
	}

	methodID, err := fingerprint.MethodIDFromDIDKey(did)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, verificationMethod)
	}

	raw, code, err := fingerprint.PubKeyFromFingerprint(methodID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", verificationMethod, err)
	}

	if code != fingerprint.ED25519PubKeyMultiCodec || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%s is not an Ed25519 key", verificationMethod)
	}

	return ed25519.PublicKey(raw), nil
}

// VerifyAssertion checks that proof is a valid JWS by author over unsigned.
func VerifyAssertion(proof *AssertionProof, unsigned interface{}, author string, resolver KeyResolver) error {
	if proof == nil {
		return errors.New("missing assertion proof")
	}

	key, err := resolver.Resolve(proof.VerificationMethod)
	if err != nil {
		return err
	}

	jws, err := jose.ParseSigned(proof.JWS)
	if err != nil {
		return fmt.Errorf("parse assertion: %w", err)
	}

	raw, err := jws.Verify(key)
	if err != nil {
		return fmt.Errorf("verify assertion: %w", err)
	}

	var payload assertionPayload
	if err = json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("unmarshal assertion payload: %w", err)
	}

	if payload.Issuer != author {
		return fmt.Errorf("assertion issued by %s, expected %s", payload.Issuer, author)
	}

	expected, err := normalize(unsigned)
	if err != nil {
		return err
	}

	signed, err := normalize(payload.Doc)
	if err != nil {
		return err
	}

	if !bytes.Equal(expected, signed) {
		return errors.New("assertion does not match document")
	}

	return nil
}

// normalize renders doc as JSON with sorted object keys.
func normalize(doc interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var generic interface{}
	if err = json.Unmarshal(b, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return json.Marshal(generic)
}
