/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
)

// CredentialKeys is a fresh issuer key pair with its proof of correct generation.
type CredentialKeys struct {
	PublicKey        []byte
	PrivateKey       []byte
	CorrectnessProof []byte
}

// BlindedSecret is a holder's committed master secret. BlindingFactors never leave the holder.
type BlindedSecret struct {
	Blinded          []byte
	BlindingFactors  []byte
	CorrectnessProof []byte
}

// SignRequest is the issuer side input of a blind signature.
type SignRequest struct {
	PublicKey        []byte
	PrivateKey       []byte
	Blinded          []byte
	DefinitionID     string
	RevocationHandle string
	Values           []zkp.Attribute
	Nonce            string
}

// IssuedSignature is the issuer's blind signature and its correctness proof.
type IssuedSignature struct {
	Signature        []byte
	CorrectnessProof []byte
}

// FinishRequest is the holder side input that turns an issued signature into a credential
// signature.
type FinishRequest struct {
	PublicKey        []byte
	Signature        []byte
	CorrectnessProof []byte
	MasterSecret     []byte
	BlindingFactors  []byte
	DefinitionID     string
	RevocationHandle string
	Values           []zkp.Attribute
	Nonce            string
}

// AccumulatorKeys is a fresh revocation accumulator.
type AccumulatorKeys struct {
	PublicKey   []byte
	PrivateKey  []byte
	Accumulator []byte
}

// AccumulatorUpdate is the result of adding or removing one handle. Update is the opaque record
// holders fold into their witnesses. Witness is only set on additions.
type AccumulatorUpdate struct {
	Accumulator []byte
	Update      []byte
	Witness     []byte
}

// RevocationProof is the holder's non-revocation input for one credential.
type RevocationProof struct {
	PublicKey   []byte
	Handle      string
	Witness     []byte
	Accumulator []byte
}

// CredentialProof is the holder's input for one presented credential. Predicates are proven over
// the hidden attribute values.
type CredentialProof struct {
	PublicKey        []byte
	Signature        []byte
	DefinitionID     string
	RevocationHandle string
	Values           []zkp.Attribute
	Revealed         []string
	Predicates       []zkp.Predicate
	Revocation       *RevocationProof
}

// ProofInput is everything a holder needs to build a presentation proof.
type ProofInput struct {
	Credentials  []CredentialProof
	MasterSecret []byte
	Nonce        string
}

// RevocationCheck is the verifier's view of a registry.
type RevocationCheck struct {
	PublicKey   []byte
	Accumulator []byte
}

// DisclosedCredential is the verifier's input for one presented credential. Attributes lists every
// attribute name of the credential in canonical order; the revocation handle is never disclosed.
type DisclosedCredential struct {
	PublicKey    []byte
	DefinitionID string
	Attributes   []string
	Revealed     []zkp.Attribute
	Predicates   []zkp.Predicate
	Revocation   *RevocationCheck
}

// Primitives is the cryptographic backend. All values are opaque byte strings owned by the
// backend; the protocol layer stores and forwards them.
type Primitives interface {
	SignatureType() string

	NewCredentialKeys() (*CredentialKeys, error)
	VerifyCredentialKeys(publicKey, correctnessProof []byte) error

	NewMasterSecret() ([]byte, error)
	BlindMasterSecret(publicKey, masterSecret []byte, nonce string) (*BlindedSecret, error)
	VerifyBlindedSecret(publicKey, blinded, correctnessProof []byte, nonce string) error

	SignCredential(req *SignRequest) (*IssuedSignature, error)
	FinishCredential(req *FinishRequest) ([]byte, error)

	NewAccumulator(capacity uint32) (*AccumulatorKeys, error)
	AccumulatorAdd(privateKey, accumulator []byte, handle string) (*AccumulatorUpdate, error)
	AccumulatorRemove(privateKey, accumulator []byte, handle string) (*AccumulatorUpdate, error)
	UpdateWitness(witness []byte, handle string, updates [][]byte) ([]byte, error)
	VerifyWitness(publicKey, accumulator, witness []byte, handle string) error

	BuildProof(in *ProofInput) ([]byte, error)
	VerifyProof(proof []byte, nonce string, disclosed []*DisclosedCredential) error
}
