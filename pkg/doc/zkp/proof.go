/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"fmt"
	"time"
)

const (
	// ProofRequestType is the type of proof requests.
	ProofRequestType = "EvanZKPProofRequest"
	// PresentationType is the type of proof presentations.
	PresentationType = "VerifiablePresentation"
	// AggregatedProofType names the proof scheme of presentations.
	AggregatedProofType = "CLSignature2019"
	// VerificationStatusVerified marks an accepted presentation.
	VerificationStatusVerified = "verified"
	// VerificationStatusRejected marks a refused presentation.
	VerificationStatusRejected = "rejected"
)

// Predicate types.
const (
	PredicateGE = ">="
	PredicateGT = ">"
	PredicateLE = "<="
	PredicateLT = "<"
)

// Predicate constrains a numeric attribute.
type Predicate struct {
	Attribute string `json:"attributeName"`
	Type      string `json:"pType"`
	Value     int64  `json:"value"`
}

// Validate checks the predicate type is one of the supported comparisons.
func (p *Predicate) Validate() error {
	switch p.Type {
	case PredicateGE, PredicateGT, PredicateLE, PredicateLT:
	default:
		return fmt.Errorf("unsupported predicate type %q", p.Type)
	}

	if p.Attribute == "" {
		return fmt.Errorf("predicate without attribute")
	}

	return nil
}

// SubProofRequest asks for one credential of Schema.
type SubProofRequest struct {
	Schema             string      `json:"schema"`
	RevealedAttributes []string    `json:"revealedAttributes"`
	Predicates         []Predicate `json:"predicates,omitempty"`
}

// ProofRequest is issued by a verifier. Its Nonce identifies the exchange.
type ProofRequest struct {
	Type             string            `json:"type"`
	Verifier         string            `json:"verifier"`
	Prover           string            `json:"prover"`
	CreatedAt        time.Time         `json:"createdAt"`
	Nonce            string            `json:"nonce"`
	SubProofRequests []SubProofRequest `json:"subProofRequests"`
}

// PresentedCredentialProof links a presented credential to its public material. The credential's
// revocation index stays hidden; only the registry is named.
type PresentedCredentialProof struct {
	Type                         string `json:"type"`
	CredentialDefinition         string `json:"credentialDefinition"`
	RevocationRegistryDefinition string `json:"revocationRegistryDefinition,omitempty"`
}

// PresentedCredential is the disclosed part of one credential.
type PresentedCredential struct {
	Context           []string                 `json:"@context"`
	Type              []string                 `json:"type"`
	Issuer            string                   `json:"issuer"`
	CredentialSubject CredentialSubject        `json:"credentialSubject"`
	CredentialSchema  SchemaReference          `json:"credentialSchema"`
	Proof             PresentedCredentialProof `json:"proof"`
}

// AggregatedProof is the presentation level proof over all presented credentials.
type AggregatedProof struct {
	Type            string    `json:"type"`
	Created         time.Time `json:"created"`
	Nonce           string    `json:"nonce"`
	AggregatedProof []byte    `json:"aggregatedProof"`
}

// ProofPresentation answers a ProofRequest.
type ProofPresentation struct {
	Context              []string               `json:"@context"`
	ID                   string                 `json:"id"`
	Type                 []string               `json:"type"`
	VerifiableCredential []*PresentedCredential `json:"verifiableCredential"`
	Proof                AggregatedProof        `json:"proof"`
}

// ProofVerification is the verifier's verdict.
type ProofVerification struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
