/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"time"
)

// CredentialDefinitionType is the type of published credential definitions.
const CredentialDefinitionType = "EvanZKPCredentialDefinition"

// CredentialDefinition binds issuer public key material to a schema.
type CredentialDefinition struct {
	ID                        string          `json:"id"`
	Type                      string          `json:"type"`
	Issuer                    string          `json:"issuer"`
	Schema                    string          `json:"schema"`
	CreatedAt                 time.Time       `json:"createdAt"`
	SupportsRevocation        bool            `json:"supportsRevocation"`
	PublicKey                 string          `json:"publicKey"`
	PublicKeyCorrectnessProof string          `json:"publicKeyCorrectnessProof"`
	Proof                     *AssertionProof `json:"proof,omitempty"`
}

// PublicKeyBytes decodes the multibase encoded public key.
func (d *CredentialDefinition) PublicKeyBytes() ([]byte, error) {
	return DecodeMultibase(d.PublicKey)
}

// CorrectnessProofBytes decodes the multibase encoded key correctness proof.
func (d *CredentialDefinition) CorrectnessProofBytes() ([]byte, error) {
	return DecodeMultibase(d.PublicKeyCorrectnessProof)
}

// Unsigned returns a copy of the definition without its assertion proof.
func (d *CredentialDefinition) Unsigned() *CredentialDefinition {
	c := *d
	c.Proof = nil

	return &c
}
