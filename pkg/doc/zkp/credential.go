/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"time"
)

const (
	// CredentialType is the type of issued anonymous credentials.
	CredentialType = "VerifiableCredential"
	// SignatureType names the signature scheme carried by CredentialSignature.
	SignatureType = "CLSignature2019"
	// W3CContext is the base JSON-LD context of credentials and presentations.
	W3CContext = "https://www.w3.org/2018/credentials/v1"
)

// CredentialSubject is the holder and its attribute values.
type CredentialSubject struct {
	ID   string            `json:"id"`
	Data map[string]string `json:"data"`
}

// SchemaReference points a credential at its schema.
type SchemaReference struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// CredentialSignature carries the finished blind signature and everything a holder needs to
// present it: the definition, the issuance nonce it was bound to and the revocation handle.
type CredentialSignature struct {
	Type                         string `json:"type"`
	CredentialDefinition         string `json:"credentialDefinition"`
	IssuanceNonce                string `json:"issuanceNonce"`
	Signature                    []byte `json:"signature"`
	SignatureCorrectnessProof    []byte `json:"signatureCorrectnessProof"`
	RevocationID                 uint32 `json:"revocationId"`
	RevocationRegistryDefinition string `json:"revocationRegistryDefinition,omitempty"`
}

// Credential is an issued anonymous credential.
type Credential struct {
	Context           []string            `json:"@context"`
	ID                string              `json:"id"`
	Type              []string            `json:"type"`
	Issuer            string              `json:"issuer"`
	IssuanceDate      time.Time           `json:"issuanceDate"`
	CredentialSubject CredentialSubject   `json:"credentialSubject"`
	CredentialSchema  SchemaReference     `json:"credentialSchema"`
	Signature         CredentialSignature `json:"signature"`
	Thread            string              `json:"thread,omitempty"`
}

// Revocable reports whether the credential was issued against a revocation registry.
func (c *Credential) Revocable() bool {
	return c.Signature.RevocationRegistryDefinition != ""
}

// RevocationHandle is the accumulator element the credential is bound to, empty when the
// credential is not revocable.
func (c *Credential) RevocationHandle() string {
	if !c.Revocable() {
		return ""
	}

	return RevocationHandle(c.Signature.RevocationRegistryDefinition, c.Signature.RevocationID)
}
