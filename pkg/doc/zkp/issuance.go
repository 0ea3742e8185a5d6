/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"time"
)

const (
	// ProposalType is the type of credential proposals.
	ProposalType = "EvanZKPCredentialProposal"
	// OfferType is the type of credential offers.
	OfferType = "EvanZKPCredentialOffering"
	// RequestType is the type of credential requests.
	RequestType = "EvanZKPCredentialRequest"
)

// CredentialProposal starts an issuance from the holder side. Its ID doubles as the thread ID of
// the whole handshake.
type CredentialProposal struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Issuer    string    `json:"issuer"`
	Subject   string    `json:"subject"`
	Schema    string    `json:"schema"`
	CreatedAt time.Time `json:"createdAt"`
}

// CredentialOffer names the definition the issuer will sign with and the issuance nonce.
type CredentialOffer struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	Issuer               string    `json:"issuer"`
	Subject              string    `json:"subject"`
	Schema               string    `json:"schema"`
	CredentialDefinition string    `json:"credentialDefinition"`
	Nonce                string    `json:"nonce"`
	CreatedAt            time.Time `json:"createdAt"`
}

// CredentialRequest carries the holder's blinded master secret and the requested values.
type CredentialRequest struct {
	ID                                       string            `json:"id"`
	Type                                     string            `json:"type"`
	Subject                                  string            `json:"subject"`
	Schema                                   string            `json:"schema"`
	CredentialDefinition                     string            `json:"credentialDefinition"`
	BlindedCredentialSecrets                 []byte            `json:"blindedCredentialSecrets"`
	BlindedCredentialSecretsCorrectnessProof []byte            `json:"blindedCredentialSecretsCorrectnessProof"`
	CredentialNonce                          string            `json:"credentialNonce"`
	CredentialValues                         map[string]string `json:"credentialValues"`
}

// CredentialSecretsBlindingFactors stays with the holder and is needed to finish the credential.
type CredentialSecretsBlindingFactors struct {
	Thread          string `json:"thread"`
	BlindingFactors []byte `json:"blindingFactors"`
}

// IssueCredentialResult is everything the issuer hands back for one issuance.
type IssueCredentialResult struct {
	Credential      *Credential              `json:"credential"`
	RevocationInfo  *RevocationIDInformation `json:"revocationInfo,omitempty"`
	RevocationState *RevocationState         `json:"revocationState,omitempty"`
}
