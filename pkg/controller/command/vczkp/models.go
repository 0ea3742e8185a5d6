/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vczkp

import (
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
)

// IdentityOptions names the acting issuer. PrivateKey is a multibase encoded Ed25519 seed or key
// and is required: it signs the published records and proves the caller controls Identity.
type IdentityOptions struct {
	Identity           string `json:"identity"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
	PrivateKey         string `json:"privateKey"`
}

// CreateCredentialSchemaRequest is the model for vc_zkp_create_credential_schema.
type CreateCredentialSchemaRequest struct {
	IdentityOptions

	Name                 string            `json:"name"`
	Description          string            `json:"description,omitempty"`
	Properties           []string          `json:"properties"`
	Required             []string          `json:"required,omitempty"`
	Types                map[string]string `json:"types,omitempty"`
	AdditionalProperties bool              `json:"additionalProperties,omitempty"`
}

// CreateCredentialDefinitionRequest is the model for vc_zkp_create_credential_definition.
type CreateCredentialDefinitionRequest struct {
	IdentityOptions

	SchemaDID          string `json:"schemaDid"`
	SupportsRevocation bool   `json:"supportsRevocation,omitempty"`
}

// CreateCredentialProposalRequest is the model for vc_zkp_create_credential_proposal.
type CreateCredentialProposalRequest struct {
	Issuer  string `json:"issuer"`
	Subject string `json:"subject"`
	Schema  string `json:"schema"`
}

// CreateCredentialOfferRequest is the model for vc_zkp_create_credential_offer.
type CreateCredentialOfferRequest struct {
	IdentityOptions

	Proposal             *zkp.CredentialProposal `json:"proposal"`
	CredentialDefinition string                  `json:"credentialDefinition"`
}

// RequestCredentialRequest is the model for vc_zkp_request_credential.
type RequestCredentialRequest struct {
	CredentialOffering *zkp.CredentialOffer `json:"credentialOffering"`
	MasterSecret       []byte               `json:"masterSecret"`
	CredentialValues   map[string]string    `json:"credentialValues"`
}

// RequestCredentialResponse is the result of vc_zkp_request_credential.
type RequestCredentialResponse struct {
	Request         *zkp.CredentialRequest                `json:"request"`
	BlindingFactors *zkp.CredentialSecretsBlindingFactors `json:"blindingFactors"`
}

// CreateRevocationRegistryDefinitionRequest is the model for
// vc_zkp_create_revocation_registry_definition.
type CreateRevocationRegistryDefinitionRequest struct {
	IdentityOptions

	CredentialDefinition   string `json:"credentialDefinition"`
	MaximumCredentialCount uint32 `json:"maximumCredentialCount"`
}

// UpdateRevocationRegistryRequest is the model for vc_zkp_update_revocation_registry.
type UpdateRevocationRegistryRequest struct {
	IdentityOptions

	RevocationRegistryDefinition string   `json:"revocationRegistryDefinition"`
	RevokedIDs                   []uint32 `json:"revokedIds"`
}

// RevokeCredentialRequest is the model for vc_zkp_revoke_credential.
type RevokeCredentialRequest struct {
	IdentityOptions

	RevocationRegistryDefinition string `json:"revocationRegistryDefinition"`
	CredentialRevocationID       uint32 `json:"credentialRevocationId"`
}

// IssueCredentialRequest is the model for vc_zkp_issue_credential. Values override the values of
// the credential request when set.
type IssueCredentialRequest struct {
	IdentityOptions

	CredentialRequest *zkp.CredentialRequest `json:"credentialRequest"`
	CredentialValues  map[string]string      `json:"credentialValues,omitempty"`
}

// FinishCredentialRequest is the model for vc_zkp_finish_credential.
type FinishCredentialRequest struct {
	Credential      *zkp.Credential                       `json:"credential"`
	MasterSecret    []byte                                `json:"masterSecret"`
	BlindingFactors *zkp.CredentialSecretsBlindingFactors `json:"blindingFactors"`
}

// RequestProofRequest is the model for vc_zkp_request_proof.
type RequestProofRequest struct {
	VerifierDID      string                `json:"verifierDid"`
	ProverDID        string                `json:"proverDid"`
	SubProofRequests []zkp.SubProofRequest `json:"subProofRequests"`
}

// PresentProofRequest is the model for vc_zkp_present_proof.
type PresentProofRequest struct {
	ProofRequest *zkp.ProofRequest `json:"proofRequest"`
	// credentials by schema ID
	Credentials map[string]*zkp.Credential `json:"credentials"`
	// witnesses by credential ID
	RevocationStates map[string]*zkp.RevocationState `json:"revocationStates,omitempty"`
	MasterSecret     []byte                          `json:"masterSecret"`
	// registry states the witnesses were built against, by registry ID
	RevocationRegistries map[string]*zkp.RevocationRegistryDefinition `json:"revocationRegistries,omitempty"`
}

// VerifyProofRequest is the model for vc_zkp_verify_proof.
type VerifyProofRequest struct {
	PresentedProof *zkp.ProofPresentation `json:"presentedProof"`
	ProofRequest   *zkp.ProofRequest      `json:"proofRequest"`
}

// CreateMasterSecretResponse is the result of create_master_secret.
type CreateMasterSecretResponse struct {
	MasterSecret []byte `json:"masterSecret"`
}

// UpdateRevocationStateRequest is the model for update_revocation_state. Without deltas the
// missing deltas are fetched from the ledger.
type UpdateRevocationStateRequest struct {
	RevocationState *zkp.RevocationState           `json:"revocationState"`
	Deltas          []*zkp.RevocationRegistryDelta `json:"deltas,omitempty"`
}

// GetRevocationDeltasRequest is the model for get_revocation_deltas.
type GetRevocationDeltasRequest struct {
	RevocationRegistryDefinition string `json:"revocationRegistryDefinition"`
	AfterSequence                uint64 `json:"afterSequence"`
}

// GetRevocationDeltasResponse is the result of get_revocation_deltas.
type GetRevocationDeltasResponse struct {
	Deltas []*zkp.RevocationRegistryDelta `json:"deltas"`
}
