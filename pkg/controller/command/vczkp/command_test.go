/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vczkp

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	vczkpsvc "github.com/evannetwork/vade-evan-cl/pkg/vczkp"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

const (
	issuerDID   = "did:evan:testcore:issuer"
	holderDID   = "did:evan:testcore:holder"
	verifierDID = "did:evan:testcore:verifier"
)

func newCommand(t *testing.T) (*Command, IdentityOptions) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	resolver := zkp.NewStaticKeyResolver()
	resolver.Add(issuerDID+"#key-1", pub)

	svc, err := vczkpsvc.New(vczkpsvc.WithKeyResolver(resolver))
	require.NoError(t, err)

	seed, err := zkp.EncodeMultibase(priv.Seed())
	require.NoError(t, err)

	return New(svc), IdentityOptions{Identity: issuerDID, PrivateKey: seed}
}

func execute(t *testing.T, exec command.Exec, request, response interface{}) command.Error {
	t.Helper()

	reqBytes, err := json.Marshal(request)
	require.NoError(t, err)

	var rw bytes.Buffer

	cmdErr := exec(&rw, bytes.NewReader(reqBytes))
	if cmdErr != nil {
		return cmdErr
	}

	if response != nil {
		require.NoError(t, json.NewDecoder(&rw).Decode(response))
	}

	return nil
}

func TestNew(t *testing.T) {
	cmd, _ := newCommand(t)

	handlers := cmd.GetHandlers()
	require.Len(t, handlers, 13)

	methods := map[string]bool{}
	for _, h := range handlers {
		require.Equal(t, CommandName, h.Name())
		require.True(t, strings.HasPrefix(h.Method(), "vc_zkp_"))
		methods[h.Method()] = true
	}

	require.Len(t, methods, 13)
	require.Len(t, cmd.GetCustomHandlers(), 4)
}

type flow struct {
	schema   zkp.CredentialSchema
	def      zkp.CredentialDefinition
	reg      zkp.RevocationRegistryDefinition
	ms       []byte
	issued   zkp.IssueCredentialResult
	finished zkp.Credential
}

func issueFlow(t *testing.T, cmd *Command, issuer IdentityOptions) *flow {
	t.Helper()

	f := &flow{}

	require.NoError(t, execute(t, cmd.CreateCredentialSchema, &CreateCredentialSchemaRequest{
		IdentityOptions: issuer,
		Name:            "person",
		Properties:      []string{"age", "country"},
		Required:        []string{"age", "country"},
		Types:           map[string]string{"age": "number"},
	}, &f.schema))
	require.NotNil(t, f.schema.Proof)

	require.NoError(t, execute(t, cmd.CreateCredentialDefinition, &CreateCredentialDefinitionRequest{
		IdentityOptions:    issuer,
		SchemaDID:          f.schema.ID,
		SupportsRevocation: true,
	}, &f.def))

	require.NoError(t, execute(t, cmd.CreateRevocationRegistryDefinition, &CreateRevocationRegistryDefinitionRequest{
		IdentityOptions:        issuer,
		CredentialDefinition:   f.def.ID,
		MaximumCredentialCount: 2,
	}, &f.reg))

	var proposal zkp.CredentialProposal
	require.NoError(t, execute(t, cmd.CreateCredentialProposal, &CreateCredentialProposalRequest{
		Issuer: issuerDID, Subject: holderDID, Schema: f.schema.ID,
	}, &proposal))

	var offer zkp.CredentialOffer
	require.NoError(t, execute(t, cmd.CreateCredentialOffer, &CreateCredentialOfferRequest{
		IdentityOptions:      issuer,
		Proposal:             &proposal,
		CredentialDefinition: f.def.ID,
	}, &offer))

	var ms CreateMasterSecretResponse
	require.NoError(t, execute(t, cmd.CreateMasterSecret, struct{}{}, &ms))
	require.NotEmpty(t, ms.MasterSecret)
	f.ms = ms.MasterSecret

	var requested RequestCredentialResponse
	require.NoError(t, execute(t, cmd.RequestCredential, &RequestCredentialRequest{
		CredentialOffering: &offer,
		MasterSecret:       f.ms,
		CredentialValues:   map[string]string{"age": "30", "country": "DE"},
	}, &requested))

	require.NoError(t, execute(t, cmd.IssueCredential, &IssueCredentialRequest{
		IdentityOptions:   issuer,
		CredentialRequest: requested.Request,
	}, &f.issued))
	require.NotNil(t, f.issued.RevocationState)
	require.EqualValues(t, 1, f.issued.RevocationInfo.NextUnusedID)

	require.NoError(t, execute(t, cmd.FinishCredential, &FinishCredentialRequest{
		Credential:      f.issued.Credential,
		MasterSecret:    f.ms,
		BlindingFactors: requested.BlindingFactors,
	}, &f.finished))

	return f
}

func (f *flow) requestProof(t *testing.T, cmd *Command) *zkp.ProofRequest {
	t.Helper()

	var req zkp.ProofRequest
	require.NoError(t, execute(t, cmd.RequestProof, &RequestProofRequest{
		VerifierDID: verifierDID,
		ProverDID:   holderDID,
		SubProofRequests: []zkp.SubProofRequest{{
			Schema:             f.schema.ID,
			RevealedAttributes: []string{"country"},
			Predicates:         []zkp.Predicate{{Attribute: "age", Type: zkp.PredicateGE, Value: 18}},
		}},
	}, &req))

	return &req
}

func (f *flow) present(t *testing.T, cmd *Command, req *zkp.ProofRequest, state *zkp.RevocationState,
	response interface{}) command.Error {
	t.Helper()

	return execute(t, cmd.PresentProof, &PresentProofRequest{
		ProofRequest:     req,
		Credentials:      map[string]*zkp.Credential{f.schema.ID: &f.finished},
		RevocationStates: map[string]*zkp.RevocationState{f.finished.ID: state},
		MasterSecret:     f.ms,
	}, response)
}

func TestCommand_Flow(t *testing.T) {
	cmd, issuer := newCommand(t)
	f := issueFlow(t, cmd, issuer)

	req := f.requestProof(t, cmd)

	var presentation zkp.ProofPresentation
	require.NoError(t, f.present(t, cmd, req, f.issued.RevocationState, &presentation))
	require.Equal(t, "DE", presentation.VerifiableCredential[0].CredentialSubject.Data["country"])

	var verdict zkp.ProofVerification
	require.NoError(t, execute(t, cmd.VerifyProof, &VerifyProofRequest{
		PresentedProof: &presentation,
		ProofRequest:   req,
	}, &verdict))
	require.Equal(t, zkp.VerificationStatusVerified, verdict.Status)

	t.Run("replayed presentation is rejected as a result", func(t *testing.T) {
		var again zkp.ProofVerification
		require.NoError(t, execute(t, cmd.VerifyProof, &VerifyProofRequest{
			PresentedProof: &presentation,
			ProofRequest:   req,
		}, &again))
		require.Equal(t, zkp.VerificationStatusRejected, again.Status)
		require.NotEmpty(t, again.Reason)
	})

	var head zkp.RevocationRegistryDefinition
	require.NoError(t, execute(t, cmd.RevokeCredential, &RevokeCredentialRequest{
		IdentityOptions:              issuer,
		RevocationRegistryDefinition: f.reg.ID,
		CredentialRevocationID:       f.finished.Signature.RevocationID,
	}, &head))
	require.EqualValues(t, 2, head.LatestSequence())

	t.Run("stale witness", func(t *testing.T) {
		err := f.present(t, cmd, f.requestProof(t, cmd), f.issued.RevocationState, nil)
		require.Error(t, err)
		require.Equal(t, StaleWitnessErrorCode, err.Code())
		require.Equal(t, command.ExecuteError, err.Type())
	})

	t.Run("revoked witness cannot be updated", func(t *testing.T) {
		err := execute(t, cmd.UpdateRevocationState, &UpdateRevocationStateRequest{
			RevocationState: f.issued.RevocationState,
		}, nil)
		require.Error(t, err)
		require.Equal(t, ProtocolErrorCode, err.Code())
	})

	t.Run("deltas", func(t *testing.T) {
		var resp GetRevocationDeltasResponse
		require.NoError(t, execute(t, cmd.GetRevocationDeltas, &GetRevocationDeltasRequest{
			RevocationRegistryDefinition: f.reg.ID,
		}, &resp))
		require.Len(t, resp.Deltas, 2)
		require.Equal(t, []uint32{0}, resp.Deltas[1].Revoked)

		// folding only the issuance delta is a no-op for the witness
		var state zkp.RevocationState
		require.NoError(t, execute(t, cmd.UpdateRevocationState, &UpdateRevocationStateRequest{
			RevocationState: f.issued.RevocationState,
			Deltas:          resp.Deltas[:1],
		}, &state))
		require.Equal(t, f.issued.RevocationState.Sequence, state.Sequence)
	})

	t.Run("update registry with unknown index", func(t *testing.T) {
		err := execute(t, cmd.UpdateRevocationRegistry, &UpdateRevocationRegistryRequest{
			IdentityOptions:              issuer,
			RevocationRegistryDefinition: f.reg.ID,
			RevokedIDs:                   []uint32{1},
		}, nil)
		require.Error(t, err)
		require.Equal(t, InvalidRequestErrorCode, err.Code())
		require.Equal(t, command.ValidationError, err.Type())
	})

	t.Run("unknown registry", func(t *testing.T) {
		err := execute(t, cmd.GetRevocationDeltas, &GetRevocationDeltasRequest{
			RevocationRegistryDefinition: "did:evan:zkp:unknown",
		}, nil)
		require.Error(t, err)
		require.Equal(t, NotFoundErrorCode, err.Code())
	})
}

func TestCommand_InvalidRequests(t *testing.T) {
	cmd, issuer := newCommand(t)

	t.Run("decode errors", func(t *testing.T) {
		for _, h := range append(cmd.GetHandlers(), cmd.GetCustomHandlers()...) {
			if h.Method() == CreateMasterSecretCommandMethod {
				continue
			}

			var rw bytes.Buffer

			err := h.Handle()(&rw, bytes.NewBufferString("{"))
			require.Error(t, err, h.Method())
			require.Equal(t, InvalidRequestErrorCode, err.Code())
			require.Contains(t, err.Error(), "failed request decode")
		}
	})

	tests := []struct {
		name    string
		exec    command.Exec
		request interface{}
		errMsg  string
	}{
		{
			name:    "schema without identity",
			exec:    cmd.CreateCredentialSchema,
			request: &CreateCredentialSchemaRequest{Name: "person", Properties: []string{"age"}},
			errMsg:  errEmptyIdentity,
		},
		{
			name: "schema by a self-declared issuer",
			exec: cmd.CreateCredentialSchema,
			request: &CreateCredentialSchemaRequest{
				IdentityOptions: IdentityOptions{Identity: issuerDID},
				Name:            "person", Properties: []string{"age"},
			},
			errMsg: errEmptyPrivateKey,
		},
		{
			name: "schema with malformed key",
			exec: cmd.CreateCredentialSchema,
			request: &CreateCredentialSchemaRequest{
				IdentityOptions: IdentityOptions{Identity: issuerDID, PrivateKey: "?not multibase"},
				Name:            "person", Properties: []string{"age"},
			},
			errMsg: errInvalidPrivateKey,
		},
		{
			name: "schema without properties",
			exec: cmd.CreateCredentialSchema,
			request: &CreateCredentialSchemaRequest{
				IdentityOptions: issuer,
				Name:            "person",
			},
			errMsg: "at least one attribute is required",
		},
		{
			name:    "offer without proposal",
			exec:    cmd.CreateCredentialOffer,
			request: &CreateCredentialOfferRequest{IdentityOptions: issuer},
			errMsg:  "proposal is mandatory",
		},
		{
			name:    "request without offer",
			exec:    cmd.RequestCredential,
			request: &RequestCredentialRequest{},
			errMsg:  "credentialOffering is mandatory",
		},
		{
			name:    "issue without request",
			exec:    cmd.IssueCredential,
			request: &IssueCredentialRequest{IdentityOptions: issuer},
			errMsg:  "credentialRequest is mandatory",
		},
		{
			name:    "finish without credential",
			exec:    cmd.FinishCredential,
			request: &FinishCredentialRequest{},
			errMsg:  "credential is mandatory",
		},
		{
			name:    "verify without presentation",
			exec:    cmd.VerifyProof,
			request: &VerifyProofRequest{},
			errMsg:  "presentedProof and proofRequest is mandatory",
		},
		{
			name:    "update state without state",
			exec:    cmd.UpdateRevocationState,
			request: &UpdateRevocationStateRequest{},
			errMsg:  "revocationState is mandatory",
		},
		{
			name:    "proof request without sub requests",
			exec:    cmd.RequestProof,
			request: &RequestProofRequest{VerifierDID: verifierDID},
			errMsg:  "at least one sub proof request is required",
		},
		{
			name: "registry with zero capacity",
			exec: cmd.CreateRevocationRegistryDefinition,
			request: &CreateRevocationRegistryDefinitionRequest{
				IdentityOptions:      issuer,
				CredentialDefinition: "did:evan:zkp:unknown",
			},
			errMsg: "maximum credential count must be positive",
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			err := execute(t, tc.exec, tc.request, nil)
			require.Error(t, err)
			require.Equal(t, InvalidRequestErrorCode, err.Code())
			require.Equal(t, command.ValidationError, err.Type())
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("definition for unknown schema", func(t *testing.T) {
		err := execute(t, cmd.CreateCredentialDefinition, &CreateCredentialDefinitionRequest{
			IdentityOptions: issuer,
			SchemaDID:       "did:evan:zkp:unknown",
		}, nil)
		require.Error(t, err)
		require.Equal(t, NotFoundErrorCode, err.Code())
	})
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		code command.Code
	}{
		{api.Errorf(api.KindValidation, "op", "bad"), InvalidRequestErrorCode},
		{api.Errorf(api.KindNotFound, "op", "missing"), NotFoundErrorCode},
		{api.Errorf(api.KindCrypto, "op", "bad proof"), CryptoErrorCode},
		{api.Errorf(api.KindProtocol, "op", "replay"), ProtocolErrorCode},
		{api.Errorf(api.KindCapacity, "op", "full"), CapacityErrorCode},
		{api.Errorf(api.KindStaleWitness, "op", "stale"), StaleWitnessErrorCode},
		{api.Errorf(api.KindVerification, "op", "rejected"), VerificationErrorCode},
		{fmt.Errorf("plain"), ExecuteErrorCode},
	}

	seen := map[command.Code]bool{}

	for _, tc := range tests {
		require.Equal(t, tc.code, Code(tc.err), tc.err.Error())
		seen[tc.code] = true
	}

	require.Len(t, seen, len(tests))
}

func TestIdentity(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	full, err := zkp.EncodeMultibase(priv)
	require.NoError(t, err)

	id, err := identity(&IdentityOptions{Identity: issuerDID, PrivateKey: full})
	require.NoError(t, err)
	require.Equal(t, priv, id.PrivateKey)
	require.Equal(t, issuerDID+"#key-1", id.VerificationMethod)

	short, err := zkp.EncodeMultibase([]byte{1, 2, 3})
	require.NoError(t, err)

	_, err = identity(&IdentityOptions{Identity: issuerDID, PrivateKey: short})
	require.EqualError(t, err, errInvalidPrivateKey)

	id, err = identity(&IdentityOptions{Identity: issuerDID, VerificationMethod: issuerDID + "#key-2", PrivateKey: full})
	require.NoError(t, err)
	require.Equal(t, issuerDID+"#key-2", id.VerificationMethod)

	_, err = identity(&IdentityOptions{Identity: issuerDID, VerificationMethod: issuerDID + "#key-1"})
	require.EqualError(t, err, errEmptyPrivateKey)
}
