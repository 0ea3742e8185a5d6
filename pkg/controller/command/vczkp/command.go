/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vczkp

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/internal/cmdutil"
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/internal/logutil"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/issuance"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/presentation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/revocation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/schema"
)

var logger = log.New("vade-evan-cl/command/vczkp")

// Error codes, one per error kind of the protocol core.
const (
	// InvalidRequestErrorCode is for malformed requests and validation errors.
	InvalidRequestErrorCode = command.Code(iota + command.VCZKP)
	// NotFoundErrorCode is for unknown schemas, definitions and registries.
	NotFoundErrorCode
	// CryptoErrorCode is for failed cryptographic checks.
	CryptoErrorCode
	// ProtocolErrorCode is for out of order or replayed protocol steps.
	ProtocolErrorCode
	// CapacityErrorCode is for full revocation registries.
	CapacityErrorCode
	// StaleWitnessErrorCode is for witnesses behind the registry; the caller should refresh and retry.
	StaleWitnessErrorCode
	// VerificationErrorCode is for rejected presentations.
	VerificationErrorCode
	// ExecuteErrorCode is for everything else.
	ExecuteErrorCode
)

// constants for the vczkp commands.
const (
	// command name.
	CommandName = "vczkp"

	// command methods, named after the plugin functions.
	CreateCredentialSchemaCommandMethod             = "vc_zkp_create_credential_schema"
	CreateCredentialDefinitionCommandMethod         = "vc_zkp_create_credential_definition"
	CreateCredentialProposalCommandMethod           = "vc_zkp_create_credential_proposal"
	CreateCredentialOfferCommandMethod              = "vc_zkp_create_credential_offer"
	RequestCredentialCommandMethod                  = "vc_zkp_request_credential"
	CreateRevocationRegistryDefinitionCommandMethod = "vc_zkp_create_revocation_registry_definition"
	UpdateRevocationRegistryCommandMethod           = "vc_zkp_update_revocation_registry"
	IssueCredentialCommandMethod                    = "vc_zkp_issue_credential"
	FinishCredentialCommandMethod                   = "vc_zkp_finish_credential"
	RevokeCredentialCommandMethod                   = "vc_zkp_revoke_credential"
	RequestProofCommandMethod                       = "vc_zkp_request_proof"
	PresentProofCommandMethod                       = "vc_zkp_present_proof"
	VerifyProofCommandMethod                        = "vc_zkp_verify_proof"

	// custom functions.
	CreateMasterSecretCommandMethod    = "create_master_secret"
	CustomFinishCredentialMethod       = "finish_credential"
	UpdateRevocationStateCommandMethod = "update_revocation_state"
	GetRevocationDeltasCommandMethod   = "get_revocation_deltas"

	// error messages.
	errEmptyIdentity     = "identity is mandatory"
	errEmptyPrivateKey   = "private key is mandatory"
	errInvalidPrivateKey = "private key must be a multibase encoded Ed25519 seed or key"
	errMissingField      = "%s is mandatory"
)

var kindCodes = map[api.Kind]command.Code{
	api.KindNotFound:     NotFoundErrorCode,
	api.KindCrypto:       CryptoErrorCode,
	api.KindProtocol:     ProtocolErrorCode,
	api.KindCapacity:     CapacityErrorCode,
	api.KindStaleWitness: StaleWitnessErrorCode,
	api.KindVerification: VerificationErrorCode,
}

// provider contains dependencies for the vczkp command, typically a *vczkp.Service.
type provider interface {
	Primitives() api.Primitives
	Schemas() *schema.Registry
	CredentialDefinitions() *creddef.Manager
	Revocation() *revocation.Registry
	Issuance() *issuance.Protocol
	Presentation() *presentation.Protocol
}

// Command contains the anonymous credential operations.
type Command struct {
	ctx provider
}

// New returns new vczkp command instance.
func New(p provider) *Command {
	return &Command{ctx: p}
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, CreateCredentialSchemaCommandMethod, c.CreateCredentialSchema),
		cmdutil.NewCommandHandler(CommandName, CreateCredentialDefinitionCommandMethod, c.CreateCredentialDefinition),
		cmdutil.NewCommandHandler(CommandName, CreateCredentialProposalCommandMethod, c.CreateCredentialProposal),
		cmdutil.NewCommandHandler(CommandName, CreateCredentialOfferCommandMethod, c.CreateCredentialOffer),
		cmdutil.NewCommandHandler(CommandName, RequestCredentialCommandMethod, c.RequestCredential),
		cmdutil.NewCommandHandler(CommandName, CreateRevocationRegistryDefinitionCommandMethod,
			c.CreateRevocationRegistryDefinition),
		cmdutil.NewCommandHandler(CommandName, UpdateRevocationRegistryCommandMethod, c.UpdateRevocationRegistry),
		cmdutil.NewCommandHandler(CommandName, IssueCredentialCommandMethod, c.IssueCredential),
		cmdutil.NewCommandHandler(CommandName, FinishCredentialCommandMethod, c.FinishCredential),
		cmdutil.NewCommandHandler(CommandName, RevokeCredentialCommandMethod, c.RevokeCredential),
		cmdutil.NewCommandHandler(CommandName, RequestProofCommandMethod, c.RequestProof),
		cmdutil.NewCommandHandler(CommandName, PresentProofCommandMethod, c.PresentProof),
		cmdutil.NewCommandHandler(CommandName, VerifyProofCommandMethod, c.VerifyProof),
	}
}

// GetCustomHandlers returns the extension functions reachable through run_custom_function.
func (c *Command) GetCustomHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, CreateMasterSecretCommandMethod, c.CreateMasterSecret),
		cmdutil.NewCommandHandler(CommandName, CustomFinishCredentialMethod, c.FinishCredential),
		cmdutil.NewCommandHandler(CommandName, UpdateRevocationStateCommandMethod, c.UpdateRevocationState),
		cmdutil.NewCommandHandler(CommandName, GetRevocationDeltasCommandMethod, c.GetRevocationDeltas),
	}
}

// CreateCredentialSchema publishes a new credential schema.
func (c *Command) CreateCredentialSchema(rw io.Writer, req io.Reader) command.Error {
	var request CreateCredentialSchemaRequest

	if err := decode(CreateCredentialSchemaCommandMethod, req, &request); err != nil {
		return err
	}

	issuer, err := identity(&request.IdentityOptions)
	if err != nil {
		return invalid(CreateCredentialSchemaCommandMethod, err)
	}

	s, err := c.ctx.Schemas().Create(context.Background(), issuer, &schema.CreateRequest{
		Name:                 request.Name,
		Description:          request.Description,
		Attributes:           request.Properties,
		Required:             request.Required,
		Types:                request.Types,
		AdditionalProperties: request.AdditionalProperties,
	})
	if err != nil {
		return fail(CreateCredentialSchemaCommandMethod, err)
	}

	return respond(rw, CreateCredentialSchemaCommandMethod, s, logutil.CreateKeyValueString("schema", s.ID))
}

// CreateCredentialDefinition creates issuer keys for a schema and publishes the definition.
func (c *Command) CreateCredentialDefinition(rw io.Writer, req io.Reader) command.Error {
	var request CreateCredentialDefinitionRequest

	if err := decode(CreateCredentialDefinitionCommandMethod, req, &request); err != nil {
		return err
	}

	issuer, err := identity(&request.IdentityOptions)
	if err != nil {
		return invalid(CreateCredentialDefinitionCommandMethod, err)
	}

	def, err := c.ctx.CredentialDefinitions().Create(context.Background(), issuer, request.SchemaDID,
		request.SupportsRevocation)
	if err != nil {
		return fail(CreateCredentialDefinitionCommandMethod, err)
	}

	return respond(rw, CreateCredentialDefinitionCommandMethod, def,
		logutil.CreateKeyValueString("credentialDefinition", def.ID))
}

// CreateCredentialProposal starts an issuance on the holder side.
func (c *Command) CreateCredentialProposal(rw io.Writer, req io.Reader) command.Error {
	var request CreateCredentialProposalRequest

	if err := decode(CreateCredentialProposalCommandMethod, req, &request); err != nil {
		return err
	}

	proposal, err := c.ctx.Issuance().CreateProposal(context.Background(), request.Issuer, request.Subject,
		request.Schema)
	if err != nil {
		return fail(CreateCredentialProposalCommandMethod, err)
	}

	return respond(rw, CreateCredentialProposalCommandMethod, proposal,
		logutil.CreateKeyValueString("thread", proposal.ID))
}

// CreateCredentialOffer answers a proposal with an offer carrying a fresh nonce.
func (c *Command) CreateCredentialOffer(rw io.Writer, req io.Reader) command.Error {
	var request CreateCredentialOfferRequest

	if err := decode(CreateCredentialOfferCommandMethod, req, &request); err != nil {
		return err
	}

	if request.Proposal == nil {
		return invalid(CreateCredentialOfferCommandMethod, fmt.Errorf(errMissingField, "proposal"))
	}

	issuer, err := identity(&request.IdentityOptions)
	if err != nil {
		return invalid(CreateCredentialOfferCommandMethod, err)
	}

	offer, err := c.ctx.Issuance().CreateOffer(context.Background(), issuer, request.Proposal,
		request.CredentialDefinition)
	if err != nil {
		return fail(CreateCredentialOfferCommandMethod, err)
	}

	return respond(rw, CreateCredentialOfferCommandMethod, offer, logutil.CreateKeyValueString("thread", offer.ID))
}

// RequestCredential blinds the holder's master secret for an offer.
func (c *Command) RequestCredential(rw io.Writer, req io.Reader) command.Error {
	var request RequestCredentialRequest

	if err := decode(RequestCredentialCommandMethod, req, &request); err != nil {
		return err
	}

	if request.CredentialOffering == nil {
		return invalid(RequestCredentialCommandMethod, fmt.Errorf(errMissingField, "credentialOffering"))
	}

	credRequest, blinding, err := c.ctx.Issuance().RequestCredential(context.Background(),
		request.CredentialOffering, request.MasterSecret, request.CredentialValues)
	if err != nil {
		return fail(RequestCredentialCommandMethod, err)
	}

	return respond(rw, RequestCredentialCommandMethod, &RequestCredentialResponse{
		Request:         credRequest,
		BlindingFactors: blinding,
	}, logutil.CreateKeyValueString("thread", credRequest.ID))
}

// CreateRevocationRegistryDefinition creates an accumulator for a revocable definition.
func (c *Command) CreateRevocationRegistryDefinition(rw io.Writer, req io.Reader) command.Error {
	var request CreateRevocationRegistryDefinitionRequest

	if err := decode(CreateRevocationRegistryDefinitionCommandMethod, req, &request); err != nil {
		return err
	}

	issuer, err := identity(&request.IdentityOptions)
	if err != nil {
		return invalid(CreateRevocationRegistryDefinitionCommandMethod, err)
	}

	reg, err := c.ctx.Revocation().CreateDefinition(context.Background(), issuer, request.CredentialDefinition,
		request.MaximumCredentialCount)
	if err != nil {
		return fail(CreateRevocationRegistryDefinitionCommandMethod, err)
	}

	return respond(rw, CreateRevocationRegistryDefinitionCommandMethod, reg,
		logutil.CreateKeyValueString("registry", reg.ID))
}

// UpdateRevocationRegistry revokes a set of indices in one delta and returns the new registry head.
func (c *Command) UpdateRevocationRegistry(rw io.Writer, req io.Reader) command.Error {
	var request UpdateRevocationRegistryRequest

	if err := decode(UpdateRevocationRegistryCommandMethod, req, &request); err != nil {
		return err
	}

	return c.revoke(rw, UpdateRevocationRegistryCommandMethod, &request.IdentityOptions,
		request.RevocationRegistryDefinition, request.RevokedIDs)
}

// RevokeCredential revokes one index and returns the new registry head.
func (c *Command) RevokeCredential(rw io.Writer, req io.Reader) command.Error {
	var request RevokeCredentialRequest

	if err := decode(RevokeCredentialCommandMethod, req, &request); err != nil {
		return err
	}

	return c.revoke(rw, RevokeCredentialCommandMethod, &request.IdentityOptions,
		request.RevocationRegistryDefinition, []uint32{request.CredentialRevocationID})
}

func (c *Command) revoke(rw io.Writer, method string, opts *IdentityOptions, registryID string,
	ids []uint32) command.Error {
	issuer, err := identity(opts)
	if err != nil {
		return invalid(method, err)
	}

	ctx := context.Background()

	if _, err = c.ctx.Revocation().Update(ctx, issuer, registryID, ids); err != nil {
		return fail(method, err)
	}

	reg, err := c.ctx.Revocation().Get(ctx, registryID)
	if err != nil {
		return fail(method, err)
	}

	return respond(rw, method, reg, logutil.CreateKeyValueString("registry", reg.ID),
		logutil.CreateKeyValueString("sequence", fmt.Sprint(reg.LatestSequence())))
}

// IssueCredential signs a credential request.
func (c *Command) IssueCredential(rw io.Writer, req io.Reader) command.Error {
	var request IssueCredentialRequest

	if err := decode(IssueCredentialCommandMethod, req, &request); err != nil {
		return err
	}

	if request.CredentialRequest == nil {
		return invalid(IssueCredentialCommandMethod, fmt.Errorf(errMissingField, "credentialRequest"))
	}

	issuer, err := identity(&request.IdentityOptions)
	if err != nil {
		return invalid(IssueCredentialCommandMethod, err)
	}

	result, err := c.ctx.Issuance().IssueCredential(context.Background(), issuer, request.CredentialRequest,
		request.CredentialValues)
	if err != nil {
		return fail(IssueCredentialCommandMethod, err)
	}

	return respond(rw, IssueCredentialCommandMethod, result,
		logutil.CreateKeyValueString("credential", result.Credential.ID))
}

// FinishCredential turns an issued credential into the holder's usable credential.
func (c *Command) FinishCredential(rw io.Writer, req io.Reader) command.Error {
	var request FinishCredentialRequest

	if err := decode(FinishCredentialCommandMethod, req, &request); err != nil {
		return err
	}

	if request.Credential == nil {
		return invalid(FinishCredentialCommandMethod, fmt.Errorf(errMissingField, "credential"))
	}

	cred, err := c.ctx.Issuance().FinishCredential(context.Background(), request.Credential,
		request.MasterSecret, request.BlindingFactors)
	if err != nil {
		return fail(FinishCredentialCommandMethod, err)
	}

	return respond(rw, FinishCredentialCommandMethod, cred, logutil.CreateKeyValueString("credential", cred.ID))
}

// RequestProof creates a proof request with a fresh nonce.
func (c *Command) RequestProof(rw io.Writer, req io.Reader) command.Error {
	var request RequestProofRequest

	if err := decode(RequestProofCommandMethod, req, &request); err != nil {
		return err
	}

	proofRequest, err := c.ctx.Presentation().RequestProof(request.VerifierDID, request.ProverDID,
		request.SubProofRequests)
	if err != nil {
		return fail(RequestProofCommandMethod, err)
	}

	return respond(rw, RequestProofCommandMethod, proofRequest)
}

// PresentProof builds a presentation for a proof request.
func (c *Command) PresentProof(rw io.Writer, req io.Reader) command.Error {
	var request PresentProofRequest

	if err := decode(PresentProofCommandMethod, req, &request); err != nil {
		return err
	}

	p, err := c.ctx.Presentation().PresentProof(context.Background(), &presentation.PresentInput{
		Request:      request.ProofRequest,
		Credentials:  request.Credentials,
		Witnesses:    request.RevocationStates,
		MasterSecret: request.MasterSecret,
		Registries:   request.RevocationRegistries,
	})
	if err != nil {
		return fail(PresentProofCommandMethod, err)
	}

	return respond(rw, PresentProofCommandMethod, p, logutil.CreateKeyValueString("presentation", p.ID))
}

// VerifyProof checks a presentation. A rejected presentation is a regular result with status
// rejected and a reason.
func (c *Command) VerifyProof(rw io.Writer, req io.Reader) command.Error {
	var request VerifyProofRequest

	if err := decode(VerifyProofCommandMethod, req, &request); err != nil {
		return err
	}

	if request.PresentedProof == nil || request.ProofRequest == nil {
		return invalid(VerifyProofCommandMethod, fmt.Errorf(errMissingField, "presentedProof and proofRequest"))
	}

	ok, err := c.ctx.Presentation().VerifyProof(context.Background(), request.PresentedProof, request.ProofRequest)
	if err != nil && !errors.Is(err, api.ErrVerification) {
		return fail(VerifyProofCommandMethod, err)
	}

	verdict := presentation.Verdict(ok, err)

	return respond(rw, VerifyProofCommandMethod, verdict, logutil.CreateKeyValueString("status", verdict.Status))
}

// CreateMasterSecret creates a new holder master secret.
func (c *Command) CreateMasterSecret(rw io.Writer, _ io.Reader) command.Error {
	ms, err := c.ctx.Primitives().NewMasterSecret()
	if err != nil {
		return fail(CreateMasterSecretCommandMethod, api.Wrap(api.KindCrypto, "create master secret", err))
	}

	return respond(rw, CreateMasterSecretCommandMethod, &CreateMasterSecretResponse{MasterSecret: ms})
}

// UpdateRevocationState folds deltas into a holder witness.
func (c *Command) UpdateRevocationState(rw io.Writer, req io.Reader) command.Error {
	var request UpdateRevocationStateRequest

	if err := decode(UpdateRevocationStateCommandMethod, req, &request); err != nil {
		return err
	}

	if request.RevocationState == nil {
		return invalid(UpdateRevocationStateCommandMethod, fmt.Errorf(errMissingField, "revocationState"))
	}

	var (
		state *zkp.RevocationState
		err   error
	)

	if len(request.Deltas) == 0 {
		state, err = c.ctx.Revocation().RefreshWitness(context.Background(), request.RevocationState)
	} else {
		state, err = c.ctx.Revocation().Fold(request.RevocationState, request.Deltas)
	}

	if err != nil {
		return fail(UpdateRevocationStateCommandMethod, err)
	}

	return respond(rw, UpdateRevocationStateCommandMethod, state,
		logutil.CreateKeyValueString("sequence", fmt.Sprint(state.Sequence)))
}

// GetRevocationDeltas returns the deltas of a registry after a sequence number.
func (c *Command) GetRevocationDeltas(rw io.Writer, req io.Reader) command.Error {
	var request GetRevocationDeltasRequest

	if err := decode(GetRevocationDeltasCommandMethod, req, &request); err != nil {
		return err
	}

	deltas, err := c.ctx.Revocation().DeltasSince(context.Background(), request.RevocationRegistryDefinition,
		request.AfterSequence)
	if err != nil {
		return fail(GetRevocationDeltasCommandMethod, err)
	}

	return respond(rw, GetRevocationDeltasCommandMethod, &GetRevocationDeltasResponse{Deltas: deltas})
}

// Code returns the command error code of an error of the protocol core.
func Code(err error) command.Code {
	kind := api.KindOf(err)
	if kind == api.KindValidation {
		return InvalidRequestErrorCode
	}

	if code, ok := kindCodes[kind]; ok {
		return code
	}

	return ExecuteErrorCode
}

func decode(method string, req io.Reader, v interface{}) command.Error {
	if err := command.DecodeRequest(req, v); err != nil {
		logutil.LogInfo(logger, CommandName, method, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("failed request decode : %w", err))
	}

	return nil
}

func invalid(method string, err error) command.Error {
	logutil.LogDebug(logger, CommandName, method, err.Error())
	return command.NewValidationError(InvalidRequestErrorCode, err)
}

func fail(method string, err error) command.Error {
	code := Code(err)
	if code == InvalidRequestErrorCode {
		return invalid(method, err)
	}

	logutil.LogError(logger, CommandName, method, err.Error())

	return command.NewExecuteError(code, err)
}

func respond(rw io.Writer, method string, v interface{}, data ...string) command.Error {
	command.WriteNillableResponse(rw, v, logger)

	logutil.LogDebug(logger, CommandName, method, "success", data...)

	return nil
}

func identity(opts *IdentityOptions) (*zkp.Identity, error) {
	if opts.Identity == "" {
		return nil, errors.New(errEmptyIdentity)
	}

	if opts.PrivateKey == "" {
		return nil, errors.New(errEmptyPrivateKey)
	}

	id := &zkp.Identity{ID: opts.Identity, VerificationMethod: opts.VerificationMethod}

	raw, err := zkp.DecodeMultibase(opts.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errInvalidPrivateKey, err)
	}

	switch len(raw) {
	case ed25519.SeedSize:
		id.PrivateKey = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		id.PrivateKey = ed25519.PrivateKey(raw)
	default:
		return nil, errors.New(errInvalidPrivateKey)
	}

	if id.VerificationMethod == "" {
		id.VerificationMethod = opts.Identity + "#key-1"
	}

	return id, nil
}
