/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuance implements the blind issuance handshake: proposal, offer, request, issued
// credential and the holder's finishing step. Both roles keep a per thread record whose state
// transitions are enforced.
package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/internal/keylock"
	"github.com/evannetwork/vade-evan-cl/pkg/store/nonce"
	"github.com/evannetwork/vade-evan-cl/pkg/store/vault"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/revocation"
)

const (
	// StoreName is the name of the issuance thread store.
	StoreName = "vczkp_issuance"

	// NoncePurpose is the purpose offer nonces are recorded under.
	NoncePurpose = "credential-offer"

	holderPrefix = "holder_"
	issuerPrefix = "issuer_"
)

var logger = log.New("vade-evan-cl/issuance")

// Provider contains dependencies for the issuance protocol.
type Provider interface {
	StorageProvider() storage.Provider
	Ledger() api.Ledger
	Primitives() api.Primitives
	Nonces() *nonce.Store
	Vault() *vault.Store
	KeyResolver() zkp.KeyResolver
	CredentialDefinitions() *creddef.Manager
	Revocation() *revocation.Registry
}

// record is one side's view of a thread.
type record struct {
	Thread               string `json:"thread"`
	State                string `json:"state"`
	Schema               string `json:"schema,omitempty"`
	CredentialDefinition string `json:"credentialDefinition,omitempty"`
	Nonce                string `json:"nonce,omitempty"`
}

// Protocol runs both roles of the issuance handshake.
type Protocol struct {
	store       storage.Store
	ledger      api.Ledger
	primitives  api.Primitives
	nonces      *nonce.Store
	vault       *vault.Store
	resolver    zkp.KeyResolver
	definitions *creddef.Manager
	revocation  *revocation.Registry
	locks       *keylock.Locker
}

// New returns the issuance protocol.
func New(p Provider) (*Protocol, error) {
	store, err := p.StorageProvider().OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open issuance store: %w", err)
	}

	return &Protocol{
		store:       store,
		ledger:      p.Ledger(),
		primitives:  p.Primitives(),
		nonces:      p.Nonces(),
		vault:       p.Vault(),
		resolver:    p.KeyResolver(),
		definitions: p.CredentialDefinitions(),
		revocation:  p.Revocation(),
		locks:       keylock.New(),
	}, nil
}

// CreateProposal starts a thread on the holder side.
func (p *Protocol) CreateProposal(ctx context.Context, issuer, subject, schemaID string) (*zkp.CredentialProposal, error) {
	const op = "create credential proposal"

	if issuer == "" || subject == "" {
		return nil, api.Errorf(api.KindValidation, op, "issuer and subject are required")
	}

	schema, err := p.ledger.FetchSchema(ctx, schemaID)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	proposal := &zkp.CredentialProposal{
		ID:        uuid.New().String(),
		Type:      zkp.ProposalType,
		Issuer:    issuer,
		Subject:   subject,
		Schema:    schema.ID,
		CreatedAt: time.Now().UTC(),
	}

	rec := &record{Thread: proposal.ID, State: stateNameStart, Schema: schema.ID}
	if err = p.transition(op, holderPrefix, rec, &proposalSent{}); err != nil {
		return nil, err
	}

	return proposal, nil
}

// CreateOffer answers a proposal with the definition the issuer will sign with and a fresh nonce.
func (p *Protocol) CreateOffer(ctx context.Context, issuer *zkp.Identity, proposal *zkp.CredentialProposal,
	definitionID string) (*zkp.CredentialOffer, error) {
	const op = "create credential offer"

	if err := issuer.Authorize(proposal.Issuer, p.resolver); err != nil {
		return nil, api.Errorf(api.KindValidation, op, "proposal is addressed to %s: %w", proposal.Issuer, err)
	}

	def, err := p.ledger.FetchCredentialDefinition(ctx, definitionID)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if def.Schema != proposal.Schema {
		return nil, api.Errorf(api.KindValidation, op, "definition %s is for schema %s, proposal asks for %s",
			def.ID, def.Schema, proposal.Schema)
	}

	if def.Issuer != issuer.ID {
		return nil, api.Errorf(api.KindValidation, op, "definition %s belongs to %s", def.ID, def.Issuer)
	}

	unlock := p.locks.Lock(issuerPrefix + proposal.ID)
	defer unlock()

	rec, err := p.load(op, issuerPrefix, proposal.ID)
	if err != nil {
		return nil, err
	}

	if err = checkTransition(op, rec, &offerSent{}); err != nil {
		return nil, err
	}

	n, err := p.nonces.Issue(NoncePurpose)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	offer := &zkp.CredentialOffer{
		ID:                   proposal.ID,
		Type:                 zkp.OfferType,
		Issuer:               issuer.ID,
		Subject:              proposal.Subject,
		Schema:               proposal.Schema,
		CredentialDefinition: def.ID,
		Nonce:                n,
		CreatedAt:            time.Now().UTC(),
	}

	rec.Schema = def.Schema
	rec.CredentialDefinition = def.ID
	rec.Nonce = n

	if err = p.transition(op, issuerPrefix, rec, &offerSent{}); err != nil {
		return nil, err
	}

	return offer, nil
}

// RequestCredential blinds the holder's master secret against the offered definition and nonce.
// The returned blinding factors never leave the holder.
func (p *Protocol) RequestCredential(ctx context.Context, offer *zkp.CredentialOffer, masterSecret []byte,
	values map[string]string) (*zkp.CredentialRequest, *zkp.CredentialSecretsBlindingFactors, error) {
	const op = "request credential"

	unlock := p.locks.Lock(holderPrefix + offer.ID)
	defer unlock()

	rec, err := p.load(op, holderPrefix, offer.ID)
	if err != nil {
		return nil, nil, err
	}

	if err = checkTransition(op, rec, &offerReceived{}); err != nil {
		return nil, nil, err
	}

	def, err := p.definitions.Resolve(ctx, offer.CredentialDefinition)
	if err != nil {
		return nil, nil, err
	}

	if def.Schema != offer.Schema {
		return nil, nil, api.Errorf(api.KindValidation, op, "offered definition %s is not for schema %s",
			def.ID, offer.Schema)
	}

	schema, err := p.ledger.FetchSchema(ctx, def.Schema)
	if err != nil {
		return nil, nil, api.Wrap(api.KindUnknown, op, err)
	}

	if _, err = zkp.EncodeValues(schema, values); err != nil {
		return nil, nil, api.Wrap(api.KindValidation, op, err)
	}

	pub, err := def.PublicKeyBytes()
	if err != nil {
		return nil, nil, api.Wrap(api.KindCrypto, op, err)
	}

	blinded, err := p.primitives.BlindMasterSecret(pub, masterSecret, offer.Nonce)
	if err != nil {
		return nil, nil, api.Wrap(api.KindCrypto, op, err)
	}

	request := &zkp.CredentialRequest{
		ID:                                       offer.ID,
		Type:                                     zkp.RequestType,
		Subject:                                  offer.Subject,
		Schema:                                   schema.ID,
		CredentialDefinition:                     def.ID,
		BlindedCredentialSecrets:                 blinded.Blinded,
		BlindedCredentialSecretsCorrectnessProof: blinded.CorrectnessProof,
		CredentialNonce:                          offer.Nonce,
		CredentialValues:                         values,
	}

	rec.Schema = schema.ID
	rec.CredentialDefinition = def.ID
	rec.Nonce = offer.Nonce

	if err = p.transition(op, holderPrefix, rec, &offerReceived{}, &requestSent{}); err != nil {
		return nil, nil, err
	}

	return request, &zkp.CredentialSecretsBlindingFactors{Thread: offer.ID, BlindingFactors: blinded.BlindingFactors}, nil
}

// IssueCredential signs a request. values overrides the requested values when set. For revocable
// definitions an index of the active registry is allocated; a full registry leaves the offer
// nonce usable.
func (p *Protocol) IssueCredential(ctx context.Context, issuer *zkp.Identity, request *zkp.CredentialRequest,
	values map[string]string) (*zkp.IssueCredentialResult, error) {
	const op = "issue credential"

	if values == nil {
		values = request.CredentialValues
	}

	unlock := p.locks.Lock(issuerPrefix + request.ID)
	defer unlock()

	rec, err := p.load(op, issuerPrefix, request.ID)
	if err != nil {
		return nil, err
	}

	if rec.State == stateNameStart {
		return nil, api.Errorf(api.KindProtocol, op, "no offer was made on thread %s", request.ID)
	}

	if err = checkTransition(op, rec, &credentialIssued{}); err != nil {
		return nil, err
	}

	if rec.Nonce != request.CredentialNonce {
		return nil, api.Errorf(api.KindProtocol, op, "stale or mismatched nonce")
	}

	if err = p.nonces.Check(request.CredentialNonce, NoncePurpose); err != nil {
		return nil, api.Errorf(api.KindProtocol, op, "stale or mismatched nonce: %w", err)
	}

	if rec.CredentialDefinition != request.CredentialDefinition {
		return nil, api.Errorf(api.KindValidation, op, "request names definition %s, offer was for %s",
			request.CredentialDefinition, rec.CredentialDefinition)
	}

	def, err := p.definitions.Get(ctx, rec.CredentialDefinition)
	if err != nil {
		return nil, err
	}

	if err = issuer.Authorize(def.Issuer, p.resolver); err != nil {
		return nil, api.Errorf(api.KindValidation, op, "only %s can issue with %s: %w", def.Issuer, def.ID, err)
	}

	schema, err := p.ledger.FetchSchema(ctx, def.Schema)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	attrs, err := zkp.EncodeValues(schema, values)
	if err != nil {
		return nil, api.Wrap(api.KindValidation, op, err)
	}

	pub, err := def.PublicKeyBytes()
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	err = p.primitives.VerifyBlindedSecret(pub, request.BlindedCredentialSecrets,
		request.BlindedCredentialSecretsCorrectnessProof, request.CredentialNonce)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	priv, err := p.definitions.PrivateKey(def.ID)
	if err != nil {
		return nil, err
	}

	var alloc *revocation.Allocation

	if def.SupportsRevocation {
		if alloc, err = p.allocate(ctx, op, issuer, def.ID); err != nil {
			return nil, err
		}
	}

	sigReq := &api.SignRequest{
		PublicKey:    pub,
		PrivateKey:   priv,
		Blinded:      request.BlindedCredentialSecrets,
		DefinitionID: def.ID,
		Values:       attrs,
		Nonce:        request.CredentialNonce,
	}

	if alloc != nil {
		sigReq.RevocationHandle = alloc.Handle
	}

	sig, err := p.primitives.SignCredential(sigReq)
	if err != nil {
		p.release(ctx, issuer, alloc)

		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	if err = p.nonces.Consume(request.CredentialNonce, NoncePurpose); err != nil {
		p.release(ctx, issuer, alloc)

		return nil, api.Errorf(api.KindProtocol, op, "stale or mismatched nonce: %w", err)
	}

	cred := &zkp.Credential{
		Context:      []string{zkp.W3CContext},
		ID:           uuid.New().URN(),
		Type:         []string{zkp.CredentialType},
		Issuer:       def.Issuer,
		IssuanceDate: time.Now().UTC(),
		CredentialSubject: zkp.CredentialSubject{
			ID:   request.Subject,
			Data: zkp.AttributeMap(attrs),
		},
		CredentialSchema: zkp.SchemaReference{ID: schema.ID, Type: zkp.SchemaReferenceType},
		Signature: zkp.CredentialSignature{
			Type:                      zkp.SignatureType,
			CredentialDefinition:      def.ID,
			IssuanceNonce:             request.CredentialNonce,
			Signature:                 sig.Signature,
			SignatureCorrectnessProof: sig.CorrectnessProof,
		},
		Thread: request.ID,
	}

	result := &zkp.IssueCredentialResult{Credential: cred}

	if alloc != nil {
		cred.Signature.RevocationID = alloc.Index
		cred.Signature.RevocationRegistryDefinition = alloc.Registry.ID
		alloc.State.CredentialID = cred.ID
		result.RevocationInfo = alloc.Info
		result.RevocationState = alloc.State
	}

	if err = p.transition(op, issuerPrefix, rec, &credentialIssued{}); err != nil {
		return nil, err
	}

	logger.Infof("issued credential %s with definition %s on thread %s", cred.ID, def.ID, request.ID)

	return result, nil
}

// FinishCredential verifies the issuer's signature and binds the holder's blinding factors into
// it. The returned credential is ready to be presented.
func (p *Protocol) FinishCredential(ctx context.Context, cred *zkp.Credential, masterSecret []byte,
	blinding *zkp.CredentialSecretsBlindingFactors) (*zkp.Credential, error) {
	const op = "finish credential"

	if blinding == nil || len(blinding.BlindingFactors) == 0 {
		return nil, api.Errorf(api.KindValidation, op, "blinding factors are required")
	}

	unlock := p.locks.Lock(holderPrefix + cred.Thread)
	defer unlock()

	rec, err := p.load(op, holderPrefix, cred.Thread)
	if err != nil {
		return nil, err
	}

	// credentials handed over out of band have no holder record
	tracked := rec.State != stateNameStart
	if tracked {
		if err = checkTransition(op, rec, &credentialIssued{}); err != nil {
			return nil, err
		}
	}

	def, err := p.definitions.Resolve(ctx, cred.Signature.CredentialDefinition)
	if err != nil {
		return nil, err
	}

	schema, err := p.ledger.FetchSchema(ctx, cred.CredentialSchema.ID)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	attrs, err := zkp.EncodeValues(schema, cred.CredentialSubject.Data)
	if err != nil {
		return nil, api.Wrap(api.KindValidation, op, err)
	}

	pub, err := def.PublicKeyBytes()
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	finished, err := p.primitives.FinishCredential(&api.FinishRequest{
		PublicKey:        pub,
		Signature:        cred.Signature.Signature,
		CorrectnessProof: cred.Signature.SignatureCorrectnessProof,
		MasterSecret:     masterSecret,
		BlindingFactors:  blinding.BlindingFactors,
		DefinitionID:     def.ID,
		RevocationHandle: cred.RevocationHandle(),
		Values:           attrs,
		Nonce:            cred.Signature.IssuanceNonce,
	})
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	out := *cred
	out.Signature.Signature = finished

	if tracked {
		if err = p.transition(op, holderPrefix, rec, &credentialIssued{}); err != nil {
			return nil, err
		}
	}

	return &out, nil
}

func (p *Protocol) allocate(ctx context.Context, op string, issuer *zkp.Identity,
	definitionID string) (*revocation.Allocation, error) {
	registryID, err := p.vault.ActiveRegistry(definitionID)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, api.Errorf(api.KindNotFound, op, "definition %s has no revocation registry", definitionID)
		}

		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	return p.revocation.Allocate(ctx, issuer, registryID)
}

// release revokes an allocated index no credential was issued for, so the accumulator never
// holds a handle outside the issuer's control.
func (p *Protocol) release(ctx context.Context, issuer *zkp.Identity, alloc *revocation.Allocation) {
	if alloc == nil {
		return
	}

	if _, err := p.revocation.Revoke(ctx, issuer, alloc.Registry.ID, alloc.Index); err != nil {
		logger.Errorf("failed to revoke unused index %d of %s: %s", alloc.Index, alloc.Registry.ID, err)

		return
	}

	logger.Warnf("revoked index %d of %s, no credential was issued for it", alloc.Index, alloc.Registry.ID)
}

// load returns the record of thread, a fresh one in the start state when there is none.
func (p *Protocol) load(op, prefix, thread string) (*record, error) {
	if thread == "" {
		return nil, api.Errorf(api.KindValidation, op, "missing thread ID")
	}

	b, err := p.store.Get(prefix + thread)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return &record{Thread: thread, State: stateNameStart}, nil
		}

		return nil, api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to get thread record: %w", err))
	}

	rec := &record{}
	if err = json.Unmarshal(b, rec); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to unmarshal thread record: %w", err))
	}

	return rec, nil
}

func checkTransition(op string, rec *record, next state) error {
	current, err := stateFromName(rec.State)
	if err != nil {
		return api.Wrap(api.KindProtocol, op, err)
	}

	if !current.CanTransitionTo(next) {
		return api.Errorf(api.KindProtocol, op, "thread %s: invalid state transition: %s -> %s",
			rec.Thread, current.Name(), next.Name())
	}

	return nil
}

// transition walks rec through states and stores it.
func (p *Protocol) transition(op, prefix string, rec *record, states ...state) error {
	for _, next := range states {
		if err := checkTransition(op, rec, next); err != nil {
			return err
		}

		logger.Debugf("thread %s: %s -> %s", rec.Thread, rec.State, next.Name())

		rec.State = next.Name()
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return api.Wrap(api.KindUnknown, op, err)
	}

	if err = p.store.Put(prefix+rec.Thread, b); err != nil {
		return api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to put thread record: %w", err))
	}

	return nil
}
