/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package presentation implements the proof exchange: verifiers request proofs bound to a fresh
// nonce, holders present selected attributes of their credentials and verifiers check the
// presentation against the current public parameters.
package presentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/store/nonce"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
)

// NoncePurpose is the purpose proof request nonces are recorded under.
const NoncePurpose = "proof-request"

var logger = log.New("vade-evan-cl/presentation")

// Provider contains dependencies for the proof exchange.
type Provider interface {
	Ledger() api.Ledger
	Primitives() api.Primitives
	Nonces() *nonce.Store
	CredentialDefinitions() *creddef.Manager
}

// PresentInput is the holder's side of a presentation.
type PresentInput struct {
	Request *zkp.ProofRequest
	// Credentials by schema ID.
	Credentials map[string]*zkp.Credential
	// Witnesses by credential ID, required for revocable credentials.
	Witnesses    map[string]*zkp.RevocationState
	MasterSecret []byte
	// Registries the holder has fetched, by ID. Missing registries are fetched from the ledger.
	Registries map[string]*zkp.RevocationRegistryDefinition
}

// Protocol runs both roles of the proof exchange.
type Protocol struct {
	ledger      api.Ledger
	primitives  api.Primitives
	nonces      *nonce.Store
	definitions *creddef.Manager
}

// New returns the proof exchange protocol.
func New(p Provider) *Protocol {
	return &Protocol{
		ledger:      p.Ledger(),
		primitives:  p.Primitives(),
		nonces:      p.Nonces(),
		definitions: p.CredentialDefinitions(),
	}
}

// RequestProof creates a proof request with a fresh nonce. Attribute names are not checked
// against schemas until verification.
func (p *Protocol) RequestProof(verifier, prover string, subRequests []zkp.SubProofRequest) (*zkp.ProofRequest, error) {
	const op = "request proof"

	if len(subRequests) == 0 {
		return nil, api.Errorf(api.KindValidation, op, "at least one sub proof request is required")
	}

	for i := range subRequests {
		if subRequests[i].Schema == "" {
			return nil, api.Errorf(api.KindValidation, op, "sub proof request %d has no schema", i)
		}

		for j := range subRequests[i].Predicates {
			if err := subRequests[i].Predicates[j].Validate(); err != nil {
				return nil, api.Wrap(api.KindValidation, op, err)
			}
		}
	}

	n, err := p.nonces.Issue(NoncePurpose)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	return &zkp.ProofRequest{
		Type:             zkp.ProofRequestType,
		Verifier:         verifier,
		Prover:           prover,
		CreatedAt:        time.Now().UTC(),
		Nonce:            n,
		SubProofRequests: subRequests,
	}, nil
}

// PresentProof builds one aggregated proof over the requested credentials, bound to the request
// nonce. Only the requested attributes are disclosed; predicates are proven over hidden values.
func (p *Protocol) PresentProof(ctx context.Context, in *PresentInput) (*zkp.ProofPresentation, error) {
	const op = "present proof"

	if in.Request == nil || in.Request.Nonce == "" {
		return nil, api.Errorf(api.KindValidation, op, "proof request without nonce")
	}

	proofs := make([]api.CredentialProof, 0, len(in.Request.SubProofRequests))
	presented := make([]*zkp.PresentedCredential, 0, len(in.Request.SubProofRequests))

	for i := range in.Request.SubProofRequests {
		sub := &in.Request.SubProofRequests[i]

		cred, ok := in.Credentials[sub.Schema]
		if !ok {
			return nil, api.Errorf(api.KindValidation, op, "no credential for schema %s", sub.Schema)
		}

		cp, pc, err := p.credentialProof(ctx, op, sub, cred, in)
		if err != nil {
			return nil, err
		}

		proofs = append(proofs, *cp)
		presented = append(presented, pc)
	}

	proof, err := p.primitives.BuildProof(&api.ProofInput{
		Credentials:  proofs,
		MasterSecret: in.MasterSecret,
		Nonce:        in.Request.Nonce,
	})
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	return &zkp.ProofPresentation{
		Context:              []string{zkp.W3CContext},
		ID:                   uuid.New().URN(),
		Type:                 []string{zkp.PresentationType},
		VerifiableCredential: presented,
		Proof: zkp.AggregatedProof{
			Type:            zkp.AggregatedProofType,
			Created:         time.Now().UTC(),
			Nonce:           in.Request.Nonce,
			AggregatedProof: proof,
		},
	}, nil
}

func (p *Protocol) credentialProof(ctx context.Context, op string, sub *zkp.SubProofRequest, cred *zkp.Credential,
	in *PresentInput) (*api.CredentialProof, *zkp.PresentedCredential, error) {
	def, err := p.definitions.Get(ctx, cred.Signature.CredentialDefinition)
	if err != nil {
		return nil, nil, err
	}

	schema, err := p.ledger.FetchSchema(ctx, sub.Schema)
	if err != nil {
		return nil, nil, api.Wrap(api.KindUnknown, op, err)
	}

	if def.Schema != schema.ID || cred.CredentialSchema.ID != schema.ID {
		return nil, nil, api.Errorf(api.KindValidation, op, "credential %s is not of schema %s", cred.ID, schema.ID)
	}

	names := revealedAttributes(sub)
	if err = checkAttributes(schema, sub, names); err != nil {
		return nil, nil, api.Wrap(api.KindValidation, op, err)
	}

	if err = checkPredicates(ctx, sub.Predicates, cred.CredentialSubject.Data); err != nil {
		return nil, nil, api.Wrap(api.KindValidation, op, err)
	}

	values, err := zkp.EncodeValues(schema, cred.CredentialSubject.Data)
	if err != nil {
		return nil, nil, api.Wrap(api.KindValidation, op, err)
	}

	pub, err := def.PublicKeyBytes()
	if err != nil {
		return nil, nil, api.Wrap(api.KindCrypto, op, err)
	}

	cp := &api.CredentialProof{
		PublicKey:        pub,
		Signature:        cred.Signature.Signature,
		DefinitionID:     def.ID,
		RevocationHandle: cred.RevocationHandle(),
		Values:           values,
		Revealed:         names,
		Predicates:       sub.Predicates,
	}

	pc := &zkp.PresentedCredential{
		Context:           cred.Context,
		Type:              cred.Type,
		Issuer:            cred.Issuer,
		CredentialSubject: zkp.CredentialSubject{Data: make(map[string]string, len(names))},
		CredentialSchema:  cred.CredentialSchema,
		Proof: zkp.PresentedCredentialProof{
			Type:                 zkp.AggregatedProofType,
			CredentialDefinition: def.ID,
		},
	}

	for _, name := range names {
		pc.CredentialSubject.Data[name] = cred.CredentialSubject.Data[name]
	}

	if cred.Revocable() {
		if cp.Revocation, err = p.revocationProof(ctx, op, cred, in); err != nil {
			return nil, nil, err
		}

		pc.Proof.RevocationRegistryDefinition = cred.Signature.RevocationRegistryDefinition
	}

	return cp, pc, nil
}

func (p *Protocol) revocationProof(ctx context.Context, op string, cred *zkp.Credential,
	in *PresentInput) (*api.RevocationProof, error) {
	witness, ok := in.Witnesses[cred.ID]
	if !ok {
		return nil, api.Errorf(api.KindValidation, op, "no witness for revocable credential %s", cred.ID)
	}

	regID := cred.Signature.RevocationRegistryDefinition

	if witness.RevocationRegistry != regID || witness.RevocationID != cred.Signature.RevocationID {
		return nil, api.Errorf(api.KindCrypto, op, "witness %s#%d does not belong to credential %s",
			witness.RevocationRegistry, witness.RevocationID, cred.ID)
	}

	reg, ok := in.Registries[regID]
	if !ok {
		var err error

		if reg, err = p.ledger.FetchRevocationRegistryDefinition(ctx, regID); err != nil {
			return nil, api.Wrap(api.KindUnknown, op, err)
		}
	}

	switch latest := reg.LatestSequence(); {
	case latest > witness.Sequence:
		return nil, api.Errorf(api.KindStaleWitness, op, "witness of %s is at sequence %d, registry at %d",
			cred.ID, witness.Sequence, latest)
	case latest < witness.Sequence:
		return nil, api.Errorf(api.KindValidation, op, "registry %s at sequence %d is older than the witness",
			regID, latest)
	case reg.StateToken != witness.StateToken:
		return nil, api.Errorf(api.KindCrypto, op, "witness state %s does not match registry state %s",
			witness.StateToken, reg.StateToken)
	}

	pub, err := reg.PublicKeyBytes()
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	return &api.RevocationProof{
		PublicKey:   pub,
		Handle:      cred.RevocationHandle(),
		Witness:     witness.Witness,
		Accumulator: reg.Registry,
	}, nil
}

// VerifyProof checks presentation against request and the current public parameters. The
// request nonce is consumed once the presentation has passed every check, so a rejected
// presentation leaves it usable. A presentation that fails any check yields false and a
// VerificationError; a request naming attributes its schemas do not declare yields a
// ValidationError.
func (p *Protocol) VerifyProof(ctx context.Context, presentation *zkp.ProofPresentation,
	request *zkp.ProofRequest) (bool, error) {
	const op = "verify proof"

	if presentation.Proof.Nonce != request.Nonce {
		return false, api.Errorf(api.KindVerification, op, "presentation is bound to another nonce")
	}

	if err := p.nonces.Check(request.Nonce, NoncePurpose); err != nil {
		return false, api.Errorf(api.KindVerification, op, "proof request nonce: %w", err)
	}

	if len(presentation.VerifiableCredential) != len(request.SubProofRequests) {
		return false, api.Errorf(api.KindVerification, op, "%d credentials presented for %d sub proof requests",
			len(presentation.VerifiableCredential), len(request.SubProofRequests))
	}

	disclosed := make([]*api.DisclosedCredential, 0, len(request.SubProofRequests))

	for i := range request.SubProofRequests {
		d, err := p.disclosedCredential(ctx, op, &request.SubProofRequests[i], presentation.VerifiableCredential[i])
		if err != nil {
			return false, err
		}

		disclosed = append(disclosed, d)
	}

	err := p.primitives.VerifyProof(presentation.Proof.AggregatedProof, request.Nonce, disclosed)
	if err != nil {
		return false, api.Wrap(api.KindVerification, op, err)
	}

	if err = p.nonces.Consume(request.Nonce, NoncePurpose); err != nil {
		return false, api.Errorf(api.KindVerification, op, "proof request nonce: %w", err)
	}

	logger.Debugf("verified presentation %s for nonce %s", presentation.ID, request.Nonce)

	return true, nil
}

// Verdict turns the outcome of VerifyProof into the verification document returned to callers.
func Verdict(verified bool, err error) *zkp.ProofVerification {
	if verified && err == nil {
		return &zkp.ProofVerification{Status: zkp.VerificationStatusVerified}
	}

	v := &zkp.ProofVerification{Status: zkp.VerificationStatusRejected}
	if err != nil {
		v.Reason = err.Error()
	}

	return v
}

func (p *Protocol) disclosedCredential(ctx context.Context, op string, sub *zkp.SubProofRequest,
	pc *zkp.PresentedCredential) (*api.DisclosedCredential, error) {
	schema, err := p.ledger.FetchSchema(ctx, sub.Schema)
	if err != nil {
		return nil, api.Wrap(api.KindValidation, op, err)
	}

	names := revealedAttributes(sub)
	if err = checkAttributes(schema, sub, names); err != nil {
		return nil, api.Wrap(api.KindValidation, op, err)
	}

	if pc.CredentialSchema.ID != schema.ID {
		return nil, api.Errorf(api.KindVerification, op, "presented credential is of schema %s, requested %s",
			pc.CredentialSchema.ID, schema.ID)
	}

	def, err := p.definitions.Get(ctx, pc.Proof.CredentialDefinition)
	if err != nil {
		return nil, api.Errorf(api.KindVerification, op, "credential definition: %w", err)
	}

	if def.Schema != schema.ID {
		return nil, api.Errorf(api.KindVerification, op, "definition %s is not for schema %s", def.ID, schema.ID)
	}

	for _, name := range names {
		if _, ok := pc.CredentialSubject.Data[name]; !ok {
			return nil, api.Errorf(api.KindVerification, op, "attribute %s is not disclosed", name)
		}
	}

	for name := range pc.CredentialSubject.Data {
		if !schema.HasAttribute(name) {
			return nil, api.Errorf(api.KindVerification, op, "disclosed attribute %s is not in schema %s", name, schema.ID)
		}
	}

	pub, err := def.PublicKeyBytes()
	if err != nil {
		return nil, api.Wrap(api.KindVerification, op, err)
	}

	d := &api.DisclosedCredential{
		PublicKey:    pub,
		DefinitionID: def.ID,
		Attributes:   schema.AttributeNames(),
		Revealed:     make([]zkp.Attribute, 0, len(pc.CredentialSubject.Data)),
		Predicates:   sub.Predicates,
	}

	for _, name := range maps.Keys(pc.CredentialSubject.Data) {
		d.Revealed = append(d.Revealed, zkp.Attribute{Name: name, Value: pc.CredentialSubject.Data[name]})
	}

	regID := pc.Proof.RevocationRegistryDefinition

	switch {
	case regID == "" && def.SupportsRevocation:
		return nil, api.Errorf(api.KindVerification, op, "non-revocation proof missing for definition %s", def.ID)
	case regID == "":
		return d, nil
	}

	reg, err := p.ledger.FetchRevocationRegistryDefinition(ctx, regID)
	if err != nil {
		return nil, api.Errorf(api.KindVerification, op, "revocation registry: %w", err)
	}

	if reg.CredentialDefinition != def.ID {
		return nil, api.Errorf(api.KindVerification, op, "registry %s is not for definition %s", reg.ID, def.ID)
	}

	if pub, err = reg.PublicKeyBytes(); err != nil {
		return nil, api.Wrap(api.KindVerification, op, err)
	}

	d.Revocation = &api.RevocationCheck{PublicKey: pub, Accumulator: reg.Registry}

	return d, nil
}

// revealedAttributes returns the revealed attributes of sub, sorted and without duplicates.
func revealedAttributes(sub *zkp.SubProofRequest) []string {
	names := slices.Clone(sub.RevealedAttributes)
	slices.Sort(names)

	return slices.Compact(names)
}

// checkAttributes fails when a revealed or predicate attribute is not declared by schema.
func checkAttributes(schema *zkp.CredentialSchema, sub *zkp.SubProofRequest, revealed []string) error {
	for _, name := range revealed {
		if !schema.HasAttribute(name) {
			return fmt.Errorf("schema %s has no attribute %s", schema.ID, name)
		}
	}

	for _, pred := range sub.Predicates {
		if !schema.HasAttribute(pred.Attribute) {
			return fmt.Errorf("schema %s has no attribute %s", schema.ID, pred.Attribute)
		}
	}

	return nil
}

// checkPredicates evaluates each predicate against the holder's own values as a JSONPath
// expression over the numeric attribute values, before anything is proven.
func checkPredicates(ctx context.Context, predicates []zkp.Predicate, data map[string]string) error {
	if len(predicates) == 0 {
		return nil
	}

	doc := make(map[string]interface{}, len(predicates))

	for _, pred := range predicates {
		v, err := strconv.ParseFloat(data[pred.Attribute], 64)
		if err != nil {
			return fmt.Errorf("attribute %s is not numeric", pred.Attribute)
		}

		doc[pred.Attribute] = v
	}

	builder := gval.Full(jsonpath.PlaceholderExtension())

	for _, pred := range predicates {
		expr := fmt.Sprintf("$[%q] %s %d", pred.Attribute, pred.Type, pred.Value)

		eval, err := builder.NewEvaluable(expr)
		if err != nil {
			return fmt.Errorf("build predicate %s: %w", expr, err)
		}

		ok, err := eval.EvalBool(ctx, doc)
		if err != nil {
			return fmt.Errorf("evaluate predicate %s: %w", expr, err)
		}

		if !ok {
			return fmt.Errorf("predicate %s not satisfied", expr)
		}
	}

	return nil
}
