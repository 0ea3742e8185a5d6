/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package creddef creates and resolves credential definitions: the issuer public key bound to a
// schema. Private keys are sealed into the issuer vault and never leave it.
package creddef

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/internal/keylock"
	"github.com/evannetwork/vade-evan-cl/pkg/store/vault"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

var logger = log.New("vade-evan-cl/creddef")

// Provider contains dependencies for the credential definition manager.
type Provider interface {
	Ledger() api.Ledger
	Primitives() api.Primitives
	Vault() *vault.Store
	KeyResolver() zkp.KeyResolver
	DIDMethod() string
}

// Manager creates and resolves credential definitions.
type Manager struct {
	ledger     api.Ledger
	primitives api.Primitives
	vault      *vault.Store
	resolver   zkp.KeyResolver
	method     string
	locks      *keylock.Locker
}

// New returns a credential definition manager.
func New(p Provider) *Manager {
	return &Manager{
		ledger:     p.Ledger(),
		primitives: p.Primitives(),
		vault:      p.Vault(),
		resolver:   p.KeyResolver(),
		method:     p.DIDMethod(),
		locks:      keylock.New(),
	}
}

// Create generates a key pair for schemaID and publishes the definition. An issuer has at most one
// definition per schema and revocation flag.
func (m *Manager) Create(ctx context.Context, issuer *zkp.Identity, schemaID string,
	supportsRevocation bool) (*zkp.CredentialDefinition, error) {
	const op = "create credential definition"

	if issuer == nil || issuer.ID == "" {
		return nil, api.Errorf(api.KindValidation, op, "issuer identity is required")
	}

	if err := issuer.Authorize(issuer.ID, m.resolver); err != nil {
		return nil, api.Wrap(api.KindValidation, op, err)
	}

	schema, err := m.ledger.FetchSchema(ctx, schemaID)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	unlock := m.locks.Lock(fmt.Sprintf("%s|%s|%t", issuer.ID, schema.ID, supportsRevocation))
	defer unlock()

	existing, err := m.vault.IssuerDefinition(issuer.ID, schema.ID, supportsRevocation)

	switch {
	case err == nil:
		return nil, api.Errorf(api.KindValidation, op,
			"issuer %s already defined %s for schema %s", issuer.ID, existing, schema.ID)
	case !errors.Is(err, vault.ErrNotFound):
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	keys, err := m.primitives.NewCredentialKeys()
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	pub, err := zkp.EncodeMultibase(keys.PublicKey)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	proof, err := zkp.EncodeMultibase(keys.CorrectnessProof)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	now := time.Now().UTC()
	def := &zkp.CredentialDefinition{
		ID:                        zkp.NewID(m.method),
		Type:                      zkp.CredentialDefinitionType,
		Issuer:                    issuer.ID,
		Schema:                    schema.ID,
		CreatedAt:                 now,
		SupportsRevocation:        supportsRevocation,
		PublicKey:                 pub,
		PublicKeyCorrectnessProof: proof,
	}

	if err = m.vault.PutCredentialKey(def.ID, keys.PrivateKey); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if def.Proof, err = issuer.Sign(def, now); err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	if err = m.ledger.PublishCredentialDefinition(ctx, def); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if err = m.vault.PutIssuerDefinition(issuer.ID, schema.ID, supportsRevocation, def.ID); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	logger.Infof("published credential definition %s for schema %s (revocation: %t)",
		def.ID, schema.ID, supportsRevocation)

	return def, nil
}

// Get fetches a definition. When a key resolver is configured its assertion proof is required
// and checked.
func (m *Manager) Get(ctx context.Context, id string) (*zkp.CredentialDefinition, error) {
	const op = "get credential definition"

	def, err := m.ledger.FetchCredentialDefinition(ctx, id)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if m.resolver != nil {
		if err = zkp.VerifyAssertion(def.Proof, def.Unsigned(), def.Issuer, m.resolver); err != nil {
			return nil, api.Wrap(api.KindCrypto, op, err)
		}
	}

	return def, nil
}

// Resolve is Get for a holder about to use the definition: the key correctness proof is
// verified as well.
func (m *Manager) Resolve(ctx context.Context, id string) (*zkp.CredentialDefinition, error) {
	const op = "resolve credential definition"

	def, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pub, err := def.PublicKeyBytes()
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	proof, err := def.CorrectnessProofBytes()
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	if err = m.primitives.VerifyCredentialKeys(pub, proof); err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	return def, nil
}

// PrivateKey opens the sealed private key of a definition this issuer created.
func (m *Manager) PrivateKey(id string) ([]byte, error) {
	const op = "open credential key"

	key, err := m.vault.CredentialKey(id)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, api.Errorf(api.KindNotFound, op, "no private key for definition %s", id)
		}

		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	return key, nil
}
