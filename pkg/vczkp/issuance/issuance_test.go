/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/evannetwork/vade-evan-cl/pkg/crypto/zkpbbs"
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	mockapi "github.com/evannetwork/vade-evan-cl/pkg/internal/gomocks/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/ledger"
	"github.com/evannetwork/vade-evan-cl/pkg/secretlock/hkdf"
	"github.com/evannetwork/vade-evan-cl/pkg/store/nonce"
	"github.com/evannetwork/vade-evan-cl/pkg/store/vault"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/revocation"
)

const (
	issuerDID  = "did:evan:testcore:issuer"
	subjectDID = "did:evan:testcore:holder"
)

type provider struct {
	storage     storage.Provider
	ledger      api.Ledger
	primitives  api.Primitives
	nonces      *nonce.Store
	vault       *vault.Store
	resolver    zkp.KeyResolver
	definitions *creddef.Manager
	revocation  *revocation.Registry
}

func (p *provider) StorageProvider() storage.Provider       { return p.storage }
func (p *provider) Ledger() api.Ledger                      { return p.ledger }
func (p *provider) Primitives() api.Primitives              { return p.primitives }
func (p *provider) Nonces() *nonce.Store                    { return p.nonces }
func (p *provider) Vault() *vault.Store                     { return p.vault }
func (p *provider) KeyResolver() zkp.KeyResolver            { return p.resolver }
func (p *provider) DIDMethod() string                       { return "evan" }
func (p *provider) CredentialDefinitions() *creddef.Manager { return p.definitions }
func (p *provider) Revocation() *revocation.Registry        { return p.revocation }

type fixture struct {
	provider *provider
	protocol *Protocol
	issuer   *zkp.Identity
	schema   *zkp.CredentialSchema
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := mem.NewProvider()

	l, err := ledger.New(store)
	require.NoError(t, err)

	lock, err := hkdf.NewEphemeralLock()
	require.NoError(t, err)

	v, err := vault.New(store, lock)
	require.NoError(t, err)

	n, err := nonce.New(store)
	require.NoError(t, err)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	issuer := &zkp.Identity{ID: issuerDID, VerificationMethod: issuerDID + "#key-1", PrivateKey: priv}

	resolver := zkp.NewStaticKeyResolver()
	resolver.Add(issuer.VerificationMethod, pub)

	p := &provider{storage: store, ledger: l, primitives: zkpbbs.New(), nonces: n, vault: v, resolver: resolver}
	p.definitions = creddef.New(p)
	p.revocation = revocation.New(p)

	schema := &zkp.CredentialSchema{
		ID:         "did:evan:zkp:schema",
		Type:       zkp.SchemaType,
		Name:       "person",
		Author:     issuerDID,
		Properties: map[string]zkp.SchemaProperty{"age": {Type: "string"}, "country": {Type: "string"}},
		Required:   []string{"age"},
	}
	require.NoError(t, l.PublishSchema(context.Background(), schema))

	protocol, err := New(p)
	require.NoError(t, err)

	return &fixture{provider: p, protocol: protocol, issuer: issuer, schema: schema}
}

func (f *fixture) definition(t *testing.T, revocable bool, capacity uint32) *zkp.CredentialDefinition {
	t.Helper()

	ctx := context.Background()

	def, err := f.provider.definitions.Create(ctx, f.issuer, f.schema.ID, revocable)
	require.NoError(t, err)

	if revocable {
		_, err = f.provider.revocation.CreateDefinition(ctx, f.issuer, def.ID, capacity)
		require.NoError(t, err)
	}

	return def
}

type handshake struct {
	offer    *zkp.CredentialOffer
	request  *zkp.CredentialRequest
	blinding *zkp.CredentialSecretsBlindingFactors
	ms       []byte
}

func (f *fixture) request(t *testing.T, def *zkp.CredentialDefinition, values map[string]string) *handshake {
	t.Helper()

	ctx := context.Background()

	proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
	require.NoError(t, err)

	offer, err := f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
	require.NoError(t, err)

	ms, err := f.provider.primitives.NewMasterSecret()
	require.NoError(t, err)

	request, blinding, err := f.protocol.RequestCredential(ctx, offer, ms, values)
	require.NoError(t, err)

	return &handshake{offer: offer, request: request, blinding: blinding, ms: ms}
}

func TestNew(t *testing.T) {
	_, err := New(&provider{storage: &mockstorage.MockStoreProvider{FailNamespace: StoreName}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open issuance store")
}

func TestProtocol_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("non revocable", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		h := f.request(t, def, map[string]string{"age": "30"})
		require.Equal(t, h.offer.Nonce, h.request.CredentialNonce)
		require.Equal(t, h.offer.ID, h.blinding.Thread)

		result, err := f.protocol.IssueCredential(ctx, f.issuer, h.request, nil)
		require.NoError(t, err)
		require.Nil(t, result.RevocationState)
		require.Nil(t, result.RevocationInfo)

		cred := result.Credential
		require.False(t, cred.Revocable())
		require.Equal(t, issuerDID, cred.Issuer)
		require.Equal(t, subjectDID, cred.CredentialSubject.ID)
		require.Equal(t, map[string]string{"age": "30", "country": zkp.NullValue}, cred.CredentialSubject.Data)
		require.Equal(t, def.ID, cred.Signature.CredentialDefinition)
		require.Equal(t, h.offer.Nonce, cred.Signature.IssuanceNonce)

		finished, err := f.protocol.FinishCredential(ctx, cred, h.ms, h.blinding)
		require.NoError(t, err)
		require.NotEqual(t, cred.Signature.Signature, finished.Signature.Signature)

		_, err = f.protocol.FinishCredential(ctx, cred, h.ms, h.blinding)
		require.ErrorIs(t, err, api.ErrProtocol)
	})

	t.Run("revocable", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, true, 2)

		h := f.request(t, def, map[string]string{"age": "30", "country": "DE"})

		result, err := f.protocol.IssueCredential(ctx, f.issuer, h.request, nil)
		require.NoError(t, err)

		cred := result.Credential
		require.True(t, cred.Revocable())
		require.Zero(t, cred.Signature.RevocationID)
		require.NotNil(t, result.RevocationState)
		require.Equal(t, cred.ID, result.RevocationState.CredentialID)
		require.Equal(t, cred.Signature.RevocationRegistryDefinition, result.RevocationState.RevocationRegistry)
		require.EqualValues(t, 1, result.RevocationInfo.NextUnusedID)

		_, err = f.protocol.FinishCredential(ctx, cred, h.ms, h.blinding)
		require.NoError(t, err)
	})

	t.Run("issuer overrides values", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		h := f.request(t, def, map[string]string{"age": "30"})

		result, err := f.protocol.IssueCredential(ctx, f.issuer, h.request, map[string]string{"age": "31"})
		require.NoError(t, err)
		require.Equal(t, "31", result.Credential.CredentialSubject.Data["age"])

		_, err = f.protocol.FinishCredential(ctx, result.Credential, h.ms, h.blinding)
		require.NoError(t, err)
	})

	t.Run("full registry", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, true, 1)

		first := f.request(t, def, map[string]string{"age": "30"})
		_, err := f.protocol.IssueCredential(ctx, f.issuer, first.request, nil)
		require.NoError(t, err)

		second := f.request(t, def, map[string]string{"age": "40"})
		_, err = f.protocol.IssueCredential(ctx, f.issuer, second.request, nil)
		require.ErrorIs(t, err, api.ErrCapacity)

		require.NoError(t, f.provider.nonces.Check(second.offer.Nonce, NoncePurpose))
	})

	t.Run("request issued twice", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		h := f.request(t, def, map[string]string{"age": "30"})

		_, err := f.protocol.IssueCredential(ctx, f.issuer, h.request, nil)
		require.NoError(t, err)

		_, err = f.protocol.IssueCredential(ctx, f.issuer, h.request, nil)
		require.ErrorIs(t, err, api.ErrProtocol)
	})

	t.Run("nonce of another offer", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		a := f.request(t, def, map[string]string{"age": "30"})
		b := f.request(t, def, map[string]string{"age": "30"})

		forged := *b.request
		forged.CredentialNonce = a.offer.Nonce

		_, err := f.protocol.IssueCredential(ctx, f.issuer, &forged, nil)
		require.ErrorIs(t, err, api.ErrProtocol)
		require.Contains(t, err.Error(), "stale or mismatched nonce")
	})

	t.Run("no offer on thread", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		h := f.request(t, def, map[string]string{"age": "30"})

		forged := *h.request
		forged.ID = "unknown-thread"

		_, err := f.protocol.IssueCredential(ctx, f.issuer, &forged, nil)
		require.ErrorIs(t, err, api.ErrProtocol)
	})

	t.Run("blinded secret does not match its proof", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		a := f.request(t, def, map[string]string{"age": "30"})
		b := f.request(t, def, map[string]string{"age": "30"})

		forged := *a.request
		forged.BlindedCredentialSecrets = b.request.BlindedCredentialSecrets

		_, err := f.protocol.IssueCredential(ctx, f.issuer, &forged, nil)
		require.ErrorIs(t, err, api.ErrCrypto)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		h := f.request(t, def, map[string]string{"age": "30"})

		_, err := f.protocol.IssueCredential(ctx, &zkp.Identity{ID: "did:evan:testcore:mallory"}, h.request, nil)
		require.ErrorIs(t, err, api.ErrValidation)
	})

	t.Run("issuer DID without key", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, true, 2)

		h := f.request(t, def, map[string]string{"age": "30"})

		_, err := f.protocol.IssueCredential(ctx, &zkp.Identity{ID: issuerDID}, h.request, nil)
		require.ErrorIs(t, err, api.ErrValidation)
		require.ErrorIs(t, err, zkp.ErrNoSigningKey)

		registryID, err := f.provider.vault.ActiveRegistry(def.ID)
		require.NoError(t, err)

		info, err := f.provider.revocation.RevocationInfo(registryID)
		require.NoError(t, err)
		require.Empty(t, info.UsedIDs)
	})

	t.Run("signing fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newFixture(t)
		def := f.definition(t, false, 0)
		h := f.request(t, def, map[string]string{"age": "30"})

		prims := mockapi.NewMockPrimitives(ctrl)
		prims.EXPECT().VerifyBlindedSecret(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		prims.EXPECT().SignCredential(gomock.Any()).Return(nil, errors.New("bad key"))

		f.provider.primitives = prims

		p, err := New(f.provider)
		require.NoError(t, err)

		_, err = p.IssueCredential(ctx, f.issuer, h.request, nil)
		require.ErrorIs(t, err, api.ErrCrypto)

		require.NoError(t, f.provider.nonces.Check(h.offer.Nonce, NoncePurpose))
	})

	t.Run("signing fails after an index was allocated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newFixture(t)
		def := f.definition(t, true, 2)
		h := f.request(t, def, map[string]string{"age": "30"})

		prims := mockapi.NewMockPrimitives(ctrl)
		prims.EXPECT().VerifyBlindedSecret(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		prims.EXPECT().SignCredential(gomock.Any()).Return(nil, errors.New("bad key"))

		f.provider.primitives = prims

		p, err := New(f.provider)
		require.NoError(t, err)

		_, err = p.IssueCredential(ctx, f.issuer, h.request, nil)
		require.ErrorIs(t, err, api.ErrCrypto)

		registryID, err := f.provider.vault.ActiveRegistry(def.ID)
		require.NoError(t, err)

		info, err := f.provider.revocation.RevocationInfo(registryID)
		require.NoError(t, err)
		require.Equal(t, []uint32{0}, info.UsedIDs)
		require.Equal(t, []uint32{0}, info.RevokedIDs)

		head, err := f.provider.revocation.Get(ctx, registryID)
		require.NoError(t, err)
		require.Equal(t, []uint32{0}, head.RegistryDelta.Revoked)
	})
}

func TestProtocol_Handshake(t *testing.T) {
	ctx := context.Background()

	t.Run("offer by an issuer DID without key", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
		require.NoError(t, err)

		_, err = f.protocol.CreateOffer(ctx, &zkp.Identity{ID: issuerDID}, proposal, def.ID)
		require.ErrorIs(t, err, api.ErrValidation)
		require.ErrorIs(t, err, zkp.ErrNoSigningKey)
	})

	t.Run("unknown schema", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, "did:evan:zkp:unknown")
		require.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("missing subject", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.protocol.CreateProposal(ctx, issuerDID, "", f.schema.ID)
		require.ErrorIs(t, err, api.ErrValidation)
	})

	t.Run("definition of another schema", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
		require.NoError(t, err)

		proposal.Schema = "did:evan:zkp:other"

		_, err = f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
		require.ErrorIs(t, err, api.ErrValidation)
	})

	t.Run("offer twice", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
		require.NoError(t, err)

		_, err = f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
		require.NoError(t, err)

		_, err = f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
		require.ErrorIs(t, err, api.ErrProtocol)
		require.Contains(t, err.Error(), "invalid state transition")
	})

	t.Run("request twice", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)
		h := f.request(t, def, map[string]string{"age": "30"})

		_, _, err := f.protocol.RequestCredential(ctx, h.offer, h.ms, map[string]string{"age": "30"})
		require.ErrorIs(t, err, api.ErrProtocol)
	})

	t.Run("offer received without proposal", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
		require.NoError(t, err)

		offer, err := f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
		require.NoError(t, err)

		holder, err := New(&provider{
			storage: mem.NewProvider(), ledger: f.provider.ledger, primitives: f.provider.primitives,
			definitions: f.provider.definitions,
		})
		require.NoError(t, err)

		_, _, err = holder.RequestCredential(ctx, offer, []byte("master secret"), map[string]string{"age": "30"})
		require.NoError(t, err)
	})

	tests := []struct {
		name   string
		values map[string]string
		errMsg string
	}{
		{name: "unknown attribute", values: map[string]string{"age": "30", "height": "180"}, errMsg: "unknown attribute"},
		{name: "missing required attribute", values: map[string]string{"country": "DE"}, errMsg: "missing required attribute"},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			def := f.definition(t, false, 0)

			proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
			require.NoError(t, err)

			offer, err := f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
			require.NoError(t, err)

			_, _, err = f.protocol.RequestCredential(ctx, offer, []byte("master secret"), tc.values)
			require.ErrorIs(t, err, api.ErrValidation)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("blinding fails", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)

		proposal, err := f.protocol.CreateProposal(ctx, issuerDID, subjectDID, f.schema.ID)
		require.NoError(t, err)

		offer, err := f.protocol.CreateOffer(ctx, f.issuer, proposal, def.ID)
		require.NoError(t, err)

		_, _, err = f.protocol.RequestCredential(ctx, offer, nil, map[string]string{"age": "30"})
		require.ErrorIs(t, err, api.ErrCrypto)
	})
}

func TestProtocol_FinishCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong master secret", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)
		h := f.request(t, def, map[string]string{"age": "30"})

		result, err := f.protocol.IssueCredential(ctx, f.issuer, h.request, nil)
		require.NoError(t, err)

		other, err := f.provider.primitives.NewMasterSecret()
		require.NoError(t, err)

		_, err = f.protocol.FinishCredential(ctx, result.Credential, other, h.blinding)
		require.ErrorIs(t, err, api.ErrCrypto)
	})

	t.Run("tampered values", func(t *testing.T) {
		f := newFixture(t)
		def := f.definition(t, false, 0)
		h := f.request(t, def, map[string]string{"age": "30"})

		result, err := f.protocol.IssueCredential(ctx, f.issuer, h.request, nil)
		require.NoError(t, err)

		cred := *result.Credential
		cred.CredentialSubject.Data = map[string]string{"age": "99"}

		_, err = f.protocol.FinishCredential(ctx, &cred, h.ms, h.blinding)
		require.ErrorIs(t, err, api.ErrCrypto)
	})

	t.Run("missing blinding factors", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.protocol.FinishCredential(ctx, &zkp.Credential{Thread: "thread"}, nil, nil)
		require.ErrorIs(t, err, api.ErrValidation)
	})
}
