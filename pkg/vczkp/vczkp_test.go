/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vczkp

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/ledger"
	"github.com/evannetwork/vade-evan-cl/pkg/store/nonce"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/presentation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/schema"
)

const (
	issuerDID   = "did:evan:testcore:issuer"
	holderDID   = "did:evan:testcore:holder"
	verifierDID = "did:evan:testcore:verifier"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (n *recordingNotifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.messages == nil {
		n.messages = map[string][][]byte{}
	}

	n.messages[topic] = append(n.messages[topic], message)

	return nil
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		require.Equal(t, DefaultDIDMethod, s.DIDMethod())
		require.NotNil(t, s.Ledger())
		require.NotNil(t, s.Primitives())
		require.NotNil(t, s.Schemas())
		require.NotNil(t, s.Issuance())
		require.NotNil(t, s.Presentation())
		require.Nil(t, s.KeyResolver())
		require.NoError(t, s.Close())
	})

	t.Run("option error", func(t *testing.T) {
		_, err := New(WithDIDMethod(""))
		require.EqualError(t, err, "error in option passed to New: empty DID method")
	})

	t.Run("default ledger store fails", func(t *testing.T) {
		_, err := New(WithStorageProvider(&mockstorage.MockStoreProvider{FailNamespace: ledger.StoreName}))
		require.Error(t, err)
		require.Contains(t, err.Error(), "default option initialization failed")
	})

	t.Run("nonce store fails", func(t *testing.T) {
		_, err := New(WithStorageProvider(&mockstorage.MockStoreProvider{FailNamespace: nonce.StoreName}))
		require.Error(t, err)
		require.Contains(t, err.Error(), "create nonce store")
	})

	t.Run("close error", func(t *testing.T) {
		s, err := New(WithStorageProvider(&mockstorage.MockStoreProvider{
			Store:    &mockstorage.MockStore{Store: map[string]mockstorage.DBEntry{}},
			ErrClose: errors.New("close failed"),
		}))
		require.NoError(t, err)
		require.EqualError(t, s.Close(), "failed to close the store: close failed")
	})
}

type scenario struct {
	service *Service
	issuer  *zkp.Identity
	schema  *zkp.CredentialSchema
	def     *zkp.CredentialDefinition
	reg     *zkp.RevocationRegistryDefinition
	ms      []byte
}

func newScenario(t *testing.T, opts ...Option) *scenario {
	t.Helper()

	ctx := context.Background()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	resolver := zkp.NewStaticKeyResolver()
	resolver.Add(issuerDID+"#key-1", pub)

	s, err := New(append([]Option{WithKeyResolver(resolver)}, opts...)...)
	require.NoError(t, err)

	issuer := &zkp.Identity{ID: issuerDID, VerificationMethod: issuerDID + "#key-1", PrivateKey: priv}

	sch, err := s.Schemas().Create(ctx, issuer, &schema.CreateRequest{
		Name:       "person",
		Attributes: []string{"age", "country"},
		Required:   []string{"age", "country"},
	})
	require.NoError(t, err)

	def, err := s.CredentialDefinitions().Create(ctx, issuer, sch.ID, true)
	require.NoError(t, err)

	reg, err := s.Revocation().CreateDefinition(ctx, issuer, def.ID, 2)
	require.NoError(t, err)

	ms, err := s.Primitives().NewMasterSecret()
	require.NoError(t, err)

	return &scenario{service: s, issuer: issuer, schema: sch, def: def, reg: reg, ms: ms}
}

func (sc *scenario) issue(t *testing.T, values map[string]string) (*zkp.Credential, *zkp.RevocationState) {
	t.Helper()

	ctx := context.Background()
	iss := sc.service.Issuance()

	proposal, err := iss.CreateProposal(ctx, issuerDID, holderDID, sc.schema.ID)
	require.NoError(t, err)

	offer, err := iss.CreateOffer(ctx, sc.issuer, proposal, sc.def.ID)
	require.NoError(t, err)

	request, blinding, err := iss.RequestCredential(ctx, offer, sc.ms, values)
	require.NoError(t, err)

	result, err := iss.IssueCredential(ctx, sc.issuer, request, nil)
	require.NoError(t, err)

	cred, err := iss.FinishCredential(ctx, result.Credential, sc.ms, blinding)
	require.NoError(t, err)

	return cred, result.RevocationState
}

func (sc *scenario) adultRequest(t *testing.T) *zkp.ProofRequest {
	t.Helper()

	req, err := sc.service.Presentation().RequestProof(verifierDID, holderDID, []zkp.SubProofRequest{{
		Schema:     sc.schema.ID,
		Predicates: []zkp.Predicate{{Attribute: "age", Type: zkp.PredicateGE, Value: 18}},
	}})
	require.NoError(t, err)

	return req
}

func (sc *scenario) present(req *zkp.ProofRequest, cred *zkp.Credential, witness *zkp.RevocationState,
	registry *zkp.RevocationRegistryDefinition) (*zkp.ProofPresentation, error) {
	in := &presentation.PresentInput{
		Request:      req,
		Credentials:  map[string]*zkp.Credential{sc.schema.ID: cred},
		Witnesses:    map[string]*zkp.RevocationState{cred.ID: witness},
		MasterSecret: sc.ms,
	}

	if registry != nil {
		in.Registries = map[string]*zkp.RevocationRegistryDefinition{registry.ID: registry}
	}

	return sc.service.Presentation().PresentProof(context.Background(), in)
}

func TestRevokedCredentialScenario(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}

	sc := newScenario(t, WithNotifier(notifier))

	cred, witness := sc.issue(t, map[string]string{"age": "30", "country": "DE"})
	require.Zero(t, cred.Signature.RevocationID)
	require.Equal(t, sc.reg.ID, cred.Signature.RevocationRegistryDefinition)

	// the holder can prove age >= 18 while the credential is live
	req := sc.adultRequest(t)

	p, err := sc.present(req, cred, witness, nil)
	require.NoError(t, err)

	ok, err := sc.service.Presentation().VerifyProof(ctx, p, req)
	require.NoError(t, err)
	require.True(t, ok)

	// the holder keeps the registry state it built its witness against
	snapshot, err := sc.service.Ledger().FetchRevocationRegistryDefinition(ctx, sc.reg.ID)
	require.NoError(t, err)
	require.Equal(t, witness.Sequence, snapshot.LatestSequence())

	delta, err := sc.service.Revocation().Revoke(ctx, sc.issuer, sc.reg.ID, 0)
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, delta.Revoked)

	info, err := sc.service.Revocation().RevocationInfo(sc.reg.ID)
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, info.RevokedIDs)

	t.Run("stale witness against the old registry state fails verification", func(t *testing.T) {
		req := sc.adultRequest(t)

		p, err := sc.present(req, cred, witness, snapshot)
		require.NoError(t, err)

		ok, err := sc.service.Presentation().VerifyProof(ctx, p, req)
		require.ErrorIs(t, err, api.ErrVerification)
		require.False(t, ok)

		v := presentation.Verdict(ok, err)
		require.Equal(t, zkp.VerificationStatusRejected, v.Status)
	})

	t.Run("stale witness against the current registry is refused", func(t *testing.T) {
		_, err := sc.present(sc.adultRequest(t), cred, witness, nil)
		require.ErrorIs(t, err, api.ErrStaleWitness)
	})

	t.Run("revoked witness cannot be refreshed", func(t *testing.T) {
		_, err := sc.service.Revocation().RefreshWitness(ctx, witness)
		require.ErrorIs(t, err, api.ErrProtocol)
	})

	t.Run("revoking again is a no-op", func(t *testing.T) {
		again, err := sc.service.Revocation().Revoke(ctx, sc.issuer, sc.reg.ID, 0)
		require.NoError(t, err)
		require.Equal(t, delta.Sequence, again.Sequence)
	})

	t.Run("registry has room for one more credential", func(t *testing.T) {
		second, w2 := sc.issue(t, map[string]string{"age": "45", "country": "AT"})
		require.EqualValues(t, 1, second.Signature.RevocationID)

		req := sc.adultRequest(t)

		p, err := sc.present(req, second, w2, nil)
		require.NoError(t, err)

		ok, err := sc.service.Presentation().VerifyProof(ctx, p, req)
		require.NoError(t, err)
		require.True(t, ok)

		iss := sc.service.Issuance()

		proposal, err := iss.CreateProposal(ctx, issuerDID, holderDID, sc.schema.ID)
		require.NoError(t, err)

		offer, err := iss.CreateOffer(ctx, sc.issuer, proposal, sc.def.ID)
		require.NoError(t, err)

		request, _, err := iss.RequestCredential(ctx, offer, sc.ms, map[string]string{"age": "50", "country": "CH"})
		require.NoError(t, err)

		_, err = iss.IssueCredential(ctx, sc.issuer, request, nil)
		require.ErrorIs(t, err, api.ErrCapacity)
	})

	t.Run("deltas are announced", func(t *testing.T) {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()

		msgs := notifier.messages[ledger.RevocationDeltaTopic]
		require.NotEmpty(t, msgs)

		var last zkp.RevocationRegistryDelta
		require.NoError(t, json.Unmarshal(msgs[len(msgs)-1], &last))
		require.Equal(t, sc.reg.ID, last.Registry)
	})
}

func TestPublishedRecordsCarryAssertions(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t)

	require.NotNil(t, sc.schema.Proof)
	require.NotNil(t, sc.def.Proof)
	require.NotNil(t, sc.reg.Proof)

	got, err := sc.service.CredentialDefinitions().Resolve(ctx, sc.def.ID)
	require.NoError(t, err)
	require.Equal(t, sc.schema.ID, got.Schema)

	_, err = sc.service.Schemas().Get(ctx, sc.schema.ID)
	require.NoError(t, err)
}
