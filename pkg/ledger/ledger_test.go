/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

const registryID = "did:evan:zkp:registry"

type recordingNotifier struct {
	mu       sync.Mutex
	topics   []string
	messages [][]byte
	err      error
}

func (n *recordingNotifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.topics = append(n.topics, topic)
	n.messages = append(n.messages, message)

	return n.err
}

func newLedger(t *testing.T, opts ...Opt) *Ledger {
	t.Helper()

	l, err := New(mem.NewProvider(), opts...)
	require.NoError(t, err)

	return l
}

func TestNew(t *testing.T) {
	_, err := New(&mockstorage.MockStoreProvider{FailNamespace: StoreName})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open ledger store")
}

func TestLedger_Schema(t *testing.T) {
	l := newLedger(t, WithCacheSize(2))
	ctx := context.Background()

	schema := &zkp.CredentialSchema{
		ID:         "did:evan:zkp:schema",
		Type:       zkp.SchemaType,
		Name:       "person",
		Properties: map[string]zkp.SchemaProperty{"age": {Type: "string"}},
		Required:   []string{"age"},
	}

	require.NoError(t, l.PublishSchema(ctx, schema))

	err := l.PublishSchema(ctx, schema)
	require.ErrorIs(t, err, api.ErrValidation)

	got, err := l.FetchSchema(ctx, schema.ID)
	require.NoError(t, err)
	require.Equal(t, schema.Name, got.Name)

	cached, err := l.FetchSchema(ctx, schema.ID)
	require.NoError(t, err)
	require.Same(t, got, cached)

	_, err = l.FetchSchema(ctx, "did:evan:zkp:missing")
	require.ErrorIs(t, err, api.ErrNotFound)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = l.FetchSchema(canceled, "did:evan:zkp:other")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLedger_CredentialDefinition(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	def := &zkp.CredentialDefinition{ID: "did:evan:zkp:def", Schema: "did:evan:zkp:schema", PublicKey: "zabc"}
	require.NoError(t, l.PublishCredentialDefinition(ctx, def))
	require.ErrorIs(t, l.PublishCredentialDefinition(ctx, def), api.ErrValidation)

	got, err := l.FetchCredentialDefinition(ctx, def.ID)
	require.NoError(t, err)
	require.Equal(t, def.PublicKey, got.PublicKey)

	_, err = l.FetchCredentialDefinition(ctx, "did:evan:zkp:missing")
	require.ErrorIs(t, err, api.ErrNotFound)
}

func nextHead(head *zkp.RevocationRegistryDefinition, issued uint32) (*zkp.RevocationRegistryDefinition,
	*zkp.RevocationRegistryDelta) {
	delta := &zkp.RevocationRegistryDelta{
		Registry:      head.ID,
		Sequence:      head.LatestSequence() + 1,
		PreviousToken: head.StateToken,
		StateToken:    head.StateToken + "+",
		Issued:        []uint32{issued},
		Accumulator:   []byte{byte(issued)},
		Updates:       [][]byte{[]byte("update")},
		Created:       time.Now(),
	}

	next := *head
	next.Registry = delta.Accumulator
	next.RegistryDelta = delta
	next.StateToken = delta.StateToken
	next.DeltaHistory = nil

	return &next, delta
}

func TestLedger_RevocationRegistry(t *testing.T) {
	notifier := &recordingNotifier{}
	l := newLedger(t, WithNotifier(notifier))
	ctx := context.Background()

	genesis := &zkp.RevocationRegistryDefinition{ID: registryID, StateToken: "genesis", MaximumCredentialCount: 2}
	require.NoError(t, l.PublishRevocationRegistryDefinition(ctx, genesis))
	require.ErrorIs(t, l.PublishRevocationRegistryDefinition(ctx, genesis), api.ErrValidation)

	head1, delta1 := nextHead(genesis, 0)
	require.NoError(t, l.AppendRevocationRegistryDelta(ctx, head1, delta1))

	head2, delta2 := nextHead(head1, 1)
	require.NoError(t, l.AppendRevocationRegistryDelta(ctx, head2, delta2))

	t.Run("replaying a delta is refused", func(t *testing.T) {
		err := l.AppendRevocationRegistryDelta(ctx, head1, delta1)
		require.ErrorIs(t, err, api.ErrProtocol)
	})

	t.Run("forked chain is refused", func(t *testing.T) {
		forkHead, fork := nextHead(head2, 2)
		fork.PreviousToken = "other"
		require.ErrorIs(t, l.AppendRevocationRegistryDelta(ctx, forkHead, fork), api.ErrProtocol)
	})

	t.Run("head must match delta", func(t *testing.T) {
		bad, delta := nextHead(head2, 2)
		bad.StateToken = "mismatch"
		require.ErrorIs(t, l.AppendRevocationRegistryDelta(ctx, bad, delta), api.ErrValidation)

		foreign, delta := nextHead(head2, 2)
		delta.Registry = "did:evan:zkp:other"
		require.ErrorIs(t, l.AppendRevocationRegistryDelta(ctx, foreign, delta), api.ErrValidation)
	})

	t.Run("fetch fills history", func(t *testing.T) {
		got, err := l.FetchRevocationRegistryDefinition(ctx, registryID)
		require.NoError(t, err)
		require.Equal(t, uint64(2), got.LatestSequence())
		require.Equal(t, head2.StateToken, got.StateToken)
		require.Len(t, got.DeltaHistory, 2)
		require.Equal(t, delta1.StateToken, got.DeltaHistory[0].StateToken)
	})

	t.Run("deltas since", func(t *testing.T) {
		deltas, err := l.FetchRevocationRegistryDeltas(ctx, registryID, 1)
		require.NoError(t, err)
		require.Len(t, deltas, 1)
		require.Equal(t, uint64(2), deltas[0].Sequence)

		deltas, err = l.FetchRevocationRegistryDeltas(ctx, registryID, 2)
		require.NoError(t, err)
		require.Empty(t, deltas)

		_, err = l.FetchRevocationRegistryDeltas(ctx, "did:evan:zkp:missing", 0)
		require.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("registry with deltas cannot be published", func(t *testing.T) {
		withDelta := *head2
		withDelta.ID = "did:evan:zkp:registry2"
		require.ErrorIs(t, l.PublishRevocationRegistryDefinition(ctx, &withDelta), api.ErrValidation)
	})

	require.Equal(t, []string{RevocationDeltaTopic, RevocationDeltaTopic}, notifier.topics)

	var notified zkp.RevocationRegistryDelta
	require.NoError(t, json.Unmarshal(notifier.messages[1], &notified))
	require.Equal(t, uint64(2), notified.Sequence)
}

func TestLedger_ConcurrentAppend(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	genesis := &zkp.RevocationRegistryDefinition{ID: registryID, StateToken: "genesis"}
	require.NoError(t, l.PublishRevocationRegistryDefinition(ctx, genesis))

	head, delta := nextHead(genesis, 0)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < 5; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if l.AppendRevocationRegistryDelta(ctx, head, delta) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, 1, succeeded)
}

func TestLedger_StoreErrors(t *testing.T) {
	ctx := context.Background()

	provider := mockstorage.NewMockStoreProvider()
	l, err := New(provider, WithNotifier(&recordingNotifier{err: errors.New("offline")}))
	require.NoError(t, err)

	genesis := &zkp.RevocationRegistryDefinition{ID: registryID, StateToken: "genesis"}
	require.NoError(t, l.PublishRevocationRegistryDefinition(ctx, genesis))

	t.Run("batch error", func(t *testing.T) {
		provider.Store.ErrBatch = errors.New("batch error")
		defer func() { provider.Store.ErrBatch = nil }()

		head, delta := nextHead(genesis, 0)
		err := l.AppendRevocationRegistryDelta(ctx, head, delta)
		require.Error(t, err)
		require.Contains(t, err.Error(), "batch error")
	})

	t.Run("notifier error is not fatal", func(t *testing.T) {
		head, delta := nextHead(genesis, 0)
		require.NoError(t, l.AppendRevocationRegistryDelta(ctx, head, delta))
	})

	t.Run("put error", func(t *testing.T) {
		provider.Store.ErrPut = errors.New("put error")
		defer func() { provider.Store.ErrPut = nil }()

		err := l.PublishSchema(ctx, &zkp.CredentialSchema{ID: "did:evan:zkp:s"})
		require.Error(t, err)
		require.Equal(t, api.KindUnknown, api.KindOf(err))
	})

	t.Run("get error", func(t *testing.T) {
		provider.Store.ErrGet = errors.New("get error")
		defer func() { provider.Store.ErrGet = nil }()

		_, err := l.FetchCredentialDefinition(ctx, "did:evan:zkp:d")
		require.Error(t, err)
		require.NotErrorIs(t, err, api.ErrNotFound)
	})
}
