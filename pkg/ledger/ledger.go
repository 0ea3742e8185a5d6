/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger is a storage backed implementation of the public registry of schemas, credential
// definitions and revocation registries. Any spi storage provider can back it; a shared database
// gives a shared ledger.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/internal/keylock"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

const (
	// StoreName is the name of the ledger store.
	StoreName = "vczkp_ledger"

	// RevocationDeltaTopic is the notification topic of appended revocation deltas.
	RevocationDeltaTopic = "revocation_registry_delta"

	defaultCacheSize = 100

	schemaPrefix     = "schema_"
	definitionPrefix = "creddef_"
	registryPrefix   = "revreg_"
	deltaPrefix      = "revdelta_"
)

var logger = log.New("vade-evan-cl/ledger")

// Ledger implements api.Ledger.
type Ledger struct {
	store    storage.Store
	cache    gcache.Cache
	notifier api.Notifier
	locks    *keylock.Locker
}

// Opt configures a Ledger.
type Opt func(*Ledger)

// WithCacheSize sets the number of schemas and credential definitions kept in memory.
func WithCacheSize(size int) Opt {
	return func(l *Ledger) {
		l.cache = gcache.New(size).LRU().Build()
	}
}

// WithNotifier publishes every appended delta on RevocationDeltaTopic.
func WithNotifier(n api.Notifier) Opt {
	return func(l *Ledger) {
		l.notifier = n
	}
}

// New opens the ledger in provider.
func New(provider storage.Provider, opts ...Opt) (*Ledger, error) {
	store, err := provider.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}

	l := &Ledger{
		store: store,
		cache: gcache.New(defaultCacheSize).LRU().Build(),
		locks: keylock.New(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// PublishSchema implements api.Ledger.
func (l *Ledger) PublishSchema(ctx context.Context, schema *zkp.CredentialSchema) error {
	return l.publish(ctx, "publish schema", schemaPrefix+schema.ID, schema)
}

// FetchSchema implements api.Ledger.
func (l *Ledger) FetchSchema(ctx context.Context, id string) (*zkp.CredentialSchema, error) {
	if v, err := l.cache.Get(schemaPrefix + id); err == nil {
		return v.(*zkp.CredentialSchema), nil //nolint:forcetypeassert
	}

	schema := &zkp.CredentialSchema{}
	if err := l.fetch(ctx, "fetch schema", schemaPrefix+id, schema); err != nil {
		return nil, err
	}

	l.cacheValue(schemaPrefix+id, schema)

	return schema, nil
}

// PublishCredentialDefinition implements api.Ledger.
func (l *Ledger) PublishCredentialDefinition(ctx context.Context, def *zkp.CredentialDefinition) error {
	return l.publish(ctx, "publish credential definition", definitionPrefix+def.ID, def)
}

// FetchCredentialDefinition implements api.Ledger.
func (l *Ledger) FetchCredentialDefinition(ctx context.Context, id string) (*zkp.CredentialDefinition, error) {
	if v, err := l.cache.Get(definitionPrefix + id); err == nil {
		return v.(*zkp.CredentialDefinition), nil //nolint:forcetypeassert
	}

	def := &zkp.CredentialDefinition{}
	if err := l.fetch(ctx, "fetch credential definition", definitionPrefix+id, def); err != nil {
		return nil, err
	}

	l.cacheValue(definitionPrefix+id, def)

	return def, nil
}

// PublishRevocationRegistryDefinition implements api.Ledger.
func (l *Ledger) PublishRevocationRegistryDefinition(ctx context.Context, def *zkp.RevocationRegistryDefinition) error {
	if def.RegistryDelta != nil {
		return api.Errorf(api.KindValidation, "publish revocation registry", "registry %s already has deltas", def.ID)
	}

	return l.publish(ctx, "publish revocation registry", registryPrefix+def.ID, headOf(def))
}

// FetchRevocationRegistryDefinition implements api.Ledger.
func (l *Ledger) FetchRevocationRegistryDefinition(ctx context.Context, id string) (*zkp.RevocationRegistryDefinition, error) {
	const op = "fetch revocation registry"

	head, err := l.fetchHead(ctx, op, id)
	if err != nil {
		return nil, err
	}

	head.DeltaHistory, err = l.deltas(id, 0, head.LatestSequence())
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	return head, nil
}

// FetchRevocationRegistryDeltas implements api.Ledger.
func (l *Ledger) FetchRevocationRegistryDeltas(ctx context.Context, id string,
	afterSequence uint64) ([]*zkp.RevocationRegistryDelta, error) {
	const op = "fetch revocation deltas"

	head, err := l.fetchHead(ctx, op, id)
	if err != nil {
		return nil, err
	}

	deltas, err := l.deltas(id, afterSequence, head.LatestSequence())
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	return deltas, nil
}

// AppendRevocationRegistryDelta implements api.Ledger. The delta and the new head are written in
// one batch.
func (l *Ledger) AppendRevocationRegistryDelta(ctx context.Context, head *zkp.RevocationRegistryDefinition,
	delta *zkp.RevocationRegistryDelta) error {
	const op = "append revocation delta"

	unlock := l.locks.Lock(head.ID)
	defer unlock()

	current, err := l.fetchHead(ctx, op, head.ID)
	if err != nil {
		return err
	}

	switch {
	case delta.Registry != head.ID:
		return api.Errorf(api.KindValidation, op, "delta of registry %s appended to %s", delta.Registry, head.ID)
	case delta.Sequence != current.LatestSequence()+1:
		return api.Errorf(api.KindProtocol, op, "delta sequence %d does not follow %d",
			delta.Sequence, current.LatestSequence())
	case delta.PreviousToken != current.StateToken:
		return api.Errorf(api.KindProtocol, op, "delta does not extend registry state %s", current.StateToken)
	case head.StateToken != delta.StateToken || head.RegistryDelta == nil || head.RegistryDelta.Sequence != delta.Sequence:
		return api.Errorf(api.KindValidation, op, "registry head does not match delta %d", delta.Sequence)
	}

	deltaBytes, err := json.Marshal(delta)
	if err != nil {
		return api.Wrap(api.KindUnknown, op, err)
	}

	headBytes, err := json.Marshal(headOf(head))
	if err != nil {
		return api.Wrap(api.KindUnknown, op, err)
	}

	err = l.store.Batch([]storage.Operation{
		{Key: deltaKey(head.ID, delta.Sequence), Value: deltaBytes},
		{Key: registryPrefix + head.ID, Value: headBytes},
	})
	if err != nil {
		return api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to store delta: %w", err))
	}

	logger.Debugf("appended delta %d to registry %s", delta.Sequence, head.ID)

	if l.notifier != nil {
		if err = l.notifier.Notify(RevocationDeltaTopic, deltaBytes); err != nil {
			logger.Warnf("failed to notify revocation delta %d of %s: %s", delta.Sequence, head.ID, err)
		}
	}

	return nil
}

func (l *Ledger) publish(ctx context.Context, op, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return api.Wrap(api.KindUnknown, op, err)
	}

	unlock := l.locks.Lock(key)
	defer unlock()

	_, err := l.store.Get(key)
	if err == nil {
		return api.Errorf(api.KindValidation, op, "%s is already published", key)
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to get ledger entry: %w", err))
	}

	b, err := json.Marshal(v)
	if err != nil {
		return api.Wrap(api.KindUnknown, op, err)
	}

	if err = l.store.Put(key, b); err != nil {
		return api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to put ledger entry: %w", err))
	}

	return nil
}

func (l *Ledger) fetch(ctx context.Context, op, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return api.Wrap(api.KindUnknown, op, err)
	}

	b, err := l.store.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return api.Errorf(api.KindNotFound, op, "%s not found", key)
		}

		return api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to get ledger entry: %w", err))
	}

	if err = json.Unmarshal(b, v); err != nil {
		return api.Wrap(api.KindUnknown, op, fmt.Errorf("failed to unmarshal ledger entry: %w", err))
	}

	return nil
}

func (l *Ledger) fetchHead(ctx context.Context, op, id string) (*zkp.RevocationRegistryDefinition, error) {
	head := &zkp.RevocationRegistryDefinition{}
	if err := l.fetch(ctx, op, registryPrefix+id, head); err != nil {
		return nil, err
	}

	return head, nil
}

// deltas returns the deltas with sequence in (after, last].
func (l *Ledger) deltas(id string, after, last uint64) ([]*zkp.RevocationRegistryDelta, error) {
	if after >= last {
		return nil, nil
	}

	keys := make([]string, 0, last-after)
	for seq := after + 1; seq <= last; seq++ {
		keys = append(keys, deltaKey(id, seq))
	}

	values, err := l.store.GetBulk(keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to get deltas: %w", err)
	}

	deltas := make([]*zkp.RevocationRegistryDelta, 0, len(values))

	for i, b := range values {
		if b == nil {
			return nil, fmt.Errorf("delta %s is missing", keys[i])
		}

		d := &zkp.RevocationRegistryDelta{}
		if err = json.Unmarshal(b, d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal delta: %w", err)
		}

		deltas = append(deltas, d)
	}

	return deltas, nil
}

func (l *Ledger) cacheValue(key string, v interface{}) {
	if err := l.cache.Set(key, v); err != nil {
		logger.Debugf("failed to cache %s: %s", key, err)
	}
}

// headOf strips the embedded history, which is stored as individual deltas.
func headOf(def *zkp.RevocationRegistryDefinition) *zkp.RevocationRegistryDefinition {
	h := *def
	h.DeltaHistory = nil

	return &h
}

func deltaKey(id string, seq uint64) string {
	return fmt.Sprintf("%s%s_%020d", deltaPrefix, id, seq)
}
