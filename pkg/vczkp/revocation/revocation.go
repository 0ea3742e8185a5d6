/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package revocation manages revocation registries. The issuer side allocates indices and revokes
// them, appending one delta per mutation; the holder side folds published deltas into its witness.
package revocation

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/component/log"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slices"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/internal/keylock"
	"github.com/evannetwork/vade-evan-cl/pkg/store/vault"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

var logger = log.New("vade-evan-cl/revocation")

// Provider contains dependencies for the revocation registry.
type Provider interface {
	Ledger() api.Ledger
	Primitives() api.Primitives
	Vault() *vault.Store
	KeyResolver() zkp.KeyResolver
	DIDMethod() string
}

// Allocation is the result of reserving an index for a new credential.
type Allocation struct {
	Index    uint32
	Handle   string
	Delta    *zkp.RevocationRegistryDelta
	Registry *zkp.RevocationRegistryDefinition
	Info     *zkp.RevocationIDInformation
	State    *zkp.RevocationState
}

// Registry creates and mutates revocation registries and refreshes holder witnesses.
type Registry struct {
	ledger     api.Ledger
	primitives api.Primitives
	vault      *vault.Store
	resolver   zkp.KeyResolver
	method     string
	locks      *keylock.Locker
}

// New returns a revocation registry manager.
func New(p Provider) *Registry {
	return &Registry{
		ledger:     p.Ledger(),
		primitives: p.Primitives(),
		vault:      p.Vault(),
		resolver:   p.KeyResolver(),
		method:     p.DIDMethod(),
		locks:      keylock.New(),
	}
}

// CreateDefinition creates an empty accumulator for up to maxCredentials credentials of
// definitionID and makes it the definition's active registry.
func (r *Registry) CreateDefinition(ctx context.Context, issuer *zkp.Identity, definitionID string,
	maxCredentials uint32) (*zkp.RevocationRegistryDefinition, error) {
	const op = "create revocation registry"

	if maxCredentials == 0 {
		return nil, api.Errorf(api.KindValidation, op, "maximum credential count must be positive")
	}

	def, err := r.ledger.FetchCredentialDefinition(ctx, definitionID)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if !def.SupportsRevocation {
		return nil, api.Errorf(api.KindValidation, op, "credential definition %s does not support revocation", def.ID)
	}

	if err = issuer.Authorize(def.Issuer, r.resolver); err != nil {
		return nil, api.Errorf(api.KindValidation, op, "only %s can create registries for %s: %w",
			def.Issuer, def.ID, err)
	}

	keys, err := r.primitives.NewAccumulator(maxCredentials)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	pub, err := zkp.EncodeMultibase(keys.PublicKey)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	now := time.Now().UTC()
	id := zkp.NewID(r.method)
	reg := &zkp.RevocationRegistryDefinition{
		ID:                     id,
		Type:                   zkp.RevocationRegistryType,
		Issuer:                 issuer.ID,
		CredentialDefinition:   def.ID,
		Registry:               keys.Accumulator,
		StateToken:             stateToken(id, nil, nil),
		MaximumCredentialCount: maxCredentials,
		RevocationPublicKey:    pub,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err = r.vault.PutRevocationKey(id, keys.PrivateKey); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if reg.Proof, err = issuer.Sign(reg.Unsigned(), now); err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	if err = r.ledger.PublishRevocationRegistryDefinition(ctx, reg); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	info := &zkp.RevocationIDInformation{DefinitionID: def.ID, UsedIDs: []uint32{}}
	if err = r.vault.PutRevocationInfo(id, info); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if err = r.vault.PutActiveRegistry(def.ID, id); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	logger.Infof("published revocation registry %s for %s with capacity %d", id, def.ID, maxCredentials)

	return reg, nil
}

// Get returns the current registry head with its delta history.
func (r *Registry) Get(ctx context.Context, registryID string) (*zkp.RevocationRegistryDefinition, error) {
	reg, err := r.ledger.FetchRevocationRegistryDefinition(ctx, registryID)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, "get revocation registry", err)
	}

	return reg, nil
}

// DeltasSince returns the deltas appended after sequence, oldest first.
func (r *Registry) DeltasSince(ctx context.Context, registryID string,
	sequence uint64) ([]*zkp.RevocationRegistryDelta, error) {
	deltas, err := r.ledger.FetchRevocationRegistryDeltas(ctx, registryID, sequence)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, "get revocation deltas", err)
	}

	return deltas, nil
}

// Allocate reserves the next unused index of registryID and adds it to the accumulator. Indices
// are never reused, so a full registry stays full.
func (r *Registry) Allocate(ctx context.Context, issuer *zkp.Identity, registryID string) (*Allocation, error) {
	const op = "allocate revocation index"

	unlock := r.locks.Lock(registryID)
	defer unlock()

	head, info, key, err := r.issuerState(ctx, op, issuer, registryID)
	if err != nil {
		return nil, err
	}

	if info.NextUnusedID >= head.MaximumCredentialCount {
		return nil, api.Errorf(api.KindCapacity, op, "registry %s is full (%d credentials)",
			registryID, head.MaximumCredentialCount)
	}

	index := info.NextUnusedID
	handle := zkp.RevocationHandle(registryID, index)

	upd, err := r.primitives.AccumulatorAdd(key, head.Registry, handle)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	next := &zkp.RevocationIDInformation{
		DefinitionID: info.DefinitionID,
		NextUnusedID: index + 1,
		UsedIDs:      append(slices.Clone(info.UsedIDs), index),
		RevokedIDs:   info.RevokedIDs,
	}

	delta, newHead, err := r.append(ctx, op, issuer, head, info, next, &zkp.RevocationRegistryDelta{
		Issued:      []uint32{index},
		Accumulator: upd.Accumulator,
		Updates:     [][]byte{upd.Update},
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("allocated index %d of registry %s at sequence %d", index, registryID, delta.Sequence)

	return &Allocation{
		Index:    index,
		Handle:   handle,
		Delta:    delta,
		Registry: newHead,
		Info:     next,
		State: &zkp.RevocationState{
			RevocationRegistry: registryID,
			RevocationID:       index,
			Sequence:           delta.Sequence,
			StateToken:         delta.StateToken,
			Updated:            delta.Created,
			Witness:            upd.Witness,
		},
	}, nil
}

// Update revokes indices of registryID and appends one delta. Revoking only indices that are
// already revoked appends nothing and returns the delta that produced the current state.
func (r *Registry) Update(ctx context.Context, issuer *zkp.Identity, registryID string,
	revoked []uint32) (*zkp.RevocationRegistryDelta, error) {
	const op = "update revocation registry"

	if len(revoked) == 0 {
		return nil, api.Errorf(api.KindValidation, op, "no indices to revoke")
	}

	unlock := r.locks.Lock(registryID)
	defer unlock()

	head, info, key, err := r.issuerState(ctx, op, issuer, registryID)
	if err != nil {
		return nil, err
	}

	var pending []uint32

	for _, index := range revoked {
		if index >= head.MaximumCredentialCount {
			return nil, api.Errorf(api.KindValidation, op, "index %d exceeds capacity %d",
				index, head.MaximumCredentialCount)
		}

		if !slices.Contains(info.UsedIDs, index) {
			return nil, api.Errorf(api.KindValidation, op, "index %d was never issued", index)
		}

		if !slices.Contains(info.RevokedIDs, index) && !slices.Contains(pending, index) {
			pending = append(pending, index)
		}
	}

	if len(pending) == 0 {
		logger.Debugf("indices %v of %s already revoked", revoked, registryID)

		return head.RegistryDelta, nil
	}

	slices.Sort(pending)

	acc := head.Registry
	updates := make([][]byte, 0, len(pending))

	for _, index := range pending {
		upd, e := r.primitives.AccumulatorRemove(key, acc, zkp.RevocationHandle(registryID, index))
		if e != nil {
			return nil, api.Wrap(api.KindCrypto, op, e)
		}

		acc = upd.Accumulator
		updates = append(updates, upd.Update)
	}

	allRevoked := append(slices.Clone(info.RevokedIDs), pending...)
	slices.Sort(allRevoked)

	next := &zkp.RevocationIDInformation{
		DefinitionID: info.DefinitionID,
		NextUnusedID: info.NextUnusedID,
		UsedIDs:      info.UsedIDs,
		RevokedIDs:   allRevoked,
	}

	delta, _, err := r.append(ctx, op, issuer, head, info, next, &zkp.RevocationRegistryDelta{
		Revoked:     pending,
		Accumulator: acc,
		Updates:     updates,
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("revoked indices %v of registry %s at sequence %d", pending, registryID, delta.Sequence)

	return delta, nil
}

// Revoke revokes a single index.
func (r *Registry) Revoke(ctx context.Context, issuer *zkp.Identity, registryID string,
	index uint32) (*zkp.RevocationRegistryDelta, error) {
	return r.Update(ctx, issuer, registryID, []uint32{index})
}

// RevocationInfo returns the issuer's index bookkeeping of registryID.
func (r *Registry) RevocationInfo(registryID string) (*zkp.RevocationIDInformation, error) {
	const op = "get revocation info"

	info, err := r.vault.RevocationInfo(registryID)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, api.Errorf(api.KindNotFound, op, "registry %s is not managed here", registryID)
		}

		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	return info, nil
}

// RefreshWitness brings state up to the latest published delta of its registry.
func (r *Registry) RefreshWitness(ctx context.Context, state *zkp.RevocationState) (*zkp.RevocationState, error) {
	deltas, err := r.DeltasSince(ctx, state.RevocationRegistry, state.Sequence)
	if err != nil {
		return nil, err
	}

	return r.Fold(state, deltas)
}

// Fold applies deltas to state. Deltas at or below the state's sequence are skipped; the rest must
// continue the state's chain without gaps.
func (r *Registry) Fold(state *zkp.RevocationState, deltas []*zkp.RevocationRegistryDelta) (*zkp.RevocationState, error) {
	const op = "update revocation state"

	next := *state
	handle := zkp.RevocationHandle(state.RevocationRegistry, state.RevocationID)

	for _, d := range deltas {
		switch {
		case d.Registry != state.RevocationRegistry:
			return nil, api.Errorf(api.KindValidation, op, "delta of %s applied to a witness of %s",
				d.Registry, state.RevocationRegistry)
		case d.Sequence <= next.Sequence:
			continue
		case d.Sequence != next.Sequence+1:
			return nil, api.Errorf(api.KindProtocol, op, "missing deltas between %d and %d", next.Sequence, d.Sequence)
		case d.PreviousToken != next.StateToken:
			return nil, api.Errorf(api.KindProtocol, op, "delta %d does not extend state %s", d.Sequence, next.StateToken)
		}

		witness, err := r.primitives.UpdateWitness(next.Witness, handle, d.Updates)
		if err != nil {
			if errors.Is(err, api.ErrHandleRevoked) {
				return nil, api.Errorf(api.KindProtocol, op, "credential %s has been revoked at sequence %d",
					handle, d.Sequence)
			}

			return nil, api.Wrap(api.KindCrypto, op, err)
		}

		next.Witness = witness
		next.Sequence = d.Sequence
		next.StateToken = d.StateToken
		next.Updated = d.Created
	}

	return &next, nil
}

func (r *Registry) issuerState(ctx context.Context, op string, issuer *zkp.Identity,
	registryID string) (*zkp.RevocationRegistryDefinition, *zkp.RevocationIDInformation, []byte, error) {
	head, err := r.ledger.FetchRevocationRegistryDefinition(ctx, registryID)
	if err != nil {
		return nil, nil, nil, api.Wrap(api.KindUnknown, op, err)
	}

	if err = issuer.Authorize(head.Issuer, r.resolver); err != nil {
		return nil, nil, nil, api.Errorf(api.KindValidation, op, "only %s can update registry %s: %w",
			head.Issuer, head.ID, err)
	}

	info, err := r.RevocationInfo(registryID)
	if err != nil {
		return nil, nil, nil, err
	}

	key, err := r.vault.RevocationKey(registryID)
	if err != nil {
		return nil, nil, nil, api.Wrap(api.KindUnknown, op, err)
	}

	return head, info, key, nil
}

// append completes delta, signs the new head and publishes both. The issuer bookkeeping is
// written first and restored if the ledger refuses the delta.
func (r *Registry) append(ctx context.Context, op string, issuer *zkp.Identity, head *zkp.RevocationRegistryDefinition,
	prev, next *zkp.RevocationIDInformation,
	delta *zkp.RevocationRegistryDelta) (*zkp.RevocationRegistryDelta, *zkp.RevocationRegistryDefinition, error) {
	now := time.Now().UTC()

	delta.Registry = head.ID
	delta.Sequence = head.LatestSequence() + 1
	delta.PreviousToken = head.StateToken
	delta.StateToken = stateToken(head.ID, next.UsedIDs, next.RevokedIDs)
	delta.Created = now

	newHead := head.Unsigned()
	newHead.Registry = delta.Accumulator
	newHead.RegistryDelta = delta
	newHead.StateToken = delta.StateToken
	newHead.UpdatedAt = now

	var err error
	if newHead.Proof, err = issuer.Sign(newHead.Unsigned(), now); err != nil {
		return nil, nil, api.Wrap(api.KindCrypto, op, err)
	}

	if err = r.vault.PutRevocationInfo(head.ID, next); err != nil {
		return nil, nil, api.Wrap(api.KindUnknown, op, err)
	}

	if err = r.ledger.AppendRevocationRegistryDelta(ctx, newHead, delta); err != nil {
		if e := r.vault.PutRevocationInfo(head.ID, prev); e != nil {
			logger.Errorf("failed to restore revocation info of %s: %s", head.ID, e)
		}

		return nil, nil, api.Wrap(api.KindUnknown, op, err)
	}

	newHead.DeltaHistory = append(slices.Clone(head.DeltaHistory), delta)

	return delta, newHead, nil
}

// stateToken identifies the registry state by its issued and revoked index sets.
func stateToken(registryID string, issued, revoked []uint32) string {
	h, _ := blake2b.New256(nil) //nolint:errcheck

	h.Write([]byte(registryID))

	for _, set := range [][]uint32{issued, revoked} {
		sorted := slices.Clone(set)
		slices.Sort(sorted)

		var buf [4]byte

		binary.BigEndian.PutUint32(buf[:], uint32(len(sorted)))
		h.Write(buf[:])

		for _, index := range sorted {
			binary.BigEndian.PutUint32(buf[:], index)
			h.Write(buf[:])
		}
	}

	return base58.Encode(h.Sum(nil))
}
