/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"context"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
)

// Ledger is the public, append-only registry of schemas, credential definitions and revocation
// registries.
//
// Fetching an unknown ID returns a KindNotFound error. Publishing an ID twice returns a
// KindValidation error. AppendRevocationRegistryDelta is atomic: the delta and the new registry
// head are written together, and a delta whose sequence or previous token does not extend the
// current head is refused with a KindProtocol error.
type Ledger interface {
	PublishSchema(ctx context.Context, schema *zkp.CredentialSchema) error
	FetchSchema(ctx context.Context, id string) (*zkp.CredentialSchema, error)

	PublishCredentialDefinition(ctx context.Context, def *zkp.CredentialDefinition) error
	FetchCredentialDefinition(ctx context.Context, id string) (*zkp.CredentialDefinition, error)

	PublishRevocationRegistryDefinition(ctx context.Context, def *zkp.RevocationRegistryDefinition) error
	// FetchRevocationRegistryDefinition returns the current head with DeltaHistory filled.
	FetchRevocationRegistryDefinition(ctx context.Context, id string) (*zkp.RevocationRegistryDefinition, error)
	AppendRevocationRegistryDelta(ctx context.Context, head *zkp.RevocationRegistryDefinition,
		delta *zkp.RevocationRegistryDelta) error
	FetchRevocationRegistryDeltas(ctx context.Context, id string, afterSequence uint64) ([]*zkp.RevocationRegistryDelta, error)
}

// Notifier delivers messages on a topic to subscribers.
type Notifier interface {
	Notify(topic string, message []byte) error
}
