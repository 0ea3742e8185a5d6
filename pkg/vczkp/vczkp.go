/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vczkp

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/secretlock"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/evannetwork/vade-evan-cl/pkg/crypto/zkpbbs"
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/ledger"
	"github.com/evannetwork/vade-evan-cl/pkg/secretlock/hkdf"
	"github.com/evannetwork/vade-evan-cl/pkg/store/nonce"
	"github.com/evannetwork/vade-evan-cl/pkg/store/vault"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/issuance"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/presentation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/revocation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/schema"
)

// DefaultDIDMethod is the DID method of generated IDs unless WithDIDMethod is used.
const DefaultDIDMethod = "evan"

// Service wires the schema registry, credential definitions, revocation registries and both
// protocols onto one ledger, one primitives backend and one storage provider.
type Service struct {
	storeProvider storage.Provider
	ledger        api.Ledger
	primitives    api.Primitives
	secretLock    secretlock.Service
	notifier      api.Notifier
	resolver      zkp.KeyResolver
	didMethod     string
	cacheSize     int

	nonces       *nonce.Store
	vault        *vault.Store
	schemas      *schema.Registry
	definitions  *creddef.Manager
	revocation   *revocation.Registry
	issuance     *issuance.Protocol
	presentation *presentation.Protocol
}

// Option configures the service.
type Option func(s *Service) error

// New creates the service. Unset dependencies default to an in-memory storage provider, a ledger
// on that provider, the BBS+ primitives backend and an ephemeral secret lock.
func New(opts ...Option) (*Service, error) {
	s := &Service{didMethod: DefaultDIDMethod}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("error in option passed to New: %w", err)
		}
	}

	if err := s.defaults(); err != nil {
		return nil, fmt.Errorf("default option initialization failed: %w", err)
	}

	var err error

	if s.nonces, err = nonce.New(s.storeProvider); err != nil {
		return nil, fmt.Errorf("create nonce store: %w", err)
	}

	if s.vault, err = vault.New(s.storeProvider, s.secretLock); err != nil {
		return nil, fmt.Errorf("create vault: %w", err)
	}

	s.schemas = schema.New(s)
	s.definitions = creddef.New(s)
	s.revocation = revocation.New(s)
	s.presentation = presentation.New(s)

	if s.issuance, err = issuance.New(s); err != nil {
		return nil, fmt.Errorf("create issuance protocol: %w", err)
	}

	return s, nil
}

func (s *Service) defaults() error {
	if s.storeProvider == nil {
		s.storeProvider = mem.NewProvider()
	}

	if s.primitives == nil {
		s.primitives = zkpbbs.New()
	}

	if s.secretLock == nil {
		lock, err := hkdf.NewEphemeralLock()
		if err != nil {
			return err
		}

		s.secretLock = lock
	}

	if s.ledger == nil {
		var opts []ledger.Opt

		if s.notifier != nil {
			opts = append(opts, ledger.WithNotifier(s.notifier))
		}

		if s.cacheSize > 0 {
			opts = append(opts, ledger.WithCacheSize(s.cacheSize))
		}

		l, err := ledger.New(s.storeProvider, opts...)
		if err != nil {
			return err
		}

		s.ledger = l
	}

	return nil
}

// WithStorageProvider injects the storage provider of the default ledger and of all local stores.
func WithStorageProvider(p storage.Provider) Option {
	return func(s *Service) error {
		s.storeProvider = p
		return nil
	}
}

// WithLedger injects a ledger in place of the default storage backed one.
func WithLedger(l api.Ledger) Option {
	return func(s *Service) error {
		s.ledger = l
		return nil
	}
}

// WithPrimitives injects a cryptographic backend.
func WithPrimitives(p api.Primitives) Option {
	return func(s *Service) error {
		s.primitives = p
		return nil
	}
}

// WithSecretLock injects the lock that seals issuer secrets.
func WithSecretLock(l secretlock.Service) Option {
	return func(s *Service) error {
		s.secretLock = l
		return nil
	}
}

// WithNotifier injects the notifier the default ledger announces revocation deltas on.
func WithNotifier(n api.Notifier) Option {
	return func(s *Service) error {
		s.notifier = n
		return nil
	}
}

// WithKeyResolver enables verification of assertion proofs on fetched records.
func WithKeyResolver(r zkp.KeyResolver) Option {
	return func(s *Service) error {
		s.resolver = r
		return nil
	}
}

// WithDIDMethod sets the DID method of generated IDs.
func WithDIDMethod(method string) Option {
	return func(s *Service) error {
		if method == "" {
			return fmt.Errorf("empty DID method")
		}

		s.didMethod = method

		return nil
	}
}

// WithLedgerCacheSize sets the read cache size of the default ledger.
func WithLedgerCacheSize(size int) Option {
	return func(s *Service) error {
		s.cacheSize = size
		return nil
	}
}

// StorageProvider returns the storage provider.
func (s *Service) StorageProvider() storage.Provider { return s.storeProvider }

// Ledger returns the ledger.
func (s *Service) Ledger() api.Ledger { return s.ledger }

// Primitives returns the cryptographic backend.
func (s *Service) Primitives() api.Primitives { return s.primitives }

// KeyResolver returns the assertion key resolver, nil when assertions are not checked.
func (s *Service) KeyResolver() zkp.KeyResolver { return s.resolver }

// DIDMethod returns the DID method of generated IDs.
func (s *Service) DIDMethod() string { return s.didMethod }

// Nonces returns the nonce store.
func (s *Service) Nonces() *nonce.Store { return s.nonces }

// Vault returns the issuer secret store.
func (s *Service) Vault() *vault.Store { return s.vault }

// Schemas returns the schema registry.
func (s *Service) Schemas() *schema.Registry { return s.schemas }

// CredentialDefinitions returns the credential definition manager.
func (s *Service) CredentialDefinitions() *creddef.Manager { return s.definitions }

// Revocation returns the revocation registry manager.
func (s *Service) Revocation() *revocation.Registry { return s.revocation }

// Issuance returns the blind issuance protocol.
func (s *Service) Issuance() *issuance.Protocol { return s.issuance }

// Presentation returns the proof exchange protocol.
func (s *Service) Presentation() *presentation.Protocol { return s.presentation }

// Close closes the storage provider.
func (s *Service) Close() error {
	if err := s.storeProvider.Close(); err != nil {
		return fmt.Errorf("failed to close the store: %w", err)
	}

	return nil
}
