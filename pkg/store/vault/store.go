/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vault keeps the issuer's private protocol state: credential and accumulator private
// keys sealed with a secret lock, revocation index bookkeeping and the active registry of each
// credential definition.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/secretlock"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
)

const (
	// StoreName is the name of the vault store.
	StoreName = "vczkp_vault"

	credentialKeyPrefix  = "credkey_"
	revocationKeyPrefix  = "revkey_"
	revocationInfoPrefix = "revinfo_"
	activeRegistryPrefix = "activereg_"
	definitionRefPrefix  = "creddefref_"
)

// ErrNotFound signals that the vault has no entry for the given ID.
var ErrNotFound = errors.New("vault entry not found")

// Store is the issuer vault.
type Store struct {
	store storage.Store
	lock  secretlock.Service
}

// New opens the vault in provider. Private keys are sealed with lock.
func New(provider storage.Provider, lock secretlock.Service) (*Store, error) {
	store, err := provider.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault store: %w", err)
	}

	return &Store{store: store, lock: lock}, nil
}

// PutCredentialKey seals and stores the private key of a credential definition.
func (s *Store) PutCredentialKey(definitionID string, key []byte) error {
	return s.putSealed(credentialKeyPrefix+definitionID, definitionID, key)
}

// CredentialKey opens the private key of a credential definition.
func (s *Store) CredentialKey(definitionID string) ([]byte, error) {
	return s.getSealed(credentialKeyPrefix+definitionID, definitionID)
}

// PutRevocationKey seals and stores the accumulator private key of a registry.
func (s *Store) PutRevocationKey(registryID string, key []byte) error {
	return s.putSealed(revocationKeyPrefix+registryID, registryID, key)
}

// RevocationKey opens the accumulator private key of a registry.
func (s *Store) RevocationKey(registryID string) ([]byte, error) {
	return s.getSealed(revocationKeyPrefix+registryID, registryID)
}

// PutRevocationInfo stores the index bookkeeping of a registry.
func (s *Store) PutRevocationInfo(registryID string, info *zkp.RevocationIDInformation) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal revocation info: %w", err)
	}

	if err = s.store.Put(revocationInfoPrefix+registryID, b); err != nil {
		return fmt.Errorf("failed to put revocation info: %w", err)
	}

	return nil
}

// RevocationInfo returns the index bookkeeping of a registry.
func (s *Store) RevocationInfo(registryID string) (*zkp.RevocationIDInformation, error) {
	b, err := s.get(revocationInfoPrefix + registryID)
	if err != nil {
		return nil, err
	}

	info := &zkp.RevocationIDInformation{}
	if err = json.Unmarshal(b, info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal revocation info: %w", err)
	}

	return info, nil
}

// PutActiveRegistry makes registryID the registry new credentials of definitionID are issued
// against.
func (s *Store) PutActiveRegistry(definitionID, registryID string) error {
	if err := s.store.Put(activeRegistryPrefix+definitionID, []byte(registryID)); err != nil {
		return fmt.Errorf("failed to put active registry: %w", err)
	}

	return nil
}

// ActiveRegistry returns the active registry of a definition.
func (s *Store) ActiveRegistry(definitionID string) (string, error) {
	b, err := s.get(activeRegistryPrefix + definitionID)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// PutIssuerDefinition records the definition an issuer created for a schema and revocation flag.
func (s *Store) PutIssuerDefinition(issuer, schemaID string, revocable bool, definitionID string) error {
	if err := s.store.Put(definitionRefKey(issuer, schemaID, revocable), []byte(definitionID)); err != nil {
		return fmt.Errorf("failed to put issuer definition: %w", err)
	}

	return nil
}

// IssuerDefinition returns the definition an issuer created for a schema and revocation flag.
func (s *Store) IssuerDefinition(issuer, schemaID string, revocable bool) (string, error) {
	b, err := s.get(definitionRefKey(issuer, schemaID, revocable))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func definitionRefKey(issuer, schemaID string, revocable bool) string {
	return fmt.Sprintf("%s%s|%s|%t", definitionRefPrefix, issuer, schemaID, revocable)
}

func (s *Store) putSealed(key, aad string, secret []byte) error {
	sealed, err := s.lock.Encrypt("", &secretlock.EncryptRequest{
		Plaintext:                   string(secret),
		AdditionalAuthenticatedData: aad,
	})
	if err != nil {
		return fmt.Errorf("failed to seal secret: %w", err)
	}

	if err = s.store.Put(key, []byte(sealed.Ciphertext)); err != nil {
		return fmt.Errorf("failed to put sealed secret: %w", err)
	}

	return nil
}

func (s *Store) getSealed(key, aad string) ([]byte, error) {
	b, err := s.get(key)
	if err != nil {
		return nil, err
	}

	opened, err := s.lock.Decrypt("", &secretlock.DecryptRequest{
		Ciphertext:                  string(b),
		AdditionalAuthenticatedData: aad,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed secret: %w", err)
	}

	return []byte(opened.Plaintext), nil
}

func (s *Store) get(key string) ([]byte, error) {
	b, err := s.store.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("failed to get vault entry: %w", err)
	}

	return b, nil
}
