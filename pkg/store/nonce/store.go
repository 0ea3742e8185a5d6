/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package nonce issues single use nonces for issuance offers and proof requests.
package nonce

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/tink/go/subtle/random"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// StoreName is the name of the nonce store.
	StoreName = "vczkp_nonce"

	nonceLength = 32
)

var (
	// ErrNonceNotFound is returned for nonces this store never issued for the purpose.
	ErrNonceNotFound = errors.New("unknown nonce")
	// ErrNonceConsumed is returned for nonces that were already used.
	ErrNonceConsumed = errors.New("nonce already consumed")
)

type record struct {
	Purpose  string    `json:"purpose"`
	Created  time.Time `json:"created"`
	Consumed bool      `json:"consumed"`
}

// Store keeps issued nonces and their consumption state.
type Store struct {
	store storage.Store
	mu    sync.Mutex
}

// New opens the nonce store in provider.
func New(provider storage.Provider) (*Store, error) {
	store, err := provider.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open nonce store: %w", err)
	}

	return &Store{store: store}, nil
}

// Issue creates a fresh nonce from 32 random bytes, base58 encoded.
func (s *Store) Issue(purpose string) (string, error) {
	n := base58.Encode(random.GetRandomBytes(nonceLength))

	if err := s.put(n, &record{Purpose: purpose, Created: time.Now().UTC()}); err != nil {
		return "", err
	}

	return n, nil
}

// Check reports whether n was issued for purpose and is unused.
func (s *Store) Check(n, purpose string) error {
	_, err := s.live(n, purpose)

	return err
}

// Consume marks n as used. A nonce can be consumed once.
func (s *Store) Consume(n, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.live(n, purpose)
	if err != nil {
		return err
	}

	rec.Consumed = true

	return s.put(n, rec)
}

func (s *Store) live(n, purpose string) (*record, error) {
	b, err := s.store.Get(n)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, ErrNonceNotFound
		}

		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	rec := &record{}
	if err = json.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nonce: %w", err)
	}

	if rec.Purpose != purpose {
		return nil, ErrNonceNotFound
	}

	if rec.Consumed {
		return nil, ErrNonceConsumed
	}

	return rec, nil
}

func (s *Store) put(n string, rec *record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal nonce: %w", err)
	}

	if err = s.store.Put(n, b); err != nil {
		return fmt.Errorf("failed to put nonce: %w", err)
	}

	return nil
}
