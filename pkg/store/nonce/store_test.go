/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package nonce

import (
	"errors"
	"sync"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s, err := New(mem.NewProvider())
	require.NoError(t, err)

	n, err := s.Issue("offer")
	require.NoError(t, err)
	require.Len(t, base58.Decode(n), nonceLength)

	other, err := s.Issue("offer")
	require.NoError(t, err)
	require.NotEqual(t, n, other)

	require.NoError(t, s.Check(n, "offer"))
	require.ErrorIs(t, s.Check(n, "proof"), ErrNonceNotFound)
	require.ErrorIs(t, s.Check("unknown", "offer"), ErrNonceNotFound)

	require.NoError(t, s.Consume(n, "offer"))
	require.ErrorIs(t, s.Check(n, "offer"), ErrNonceConsumed)
	require.ErrorIs(t, s.Consume(n, "offer"), ErrNonceConsumed)
}

func TestStore_ConsumeOnce(t *testing.T) {
	s, err := New(mem.NewProvider())
	require.NoError(t, err)

	n, err := s.Issue("proof")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		consumed int
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if s.Consume(n, "proof") == nil {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, 1, consumed)
}

func TestStore_Errors(t *testing.T) {
	_, err := New(&mockstorage.MockStoreProvider{FailNamespace: StoreName})
	require.Error(t, err)

	provider := mockstorage.NewMockStoreProvider()
	s, err := New(provider)
	require.NoError(t, err)

	provider.Store.ErrPut = errors.New("put error")
	_, err = s.Issue("offer")
	require.EqualError(t, err, "failed to put nonce: put error")

	provider.Store.ErrGet = errors.New("get error")
	require.EqualError(t, s.Check("n", "offer"), "failed to get nonce: get error")

	provider.Store.ErrGet = nil
	provider.Store.Store["bad"] = mockstorage.DBEntry{Value: []byte("{")}
	require.Error(t, s.Check("bad", "offer"))
}
