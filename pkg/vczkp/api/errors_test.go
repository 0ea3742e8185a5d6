/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := Errorf(KindCapacity, "allocate", "registry %s is full", "r1")
		require.EqualError(t, err, "CapacityError: allocate: registry r1 is full")

		require.EqualError(t, &Error{Kind: KindNotFound, Err: errors.New("x")}, "NotFoundError: x")
		require.EqualError(t, ErrVerification, "VerificationError")
		require.Equal(t, "Kind(42)", Kind(42).String())
	})

	t.Run("matches sentinels by kind", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", Errorf(KindStaleWitness, "present", "sequence 1 < 2"))
		require.ErrorIs(t, err, ErrStaleWitness)
		require.NotErrorIs(t, err, ErrCrypto)
		require.Equal(t, KindStaleWitness, KindOf(err))
	})

	t.Run("wrap keeps existing kind", func(t *testing.T) {
		inner := Errorf(KindProtocol, "issue", "stale nonce")
		require.Equal(t, inner, Wrap(KindCrypto, "outer", inner))

		wrapped := Wrap(KindCrypto, "sign", errors.New("boom"))
		require.ErrorIs(t, wrapped, ErrCrypto)
		require.Nil(t, Wrap(KindCrypto, "sign", nil))
		require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	})

	t.Run("retryable", func(t *testing.T) {
		var e *Error

		require.True(t, errors.As(Errorf(KindStaleWitness, "op", "stale"), &e))
		require.True(t, e.Retryable())
		require.True(t, errors.As(Errorf(KindVerification, "op", "bad"), &e))
		require.False(t, e.Retryable())
	})
}
