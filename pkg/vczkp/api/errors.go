/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"errors"
	"fmt"
)

// Kind classifies protocol errors so callers can tell "retry with fresh state" from
// "fix the input" from "the proof is invalid".
type Kind int

const (
	// KindUnknown is the kind of errors that did not originate from the protocol core.
	KindUnknown Kind = iota
	// KindValidation is malformed or inconsistent input (unknown attribute, duplicate name...).
	KindValidation
	// KindNotFound is a dangling reference to a schema, definition or registry.
	KindNotFound
	// KindCrypto is a failed primitive operation or an inconsistent primitive result.
	KindCrypto
	// KindProtocol is a violated handshake invariant (nonce mismatch, out-of-order message).
	KindProtocol
	// KindCapacity is an exhausted revocation registry.
	KindCapacity
	// KindStaleWitness is a witness older than the latest published delta. Refresh and retry.
	KindStaleWitness
	// KindVerification is a proof that was checked and failed.
	KindVerification
)

var kindNames = map[Kind]string{ //nolint:gochecknoglobals
	KindUnknown:      "UnknownError",
	KindValidation:   "ValidationError",
	KindNotFound:     "NotFoundError",
	KindCrypto:       "CryptoError",
	KindProtocol:     "ProtocolError",
	KindCapacity:     "CapacityError",
	KindStaleWitness: "StaleWitnessError",
	KindVerification: "VerificationError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is matching on kind only.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrCrypto       = &Error{Kind: KindCrypto}
	ErrProtocol     = &Error{Kind: KindProtocol}
	ErrCapacity     = &Error{Kind: KindCapacity}
	ErrStaleWitness = &Error{Kind: KindStaleWitness}
	ErrVerification = &Error{Kind: KindVerification}
)

// ErrHandleRevoked is returned by Primitives.UpdateWitness when the folded updates remove the
// witness's own revocation handle from the accumulator.
var ErrHandleRevoked = errors.New("revocation handle has been removed from the accumulator")

// Error is the error type returned by every protocol operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Err.Error())
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels (an Error without Op and cause).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Retryable reports whether the caller can recover by refreshing state and retrying.
func (e *Error) Retryable() bool {
	return e.Kind == KindStaleWitness
}

// Errorf creates an Error of the given kind with a formatted cause.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and operation to err. Errors that already carry a kind keep it.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
