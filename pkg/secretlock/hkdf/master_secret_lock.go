/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package hkdf provides a passphrase based secretlock.Service. It seals issuer secrets (credential
// and accumulator private keys) before they reach the vault store.
package hkdf

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/google/tink/go/aead/subtle"
	"github.com/google/tink/go/subtle/random"
	"github.com/hyperledger/aries-framework-go/spi/secretlock"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize         = sha256.Size
	generatedLength = 32
)

type lockHKDF struct {
	aead *subtle.AESGCM
}

// NewLock expands an AES-256-GCM key from passphrase and salt. The salt is optional and can be
// nil; the same passphrase and salt always open what an earlier lock sealed.
func NewLock(passphrase string, salt []byte) (secretlock.Service, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is empty")
	}

	expander := hkdf.New(sha256.New, []byte(passphrase), salt, nil)

	key := make([]byte, keySize)

	_, err := io.ReadFull(expander, key)
	if err != nil {
		return nil, err
	}

	aead, err := subtle.NewAESGCM(key)
	if err != nil {
		return nil, err
	}

	return &lockHKDF{aead: aead}, nil
}

// NewEphemeralLock returns a lock over a random passphrase. Secrets sealed with it do not survive
// the process.
func NewEphemeralLock() (secretlock.Service, error) {
	return NewLock(base64.RawURLEncoding.EncodeToString(random.GetRandomBytes(generatedLength)), nil)
}

// Encrypt seals req.Plaintext. keyURI is ignored.
func (l *lockHKDF) Encrypt(keyURI string, req *secretlock.EncryptRequest) (*secretlock.EncryptResponse, error) {
	ct, err := l.aead.Encrypt([]byte(req.Plaintext), []byte(req.AdditionalAuthenticatedData))
	if err != nil {
		return nil, err
	}

	return &secretlock.EncryptResponse{
		Ciphertext: base64.URLEncoding.EncodeToString(ct),
	}, nil
}

// Decrypt opens req.Ciphertext. keyURI is ignored.
func (l *lockHKDF) Decrypt(keyURI string, req *secretlock.DecryptRequest) (*secretlock.DecryptResponse, error) {
	ct, err := base64.URLEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		return nil, err
	}

	pt, err := l.aead.Decrypt(ct, []byte(req.AdditionalAuthenticatedData))
	if err != nil {
		return nil, err
	}

	return &secretlock.DecryptResponse{Plaintext: string(pt)}, nil
}
