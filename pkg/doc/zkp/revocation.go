/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"fmt"
	"time"
)

// RevocationRegistryType is the type of published revocation registry definitions.
const RevocationRegistryType = "EvanZKPRevocationRegistryDefinition"

// RevocationRegistryDefinition is the public state of a revocation accumulator. Registry holds
// the current accumulator value, RegistryDelta the delta that produced it.
type RevocationRegistryDefinition struct {
	ID                     string                     `json:"id"`
	Type                   string                     `json:"type"`
	Issuer                 string                     `json:"issuer"`
	CredentialDefinition   string                     `json:"credentialDefinition"`
	Registry               []byte                     `json:"registry"`
	RegistryDelta          *RevocationRegistryDelta   `json:"registryDelta,omitempty"`
	DeltaHistory           []*RevocationRegistryDelta `json:"deltaHistory,omitempty"`
	StateToken             string                     `json:"stateToken"`
	MaximumCredentialCount uint32                     `json:"maximumCredentialCount"`
	RevocationPublicKey    string                     `json:"revocationPublicKey"`
	CreatedAt              time.Time                  `json:"createdAt"`
	UpdatedAt              time.Time                  `json:"updatedAt"`
	Proof                  *AssertionProof            `json:"proof,omitempty"`
}

// LatestSequence is the sequence number of the last appended delta, zero for a fresh registry.
func (r *RevocationRegistryDefinition) LatestSequence() uint64 {
	if r.RegistryDelta == nil {
		return 0
	}

	return r.RegistryDelta.Sequence
}

// PublicKeyBytes decodes the multibase encoded accumulator public key.
func (r *RevocationRegistryDefinition) PublicKeyBytes() ([]byte, error) {
	return DecodeMultibase(r.RevocationPublicKey)
}

// DeltasAfter returns the deltas of the embedded history with a sequence above seq.
func (r *RevocationRegistryDefinition) DeltasAfter(seq uint64) []*RevocationRegistryDelta {
	var deltas []*RevocationRegistryDelta

	for _, d := range r.DeltaHistory {
		if d.Sequence > seq {
			deltas = append(deltas, d)
		}
	}

	return deltas
}

// Unsigned returns a copy of the registry head without proof and without the embedded history.
func (r *RevocationRegistryDefinition) Unsigned() *RevocationRegistryDefinition {
	c := *r
	c.Proof = nil
	c.DeltaHistory = nil

	return &c
}

// RevocationRegistryDelta records one mutation of an accumulator. Deltas form an append-only
// chain: PreviousToken of delta n is StateToken of delta n-1.
type RevocationRegistryDelta struct {
	Registry      string    `json:"registry"`
	Sequence      uint64    `json:"sequence"`
	PreviousToken string    `json:"previousToken"`
	StateToken    string    `json:"stateToken"`
	Issued        []uint32  `json:"issued,omitempty"`
	Revoked       []uint32  `json:"revoked,omitempty"`
	Accumulator   []byte    `json:"accumulator"`
	Updates       [][]byte  `json:"updates"`
	Created       time.Time `json:"created"`
}

// RevocationIDInformation is the issuer's index bookkeeping for one registry.
type RevocationIDInformation struct {
	DefinitionID string   `json:"definitionId"`
	NextUnusedID uint32   `json:"nextUnusedId"`
	UsedIDs      []uint32 `json:"usedIds"`
	RevokedIDs   []uint32 `json:"revokedIds,omitempty"`
}

// RevocationState is the holder's membership witness for one credential, valid at the registry
// state identified by Sequence and StateToken.
type RevocationState struct {
	CredentialID       string    `json:"credentialId"`
	RevocationRegistry string    `json:"revocationRegistry"`
	RevocationID       uint32    `json:"revocationId"`
	Sequence           uint64    `json:"sequence"`
	StateToken         string    `json:"stateToken"`
	Updated            time.Time `json:"updated"`
	Witness            []byte    `json:"witness"`
}

// RevocationHandle names the accumulator element of index in registry.
func RevocationHandle(registryID string, index uint32) string {
	return fmt.Sprintf("%s#%d", registryID, index)
}
