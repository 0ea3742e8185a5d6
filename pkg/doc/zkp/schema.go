/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zkp defines the records exchanged by the anonymous credential protocols: schemas,
// credential definitions, revocation registries and deltas, handshake messages, credentials,
// proof requests and presentations.
package zkp

import (
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	// SchemaType is the type of published credential schemas.
	SchemaType = "EvanVCSchema"
	// SchemaReferenceType is the type used when a credential points at its schema.
	SchemaReferenceType = "EvanZKPSchema"
	// DefaultPropertyType is used for attributes declared without a type.
	DefaultPropertyType = "string"
)

// SchemaProperty describes one attribute of a schema.
type SchemaProperty struct {
	Type   string   `json:"type"`
	Format string   `json:"format,omitempty"`
	Items  []string `json:"items,omitempty"`
}

// CredentialSchema is an immutable set of attribute names published by an issuer.
type CredentialSchema struct {
	ID                   string                    `json:"id"`
	Type                 string                    `json:"type"`
	Name                 string                    `json:"name"`
	Author               string                    `json:"author"`
	CreatedAt            time.Time                 `json:"createdAt"`
	Description          string                    `json:"description,omitempty"`
	Properties           map[string]SchemaProperty `json:"properties"`
	Required             []string                  `json:"required"`
	AdditionalProperties bool                      `json:"additionalProperties"`
	Proof                *AssertionProof           `json:"proof,omitempty"`
}

// AttributeNames returns the attribute names in canonical (ascending) order.
func (s *CredentialSchema) AttributeNames() []string {
	names := maps.Keys(s.Properties)
	slices.Sort(names)

	return names
}

// HasAttribute reports whether name is declared by the schema.
func (s *CredentialSchema) HasAttribute(name string) bool {
	_, ok := s.Properties[name]

	return ok
}

// IsRequired reports whether a value for name must be present in a credential.
func (s *CredentialSchema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

// Unsigned returns a copy of the schema without its assertion proof.
func (s *CredentialSchema) Unsigned() *CredentialSchema {
	c := *s
	c.Proof = nil

	return &c
}
