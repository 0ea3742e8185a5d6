/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package schema publishes and resolves credential schemas.
package schema

import (
	"context"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
)

var logger = log.New("vade-evan-cl/schema")

// Provider contains dependencies for the schema registry.
type Provider interface {
	Ledger() api.Ledger
	KeyResolver() zkp.KeyResolver
	DIDMethod() string
}

// CreateRequest describes a new schema. Types maps attribute names to property types and may be
// left empty.
type CreateRequest struct {
	Name                 string
	Description          string
	Attributes           []string
	Required             []string
	Types                map[string]string
	AdditionalProperties bool
}

// Registry publishes and resolves schemas.
type Registry struct {
	ledger   api.Ledger
	resolver zkp.KeyResolver
	method   string
}

// New returns a schema registry.
func New(p Provider) *Registry {
	return &Registry{ledger: p.Ledger(), resolver: p.KeyResolver(), method: p.DIDMethod()}
}

// Create validates req and publishes the schema authored by issuer.
func (r *Registry) Create(ctx context.Context, issuer *zkp.Identity, req *CreateRequest) (*zkp.CredentialSchema, error) {
	const op = "create schema"

	if issuer == nil || issuer.ID == "" {
		return nil, api.Errorf(api.KindValidation, op, "issuer identity is required")
	}

	if err := issuer.Authorize(issuer.ID, r.resolver); err != nil {
		return nil, api.Wrap(api.KindValidation, op, err)
	}

	if req.Name == "" {
		return nil, api.Errorf(api.KindValidation, op, "schema name is required")
	}

	if len(req.Attributes) == 0 {
		return nil, api.Errorf(api.KindValidation, op, "at least one attribute is required")
	}

	props := make(map[string]zkp.SchemaProperty, len(req.Attributes))

	for _, name := range req.Attributes {
		if name == "" {
			return nil, api.Errorf(api.KindValidation, op, "empty attribute name")
		}

		if _, ok := props[name]; ok {
			return nil, api.Errorf(api.KindValidation, op, "duplicate attribute name %q", name)
		}

		typ := req.Types[name]
		if typ == "" {
			typ = zkp.DefaultPropertyType
		}

		props[name] = zkp.SchemaProperty{Type: typ}
	}

	for name := range req.Types {
		if _, ok := props[name]; !ok {
			return nil, api.Errorf(api.KindValidation, op, "type given for undeclared attribute %q", name)
		}
	}

	required := make([]string, 0, len(req.Required))

	for _, name := range req.Required {
		if _, ok := props[name]; !ok {
			return nil, api.Errorf(api.KindValidation, op, "required attribute %q is not declared", name)
		}

		required = append(required, name)
	}

	now := time.Now().UTC()
	schema := &zkp.CredentialSchema{
		ID:                   zkp.NewID(r.method),
		Type:                 zkp.SchemaType,
		Name:                 req.Name,
		Author:               issuer.ID,
		CreatedAt:            now,
		Description:          req.Description,
		Properties:           props,
		Required:             required,
		AdditionalProperties: req.AdditionalProperties,
	}

	proof, err := issuer.Sign(schema, now)
	if err != nil {
		return nil, api.Wrap(api.KindCrypto, op, err)
	}

	schema.Proof = proof

	if err = r.ledger.PublishSchema(ctx, schema); err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	logger.Debugf("published schema %s with %d attributes", schema.ID, len(props))

	return schema, nil
}

// Get resolves a published schema. When a key resolver is configured the author's assertion
// proof is required and checked.
func (r *Registry) Get(ctx context.Context, id string) (*zkp.CredentialSchema, error) {
	const op = "get schema"

	schema, err := r.ledger.FetchSchema(ctx, id)
	if err != nil {
		return nil, api.Wrap(api.KindUnknown, op, err)
	}

	if r.resolver != nil {
		if err = zkp.VerifyAssertion(schema.Proof, schema.Unsigned(), schema.Author, r.resolver); err != nil {
			return nil, api.Wrap(api.KindCrypto, op, err)
		}
	}

	return schema, nil
}
