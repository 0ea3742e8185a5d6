/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
)

// NullValue encodes an optional attribute that was left out of a credential.
const NullValue = "null"

var (
	// ErrMissingAttribute is returned when a required attribute has no value.
	ErrMissingAttribute = errors.New("missing required attribute")
	// ErrUnknownAttribute is returned when a value names an attribute the schema does not declare.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// Attribute is one named credential value in canonical position.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EncodeValues orders values by the schema's canonical attribute order. Every required attribute
// must be present and every value must name a declared attribute; absent optional attributes are
// encoded as NullValue so positions stay fixed.
func EncodeValues(schema *CredentialSchema, values map[string]string) ([]Attribute, error) {
	for name := range values {
		if !schema.HasAttribute(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
		}
	}

	names := schema.AttributeNames()
	attrs := make([]Attribute, 0, len(names))

	for _, name := range names {
		v, ok := values[name]
		if !ok {
			if schema.IsRequired(name) {
				return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, name)
			}

			v = NullValue
		}

		attrs = append(attrs, Attribute{Name: name, Value: v})
	}

	return attrs, nil
}

// AttributeMap turns encoded attributes back into a name/value map.
func AttributeMap(attrs []Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}

	return m
}

// EncodeMultibase encodes key material as base58btc multibase.
func EncodeMultibase(b []byte) (string, error) {
	return multibase.Encode(multibase.Base58BTC, b)
}

// DecodeMultibase decodes a multibase string of any supported encoding.
func DecodeMultibase(s string) ([]byte, error) {
	_, b, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode multibase: %w", err)
	}

	return b, nil
}
