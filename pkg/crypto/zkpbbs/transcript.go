/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkpbbs

import (
	"encoding/binary"

	ml "github.com/IBM/mathlib"
)

// transcript collects the Fiat-Shamir input of a proof. Variable length values are length
// prefixed; group elements and scalars have fixed sizes.
type transcript struct {
	data []byte
}

func newTranscript(label string) *transcript {
	t := &transcript{}
	t.appendString(label)

	return t
}

func (t *transcript) append(parts ...[]byte) {
	for _, p := range parts {
		t.data = append(t.data, p...)
	}
}

func (t *transcript) appendString(s string) {
	t.data = binary.BigEndian.AppendUint32(t.data, uint32(len(s)))
	t.data = append(t.data, s...)
}

func (t *transcript) appendInt(i int) {
	t.data = binary.BigEndian.AppendUint32(t.data, uint32(i))
}

func (t *transcript) appendG1(points ...*ml.G1) {
	for _, p := range points {
		t.data = append(t.data, p.Bytes()...)
	}
}

func (t *transcript) challenge() *ml.Zr {
	return curve.HashToZr(t.data)
}
