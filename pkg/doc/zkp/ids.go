/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkp

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh ledger ID for the given DID method.
func NewID(method string) string {
	return fmt.Sprintf("did:%s:zkp:%s", method, uuid.New().String())
}
