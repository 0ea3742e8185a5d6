/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api holds the contracts shared by the anonymous credential protocol packages: the
// error taxonomy, the cryptographic Primitives backend and the public Ledger.
package api
