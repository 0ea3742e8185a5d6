/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vczkp is the entry point of the anonymous credential protocol.
//
// A Service connects five components:
//
//	schema.Registry       publishes attribute schemas
//	creddef.Manager       binds issuer keys to schemas
//	revocation.Registry   maintains accumulators and holder witnesses
//	issuance.Protocol     proposal, offer, blinded request, issue and finish
//	presentation.Protocol proof requests, presentations and verification
//
// Holders must refresh their witnesses with Revocation().RefreshWitness before presenting a
// revocable credential; a presentation built on an outdated witness fails with a
// StaleWitnessError.
package vczkp
