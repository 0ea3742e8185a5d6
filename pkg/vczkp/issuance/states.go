/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import (
	"fmt"
)

const (
	// common states
	stateNameStart            = "start"
	stateNameCredentialIssued = "credential-issued"

	// states for Issuer
	stateNameOfferSent = "offer-sent"

	// states for Holder
	stateNameProposalSent  = "proposal-sent"
	stateNameOfferReceived = "offer-received"
	stateNameRequestSent   = "request-sent"
)

// the protocol's state.
type state interface {
	// Name of this state.
	Name() string
	// Whether this state allows transitioning into the next state.
	CanTransitionTo(next state) bool
}

// start state
type start struct{}

func (s *start) Name() string {
	return stateNameStart
}

func (s *start) CanTransitionTo(st state) bool {
	return st.Name() == stateNameProposalSent ||
		st.Name() == stateNameOfferReceived ||
		st.Name() == stateNameOfferSent
}

// proposalSent the Holder's state.
type proposalSent struct{}

func (s *proposalSent) Name() string {
	return stateNameProposalSent
}

func (s *proposalSent) CanTransitionTo(st state) bool {
	return st.Name() == stateNameOfferReceived
}

// offerReceived the Holder's state.
type offerReceived struct{}

func (s *offerReceived) Name() string {
	return stateNameOfferReceived
}

func (s *offerReceived) CanTransitionTo(st state) bool {
	return st.Name() == stateNameRequestSent
}

// requestSent the Holder's state.
type requestSent struct{}

func (s *requestSent) Name() string {
	return stateNameRequestSent
}

func (s *requestSent) CanTransitionTo(st state) bool {
	return st.Name() == stateNameCredentialIssued
}

// offerSent the Issuer's state.
type offerSent struct{}

func (s *offerSent) Name() string {
	return stateNameOfferSent
}

func (s *offerSent) CanTransitionTo(st state) bool {
	return st.Name() == stateNameCredentialIssued
}

// credentialIssued the final state of both roles.
type credentialIssued struct{}

func (s *credentialIssued) Name() string {
	return stateNameCredentialIssued
}

func (s *credentialIssued) CanTransitionTo(_ state) bool {
	return false
}

func stateFromName(name string) (state, error) {
	switch name {
	case stateNameStart:
		return &start{}, nil
	case stateNameProposalSent:
		return &proposalSent{}, nil
	case stateNameOfferReceived:
		return &offerReceived{}, nil
	case stateNameRequestSent:
		return &requestSent{}, nil
	case stateNameOfferSent:
		return &offerSent{}, nil
	case stateNameCredentialIssued:
		return &credentialIssued{}, nil
	default:
		return nil, fmt.Errorf("invalid state name %s", name)
	}
}
