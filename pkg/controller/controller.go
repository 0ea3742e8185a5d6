/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
	vczkpcmd "github.com/evannetwork/vade-evan-cl/pkg/controller/command/vczkp"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/rest"
	vczkprest "github.com/evannetwork/vade-evan-cl/pkg/controller/rest/vczkp"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/webnotifier"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp"
)

type allOpts struct {
	webhookURLs []string
	notifier    command.Notifier
}

// WSPath is the websocket notification endpoint.
const WSPath = "/ws"

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events.
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithNotifier is an option for setting up a notifier which will notify clients of events. The
// same notifier should be passed to the service with vczkp.WithNotifier so revocation deltas reach
// its subscribers.
func WithNotifier(notifier command.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifier = notifier
	}
}

// NewNotifier returns the default notifier: websocket clients on WSPath plus the webhook URLs.
func NewNotifier(opts ...Opt) command.Notifier {
	o := &allOpts{}
	for _, opt := range opts {
		opt(o)
	}

	if o.notifier != nil {
		return o.notifier
	}

	return webnotifier.New(WSPath, o.webhookURLs)
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(svc *vczkp.Service, opts ...Opt) []rest.Handler {
	notifier := NewNotifier(opts...)

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, vczkprest.New(svc).GetRESTHandlers()...)

	nhp, ok := notifier.(handlerProvider)
	if ok {
		allHandlers = append(allHandlers, nhp.GetRESTHandlers()...)
	}

	return allHandlers
}

type handlerProvider interface {
	GetRESTHandlers() []rest.Handler
}

// GetCommandHandlers returns all command handlers provided by controller, the extension functions
// included.
func GetCommandHandlers(svc *vczkp.Service) []command.Handler {
	cmd := vczkpcmd.New(svc)

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, cmd.GetHandlers()...)
	allHandlers = append(allHandlers, cmd.GetCustomHandlers()...)

	return allHandlers
}
