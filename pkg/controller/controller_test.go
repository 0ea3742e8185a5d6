/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evannetwork/vade-evan-cl/pkg/controller/internal/mocks/webhook"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/webnotifier"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp"
)

func TestGetRESTHandlers(t *testing.T) {
	svc, err := vczkp.New()
	require.NoError(t, err)

	t.Run("default notifier adds the websocket endpoint", func(t *testing.T) {
		handlers := GetRESTHandlers(svc, WithWebhookURLs("http://localhost:8080"))
		require.Len(t, handlers, 19)

		last := handlers[len(handlers)-1]
		require.Equal(t, WSPath, last.Path())
		require.Equal(t, http.MethodGet, last.Method())
	})

	t.Run("custom notifier without handlers", func(t *testing.T) {
		handlers := GetRESTHandlers(svc, WithNotifier(webhook.NewMockWebhookNotifier()))
		require.Len(t, handlers, 18)
	})
}

func TestNewNotifier(t *testing.T) {
	require.IsType(t, &webnotifier.WebNotifier{}, NewNotifier())

	mock := webhook.NewMockWebhookNotifier()
	require.Equal(t, mock, NewNotifier(WithNotifier(mock)))
}

func TestGetCommandHandlers(t *testing.T) {
	svc, err := vczkp.New()
	require.NoError(t, err)

	handlers := GetCommandHandlers(svc)
	require.Len(t, handlers, 17)

	methods := map[string]bool{}
	for _, h := range handlers {
		methods[h.Method()] = true
	}

	require.True(t, methods["vc_zkp_verify_proof"])
	require.True(t, methods["update_revocation_state"])
}
