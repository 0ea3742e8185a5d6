/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"bytes"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	type request struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name string
		body string
		want string
		err  string
	}{
		{name: "document", body: `{"name":"person"}`, want: "person"},
		{name: "trailing whitespace", body: "{\"name\":\"person\"}\n", want: "person"},
		{name: "empty body", body: ""},
		{name: "truncated", body: `{"name":`, err: "unexpected EOF"},
		{name: "two documents", body: `{"name":"a"}{"name":"b"}`, err: "unexpected data after request document"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req request

			err := DecodeRequest(bytes.NewBufferString(tc.body), &req)
			if tc.err != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, req.Name)
		})
	}
}

func TestWriteNillableResponse(t *testing.T) {
	logger := log.New("vade-evan-cl/command-test")

	var rw bytes.Buffer

	WriteNillableResponse(&rw, nil, logger)
	require.Equal(t, "{}\n", rw.String())

	rw.Reset()

	WriteNillableResponse(&rw, map[string]int{"sequence": 2}, logger)
	require.JSONEq(t, `{"sequence":2}`, rw.String())
}
