/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
)

var logger = log.New("vade-evan-cl/rest")

// Handler http handler for each controller API endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
}

// StatusFunc picks the http status of a failed command.
type StatusFunc func(err command.Error) int

// genericErrorBody is the body of every failed request.
type genericErrorBody struct {
	Code    command.Code `json:"code"`
	Message string       `json:"message"`
}

// SendError sends command error as http response in generic error body format.
func SendError(rw http.ResponseWriter, err command.Error) {
	SendHTTPStatusError(rw, DefaultStatus(err), err.Code(), err)
}

// DefaultStatus maps validation errors to 400 and everything else to 500.
func DefaultStatus(err command.Error) int {
	if err.Type() == command.ValidationError {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// SendHTTPStatusError sends given http status code to response with error body.
func SendHTTPStatusError(rw http.ResponseWriter, httpStatus int, code command.Code, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(httpStatus)

	e := json.NewEncoder(rw).Encode(genericErrorBody{
		Code:    code,
		Message: err.Error(),
	})
	if e != nil {
		logger.Errorf("Unable to send error response, %s", e)
	}
}

// Execute executes given command with args provided and writes command error to response writer.
func Execute(exec command.Exec, rw http.ResponseWriter, req io.Reader) {
	ExecuteWithStatus(exec, rw, req, DefaultStatus)
}

// ExecuteWithStatus is Execute with a custom mapping of command errors to http status codes.
func ExecuteWithStatus(exec command.Exec, rw http.ResponseWriter, req io.Reader, status StatusFunc) {
	rw.Header().Set("Content-Type", "application/json")

	if err := exec(rw, req); err != nil {
		SendHTTPStatusError(rw, status(err), err.Code(), err)
	}
}
