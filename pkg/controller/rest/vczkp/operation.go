/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vczkp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
	cmdvczkp "github.com/evannetwork/vade-evan-cl/pkg/controller/command/vczkp"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/internal/cmdutil"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/rest"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/issuance"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/presentation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/revocation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/schema"
)

// constants for the vczkp operations.
const (
	OperationID = "/vczkp"
	DeltasPath  = OperationID + "/revocation/{id}/deltas"

	afterQuery = "after"
)

// provider contains dependencies for the vczkp command, typically a *vczkp.Service.
type provider interface {
	Primitives() api.Primitives
	Schemas() *schema.Registry
	CredentialDefinitions() *creddef.Manager
	Revocation() *revocation.Registry
	Issuance() *issuance.Protocol
	Presentation() *presentation.Protocol
}

// Operation exposes every vczkp command at POST /vczkp/{function}.
type Operation struct {
	handlers []rest.Handler
	command  *cmdvczkp.Command
}

// New returns new vczkp rest client instance.
func New(p provider) *Operation {
	o := &Operation{command: cmdvczkp.New(p)}
	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// Path returns the endpoint of a plugin function.
func Path(function string) string {
	return OperationID + "/" + function
}

func (o *Operation) registerHandler() {
	for _, h := range append(o.command.GetHandlers(), o.command.GetCustomHandlers()...) {
		exec := h.Handle()

		o.handlers = append(o.handlers, cmdutil.NewHTTPHandler(Path(h.Method()), http.MethodPost,
			func(rw http.ResponseWriter, req *http.Request) {
				rest.ExecuteWithStatus(exec, rw, req.Body, Status)
			}))
	}

	o.handlers = append(o.handlers, cmdutil.NewHTTPHandler(DeltasPath, http.MethodGet, o.GetRevocationDeltas))
}

// GetRevocationDeltas swagger:route GET /vczkp/revocation/{id}/deltas vczkp getRevocationDeltas
//
// Returns the deltas of a revocation registry after the sequence given in the after query
// parameter.
//
// Responses:
//    default: genericError
//        200: getRevocationDeltasResponse
func (o *Operation) GetRevocationDeltas(rw http.ResponseWriter, req *http.Request) {
	request := cmdvczkp.GetRevocationDeltasRequest{RevocationRegistryDefinition: mux.Vars(req)["id"]}

	if after := req.URL.Query().Get(afterQuery); after != "" {
		seq, err := strconv.ParseUint(after, 10, 64)
		if err != nil {
			rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdvczkp.InvalidRequestErrorCode,
				fmt.Errorf("invalid %s: %w", afterQuery, err))

			return
		}

		request.AfterSequence = seq
	}

	body, err := json.Marshal(&request)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusInternalServerError, cmdvczkp.ExecuteErrorCode, err)

		return
	}

	rest.ExecuteWithStatus(o.command.GetRevocationDeltas, rw, bytes.NewReader(body), Status)
}

// Status maps vczkp command errors to http status codes.
func Status(err command.Error) int {
	switch err.Code() {
	case cmdvczkp.InvalidRequestErrorCode:
		return http.StatusBadRequest
	case cmdvczkp.NotFoundErrorCode:
		return http.StatusNotFound
	case cmdvczkp.ProtocolErrorCode, cmdvczkp.CapacityErrorCode, cmdvczkp.StaleWitnessErrorCode:
		return http.StatusConflict
	case cmdvczkp.VerificationErrorCode:
		return http.StatusUnprocessableEntity
	default:
		return rest.DefaultStatus(err)
	}
}
