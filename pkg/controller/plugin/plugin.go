/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/mitchellh/mapstructure"

	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/command/vczkp"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/internal/cmdutil"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/api"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/creddef"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/issuance"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/presentation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/revocation"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp/schema"
)

var logger = log.New("vade-evan-cl/plugin")

// Type is the options type handled by this plugin.
const Type = "cl"

// Options are the per call options of the plugin host. Identity, VerificationMethod and PrivateKey
// are merged into the payload unless the payload sets them.
type Options struct {
	Type               string `mapstructure:"type"`
	Identity           string `mapstructure:"identity"`
	VerificationMethod string `mapstructure:"verificationMethod"`
	PrivateKey         string `mapstructure:"privateKey"`
}

type provider interface {
	DIDMethod() string
	Primitives() api.Primitives
	Schemas() *schema.Registry
	CredentialDefinitions() *creddef.Manager
	Revocation() *revocation.Registry
	Issuance() *issuance.Protocol
	Presentation() *presentation.Protocol
}

// Plugin adapts the vczkp commands to a plugin host that dispatches by function name, DID method
// and options type.
type Plugin struct {
	method    string
	functions map[string]command.Exec
	custom    map[string]command.Exec
}

// New returns a plugin serving calls for the DID method of the given service.
func New(p provider) *Plugin {
	cmd := vczkp.New(p)

	return &Plugin{
		method:    "did:" + p.DIDMethod(),
		functions: cmdutil.ExecsByMethod(cmd.GetHandlers()...),
		custom:    cmdutil.ExecsByMethod(cmd.GetCustomHandlers()...),
	}
}

// Method returns the DID method prefix this plugin answers to.
func (p *Plugin) Method() string {
	return p.method
}

// Call runs one of the vc_zkp_* functions. Calls for another DID method, another options type or an
// unknown function are ignored.
func (p *Plugin) Call(ctx context.Context, function, method string, options map[string]interface{},
	payload []byte) ([]byte, bool, error) {
	return p.dispatch(ctx, p.functions, function, method, options, payload)
}

// RunCustomFunction runs one of the extension functions, such as create_master_secret.
func (p *Plugin) RunCustomFunction(ctx context.Context, method, function string, options map[string]interface{},
	payload []byte) ([]byte, bool, error) {
	return p.dispatch(ctx, p.custom, function, method, options, payload)
}

func (p *Plugin) dispatch(ctx context.Context, execs map[string]command.Exec, function, method string,
	options map[string]interface{}, payload []byte) ([]byte, bool, error) {
	exec, ok := execs[function]
	if !ok || method != p.method {
		return nil, true, nil
	}

	opts, err := decodeOptions(options)
	if err != nil {
		return nil, false, command.NewValidationError(vczkp.InvalidRequestErrorCode, err)
	}

	if opts.Type != Type {
		return nil, true, nil
	}

	if err = ctx.Err(); err != nil {
		return nil, false, err
	}

	body, err := merge(payload, opts)
	if err != nil {
		return nil, false, command.NewValidationError(vczkp.InvalidRequestErrorCode, err)
	}

	var rw bytes.Buffer

	if cmdErr := exec(&rw, bytes.NewReader(body)); cmdErr != nil {
		logger.Debugf("%s failed: %s", function, cmdErr.Error())

		return nil, false, cmdErr
	}

	return bytes.TrimSpace(rw.Bytes()), false, nil
}

func decodeOptions(options map[string]interface{}) (*Options, error) {
	opts := &Options{}

	if options == nil {
		return opts, nil
	}

	if err := mapstructure.Decode(options, opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}

	return opts, nil
}

// merge adds the identity options to a JSON object payload.
func merge(payload []byte, opts *Options) ([]byte, error) {
	doc := map[string]interface{}{}

	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("payload must be a JSON object: %w", err)
		}
	}

	for key, value := range map[string]string{
		"identity":           opts.Identity,
		"verificationMethod": opts.VerificationMethod,
		"privateKey":         opts.PrivateKey,
	} {
		if _, set := doc[key]; !set && value != "" {
			doc[key] = value
		}
	}

	return json.Marshal(doc)
}
