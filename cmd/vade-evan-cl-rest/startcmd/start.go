/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/secretlock"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/evannetwork/vade-evan-cl/pkg/controller"
	"github.com/evannetwork/vade-evan-cl/pkg/controller/command"
	"github.com/evannetwork/vade-evan-cl/pkg/doc/zkp"
	"github.com/evannetwork/vade-evan-cl/pkg/secretlock/hkdf"
	"github.com/evannetwork/vade-evan-cl/pkg/vczkp"
)

const (
	// api host flag.
	agentHostFlagName      = "api-host"
	agentHostEnvKey        = "VADE_API_HOST"
	agentHostFlagShorthand = "a"
	agentHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + agentHostEnvKey

	// api token flag.
	agentTokenFlagName      = "api-token"
	agentTokenEnvKey        = "VADE_API_TOKEN" // nolint:gosec
	agentTokenFlagShorthand = "t"
	agentTokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + agentTokenEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "VADE_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database to use for the ledger, nonces and issuer secrets. " +
		"Supported options: mem, leveldb. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databasePathFlagName      = "database-path"
	databasePathEnvKey        = "VADE_DATABASE_PATH"
	databasePathFlagShorthand = "p"
	databasePathFlagUsage     = "The directory of the leveldb database. Not needed if using memstore." +
		" Alternatively, this can be set with the following environment variable: " + databasePathEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "VADE_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// webhook url flag.
	agentWebhookFlagName      = "webhook-url"
	agentWebhookEnvKey        = "VADE_WEBHOOK_URL"
	agentWebhookFlagShorthand = "w"
	agentWebhookFlagUsage     = "URL to send revocation notifications to." +
		" This flag can be repeated, allowing for multiple listeners." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + agentWebhookEnvKey

	// log level.
	agentLogLevelFlagName  = "log-level"
	agentLogLevelEnvKey    = "VADE_LOG_LEVEL"
	agentLogLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentLogLevelEnvKey

	// secret lock key flag.
	secretLockKeyFlagName      = "secret-lock-key"
	secretLockKeyEnvKey        = "VADE_SECRET_LOCK_KEY" // nolint:gosec
	secretLockKeyFlagShorthand = "s"
	secretLockKeyFlagUsage     = "Passphrase sealing the issuer secrets at rest." +
		" Without it a random key is used and issuer secrets do not survive a restart." +
		" Alternatively, this can be set with the following environment variable: " + secretLockKeyEnvKey

	// did method flag.
	didMethodFlagName      = "did-method"
	didMethodEnvKey        = "VADE_DID_METHOD"
	didMethodFlagShorthand = "m"
	didMethodFlagUsage     = "DID method of the published records. Defaults to " + vczkp.DefaultDIDMethod + "." +
		" Alternatively, this can be set with the following environment variable: " + didMethodEnvKey

	keyResolverFlagName  = "key-resolver"
	keyResolverEnvKey    = "VADE_KEY_RESOLVER"
	keyResolverFlagUsage = "How issuer verification methods are resolved to check assertion proofs and issuer keys." +
		" Supported options: " + keyResolverDIDKeyOption + ". Unset disables the checks." +
		" Alternatively, this can be set with the following environment variable: " + keyResolverEnvKey

	keyResolverDIDKeyOption = "did-key"

	agentTLSCertFileFlagName      = "tls-cert-file"
	agentTLSCertFileEnvKey        = "VADE_TLS_CERT_FILE"
	agentTLSCertFileFlagShorthand = "c"
	agentTLSCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSCertFileEnvKey

	agentTLSKeyFileFlagName      = "tls-key-file"
	agentTLSKeyFileEnvKey        = "VADE_TLS_KEY_FILE"
	agentTLSKeyFileFlagShorthand = "k"
	agentTLSKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSKeyFileEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("vade-evan-cl/rest-agent")
)

type agentParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	webhookURLs             []string
	secretLockKey           string
	didMethod               string
	keyResolver             string
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	path    string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(path string) (storage.Provider, error){
	databaseTypeMemOption: func(_ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) {
		if path == "" {
			return nil, backoff.Permanent(errors.New("leveldb needs a database path"))
		}

		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}

		return leveldb.NewProvider(path), nil
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the credential agent",
		Long:  `Start the anonymous credential REST agent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := newAgentParameters(server, cmd)
			if err != nil {
				return err
			}

			return startAgent(parameters)
		},
	}
}

func newAgentParameters(server server, cmd *cobra.Command) (*agentParameters, error) {
	logLevel, err := getUserSetVar(cmd, agentLogLevelFlagName, agentLogLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	if err = setLogLevel(logLevel); err != nil {
		return nil, err
	}

	parameters := &agentParameters{server: server}

	if parameters.host, err = getUserSetVar(cmd, agentHostFlagName, agentHostEnvKey, false); err != nil {
		return nil, err
	}

	if parameters.token, err = getUserSetVar(cmd, agentTokenFlagName, agentTokenEnvKey, true); err != nil {
		return nil, err
	}

	if parameters.dbParam, err = getDBParam(cmd); err != nil {
		return nil, err
	}

	parameters.webhookURLs, err = getUserSetVars(cmd, agentWebhookFlagName, agentWebhookEnvKey, true)
	if err != nil {
		return nil, err
	}

	parameters.secretLockKey, err = getUserSetVar(cmd, secretLockKeyFlagName, secretLockKeyEnvKey, true)
	if err != nil {
		return nil, err
	}

	if parameters.didMethod, err = getUserSetVar(cmd, didMethodFlagName, didMethodEnvKey, true); err != nil {
		return nil, err
	}

	parameters.keyResolver, err = getUserSetVar(cmd, keyResolverFlagName, keyResolverEnvKey, true)
	if err != nil {
		return nil, err
	}

	parameters.tlsCertFile, err = getUserSetVar(cmd, agentTLSCertFileFlagName, agentTLSCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	parameters.tlsKeyFile, err = getUserSetVar(cmd, agentTLSKeyFileFlagName, agentTLSKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	return parameters, nil
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.path, err = getUserSetVar(cmd, databasePathFlagName, databasePathEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func createFlags(startCmd *cobra.Command) {
	// agent host flag
	startCmd.Flags().StringP(agentHostFlagName, agentHostFlagShorthand, "", agentHostFlagUsage)

	// agent token flag
	startCmd.Flags().StringP(agentTokenFlagName, agentTokenFlagShorthand, "", agentTokenFlagUsage)

	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)

	// db path
	startCmd.Flags().StringP(databasePathFlagName, databasePathFlagShorthand, "", databasePathFlagUsage)

	// db timeout
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)

	// webhook url flag
	startCmd.Flags().StringSliceP(agentWebhookFlagName, agentWebhookFlagShorthand, []string{},
		agentWebhookFlagUsage)

	// log level
	startCmd.Flags().StringP(agentLogLevelFlagName, "", "", agentLogLevelFlagUsage)

	// secret lock key
	startCmd.Flags().StringP(secretLockKeyFlagName, secretLockKeyFlagShorthand, "", secretLockKeyFlagUsage)

	// did method
	startCmd.Flags().StringP(didMethodFlagName, didMethodFlagShorthand, "", didMethodFlagUsage)

	// key resolver
	startCmd.Flags().StringP(keyResolverFlagName, "", "", keyResolverFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(agentTLSCertFileFlagName,
		agentTLSCertFileFlagShorthand, "", agentTLSCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(agentTLSKeyFileFlagName,
		agentTLSKeyFileFlagShorthand, "", agentTLSKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startAgent(parameters *agentParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	svc, notifier, err := createService(parameters)
	if err != nil {
		return fmt.Errorf("failed to start agent rest on port [%s], cause:  %w", parameters.host, err)
	}

	handlers := controller.GetRESTHandlers(svc, controller.WithNotifier(notifier))

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	logger.Infof("Starting agent rest on host [%s]", parameters.host)
	// start server on given port and serve using given handlers
	handler := cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start agent rest on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createService(parameters *agentParameters) (*vczkp.Service, command.Notifier, error) {
	storePro, err := createStoreProvider(parameters)
	if err != nil {
		return nil, nil, err
	}

	lock, err := createSecretLock(parameters.secretLockKey)
	if err != nil {
		return nil, nil, err
	}

	notifier := controller.NewNotifier(controller.WithWebhookURLs(parameters.webhookURLs...))

	opts := []vczkp.Option{
		vczkp.WithStorageProvider(storePro),
		vczkp.WithSecretLock(lock),
		vczkp.WithNotifier(notifier),
	}

	if parameters.didMethod != "" {
		opts = append(opts, vczkp.WithDIDMethod(parameters.didMethod))
	}

	switch parameters.keyResolver {
	case "":
		logger.Warnf("no key resolver set, assertion proofs of fetched records are not checked")
	case keyResolverDIDKeyOption:
		opts = append(opts, vczkp.WithKeyResolver(zkp.DIDKeyResolver{}))
	default:
		return nil, nil, fmt.Errorf("key resolver not supported: %s", parameters.keyResolver)
	}

	svc, err := vczkp.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize service : %w", err)
	}

	return svc, notifier, nil
}

func createSecretLock(key string) (secretlock.Service, error) {
	if key == "" {
		logger.Warnf("no secret lock key set, issuer secrets will not survive a restart")

		return hkdf.NewEphemeralLock()
	}

	lock, err := hkdf.NewLock(key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret lock : %w", err)
	}

	return lock, nil
}

func createStoreProvider(parameters *agentParameters) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[parameters.dbParam.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(parameters.dbParam.path)
			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), parameters.dbParam.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to open storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage at %s : %w", parameters.dbParam.path, err)
	}

	return store, nil
}
