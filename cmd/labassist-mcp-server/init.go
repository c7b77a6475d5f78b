// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/entra"
	"labassist-mcp-server/pkg/labassist"
	"labassist-mcp-server/pkg/labassist/cost"
	"labassist-mcp-server/pkg/labassist/hub"
)

func InitEndpointClient(logger *log.Logger, timeout time.Duration, retries int) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = logger

	transport := cleanhttp.DefaultPooledTransport()
	transport.Proxy = http.ProxyFromEnvironment

	retryClient.HTTPClient = cleanhttp.DefaultClient()
	retryClient.HTTPClient.Timeout = timeout
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(transport)
	retryClient.RetryMax = retries
	retryClient.Backoff = rateLimitBackoff
	retryClient.CheckRetry = checkRetry

	// Hand the last response back untouched so callers can report its status and body.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient.StandardClient()
}

// InitTokenClient returns the client for the token exchange. It never retries,
// so each Token call makes exactly one request to the identity provider.
func InitTokenClient(timeout time.Duration) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.Proxy = http.ProxyFromEnvironment

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	client.Transport = otelhttp.NewTransport(transport)
	return client
}

// rateLimitBackoff waits for x-ratelimit-reset on 429 responses and otherwise
// falls back to the default exponential backoff, which honours Retry-After.
func rateLimitBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		resetAfter := resp.Header.Get("x-ratelimit-reset")
		if resetAfter != "" {
			resetAfterInt, err := strconv.ParseInt(resetAfter, 10, 64)
			if err == nil {
				if wait := time.Until(time.Unix(resetAfterInt, 0)); wait > 0 {
					return wait
				}
				return 0
			}
		}
	}
	return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
}

// checkRetry retries rate limiting and transient failures. It only matters
// when endpoint-retries is above zero.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetVersionTemplate("{{.Short}}\n{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.String("log-file", "", "Path to log file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("env-file", ".env", "Optional dotenv file to read configuration from")

	flags.String("tenant-id", "", "Entra ID tenant of the service account (TENANT_ID)")
	flags.String("client-id", "", "Client ID of the service account (CLIENT_ID)")
	flags.String("client-secret", "", "Client secret of the service account (CLIENT_SECRET)")
	flags.String("authority-host", entra.DefaultAuthorityHost, "Entra ID login host")

	flags.String("people-search-url", hub.DefaultPeopleSearchURL, "Elasticsearch people index behind the OAuth proxy")
	flags.String("people-search-scope", hub.DefaultPeopleSearchScope, "Token scope for the people index")
	flags.String("hub-url", hub.DefaultHubURL, "Hub API endpoint")
	flags.String("hub-scope", hub.DefaultHubScope, "Token scope for the hub API")
	flags.String("cost-url", cost.DefaultURL, "Cost API endpoint")
	flags.String("cost-scope", cost.DefaultScope, "Token scope for the cost API")

	flags.Duration("request-timeout", apicall.DefaultTimeout, "Timeout for each endpoint call")
	flags.Int("endpoint-retries", 0, "Retries for rate-limited or failed endpoint calls")
	flags.String("user-agent", "", "User-Agent sent to endpoints")

	bindFlags(flags)

	// Add SSE command flags (avoid 'h' shorthand conflict with help)
	sseCmd.Flags().String("transport-host", "127.0.0.1", "Host to bind to")
	sseCmd.Flags().StringP("transport-port", "p", "8080", "Port to listen on")
	bindFlags(sseCmd.Flags())

	searchCmd.Flags().String("query", "", "ElasticSearch query string, e.g. 'skills:Nuclear Reactors'")
	costsCmd.Flags().String("fiscal-year", "", "Fiscal year to query")
	costsCmd.Flags().Int64("hanford-id", 0, "Seven digit Hanford ID")
	costsCmd.Flags().Int64("project-number", 0, "Project number")

	rootCmd.AddCommand(stdioCmd)
	rootCmd.AddCommand(sseCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(costsCmd)
}

// bindFlags binds every flag to a viper key with dashes replaced by
// underscores, so --tenant-id, TENANT_ID and tenant_id in the env file agree.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(configKey(f.Name), f)
	})
}

func configKey(flagName string) string {
	b := []byte(flagName)
	for i, c := range b {
		if c == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}

func initConfig() {
	viper.AutomaticEnv()

	envFile := viper.GetString("env_file")
	if envFile == "" {
		return
	}

	viper.SetConfigFile(envFile)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", envFile, err)
	}
}

func initLogger(outPath string, level string) (*log.Logger, error) {
	logger := log.New()

	if level != "" {
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
		logger.SetLevel(lvl)
	}

	if outPath == "" {
		// stdout carries the stdio transport
		logger.SetOutput(os.Stderr)
		return logger, nil
	}

	file, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger.SetLevel(log.DebugLevel)
	logger.SetOutput(file)

	return logger, nil
}

// newAdapter wires the credential provider and endpoint caller shared by every tool.
func newAdapter(cfg runConfig, logger *log.Logger) (*labassist.Adapter, error) {
	provider, err := entra.NewProvider(
		cfg.credentials,
		entra.WithAuthorityHost(cfg.authorityHost),
		entra.WithHTTPClient(InitTokenClient(cfg.requestTimeout)),
		entra.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential provider: %w", err)
	}

	caller := apicall.NewCaller(
		apicall.WithHTTPClient(InitEndpointClient(logger, cfg.requestTimeout, cfg.retries)),
		apicall.WithTimeout(cfg.requestTimeout),
		apicall.WithUserAgent(cfg.userAgent),
		apicall.WithLogger(logger),
	)

	return labassist.NewAdapter(provider, caller, logger), nil
}

func toolsInit(lbServer *server.MCPServer, cfg runConfig, logger *log.Logger) error {
	adapter, err := newAdapter(cfg, logger)
	if err != nil {
		return err
	}

	hub.InitTools(lbServer, adapter, cfg.hubEndpoints, logger)
	cost.InitTools(lbServer, adapter, cfg.costEndpoint, logger)
	labassist.RegisterResources(lbServer, cfg.endpoints(), logger)
	labassist.RegisterResourceTemplates(lbServer, cfg.endpoints(), logger)

	return nil
}

func serverInit(ctx context.Context, lbServer *server.MCPServer, logger *log.Logger) error {
	stdioServer := server.NewStdioServer(lbServer)
	stdLogger := stdlog.New(logger.Writer(), "stdioserver", 0)
	stdioServer.SetErrorLogger(stdLogger)

	// Start listening for messages
	errC := make(chan error, 1)
	go func() {
		in, out := io.Reader(os.Stdin), io.Writer(os.Stdout)
		errC <- stdioServer.Listen(ctx, in, out)
	}()

	_, _ = fmt.Fprintf(os.Stderr, "Lab Assist MCP Server running on stdio\n")

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		logger.Infof("shutting down server...")
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("error running server: %w", err)
		}
	}

	return nil
}

func sseServerInit(ctx context.Context, lbServer *server.MCPServer, host, port string, logger *log.Logger) error {
	addr := net.JoinHostPort(host, port)
	sseServer := server.NewSSEServer(lbServer, server.WithBaseURL("http://"+addr))

	corsConfig := LoadCORSConfigFromEnv()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewSecurityHandler(sseServer, corsConfig.AllowedOrigins, corsConfig.Mode, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		errC <- httpServer.ListenAndServe()
	}()

	logger.Infof("Lab Assist MCP Server listening on %s (CORS mode: %s)", addr, corsConfig.Mode)

	select {
	case <-ctx.Done():
		logger.Infof("shutting down server...")
	case err := <-errC:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error running server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("forcing server close: %v", err)
		return httpServer.Close()
	}

	return nil
}
