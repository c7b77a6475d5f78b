// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/entra"
	"labassist-mcp-server/pkg/labassist"
	"labassist-mcp-server/pkg/labassist/cost"
	"labassist-mcp-server/pkg/labassist/hub"
)

// setTestConfig resets viper and fills in every key loadRunConfig reads.
func setTestConfig(t *testing.T, authorityHost, endpointURL string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("tenant_id", "tenant")
	viper.Set("client_id", "client")
	viper.Set("client_secret", "secret")
	viper.Set("authority_host", authorityHost)
	viper.Set("people_search_url", endpointURL)
	viper.Set("people_search_scope", hub.DefaultPeopleSearchScope)
	viper.Set("hub_url", endpointURL)
	viper.Set("hub_scope", hub.DefaultHubScope)
	viper.Set("cost_url", endpointURL)
	viper.Set("cost_scope", cost.DefaultScope)
	viper.Set("request_timeout", apicall.DefaultTimeout)
	viper.Set("endpoint_retries", 0)
}

func TestLoadRunConfig(t *testing.T) {
	setTestConfig(t, entra.DefaultAuthorityHost, hub.DefaultHubURL)

	cfg, err := loadRunConfig()
	require.NoError(t, err)
	assert.Equal(t, entra.Credentials{TenantID: "tenant", ClientID: "client", ClientSecret: "secret"}, cfg.credentials)
	assert.Equal(t, "labassist-mcp-server/"+version, cfg.userAgent)
	assert.Equal(t, apicall.DefaultTimeout, cfg.requestTimeout)

	endpoints := cfg.endpoints()
	require.Len(t, endpoints, 4)
	names := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"search_user", "search_internal_users", "search_internal_users_by_name", "search_costs"}, names)
	assert.Equal(t, http.MethodPost, endpoints[1].Method)
	assert.Equal(t, http.MethodGet, endpoints[2].Method)
}

func TestLoadRunConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     any
		expectErr string
	}{
		{name: "missing tenant", key: "tenant_id", value: "", expectErr: "TENANT_ID"},
		{name: "missing client id", key: "client_id", value: "", expectErr: "CLIENT_ID"},
		{name: "missing secret", key: "client_secret", value: "", expectErr: "CLIENT_SECRET"},
		{name: "missing hub url", key: "hub_url", value: "", expectErr: "missing url for search_internal_users"},
		{name: "missing cost scope", key: "cost_scope", value: "", expectErr: "missing scope for search_costs"},
		{name: "zero timeout", key: "request_timeout", value: time.Duration(0), expectErr: "request timeout must be positive"},
		{name: "negative retries", key: "endpoint_retries", value: -1, expectErr: "endpoint retries must not be negative"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setTestConfig(t, entra.DefaultAuthorityHost, hub.DefaultHubURL)
			viper.Set(tc.key, tc.value)

			_, err := loadRunConfig()
			assert.ErrorContains(t, err, tc.expectErr)
		})
	}
}

func TestInitConfigReadsEnvFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TENANT_ID=from-file\nCLIENT_ID=client\n"), 0600))
	t.Setenv("CLIENT_ID", "from-env")

	viper.Set("env_file", envFile)
	initConfig()

	assert.Equal(t, "from-file", viper.GetString("tenant_id"))
	assert.Equal(t, "from-env", viper.GetString("client_id"))
}

func TestInitConfigMissingEnvFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("env_file", filepath.Join(t.TempDir(), "absent.env"))
	assert.NotPanics(t, initConfig)
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "tenant_id", configKey("tenant-id"))
	assert.Equal(t, "people_search_scope", configKey("people-search-scope"))
	assert.Equal(t, "query", configKey("query"))
}

func TestInitLogger(t *testing.T) {
	logger, err := initLogger("", "warn")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
	assert.Equal(t, os.Stderr, logger.Out)

	_, err = initLogger("", "chatty")
	assert.ErrorContains(t, err, "failed to parse log level")

	path := filepath.Join(t.TempDir(), "server.log")
	logger, err = initLogger(path, "info")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	logger.Info("hello")
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "hello")
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()

	retry, err := checkRetry(ctx, &http.Response{StatusCode: http.StatusTooManyRequests}, nil)
	assert.NoError(t, err)
	assert.True(t, retry)

	retry, err = checkRetry(ctx, &http.Response{StatusCode: http.StatusBadGateway}, nil)
	assert.NoError(t, err)
	assert.True(t, retry)

	retry, err = checkRetry(ctx, &http.Response{StatusCode: http.StatusForbidden}, nil)
	assert.NoError(t, err)
	assert.False(t, retry)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = checkRetry(canceled, &http.Response{StatusCode: http.StatusTooManyRequests}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, retry)
}

func TestRateLimitBackoff(t *testing.T) {
	limited := func(reset string) *http.Response {
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
		resp.Header.Set("x-ratelimit-reset", reset)
		return resp
	}

	wait := rateLimitBackoff(time.Second, 30*time.Second, 0, limited(strconv.FormatInt(time.Now().Add(5*time.Second).Unix(), 10)))
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, 5*time.Second)

	assert.Equal(t, time.Duration(0), rateLimitBackoff(time.Second, 30*time.Second, 0, limited(strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))))
	assert.Equal(t, time.Second, rateLimitBackoff(time.Second, 30*time.Second, 0, nil))
}

func TestEndpointRetriesDoNotRetryTokenExchange(t *testing.T) {
	var tokenRequests, apiRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/tenant/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if tokenRequests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error": "temporarily_unavailable", "error_description": "AADSTS90033: A transient error has occurred."}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "lab-token", "token_type": "Bearer", "expires_in": 3599}`)
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		if apiRequests.Add(1) == 1 {
			w.Header().Set("x-ratelimit-reset", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"hits": []}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	setTestConfig(t, server.URL, server.URL+"/api")
	viper.Set("endpoint_retries", 2)

	cfg, err := loadRunConfig()
	require.NoError(t, err)

	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	adapter, err := newAdapter(cfg, logger)
	require.NoError(t, err)

	endpoint := labassist.Endpoint{Name: "search_user", URL: server.URL + "/api", Scope: hub.DefaultPeopleSearchScope, Method: http.MethodGet}

	_, err = adapter.Invoke(context.Background(), endpoint, hub.BuildQueryParams("name:Ada"), nil)
	var authErr *entra.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "temporarily_unavailable", authErr.Code)
	assert.Equal(t, int32(1), tokenRequests.Load())
	assert.Equal(t, int32(0), apiRequests.Load())

	// the endpoint client still retries rate limiting
	result, err := adapter.Invoke(context.Background(), endpoint, hub.BuildQueryParams("name:Ada"), nil)
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, int32(2), tokenRequests.Load())
	assert.Equal(t, int32(2), apiRequests.Load())
}

func TestInitTokenClient(t *testing.T) {
	client := InitTokenClient(3 * time.Second)
	assert.Equal(t, 3*time.Second, client.Timeout)
	assert.NotNil(t, client.Transport)
}
