// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"labassist-mcp-server/pkg/entra"
	"labassist-mcp-server/pkg/labassist"
	"labassist-mcp-server/pkg/labassist/cost"
	"labassist-mcp-server/pkg/labassist/hub"
)

type runConfig struct {
	credentials    entra.Credentials
	authorityHost  string
	hubEndpoints   hub.Endpoints
	costEndpoint   labassist.Endpoint
	requestTimeout time.Duration
	retries        int
	userAgent      string
}

// endpoints returns every endpoint the registered tools call.
func (c runConfig) endpoints() []labassist.Endpoint {
	byName := c.hubEndpoints.Hub
	byName.Name = "search_internal_users_by_name"
	byName.Method = http.MethodGet

	search := c.hubEndpoints.Hub
	search.Name = "search_internal_users"

	return []labassist.Endpoint{c.hubEndpoints.PeopleSearch, search, byName, c.costEndpoint}
}

func (c runConfig) validate() error {
	if err := c.credentials.Validate(); err != nil {
		switch {
		case errors.Is(err, entra.ErrMissingTenantID):
			return fmt.Errorf("%w: set TENANT_ID or --tenant-id", err)
		case errors.Is(err, entra.ErrMissingClientID):
			return fmt.Errorf("%w: set CLIENT_ID or --client-id", err)
		default:
			return fmt.Errorf("%w: set CLIENT_SECRET or --client-secret", err)
		}
	}

	for _, e := range c.endpoints() {
		if e.URL == "" {
			return fmt.Errorf("missing url for %s", e.Name)
		}
		if e.Scope == "" {
			return fmt.Errorf("missing scope for %s", e.Name)
		}
	}

	if c.requestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.requestTimeout)
	}
	if c.retries < 0 {
		return fmt.Errorf("endpoint retries must not be negative, got %d", c.retries)
	}

	return nil
}

// loadRunConfig reads the configuration from flags, the environment and the
// optional env file, in that order of precedence.
func loadRunConfig() (runConfig, error) {
	userAgent := viper.GetString("user_agent")
	if userAgent == "" {
		userAgent = fmt.Sprintf("labassist-mcp-server/%s", version)
	}

	cfg := runConfig{
		credentials: entra.Credentials{
			TenantID:     viper.GetString("tenant_id"),
			ClientID:     viper.GetString("client_id"),
			ClientSecret: viper.GetString("client_secret"),
		},
		authorityHost: viper.GetString("authority_host"),
		hubEndpoints: hub.NewEndpoints(
			viper.GetString("people_search_url"),
			viper.GetString("people_search_scope"),
			viper.GetString("hub_url"),
			viper.GetString("hub_scope"),
		),
		costEndpoint:   cost.NewEndpoint(viper.GetString("cost_url"), viper.GetString("cost_scope")),
		requestTimeout: viper.GetDuration("request_timeout"),
		retries:        viper.GetInt("endpoint_retries"),
		userAgent:      userAgent,
	}

	if err := cfg.validate(); err != nil {
		return runConfig{}, err
	}

	return cfg, nil
}
