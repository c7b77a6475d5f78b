// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	CORSModeStrict      = "strict"
	CORSModeDevelopment = "development"
	CORSModeDisabled    = "disabled"
)

var loopbackOriginPrefixes = []string{
	"http://localhost:",
	"https://localhost:",
	"http://127.0.0.1:",
	"https://127.0.0.1:",
	"http://[::1]:",
	"https://[::1]:",
}

// CORSConfig controls which browser origins may reach the SSE endpoints.
type CORSConfig struct {
	AllowedOrigins []string
	Mode           string
}

// LoadCORSConfigFromEnv reads MCP_ALLOWED_ORIGINS and MCP_CORS_MODE from the
// environment or the env file. Unknown modes fall back to strict.
func LoadCORSConfigFromEnv() CORSConfig {
	mode := strings.ToLower(strings.TrimSpace(viper.GetString("mcp_cors_mode")))
	switch mode {
	case CORSModeDevelopment, CORSModeDisabled:
	default:
		mode = CORSModeStrict
	}

	var origins []string
	for _, origin := range strings.Split(viper.GetString("mcp_allowed_origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return CORSConfig{
		AllowedOrigins: origins,
		Mode:           mode,
	}
}

func isOriginAllowed(origin string, allowedOrigins []string, mode string) bool {
	if mode == CORSModeDisabled {
		return true
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	if mode == CORSModeDevelopment {
		for _, prefix := range loopbackOriginPrefixes {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		}
	}

	return false
}

// securityHandler rejects cross-origin requests to the SSE and message
// endpoints unless the origin is allowed.
type securityHandler struct {
	handler        http.Handler
	allowedOrigins []string
	corsMode       string
	logger         *log.Logger
}

func (h *securityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		if !isOriginAllowed(origin, h.allowedOrigins, h.corsMode) {
			h.logger.WithFields(log.Fields{
				"origin": origin,
				"path":   r.URL.Path,
			}).Warnf("Rejected request from unauthorized origin (CORS mode: %s)", h.corsMode)
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}

		h.logger.Debugf("Allowed request from origin: %s", origin)

		w.Header().Set("Access-Control-Max-Age", "3600")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		w.Header().Add("Vary", "Origin")
	}

	// preflight
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.handler.ServeHTTP(w, r)
}

// NewSecurityHandler wraps handler with origin validation.
func NewSecurityHandler(handler http.Handler, allowedOrigins []string, corsMode string, logger *log.Logger) http.Handler {
	return &securityHandler{
		handler:        handler,
		allowedOrigins: allowedOrigins,
		corsMode:       corsMode,
		logger:         logger,
	}
}
