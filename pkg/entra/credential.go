// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package entra acquires service-account access tokens from Microsoft Entra ID
// using the OAuth2 client-credentials grant.
package entra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultAuthorityHost is the public-cloud Entra ID login host.
const DefaultAuthorityHost = "https://login.microsoftonline.com"

var (
	// ErrMissingTenantID is returned when no tenant is configured
	ErrMissingTenantID = errors.New("missing tenant id")
	// ErrMissingClientID is returned when no client id is configured
	ErrMissingClientID = errors.New("missing client id")
	// ErrMissingClientSecret is returned when no client secret is configured
	ErrMissingClientSecret = errors.New("missing client secret")
	// ErrMissingScope is returned when a token is requested without a scope
	ErrMissingScope = errors.New("missing scope")
)

// Credentials identify the service account used for the client-credentials grant.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Validate checks that all fields are set.
func (c Credentials) Validate() error {
	switch {
	case c.TenantID == "":
		return ErrMissingTenantID
	case c.ClientID == "":
		return ErrMissingClientID
	case c.ClientSecret == "":
		return ErrMissingClientSecret
	}
	return nil
}

// AuthenticationError is returned when the token exchange fails, either because
// the identity provider rejected it or because the request never completed.
type AuthenticationError struct {
	Scope       string
	Code        string
	Description string
	Err         error
}

func (e *AuthenticationError) Error() string {
	reason := e.Description
	if reason == "" && e.Code != "" {
		reason = e.Code
	}
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Scope == "" {
		return fmt.Sprintf("error acquiring token: %s", reason)
	}
	return fmt.Sprintf("error acquiring token for scope %s: %s", e.Scope, reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Provider performs a fresh client-credentials exchange on every Token call.
type Provider struct {
	credentials   Credentials
	authorityHost string
	httpClient    *http.Client
	logger        *log.Logger
}

// Option is a functional configuration option
type Option func(p *Provider)

// WithAuthorityHost overrides the login host, e.g. for sovereign clouds.
func WithAuthorityHost(host string) Option {
	return func(p *Provider) {
		p.authorityHost = strings.TrimRight(host, "/")
	}
}

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithLogger sets logger
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// NewProvider returns a Provider for the given credentials.
func NewProvider(credentials Credentials, opts ...Option) (*Provider, error) {
	if err := credentials.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		credentials:   credentials,
		authorityHost: DefaultAuthorityHost,
		logger:        log.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// TokenURL returns the v2 token endpoint for the configured tenant.
func (p *Provider) TokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", p.authorityHost, p.credentials.TenantID)
}

// Token exchanges the client credentials for an access token scoped to scope,
// e.g. "api://example/.default".
func (p *Provider) Token(ctx context.Context, scope string) (*oauth2.Token, error) {
	if scope == "" {
		return nil, &AuthenticationError{Err: ErrMissingScope}
	}

	cfg := clientcredentials.Config{
		ClientID:     p.credentials.ClientID,
		ClientSecret: p.credentials.ClientSecret,
		TokenURL:     p.TokenURL(),
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	p.logger.Debugf("requesting token for scope %s from %s", scope, cfg.TokenURL)

	t, err := cfg.Token(ctx)
	if err != nil {
		authErr := &AuthenticationError{Scope: scope, Err: err}

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			authErr.Code = retrieveErr.ErrorCode
			authErr.Description = retrieveErr.ErrorDescription
		}

		return nil, authErr
	}

	if t.AccessToken == "" {
		return nil, &AuthenticationError{Scope: scope, Description: "identity provider returned an empty access token"}
	}

	p.logClaims(scope, t.AccessToken)

	return t, nil
}

// logClaims records the audience and expiry of a JWT access token. Opaque
// tokens are ignored.
func (p *Provider) logClaims(scope, accessToken string) {
	if !p.logger.IsLevelEnabled(log.DebugLevel) {
		return
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		p.logger.Debugf("token for scope %s is not a JWT: %v", scope, err)
		return
	}

	fields := log.Fields{"scope": scope}

	if aud, err := parsed.Claims.GetAudience(); err == nil {
		fields["audience"] = strings.Join(aud, ",")
	}

	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		fields["expires_in"] = time.Until(exp.Time).Round(time.Second).String()
	}

	p.logger.WithFields(fields).Debug("token acquired")
}
