// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package apicall issues bearer-authenticated requests against internal REST
// endpoints and folds every outcome into a Result value.
package apicall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds a single endpoint call.
	DefaultTimeout = 10 * time.Second

	// ErrorCallException is the envelope kind for transport and decoding failures.
	ErrorCallException = "API call exception"

	defaultUserAgent = "labassist-mcp-server"
	requestIDHeader  = "X-Request-ID"
)

// Params are the request parameters for an endpoint call, already stringified.
type Params map[string]string

// Values converts the params into url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for key, value := range p {
		v.Set(key, value)
	}
	return v
}

// String renders the params in key order, for progress messages and logs.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", key, p[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Failure is the structured error envelope returned in place of a body.
type Failure struct {
	Error   string `json:"error"`
	Details string `json:"details"`

	// StatusCode is zero for call exceptions.
	StatusCode int `json:"-"`
}

// Result holds either the decoded body of a successful call or a Failure.
type Result struct {
	Data    any
	Failure *Failure
}

// OK reports whether the endpoint answered 200 with a decodable body.
func (r Result) OK() bool {
	return r.Failure == nil
}

// MarshalJSON renders the raw body on success and the envelope otherwise.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return json.Marshal(r.Data)
}

// Rejected builds the envelope for a non-200 response.
func Rejected(statusCode int, body string) Result {
	return Result{Failure: &Failure{
		Error:      fmt.Sprintf("API request failed: Status %d", statusCode),
		Details:    body,
		StatusCode: statusCode,
	}}
}

// Exception builds the envelope for a call that did not complete.
func Exception(err error) Result {
	return Result{Failure: &Failure{
		Error:   ErrorCallException,
		Details: err.Error(),
	}}
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that is forwarded as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id attached to ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Caller sends authenticated requests. It is safe for concurrent use.
type Caller struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *log.Logger
}

// Option is a functional configuration option
type Option func(c *Caller)

// WithHTTPClient overrides the default http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Caller) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Caller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Caller) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets logger
func WithLogger(l *log.Logger) Option {
	return func(c *Caller) {
		c.logger = l
	}
}

// NewCaller returns a Caller with a 10 second timeout on a pooled client.
func NewCaller(opts ...Option) *Caller {
	c := &Caller{
		httpClient: cleanhttp.DefaultPooledClient(),
		timeout:    DefaultTimeout,
		userAgent:  defaultUserAgent,
		logger:     log.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call issues method against endpoint with the given params and bearer token.
// GET sends params in the query string and POST sends them form-encoded.
// It never returns an error: a non-200 status or any failure during the call
// is reported through the Result's Failure.
func (c *Caller) Call(ctx context.Context, method, endpoint string, params Params, token string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, endpoint, params, token)
	if err != nil {
		c.logger.Errorf("Error building %s request for %s: %v", method, endpoint, err)
		return Exception(err)
	}

	c.logger.Debugf("Requested URL: %s %s", method, req.URL.Redacted())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("Error calling %s: %v", endpoint, err)
		return Exception(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Errorf("Error reading response from %s: %v", endpoint, err)
		return Exception(err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnf("%s %s returned status %d", method, endpoint, resp.StatusCode)
		return Rejected(resp.StatusCode, string(body))
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Errorf("Error decoding response from %s: %v", endpoint, err)
		return Exception(fmt.Errorf("decoding response body: %w", err))
	}

	return Result{Data: data}
}

func (c *Caller) newRequest(ctx context.Context, method, endpoint string, params Params, token string) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	switch method {
	case http.MethodGet:
		q := u.Query()
		for key, value := range params {
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
	case http.MethodPost:
		body = strings.NewReader(params.Values().Encode())
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if id := RequestID(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	return req, nil
}
