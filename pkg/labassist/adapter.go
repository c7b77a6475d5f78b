// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package labassist

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/progress"
)

// Endpoint binds an internal REST endpoint to the scope its token must carry.
type Endpoint struct {
	Name   string
	URL    string
	Scope  string
	Method string
}

// TokenProvider hands out bearer tokens for a scope.
type TokenProvider interface {
	Token(ctx context.Context, scope string) (*oauth2.Token, error)
}

// EndpointCaller performs the authenticated call.
type EndpointCaller interface {
	Call(ctx context.Context, method, endpoint string, params apicall.Params, token string) apicall.Result
}

// Adapter runs the token, params, call sequence shared by every tool.
type Adapter struct {
	tokens TokenProvider
	caller EndpointCaller
	logger *log.Logger
}

// NewAdapter returns an Adapter.
func NewAdapter(tokens TokenProvider, caller EndpointCaller, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New()
	}
	return &Adapter{tokens: tokens, caller: caller, logger: logger}
}

// Invoke acquires a token for the endpoint's scope and calls it with params.
// A failed token exchange is returned as an error. Every outcome of the
// endpoint call itself comes back as the Result. sink may be nil.
func (a *Adapter) Invoke(ctx context.Context, endpoint Endpoint, params apicall.Params, sink progress.Sink) (apicall.Result, error) {
	sink = progress.OrNop(sink)

	requestID := apicall.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = apicall.WithRequestID(ctx, requestID)
	}

	logger := a.logger.WithFields(log.Fields{
		"tool":       endpoint.Name,
		"endpoint":   endpoint.URL,
		"request_id": requestID,
	})

	sink.Notify(ctx, progress.Notification{Stage: progress.StageTokenStart, Content: "Requesting an access token.\n"})

	token, err := a.tokens.Token(ctx, endpoint.Scope)
	if err != nil {
		sink.Notify(ctx, progress.Notification{Stage: progress.StageTokenFailure, Content: "The token creation was NOT successful.\n"})
		logger.Errorf("Error acquiring token: %v", err)
		return apicall.Result{}, err
	}

	sink.Notify(ctx, progress.Notification{Stage: progress.StageTokenSuccess, Content: "The token was retrieved successfully.\n"})
	sink.Notify(ctx, progress.Notification{Stage: progress.StageParamsBuilt, Content: fmt.Sprintf("The params are %s\n", params)})

	method := endpoint.Method
	if method == "" {
		method = http.MethodGet
	}

	logger.Debugf("calling endpoint with params %s", params)
	result := a.caller.Call(ctx, method, endpoint.URL, params, token.AccessToken)

	switch {
	case result.OK():
		sink.Notify(ctx, progress.Notification{Stage: progress.StageEndpointSuccess, Content: "The endpoint was called successfully.\n"})
	case result.Failure.StatusCode != 0:
		logger.Warnf("endpoint rejected the request: %s", result.Failure.Error)
		sink.Notify(ctx, progress.Notification{
			Stage:   progress.StageEndpointFailure,
			Content: "There was an error calling the endpoint. The error reads: " + result.Failure.Details + "\n",
		})
	default:
		logger.Warnf("endpoint call failed: %s", result.Failure.Details)
		sink.Notify(ctx, progress.Notification{
			Stage:   progress.StageEndpointException,
			Content: "There was an exception calling the endpoint. The error reads: " + result.Failure.Details + "\n",
		})
	}

	return result, nil
}
