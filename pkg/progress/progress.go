// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package progress carries human-readable status messages from a tool call to
// whoever is watching it. Delivery is best effort and never affects the call.
package progress

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

// Stage identifies the step of a tool call a notification belongs to.
type Stage string

const (
	StageTokenStart        Stage = "token-start"
	StageTokenSuccess      Stage = "token-success"
	StageTokenFailure      Stage = "token-failure"
	StageParamsBuilt       Stage = "params-built"
	StageEndpointSuccess   Stage = "endpoint-success"
	StageEndpointFailure   Stage = "endpoint-failure"
	StageEndpointException Stage = "endpoint-exception"
)

// Notification is a single progress message.
type Notification struct {
	Stage   Stage
	Content string
}

// Payload renders the notification in the {type, data: {content}} message shape.
func (n Notification) Payload() map[string]any {
	return map[string]any{
		"type": "message",
		"data": map[string]any{
			"content": n.Content,
		},
	}
}

// Sink receives progress notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f SinkFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type nop struct{}

func (nop) Notify(context.Context, Notification) {}

// Nop discards every notification.
var Nop Sink = nop{}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

// Recorder keeps every notification it receives. It exists for tests that
// assert on the order of stages. Not safe for concurrent use.
type Recorder struct {
	Notifications []Notification
}

// Notify appends n.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.Notifications = append(r.Notifications, n)
}

// Stages returns the recorded stages in order.
func (r *Recorder) Stages() []Stage {
	stages := make([]Stage, len(r.Notifications))
	for i, n := range r.Notifications {
		stages[i] = n.Stage
	}
	return stages
}

// MCPSink forwards notifications to the client of the MCP session found in the
// call context as notifications/message log entries.
type MCPSink struct {
	// Logger names the emitting tool in the notification.
	Logger string
	Log    *log.Logger
}

// NewMCPSink returns a sink that reports as the named tool.
func NewMCPSink(tool string, logger *log.Logger) *MCPSink {
	return &MCPSink{Logger: tool, Log: logger}
}

// Notify sends n to the MCP client. Outside an MCP request it does nothing.
func (s *MCPSink) Notify(ctx context.Context, n Notification) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return
	}

	params := map[string]any{
		"level":  mcp.LoggingLevelInfo,
		"logger": s.Logger,
		"data":   n.Payload(),
	}

	if err := srv.SendNotificationToClient(ctx, "notifications/message", params); err != nil && s.Log != nil {
		s.Log.Debugf("dropping %s progress notification for %s: %v", n.Stage, s.Logger, err)
	}
}
