// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package labassist

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"labassist-mcp-server/pkg/apicall"
)

// ToolResult renders an endpoint Result as MCP tool output. Failure envelopes
// are flagged as tool errors so the agent can report them.
func ToolResult(result apicall.Result) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal endpoint response: %w", err)
	}

	if !result.OK() {
		return mcp.NewToolResultError(string(raw)), nil
	}

	return mcp.NewToolResultText(string(raw)), nil
}
