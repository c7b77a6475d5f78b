// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package labassist

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

const EndpointsResourceURI = "labassist://endpoints"

func RegisterResources(hcServer *server.MCPServer, endpoints []Endpoint, logger *log.Logger) {
	hcServer.AddResource(EndpointsResource(endpoints, logger))
}

// EndpointsResource lists the endpoints the server's tools call, with the
// scope each token is requested for.
func EndpointsResource(endpoints []Endpoint, logger *log.Logger) (mcp.Resource, server.ResourceHandlerFunc) {
	return mcp.NewResource(
			EndpointsResourceURI,
			"Lab Assist endpoints",
			mcp.WithMIMEType("text/markdown"),
			mcp.WithResourceDescription("Internal endpoints behind each tool, with HTTP method and token scope"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			logger.Debugf("Reading %s", EndpointsResourceURI)
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      EndpointsResourceURI,
					MIMEType: "text/markdown",
					Text:     RenderEndpoints(endpoints),
				},
			}, nil
		}
}

// RenderEndpoints returns a markdown table of endpoints.
func RenderEndpoints(endpoints []Endpoint) string {
	var builder strings.Builder
	builder.WriteString("# Lab Assist endpoints\n\n")
	builder.WriteString("| Tool | Method | URL | Scope |\n")
	builder.WriteString("|---|---|---|---|\n")
	for _, e := range endpoints {
		builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", e.Name, e.Method, e.URL, e.Scope))
	}
	return builder.String()
}
