// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package labassist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"labassist-mcp-server/pkg/labassist/util"
)

const EndpointResourceTemplate = EndpointsResourceURI + "/{name}"

func RegisterResourceTemplates(hcServer *server.MCPServer, endpoints []Endpoint, logger *log.Logger) {
	hcServer.AddResourceTemplate(EndpointDetailsTemplate(endpoints, logger))
}

// EndpointDetailsTemplate serves a single endpoint, addressed by tool name, as JSON.
func EndpointDetailsTemplate(endpoints []Endpoint, logger *log.Logger) (mcp.ResourceTemplate, server.ResourceTemplateHandlerFunc) {
	return mcp.NewResourceTemplate(
			EndpointResourceTemplate,
			"Lab Assist endpoint details",
			mcp.WithTemplateDescription("Method, URL and token scope of the endpoint behind a tool"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			logger.Debugf("Endpoint resource template - resourceURI: %s", request.Params.URI)
			details, err := EndpointDetails(endpoints, request.Params.URI)
			if err != nil {
				return nil, util.LogAndWrapError(logger, "Endpoint Resource: reading endpoint details", err)
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "application/json",
					Text:     details,
				},
			}, nil
		}
}

// EndpointDetails resolves a labassist://endpoints/{name} URI against endpoints.
func EndpointDetails(endpoints []Endpoint, resourceURI string) (string, error) {
	name, ok := strings.CutPrefix(resourceURI, EndpointsResourceURI+"/")
	if !ok || name == "" {
		return "", fmt.Errorf("invalid endpoint resource URI: %s", resourceURI)
	}

	for _, e := range endpoints {
		if e.Name != name {
			continue
		}
		data, err := json.Marshal(map[string]string{
			"name":   e.Name,
			"method": e.Method,
			"url":    e.URL,
			"scope":  e.Scope,
		})
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return "", fmt.Errorf("no endpoint named %q", name)
}
