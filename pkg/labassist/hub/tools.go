// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hub

import (
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"labassist-mcp-server/pkg/labassist"
)

func InitTools(hcServer *server.MCPServer, adapter *labassist.Adapter, endpoints Endpoints, logger *log.Logger) {
	hcServer.AddTool(SearchUser(adapter, endpoints.PeopleSearch, logger))
	hcServer.AddTool(SearchInternalUsers(adapter, endpoints.Hub, logger))
	hcServer.AddTool(SearchInternalUsersByName(adapter, endpoints.Hub, logger))
}
