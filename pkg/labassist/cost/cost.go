// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cost

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/labassist"
	"labassist-mcp-server/pkg/labassist/util"
	"labassist-mcp-server/pkg/progress"
)

const (
	DefaultURL   = "https://apimdevgw.pnnl.gov/proof-of-concept-costs-mcp/v1/costs"
	DefaultScope = "api://proof-of-concept.pnnl.gov/cost-estimator/.default"
)

// NewEndpoint binds the cost tool to the given URL and scope.
func NewEndpoint(url, scope string) labassist.Endpoint {
	return labassist.Endpoint{
		Name:   "search_costs",
		URL:    url,
		Scope:  scope,
		Method: http.MethodPost,
	}
}

// DefaultEndpoint returns the production cost endpoint.
func DefaultEndpoint() labassist.Endpoint {
	return NewEndpoint(DefaultURL, DefaultScope)
}

func InitTools(hcServer *server.MCPServer, adapter *labassist.Adapter, endpoint labassist.Endpoint, logger *log.Logger) {
	hcServer.AddTool(SearchCosts(adapter, endpoint, logger))
}

// Query identifies the cost records to look up.
type Query struct {
	FiscalYear    string
	HanfordID     int64
	ProjectNumber int64
}

// Validate rejects queries the endpoint cannot answer.
func (q Query) Validate() error {
	if strings.TrimSpace(q.FiscalYear) == "" {
		return fmt.Errorf("missing required parameter: fiscalYear")
	}
	if q.HanfordID <= 0 {
		return fmt.Errorf("hanfordID must be a positive integer, got %d", q.HanfordID)
	}
	if q.ProjectNumber < 0 {
		return fmt.Errorf("projectNumber must not be negative, got %d", q.ProjectNumber)
	}
	return nil
}

// Params stringifies the query into the endpoint's form fields. The Hanford ID
// is sent as resourceID.
func (q Query) Params() apicall.Params {
	return apicall.Params{
		"fiscalYear":    q.FiscalYear,
		"resourceID":    strconv.FormatInt(q.HanfordID, 10),
		"projectNumber": strconv.FormatInt(q.ProjectNumber, 10),
	}
}

// Search runs the cost lookup through adapter. sink may be nil.
func Search(ctx context.Context, adapter *labassist.Adapter, endpoint labassist.Endpoint, q Query, sink progress.Sink) (apicall.Result, error) {
	if err := q.Validate(); err != nil {
		return apicall.Result{}, err
	}
	return adapter.Invoke(ctx, endpoint, q.Params(), sink)
}

// SearchCosts creates a tool to look up project costs for a person.
func SearchCosts(adapter *labassist.Adapter, endpoint labassist.Endpoint, logger *log.Logger) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("search_costs",
			mcp.WithDescription(`Search for costs based on the fiscal year, Hanford ID, and project number.
			The Hanford ID is a seven digit number that can be sourced from a user's hub profile, see the "search_internal_users_by_name" tool.`),
			mcp.WithString("fiscalYear", mcp.Required(), mcp.Description("The fiscal year to query, e.g. '2025'.")),
			mcp.WithNumber("hanfordID", mcp.Required(), mcp.Description("The Hanford ID to query, a seven digit number."), mcp.Min(1)),
			mcp.WithNumber("projectNumber", mcp.Required(), mcp.Description("The project number to query."), mcp.Min(0)),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			fiscalYear, err := labassist.RequiredParam[string](request, "fiscalYear")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			hanfordID, err := labassist.RequiredIntParam(request, "hanfordID")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			projectNumber, err := labassist.RequiredIntParam(request, "projectNumber")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			q := Query{FiscalYear: fiscalYear, HanfordID: hanfordID, ProjectNumber: projectNumber}
			if err := q.Validate(); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			result, err := adapter.Invoke(ctx, endpoint, q.Params(), progress.NewMCPSink(endpoint.Name, logger))
			if err != nil {
				return nil, util.LogAndWrapError(logger, "search_costs: acquiring access token", err)
			}

			return labassist.ToolResult(result)
		}
}
