package hub

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/labassist"
	"labassist-mcp-server/pkg/labassist/util"
	"labassist-mcp-server/pkg/progress"
)

// SearchUser creates a tool that runs an elasticsearch query-string search
// over the hub people index.
func SearchUser(adapter *labassist.Adapter, endpoint labassist.Endpoint, logger *log.Logger) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	endpoint.Name = "search_user"
	endpoint.Method = http.MethodGet

	return mcp.NewTool("search_user",
			mcp.WithDescription(`Search for a user by query string. Use ElasticSearch query syntax.
			Some things you can search for: skills, name, email, location, title, department, description.
			Example query: "skills:Nuclear Reactors"`),
			mcp.WithString("query_string", mcp.Required(), mcp.Description("ElasticSearch query string, e.g. 'skills:C#'")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := labassist.RequiredParam[string](request, "query_string")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return invoke(ctx, adapter, endpoint, BuildQueryParams(query), logger)
		}
}

// SearchInternalUsers creates a tool that searches the hub for people
// matching a free-text term.
func SearchInternalUsers(adapter *labassist.Adapter, endpoint labassist.Endpoint, logger *log.Logger) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	endpoint.Name = "search_internal_users"
	endpoint.Method = http.MethodPost

	return mcp.NewTool("search_internal_users",
			mcp.WithDescription("Search for internal users based on a search term. Results can be limited to people who currently have availability for work."),
			mcp.WithString("searchTerm", mcp.Required(), mcp.Description("The search term to query.")),
			mcp.WithBoolean("has_availability",
				mcp.Description("Whether to filter by user availability for work. Default is true."),
				mcp.DefaultBool(true),
			),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			searchTerm, err := labassist.RequiredParam[string](request, "searchTerm")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			hasAvailability, err := labassist.OptionalBoolParamWithDefault(request, "has_availability", true)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return invoke(ctx, adapter, endpoint, BuildSearchParams(searchTerm, hasAvailability), logger)
		}
}

// SearchInternalUsersByName creates a tool that looks up hub profiles by name.
func SearchInternalUsersByName(adapter *labassist.Adapter, endpoint labassist.Endpoint, logger *log.Logger) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	endpoint.Name = "search_internal_users_by_name"
	endpoint.Method = http.MethodGet

	return mcp.NewTool("search_internal_users_by_name",
			mcp.WithDescription("Search for an internal user based on name. The returned profile includes the user's Hanford ID, which the `search_costs` tool needs."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name of the user to search for.")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := labassist.RequiredParam[string](request, "name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return invoke(ctx, adapter, endpoint, BuildNameParams(name), logger)
		}
}

func invoke(ctx context.Context, adapter *labassist.Adapter, endpoint labassist.Endpoint, params apicall.Params, logger *log.Logger) (*mcp.CallToolResult, error) {
	result, err := adapter.Invoke(ctx, endpoint, params, progress.NewMCPSink(endpoint.Name, logger))
	if err != nil {
		return nil, util.LogAndWrapError(logger, endpoint.Name+": acquiring access token", err)
	}
	return labassist.ToolResult(result)
}
