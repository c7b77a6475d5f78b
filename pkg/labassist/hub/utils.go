// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hub

import (
	"net/http"
	"strconv"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/labassist"
)

const (
	DefaultPeopleSearchURL   = "https://labassist.pnnl.gov/proxy/actman/elasticsearch/hub-suggestions-people/_search"
	DefaultPeopleSearchScope = "https://labassist.pnnl.gov/proxy/.default"

	DefaultHubURL   = "https://apimdevgw.pnnl.gov/proof-of-concept-hub-mcp/v1/hub"
	DefaultHubScope = "api://proof-of-concept.pnnl.gov/hub/.default"
)

// Endpoints are the two hub backends: the elasticsearch people index behind
// the OAuth proxy, and the hub API.
type Endpoints struct {
	PeopleSearch labassist.Endpoint
	Hub          labassist.Endpoint
}

// NewEndpoints binds the hub tools to the given URLs and scopes.
func NewEndpoints(peopleSearchURL, peopleSearchScope, hubURL, hubScope string) Endpoints {
	return Endpoints{
		PeopleSearch: labassist.Endpoint{
			Name:   "search_user",
			URL:    peopleSearchURL,
			Scope:  peopleSearchScope,
			Method: http.MethodGet,
		},
		Hub: labassist.Endpoint{
			Name:   "hub",
			URL:    hubURL,
			Scope:  hubScope,
			Method: http.MethodPost,
		},
	}
}

// DefaultEndpoints returns the production hub endpoints.
func DefaultEndpoints() Endpoints {
	return NewEndpoints(DefaultPeopleSearchURL, DefaultPeopleSearchScope, DefaultHubURL, DefaultHubScope)
}

// BuildQueryParams builds the elasticsearch query-string search, e.g. "skills:Nuclear Reactors".
func BuildQueryParams(query string) apicall.Params {
	return apicall.Params{"q": query}
}

// BuildSearchParams builds the hub free-text search.
func BuildSearchParams(searchTerm string, hasAvailability bool) apicall.Params {
	return apicall.Params{
		"searchTerm":      searchTerm,
		"hasAvailability": strconv.FormatBool(hasAvailability),
	}
}

// BuildNameParams builds the hub lookup by name.
func BuildNameParams(name string) apicall.Params {
	return apicall.Params{"name": name}
}
