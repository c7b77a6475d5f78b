// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package e2e

type ToolTestCase struct {
	TestShouldFail  bool                   `json:"testShouldFail"`
	TestDescription string                 `json:"testDescription"`
	TestPayload     map[string]interface{} `json:"testPayload,omitempty"`
}

var searchCostsTestCases = []ToolTestCase{
	{
		TestShouldFail:  true,
		TestDescription: "Testing with empty payload",
		TestPayload:     map[string]interface{}{},
	},
	{
		TestShouldFail:  true,
		TestDescription: "Testing without hanfordID and projectNumber",
		TestPayload:     map[string]interface{}{"fiscalYear": "2025"},
	},
	{
		TestShouldFail:  true,
		TestDescription: "Testing with a fractional hanfordID",
		TestPayload: map[string]interface{}{
			"fiscalYear":    "2025",
			"hanfordID":     1234567.5,
			"projectNumber": 42,
		},
	},
	{
		TestShouldFail:  false,
		TestDescription: "Testing with numeric arguments",
		TestPayload: map[string]interface{}{
			"fiscalYear":    "2025",
			"hanfordID":     1234567,
			"projectNumber": 42,
		},
	},
	{
		TestShouldFail:  false,
		TestDescription: "Testing with numeric strings",
		TestPayload: map[string]interface{}{
			"fiscalYear":    "2025",
			"hanfordID":     "1234567",
			"projectNumber": "42",
		},
	},
}

var hubTestCases = []struct {
	ToolName string
	ToolTestCase
}{
	{
		ToolName: "search_user",
		ToolTestCase: ToolTestCase{
			TestShouldFail:  true,
			TestDescription: "Testing without a query string",
			TestPayload:     map[string]interface{}{},
		},
	},
	{
		ToolName: "search_user",
		ToolTestCase: ToolTestCase{
			TestDescription: "Testing with a skills query",
			TestPayload:     map[string]interface{}{"query_string": "skills:Nuclear Reactors"},
		},
	},
	{
		ToolName: "search_internal_users",
		ToolTestCase: ToolTestCase{
			TestDescription: "Testing with the default availability filter",
			TestPayload:     map[string]interface{}{"searchTerm": "reactor physics"},
		},
	},
	{
		ToolName: "search_internal_users",
		ToolTestCase: ToolTestCase{
			TestDescription: "Testing without the availability filter",
			TestPayload:     map[string]interface{}{"searchTerm": "reactor physics", "has_availability": false},
		},
	},
	{
		ToolName: "search_internal_users_by_name",
		ToolTestCase: ToolTestCase{
			TestDescription: "Testing with a name",
			TestPayload:     map[string]interface{}{"name": "Ada Lovelace"},
		},
	},
	{
		ToolName: "search_internal_users_by_name",
		ToolTestCase: ToolTestCase{
			TestShouldFail:  true,
			TestDescription: "Testing with a non-string name",
			TestPayload:     map[string]interface{}{"name": 42},
		},
	},
}
