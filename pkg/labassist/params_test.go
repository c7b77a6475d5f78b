// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package labassist

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func TestRequiredParam(t *testing.T) {
	v, err := RequiredParam[string](newRequest(map[string]interface{}{"name": "Ada"}), "name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	_, err = RequiredParam[string](newRequest(map[string]interface{}{}), "name")
	assert.ErrorContains(t, err, "missing required parameter: name")

	_, err = RequiredParam[string](newRequest(map[string]interface{}{"name": ""}), "name")
	assert.ErrorContains(t, err, "missing required parameter: name")

	_, err = RequiredParam[string](newRequest(map[string]interface{}{"name": 42.0}), "name")
	assert.ErrorContains(t, err, "not of type string")
}

func TestOptionalBoolParamWithDefault(t *testing.T) {
	v, err := OptionalBoolParamWithDefault(newRequest(map[string]interface{}{}), "flag", true)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = OptionalBoolParamWithDefault(newRequest(map[string]interface{}{"flag": false}), "flag", true)
	require.NoError(t, err)
	assert.False(t, v)

	_, err = OptionalBoolParamWithDefault(newRequest(map[string]interface{}{"flag": "yes"}), "flag", true)
	assert.Error(t, err)
}

func TestRequiredIntParam(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]interface{}
		expect    int64
		expectErr string
	}{
		{name: "json number", args: map[string]interface{}{"id": float64(1234567)}, expect: 1234567},
		{name: "int", args: map[string]interface{}{"id": 99}, expect: 99},
		{name: "numeric string", args: map[string]interface{}{"id": " 42 "}, expect: 42},
		{name: "beyond int64", args: map[string]interface{}{"id": 1e19}, expectErr: "must be an integer: out of range"},
		{name: "negative beyond int64", args: map[string]interface{}{"id": -1e19}, expectErr: "out of range"},
		{name: "fractional", args: map[string]interface{}{"id": 1.5}, expectErr: "must be an integer"},
		{name: "not numeric", args: map[string]interface{}{"id": "abc"}, expectErr: "must be an integer"},
		{name: "bool", args: map[string]interface{}{"id": true}, expectErr: "must be an integer"},
		{name: "missing", args: map[string]interface{}{}, expectErr: "missing required parameter: id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := RequiredIntParam(newRequest(tc.args), "id")
			if tc.expectErr != "" {
				assert.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, v)
		})
	}
}
