// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package labassist

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RequiredParam returns the named argument as T. The argument must be present,
// of type T, and not the zero value.
func RequiredParam[T comparable](r mcp.CallToolRequest, p string) (T, error) {
	var zero T

	if _, ok := r.Params.Arguments[p]; !ok {
		return zero, fmt.Errorf("missing required parameter: %s", p)
	}

	v, ok := r.Params.Arguments[p].(T)
	if !ok {
		return zero, fmt.Errorf("parameter %s is not of type %T", p, zero)
	}

	if v == zero {
		return zero, fmt.Errorf("missing required parameter: %s", p)
	}

	return v, nil
}

// OptionalParam returns the named argument as T, or the zero value when absent.
func OptionalParam[T any](r mcp.CallToolRequest, p string) (T, error) {
	var zero T

	if _, ok := r.Params.Arguments[p]; !ok {
		return zero, nil
	}

	v, ok := r.Params.Arguments[p].(T)
	if !ok {
		return zero, fmt.Errorf("parameter %s is not of type %T, is %T", p, zero, r.Params.Arguments[p])
	}

	return v, nil
}

// OptionalBoolParamWithDefault returns the named boolean argument, or d when absent.
func OptionalBoolParamWithDefault(r mcp.CallToolRequest, p string, d bool) (bool, error) {
	if _, ok := r.Params.Arguments[p]; !ok {
		return d, nil
	}
	return OptionalParam[bool](r, p)
}

var (
	errNotInteger = errors.New("not an integer")
	errOutOfRange = errors.New("out of range")
)

// RequiredIntParam returns the named argument as an int64. JSON numbers arrive
// as float64 and must be whole; numeric strings are accepted as well.
func RequiredIntParam(r mcp.CallToolRequest, p string) (int64, error) {
	raw, ok := r.Params.Arguments[p]
	if !ok || raw == nil {
		return 0, fmt.Errorf("missing required parameter: %s", p)
	}

	n, err := toInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer: %w", p, err)
	}

	return n, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, errNotInteger
		}
		// float64(math.MaxInt64) rounds up to 2^63
		if n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("%w: %g", errOutOfRange, n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("%w: got %T", errNotInteger, v)
	}
}
