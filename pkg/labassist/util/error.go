// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package util

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"labassist-mcp-server/pkg/entra"
)

// LogAndWrapError logs err under context and returns it wrapped. Authentication
// failures get a hint about the service-account settings.
func LogAndWrapError(logger *logrus.Logger, context string, err error) error {
	var wrappedErr error
	var authErr *entra.AuthenticationError
	switch {
	case err == nil:
		wrappedErr = fmt.Errorf("%s", context)
		logger.Errorf("Error: %s", context)

	case errors.As(err, &authErr):
		wrappedErr = fmt.Errorf("%s: %w. Please set TENANT_ID, CLIENT_ID and CLIENT_SECRET in your MCP Server configuration correctly", context, err)
		logger.Errorf("Unauthorized: %s: %v", context, err)

	default:
		wrappedErr = fmt.Errorf("%s: %w", context, err)
		logger.Errorf("Error: %s: %v", context, err)
	}

	return wrappedErr
}
