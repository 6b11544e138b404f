// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the reasoner service.
//
// # Open Source Behavior
//
// When no API key is configured the auth middleware is a pass-through,
// so the service works out of the box without any credential setup.
// Setting RAAS_API_KEY enables the X-API-Key check on every route it
// wraps.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
)

// apiKeyHeader is the request header carrying the caller's key.
const apiKeyHeader = "X-API-Key"

// APIKeyAuth enforces a shared API key. An empty configured key disables
// the check entirely. Key comparison is constant-time.
func APIKeyAuth(configuredKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if configuredKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(configuredKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "invalid or missing API key",
			})
			return
		}

		c.Next()
	}
}
