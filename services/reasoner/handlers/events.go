// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
	"github.com/BeringAI/BeringRaaS/services/reasoner/eventlog"
)

// ListEvents returns recorded reasoning events, newest first. Supports
// limit, offset and model query parameters.
func ListEvents(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, datatypes.ErrorResponse{
				Code:    http.StatusServiceUnavailable,
				Message: "event log is disabled",
			})
			return
		}

		limit := intQuery(c, "limit", 0)
		offset := intQuery(c, "offset", 0)

		list, err := store.List(limit, offset, c.Query("model"))
		if err != nil {
			slog.Error("Failed to list reasoning events", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "failed to list events",
			})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetEvent returns a single reasoning event by id.
func GetEvent(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, datatypes.ErrorResponse{
				Code:    http.StatusServiceUnavailable,
				Message: "event log is disabled",
			})
			return
		}

		id := c.Param("id")
		event, err := store.Get(id)
		if errors.Is(err, eventlog.ErrNotFound) {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "event not found",
			})
			return
		}
		if err != nil {
			slog.Error("Failed to fetch reasoning event", "event_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "failed to fetch event",
			})
			return
		}
		c.JSON(http.StatusOK, event)
	}
}

// intQuery parses an integer query parameter, falling back on absence or
// garbage.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
