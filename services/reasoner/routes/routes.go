// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BeringAI/BeringRaaS/services/reasoner/eventlog"
	"github.com/BeringAI/BeringRaaS/services/reasoner/handlers"
	"github.com/BeringAI/BeringRaaS/services/reasoner/middleware"
	"github.com/BeringAI/BeringRaaS/services/reasoner/observability"
)

// Deps carries everything the route table needs.
type Deps struct {
	Reasoner  handlers.Reasoner
	Events    *eventlog.Store
	Metrics   *observability.ReasoningMetrics
	ModelName string
	APIKey    string
	StartTime time.Time
}

// SetupRoutes registers all reasoner endpoints. Health and metrics stay
// outside the API-key gate so probes and scrapers work unauthenticated.
func SetupRoutes(router *gin.Engine, deps Deps) {
	start := deps.StartTime
	if start.IsZero() {
		start = time.Now()
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/health", handlers.HandleHealth(start))

	authed := v1.Group("")
	authed.Use(middleware.APIKeyAuth(deps.APIKey))
	{
		authed.POST("/reason", handlers.HandleReason(deps.Reasoner, deps.Events, deps.Metrics, deps.ModelName))
		authed.GET("/events", handlers.ListEvents(deps.Events))
		authed.GET("/events/:id", handlers.GetEvent(deps.Events))
	}
}
