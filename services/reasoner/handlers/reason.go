// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers wires the reasoning agent to HTTP.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/BeringAI/BeringRaaS/services/reasoner/agent"
	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
	"github.com/BeringAI/BeringRaaS/services/reasoner/eventlog"
	"github.com/BeringAI/BeringRaaS/services/reasoner/observability"
)

var reasonTracer = otel.Tracer("bering.raas.handlers")

// Reasoner runs a full evaluation. Satisfied by *agent.Agent.
type Reasoner interface {
	Reason(ctx context.Context, request *datatypes.ReasoningRequest, mode agent.Mode) (agent.Outcome, error)
}

// HandleReason evaluates a reasoning request. The mode query parameter
// selects live (default), dryrun or perturb. The event store may be nil
// when the event log is disabled.
func HandleReason(reasoner Reasoner, store *eventlog.Store, metrics *observability.ReasoningMetrics, modelName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := reasonTracer.Start(c.Request.Context(), "HandleReason")
		defer span.End()
		start := time.Now()

		mode, err := agent.ParseMode(c.Query("mode"))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}

		var req datatypes.ReasoningRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the reasoning request", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "invalid request body",
			})
			return
		}

		if err := req.Validate(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusUnprocessableEntity, datatypes.ErrorResponse{
				Code:    http.StatusUnprocessableEntity,
				Message: "input is required",
			})
			return
		}

		outcome, err := reasoner.Reason(ctx, &req, mode)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Reasoning evaluation failed", "request_id", req.RequestID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "internal error",
			})
			return
		}

		status := renderOutcome(c, outcome)
		recordMetrics(metrics, mode, status, time.Since(start), outcome)
		recordEvent(store, &req, mode, modelName, time.Since(start), outcome)
	}
}

// renderOutcome writes the HTTP response for an outcome and returns the
// metrics status label.
func renderOutcome(c *gin.Context, outcome agent.Outcome) string {
	switch outcome.Kind {
	case agent.OutcomeOK:
		c.JSON(http.StatusOK, outcome.Response)
		return observability.StatusOK
	case agent.OutcomeRiskBlocked:
		c.JSON(http.StatusConflict, datatypes.ErrorResponse{
			Code:    http.StatusConflict,
			Message: outcome.Message,
		})
		return observability.StatusRiskBlocked
	case agent.OutcomeInvalid:
		c.JSON(http.StatusUnprocessableEntity, datatypes.ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: outcome.Message,
		})
		return observability.StatusInvalid
	case agent.OutcomeGenerationFailed:
		c.JSON(http.StatusBadGateway, datatypes.ErrorResponse{
			Code:    http.StatusBadGateway,
			Message: outcome.Message,
		})
		return observability.StatusGenerationFailed
	default:
		c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "unknown outcome",
		})
		return "unknown"
	}
}

func recordMetrics(metrics *observability.ReasoningMetrics, mode agent.Mode, status string, elapsed time.Duration, outcome agent.Outcome) {
	if metrics == nil {
		return
	}
	metrics.RequestsTotal.WithLabelValues(string(mode), status).Inc()
	metrics.EvaluationDurationSeconds.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	if outcome.Kind == agent.OutcomeRiskBlocked {
		metrics.RiskBlocksTotal.WithLabelValues(string(mode)).Inc()
	}
	if outcome.Response != nil {
		metrics.CandidatesEvaluated.Observe(float64(outcome.Response.Metadata.NCandidates))
	}
}

// recordEvent appends an audit record for finished evaluations. Failures
// are logged, never surfaced to the caller.
func recordEvent(store *eventlog.Store, req *datatypes.ReasoningRequest, mode agent.Mode, modelName string, elapsed time.Duration, outcome agent.Outcome) {
	if store == nil || outcome.Response == nil {
		return
	}
	event := datatypes.ReasoningEvent{
		RequestID:         req.RequestID,
		Question:          req.Input,
		Model:             modelName,
		Mode:              string(mode),
		LatencyMS:         float64(elapsed.Milliseconds()),
		RiskFlag:          outcome.Response.RiskFlag,
		Blocked:           outcome.Kind == agent.OutcomeRiskBlocked,
		FaithfulnessScore: outcome.Response.FaithfulnessScore,
		CoherenceScore:    outcome.Response.CoherenceScore,
	}
	if err := store.Record(&event); err != nil {
		slog.Error("Failed to record reasoning event", "request_id", req.RequestID, "error", err)
	}
}
