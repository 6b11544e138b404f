// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the reasoner.
//
// # Description
//
// Metrics cover the reasoning request lifecycle:
//   - Request counters (by mode and status)
//   - Risk gate blocks (by mode)
//   - Model backend calls (by operation and result)
//   - Evaluation latency histograms (by mode)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "bering"

// Subsystem for reasoner metrics
const reasonerSubsystem = "raas"

// ReasoningMetrics holds all Prometheus metrics for reasoning operations.
type ReasoningMetrics struct {
	// RequestsTotal counts reasoning requests by mode and outcome status.
	// Labels: mode (live, dryrun, perturb), status (ok, risk_blocked,
	// invalid, generation_failed)
	RequestsTotal *prometheus.CounterVec

	// RiskBlocksTotal counts responses rejected by the risk gate.
	// Labels: mode
	RiskBlocksTotal *prometheus.CounterVec

	// BackendCallsTotal counts model backend calls.
	// Labels: operation (generate, entailment, obfuscation),
	// result (success, error)
	BackendCallsTotal *prometheus.CounterVec

	// EvaluationDurationSeconds measures end-to-end evaluation latency.
	// Labels: mode
	EvaluationDurationSeconds *prometheus.HistogramVec

	// CandidatesEvaluated observes the number of candidates per request.
	CandidatesEvaluated prometheus.Histogram
}

// DefaultMetrics is the singleton instance initialized by InitMetrics.
var DefaultMetrics *ReasoningMetrics

var initOnce sync.Once

// InitMetrics initializes and registers the default metrics instance.
// Safe to call more than once; only the first call registers.
func InitMetrics() *ReasoningMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &ReasoningMetrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: reasonerSubsystem,
					Name:      "requests_total",
					Help:      "Total reasoning requests by mode and status",
				},
				[]string{"mode", "status"},
			),

			RiskBlocksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: reasonerSubsystem,
					Name:      "risk_blocks_total",
					Help:      "Total responses rejected by the live risk gate",
				},
				[]string{"mode"},
			),

			BackendCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: reasonerSubsystem,
					Name:      "backend_calls_total",
					Help:      "Total model backend calls by operation and result",
				},
				[]string{"operation", "result"},
			),

			EvaluationDurationSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: reasonerSubsystem,
					Name:      "evaluation_duration_seconds",
					Help:      "End-to-end reasoning evaluation latency in seconds",
					Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
				},
				[]string{"mode"},
			),

			CandidatesEvaluated: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: reasonerSubsystem,
					Name:      "candidates_evaluated",
					Help:      "Candidate traces evaluated per request",
					Buckets:   []float64{1, 2, 3, 5, 8, 13},
				},
			),
		}
	})
	return DefaultMetrics
}

// Status labels for RequestsTotal.
const (
	StatusOK               = "ok"
	StatusRiskBlocked      = "risk_blocked"
	StatusInvalid          = "invalid"
	StatusGenerationFailed = "generation_failed"
)
