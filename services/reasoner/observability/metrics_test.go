// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMetrics creates a ReasoningMetrics instance on a private registry
// so tests never collide with the global Prometheus registry.
func newTestMetrics(t *testing.T) (*ReasoningMetrics, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: reasonerSubsystem,
			Name:      "requests_total",
			Help:      "Total reasoning requests by mode and status",
		},
		[]string{"mode", "status"},
	)
	riskBlocksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: reasonerSubsystem,
			Name:      "risk_blocks_total",
			Help:      "Total responses rejected by the live risk gate",
		},
		[]string{"mode"},
	)
	backendCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: reasonerSubsystem,
			Name:      "backend_calls_total",
			Help:      "Total model backend calls by operation and result",
		},
		[]string{"operation", "result"},
	)
	evaluationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: reasonerSubsystem,
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end reasoning evaluation latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"mode"},
	)
	candidates := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: reasonerSubsystem,
			Name:      "candidates_evaluated",
			Help:      "Candidate traces evaluated per request",
			Buckets:   []float64{1, 2, 3, 5},
		},
	)

	reg.MustRegister(requestsTotal, riskBlocksTotal, backendCallsTotal, evaluationDuration, candidates)

	return &ReasoningMetrics{
		RequestsTotal:             requestsTotal,
		RiskBlocksTotal:           riskBlocksTotal,
		BackendCallsTotal:         backendCallsTotal,
		EvaluationDurationSeconds: evaluationDuration,
		CandidatesEvaluated:       candidates,
	}, reg
}

func TestRequestCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RequestsTotal.WithLabelValues("live", StatusOK).Inc()
	m.RequestsTotal.WithLabelValues("live", StatusOK).Inc()
	m.RequestsTotal.WithLabelValues("live", StatusRiskBlocked).Inc()
	m.RiskBlocksTotal.WithLabelValues("live").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("live", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("live", StatusRiskBlocked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskBlocksTotal.WithLabelValues("live")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("dryrun", StatusOK)))
}

func TestHistogramsCollect(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.EvaluationDurationSeconds.WithLabelValues("perturb").Observe(0.2)
	m.CandidatesEvaluated.Observe(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["bering_raas_evaluation_duration_seconds"])
	assert.True(t, names["bering_raas_candidates_evaluated"])
}

func TestInitMetricsIsIdempotent(t *testing.T) {
	first := InitMetrics()
	second := InitMetrics()

	require.NotNil(t, first)
	assert.Same(t, first, second)
}
