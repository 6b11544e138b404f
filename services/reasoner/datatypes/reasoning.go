// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the request/response schema of the reasoner
// service. Everything here is request-scoped: candidates, assessments and
// perturbation results are created per call and never persisted by the core.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var reasonValidate = validator.New()

// ReasoningRequest is the caller-supplied payload for POST /reason.
type ReasoningRequest struct {
	// Input is the question or problem to reason about. Required.
	Input string `json:"input" validate:"required"`

	// Context holds optional key/value pairs rendered into the prompt.
	Context map[string]string `json:"context,omitempty"`

	// Policy is an optional free-form policy constraint string.
	Policy string `json:"policy,omitempty"`

	// RequestID correlates logs and events; generated when absent.
	RequestID string `json:"request_id,omitempty"`
}

// Validate checks structural validity of the request.
func (r *ReasoningRequest) Validate() error {
	return reasonValidate.Struct(r)
}

// AssessmentComponents is the per-signal breakdown of an assessment.
// Every value lies in [0,1].
type AssessmentComponents struct {
	CounterfactualInfluence float64 `json:"counterfactual_influence"`
	StepEntailment          float64 `json:"step_entailment"`
	Coherence               float64 `json:"coherence"`
	Obfuscation             float64 `json:"obfuscation"`
}

// Assessment is the monitor's verdict on a single (trace, answer) pair.
type Assessment struct {
	FaithfulnessScore float64              `json:"faithfulness_score"`
	CoherenceScore    float64              `json:"coherence_score"`
	RiskFlag          bool                 `json:"risk_flag"`
	Explanation       string               `json:"monitor_explanation"`
	Components        AssessmentComponents `json:"components"`
}

// PerturbationTrial records one step-removal experiment.
type PerturbationTrial struct {
	// RemovedSteps holds the 0-based indices removed from the trace.
	RemovedSteps []int `json:"removed_steps"`

	// NewAnswer is the answer derived from the perturbed trace. Empty when
	// the trial's derivation failed.
	NewAnswer string `json:"new_answer"`

	// Changed reports whether NewAnswer differs from the original answer,
	// compared case-insensitively after trimming.
	Changed bool `json:"changed"`
}

// PerturbationResult aggregates a batch of perturbation trials.
type PerturbationResult struct {
	OriginalAnswer string              `json:"original_answer"`
	Trials         []PerturbationTrial `json:"perturbed_answers"`

	// CausalInfluenceScore is the fraction of trials whose answer changed.
	// Zero when the trace was empty or no trials ran.
	CausalInfluenceScore float64 `json:"causal_influence_score"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID   string               `json:"request_id"`
	NCandidates int                  `json:"n_candidates"`
	BestScore   float64              `json:"best_score"`
	Mode        string               `json:"mode"`
	Components  AssessmentComponents `json:"components"`
}

// ReasoningResponse is the finished evaluation returned to the caller.
type ReasoningResponse struct {
	Answer             string              `json:"answer"`
	ReasoningTrace     []string            `json:"reasoning_trace"`
	FaithfulnessScore  float64             `json:"faithfulness_score"`
	CoherenceScore     float64             `json:"coherence_score"`
	RiskFlag           bool                `json:"risk_flag"`
	MonitorExplanation string              `json:"monitor_explanation"`
	Metadata           ResponseMetadata    `json:"metadata"`
	Perturbation       *PerturbationResult `json:"perturbation,omitempty"`
}

// ErrorResponse is the body returned for failed calls.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Service       string  `json:"service"`
	Monitor       string  `json:"monitor"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReasoningEvent is the audit record written after an evaluation finishes.
// Events are consumed by the event log collaborator, never by the core.
type ReasoningEvent struct {
	EventID           string    `json:"event_id"`
	RequestID         string    `json:"request_id"`
	Timestamp         time.Time `json:"timestamp"`
	Question          string    `json:"question"`
	Model             string    `json:"model"`
	Mode              string    `json:"mode"`
	LatencyMS         float64   `json:"latency_ms"`
	RiskFlag          bool      `json:"risk_flag"`
	Blocked           bool      `json:"blocked"`
	FaithfulnessScore float64   `json:"faithfulness_score"`
	CoherenceScore    float64   `json:"coherence_score"`
}

// ReasoningEventList is the paged payload for GET /events.
type ReasoningEventList struct {
	Events  []ReasoningEvent `json:"events"`
	HasMore bool             `json:"has_more"`
}
