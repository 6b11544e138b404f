// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent drives a full reasoning evaluation: generate N candidate
// chain-of-thought traces, finalize and assess each one, select the best
// by composite score, and apply the live-mode risk gate.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
	"github.com/BeringAI/BeringRaaS/services/reasoner/monitor"
	"github.com/BeringAI/BeringRaaS/services/reasoner/pipeline"
)

var tracer = otel.Tracer("bering.raas.agent")

// Mode selects the risk posture of an evaluation.
type Mode string

const (
	// ModeLive refuses to return a risk-flagged result.
	ModeLive Mode = "live"

	// ModeDryRun returns risk-flagged results with the flag set.
	ModeDryRun Mode = "dryrun"

	// ModePerturb behaves like dryrun and additionally runs step-removal
	// experiments on the winning trace.
	ModePerturb Mode = "perturb"
)

// ParseMode maps a caller-supplied mode string to a Mode. An empty string
// defaults to live.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeLive, nil
	case ModeLive:
		return ModeLive, nil
	case ModeDryRun:
		return ModeDryRun, nil
	case ModePerturb:
		return ModePerturb, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// OutcomeKind tags the terminal state of an evaluation.
type OutcomeKind int

const (
	// OutcomeOK carries a finished response.
	OutcomeOK OutcomeKind = iota

	// OutcomeRiskBlocked means live mode rejected a risk-flagged winner.
	OutcomeRiskBlocked

	// OutcomeInvalid means the request failed validation before any
	// backend call.
	OutcomeInvalid

	// OutcomeGenerationFailed means the model produced no usable traces.
	OutcomeGenerationFailed
)

// Outcome is the tagged result of Reason. Response is populated for
// OutcomeOK and OutcomeRiskBlocked (the blocked response is kept for audit
// logging, transport returns only Message in that case).
type Outcome struct {
	Kind     OutcomeKind
	Response *datatypes.ReasoningResponse
	Message  string
}

// maxCandidateParallel caps concurrent finalize+assess work per request.
const maxCandidateParallel = 4

// Config tunes candidate generation and perturbation.
type Config struct {
	// NCandidates is the number of traces generated per request.
	NCandidates int

	// PerturbTrials is the number of step-removal trials in perturb mode.
	PerturbTrials int
}

// DefaultConfig matches the service defaults.
func DefaultConfig() Config {
	return Config{NCandidates: 3, PerturbTrials: 5}
}

// Agent evaluates reasoning requests end to end.
type Agent struct {
	pipe *pipeline.Pipeline
	mon  *monitor.Monitor
	cfg  Config
}

// New creates an Agent. Zero or negative Config fields fall back to the
// defaults.
func New(pipe *pipeline.Pipeline, mon *monitor.Monitor, cfg Config) *Agent {
	def := DefaultConfig()
	if cfg.NCandidates <= 0 {
		cfg.NCandidates = def.NCandidates
	}
	if cfg.PerturbTrials <= 0 {
		cfg.PerturbTrials = def.PerturbTrials
	}
	return &Agent{pipe: pipe, mon: mon, cfg: cfg}
}

// candidate holds one evaluated trace. Slots keep generation order so
// selection is deterministic regardless of goroutine scheduling.
type candidate struct {
	trace      []string
	answer     string
	assessment datatypes.Assessment
	composite  float64
}

// Reason evaluates a request and returns a tagged outcome. It never
// returns an error for domain failures; only context cancellation during
// candidate evaluation surfaces as an error.
func (a *Agent) Reason(ctx context.Context, request *datatypes.ReasoningRequest, mode Mode) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "agent.Reason")
	defer span.End()

	if request.RequestID == "" {
		request.RequestID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("raas.request_id", request.RequestID),
		attribute.String("raas.mode", string(mode)),
	)

	if strings.TrimSpace(request.Input) == "" {
		span.SetStatus(codes.Error, "empty input")
		return Outcome{Kind: OutcomeInvalid, Message: "input must not be empty"}, nil
	}

	traces, err := a.pipe.GenerateCoT(ctx, request.Input, request.Context, a.cfg.NCandidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate generation failed")
		return Outcome{
			Kind:    OutcomeGenerationFailed,
			Message: fmt.Sprintf("candidate generation failed: %v", err),
		}, nil
	}
	if len(traces) == 0 {
		span.SetStatus(codes.Error, "no candidate traces")
		return Outcome{
			Kind:    OutcomeGenerationFailed,
			Message: "model produced no reasoning traces",
		}, nil
	}

	candidates, err := a.evaluateCandidates(ctx, traces, request.Context)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate evaluation failed")
		return Outcome{}, fmt.Errorf("evaluating candidates: %w", err)
	}

	best := selectBest(candidates)
	winner := candidates[best]
	span.SetAttributes(
		attribute.Int("raas.candidates", len(candidates)),
		attribute.Float64("raas.best_score", winner.composite),
		attribute.Bool("raas.risk_flag", winner.assessment.RiskFlag),
	)

	response := &datatypes.ReasoningResponse{
		Answer:             winner.answer,
		ReasoningTrace:     winner.trace,
		FaithfulnessScore:  winner.assessment.FaithfulnessScore,
		CoherenceScore:     winner.assessment.CoherenceScore,
		RiskFlag:           winner.assessment.RiskFlag,
		MonitorExplanation: winner.assessment.Explanation,
		Metadata: datatypes.ResponseMetadata{
			RequestID:   request.RequestID,
			NCandidates: len(candidates),
			BestScore:   winner.composite,
			Mode:        string(mode),
			Components:  winner.assessment.Components,
		},
	}

	if mode == ModePerturb {
		result := a.pipe.RunPerturbationExperiments(ctx, winner.trace, request.Context, a.cfg.PerturbTrials)
		response.Perturbation = &result
	}

	if mode == ModeLive && winner.assessment.RiskFlag {
		slog.Warn("risk gate blocked response",
			"request_id", request.RequestID,
			"explanation", winner.assessment.Explanation)
		return Outcome{
			Kind:     OutcomeRiskBlocked,
			Response: response,
			Message:  "response blocked by risk gate: " + winner.assessment.Explanation,
		}, nil
	}

	return Outcome{Kind: OutcomeOK, Response: response}, nil
}

// evaluateCandidates finalizes and assesses every trace with bounded
// concurrency. Results land in generation order.
func (a *Agent) evaluateCandidates(ctx context.Context, traces [][]string, kv map[string]string) ([]candidate, error) {
	ctx, span := tracer.Start(ctx, "agent.evaluateCandidates")
	defer span.End()

	candidates := make([]candidate, len(traces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCandidateParallel)
	for i, trace := range traces {
		i, trace := i, trace
		g.Go(func() error {
			answer, err := a.pipe.FinalizeAnswer(gctx, trace, kv)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			assessment := a.mon.Assess(gctx, trace, answer, kv)
			candidates[i] = candidate{
				trace:      trace,
				answer:     answer,
				assessment: assessment,
				composite:  compositeScore(assessment),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return nil, err
	}
	return candidates, nil
}

// compositeScore ranks a candidate: 0.6*faithfulness + 0.4*coherence with
// a 0.3 penalty when the monitor flagged risk, clamped to [0,1].
func compositeScore(a datatypes.Assessment) float64 {
	score := 0.6*a.FaithfulnessScore + 0.4*a.CoherenceScore
	if a.RiskFlag {
		score -= 0.3
	}
	return min(1.0, max(0.0, score))
}

// selectBest returns the index of the highest composite score. Ties keep
// the earliest candidate.
func selectBest(candidates []candidate) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].composite > candidates[best].composite {
			best = i
		}
	}
	return best
}
