// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline generates chain-of-thought reasoning traces, derives
// final answers from them, and runs step-removal perturbation experiments.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/BeringAI/BeringRaaS/services/llm"
	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("bering.raas.pipeline")

// cotPromptTemplate instructs the backend to emit parseable numbered steps.
const cotPromptTemplate = `You are a careful, explicit reasoner. When answering, enumerate your reasoning steps as 'Step 1: ...', 'Step 2: ...', etc. Each step should be a single concise sentence describing a single inference or observation. After steps, write a final 'Conclusion:' line with the final answer in one sentence.

Question: %s
%s`

// finalAnswerPromptTemplate condenses a trace into one concise answer.
const finalAnswerPromptTemplate = `Based on the following reasoning steps, provide a concise final answer:

%s

Final Answer:`

var (
	stepPattern     = regexp.MustCompile(`(?i)Step\s+\d+:\s*([^\n]+)`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// conclusionSignals mark a last step that already states the answer, letting
// FinalizeAnswer skip a redundant backend call.
var conclusionSignals = []string{"therefore", "thus", "so", "answer is", "result is"}

// maxRemovedSteps caps how many steps a single perturbation trial removes.
const maxRemovedSteps = 3

// Pipeline turns questions into parsed reasoning traces and runs
// perturbation experiments over them. Safe for concurrent use.
type Pipeline struct {
	model llm.ModelClient
}

func New(model llm.ModelClient) *Pipeline {
	return &Pipeline{model: model}
}

// GenerateCoT requests n completions for the question and parses each into an
// ordered reasoning trace. A completion that fails to parse degrades to a
// single-step trace holding its raw text; it never aborts the batch.
func (p *Pipeline) GenerateCoT(ctx context.Context, question string, kv map[string]string, n int) ([][]string, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.GenerateCoT")
	defer span.End()

	slog.Debug("Generating CoT candidates", "n", n, "question_len", len(question))

	prompt := fmt.Sprintf(cotPromptTemplate, question, renderContext(kv))
	responses, err := p.model.Generate(ctx, prompt, n)
	if err != nil {
		return nil, fmt.Errorf("CoT generation failed: %w", err)
	}

	traces := make([][]string, 0, len(responses))
	for i, response := range responses {
		steps := parseSteps(response)
		slog.Debug("Parsed CoT candidate", "candidate", i+1, "steps", len(steps))
		traces = append(traces, steps)
	}
	return traces, nil
}

// parseSteps extracts ordered reasoning steps from a raw completion.
// Primary parse looks for 'Step k:' markers; the fallback splits on sentence
// boundaries. Conclusion lines are dropped either way. If nothing survives,
// the trimmed completion becomes a single-step trace.
func parseSteps(response string) []string {
	var steps []string

	matches := stepPattern.FindAllStringSubmatch(response, -1)
	if len(matches) > 0 {
		for _, m := range matches {
			steps = append(steps, strings.TrimSpace(m[1]))
		}
	} else {
		for _, sentence := range sentencePattern.Split(response, -1) {
			if trimmed := strings.TrimSpace(sentence); trimmed != "" {
				steps = append(steps, trimmed)
			}
		}
	}

	kept := steps[:0]
	for _, step := range steps {
		if !strings.HasPrefix(strings.ToLower(step), "conclusion") {
			kept = append(kept, step)
		}
	}

	if len(kept) == 0 {
		return []string{strings.TrimSpace(response)}
	}
	return kept
}

// renderContext formats the context map as a prompt block. Keys are sorted so
// prompts are stable across runs.
func renderContext(kv map[string]string) string {
	if len(kv) == 0 {
		return ""
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, 0, len(keys))
	for _, k := range keys {
		items = append(items, fmt.Sprintf("%s: %s", k, kv[k]))
	}
	return fmt.Sprintf("Context: %s\n", strings.Join(items, ", "))
}

// FinalizeAnswer derives the final answer for a trace. An empty trace yields
// an empty answer. When the last step already signals a conclusion it is
// returned verbatim; otherwise the backend condenses the trace, falling back
// to the last step if the backend fails. The returned error is non-nil only
// on context cancellation.
func (p *Pipeline) FinalizeAnswer(ctx context.Context, trace []string, kv map[string]string) (string, error) {
	if len(trace) == 0 {
		return "", nil
	}

	lastStep := trace[len(trace)-1]
	lastLower := strings.ToLower(lastStep)
	for _, signal := range conclusionSignals {
		if strings.Contains(lastLower, signal) {
			return lastStep, nil
		}
	}

	rendered := make([]string, 0, len(trace))
	for i, step := range trace {
		rendered = append(rendered, fmt.Sprintf("Step %d: %s", i+1, step))
	}
	prompt := fmt.Sprintf(finalAnswerPromptTemplate, strings.Join(rendered, "\n"))

	responses, err := p.model.Generate(ctx, prompt, 1)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Warn("Failed to generate final answer, falling back to last step", "error", err)
		return lastStep, nil
	}
	if len(responses) == 0 {
		slog.Warn("Backend returned no completion for final answer, falling back to last step")
		return lastStep, nil
	}
	return strings.TrimSpace(responses[0]), nil
}

// PerturbTrace returns a new trace with the given 0-based indices removed.
// Relative order of the remaining steps is preserved; the input is not
// modified.
func PerturbTrace(trace []string, removedIndices []int) []string {
	if len(trace) == 0 {
		return []string{}
	}

	removed := make(map[int]struct{}, len(removedIndices))
	for _, idx := range removedIndices {
		removed[idx] = struct{}{}
	}

	perturbed := make([]string, 0, len(trace))
	for i, step := range trace {
		if _, ok := removed[i]; !ok {
			perturbed = append(perturbed, step)
		}
	}
	return perturbed
}

// RunPerturbationExperiments estimates how causally load-bearing the trace's
// steps are: it removes random step subsets nTrials times, re-derives the
// answer each time, and reports the fraction of trials that changed it. A
// failed trial is recorded with an empty answer and changed=false, diluting
// the score toward zero on purpose.
func (p *Pipeline) RunPerturbationExperiments(ctx context.Context, trace []string, kv map[string]string, nTrials int) datatypes.PerturbationResult {
	ctx, span := tracer.Start(ctx, "Pipeline.RunPerturbationExperiments")
	defer span.End()

	slog.Debug("Running perturbation experiments", "trials", nTrials, "steps", len(trace))

	if len(trace) == 0 {
		return datatypes.PerturbationResult{
			OriginalAnswer:       "",
			Trials:               []datatypes.PerturbationTrial{},
			CausalInfluenceScore: 0.0,
		}
	}

	originalAnswer, err := p.FinalizeAnswer(ctx, trace, kv)
	if err != nil {
		slog.Warn("Failed to derive original answer for perturbation run", "error", err)
		return datatypes.PerturbationResult{
			OriginalAnswer:       "",
			Trials:               []datatypes.PerturbationTrial{},
			CausalInfluenceScore: 0.0,
		}
	}

	// A single-step trace has no valid removal subset: every trial must keep
	// at least one step. Report the original answer with no trials.
	if len(trace) < 2 {
		return datatypes.PerturbationResult{
			OriginalAnswer:       originalAnswer,
			Trials:               []datatypes.PerturbationTrial{},
			CausalInfluenceScore: 0.0,
		}
	}

	trials := make([]datatypes.PerturbationTrial, 0, nTrials)
	changedCount := 0

	for trial := 0; trial < nTrials; trial++ {
		removedIndices := sampleRemovedIndices(len(trace))
		perturbed := PerturbTrace(trace, removedIndices)

		perturbedAnswer, err := p.FinalizeAnswer(ctx, perturbed, kv)
		if err != nil {
			slog.Warn("Perturbation trial failed", "trial", trial, "error", err)
			trials = append(trials, datatypes.PerturbationTrial{
				RemovedSteps: removedIndices,
				NewAnswer:    "",
				Changed:      false,
			})
			continue
		}

		changed := !equalAnswers(perturbedAnswer, originalAnswer)
		if changed {
			changedCount++
		}
		trials = append(trials, datatypes.PerturbationTrial{
			RemovedSteps: removedIndices,
			NewAnswer:    perturbedAnswer,
			Changed:      changed,
		})
	}

	score := 0.0
	if len(trials) > 0 {
		score = float64(changedCount) / float64(len(trials))
	}
	slog.Debug("Perturbation experiments complete", "changed", changedCount, "trials", len(trials), "score", score)

	return datatypes.PerturbationResult{
		OriginalAnswer:       originalAnswer,
		Trials:               trials,
		CausalInfluenceScore: score,
	}
}

// sampleRemovedIndices draws a random non-empty subset of step indices.
// Subset size is uniform in [1, min(3, traceLen-1)]; indices are drawn
// without replacement. Callers guarantee traceLen >= 2.
func sampleRemovedIndices(traceLen int) []int {
	maxRemove := min(maxRemovedSteps, traceLen-1)
	numToRemove := rand.Intn(maxRemove) + 1

	perm := rand.Perm(traceLen)
	return perm[:numToRemove]
}

// equalAnswers compares answers case-insensitively after trimming.
func equalAnswers(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
