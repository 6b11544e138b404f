// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"context"

	"github.com/BeringAI/BeringRaaS/services/llm"
)

// Operation labels for BackendCallsTotal.
const (
	OpGenerate    = "generate"
	OpEntailment  = "entailment"
	OpObfuscation = "obfuscation"
)

// Result labels for BackendCallsTotal.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// instrumentedClient counts every backend call by operation and result.
type instrumentedClient struct {
	inner   llm.ModelClient
	metrics *ReasoningMetrics
}

// InstrumentModelClient wraps a model client so each backend call
// increments BackendCallsTotal. A nil metrics instance returns the client
// unwrapped.
func InstrumentModelClient(client llm.ModelClient, metrics *ReasoningMetrics) llm.ModelClient {
	if metrics == nil {
		return client
	}
	return &instrumentedClient{inner: client, metrics: metrics}
}

func (c *instrumentedClient) ModelName() string {
	return c.inner.ModelName()
}

func (c *instrumentedClient) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	responses, err := c.inner.Generate(ctx, prompt, n)
	c.count(OpGenerate, err)
	return responses, err
}

func (c *instrumentedClient) ScoreEntailment(ctx context.Context, premise, hypothesis string) (float64, error) {
	score, err := c.inner.ScoreEntailment(ctx, premise, hypothesis)
	c.count(OpEntailment, err)
	return score, err
}

func (c *instrumentedClient) ClassifyObfuscation(ctx context.Context, text string) (float64, error) {
	score, err := c.inner.ClassifyObfuscation(ctx, text)
	c.count(OpObfuscation, err)
	return score, err
}

func (c *instrumentedClient) count(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	c.metrics.BackendCallsTotal.WithLabelValues(operation, result).Inc()
}
