// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasoningRequest_Validate(t *testing.T) {
	valid := ReasoningRequest{Input: "What is the capital of France?"}
	assert.NoError(t, valid.Validate())

	empty := ReasoningRequest{}
	assert.Error(t, empty.Validate())
}

func TestPerturbationResult_JSONShape(t *testing.T) {
	result := PerturbationResult{
		OriginalAnswer: "Paris",
		Trials: []PerturbationTrial{
			{RemovedSteps: []int{1}, NewAnswer: "Paris", Changed: false},
			{RemovedSteps: []int{0, 2}, NewAnswer: "London", Changed: true},
		},
		CausalInfluenceScore: 0.5,
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "perturbed_answers")
	assert.Contains(t, decoded, "causal_influence_score")
}

func TestReasoningResponse_OmitsEmptyPerturbation(t *testing.T) {
	resp := ReasoningResponse{Answer: "Paris"}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "perturbation")
}
