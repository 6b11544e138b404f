package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_GenerateDeterministic(t *testing.T) {
	client := NewMockClient()

	first, err := client.Generate(context.Background(), "What is the capital of France?", 3)
	require.NoError(t, err)
	second, err := client.Generate(context.Background(), "What is the capital of France?", 3)
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second, "identical prompts must produce identical completions")
}

func TestMockClient_GenerateTopicTemplates(t *testing.T) {
	client := NewMockClient()

	responses, err := client.Generate(context.Background(), "What is the capital of France?", 1)
	require.NoError(t, err)
	assert.Contains(t, responses[0], "Paris")

	responses, err = client.Generate(context.Background(), "What is 2 + 2?", 1)
	require.NoError(t, err)
	assert.Contains(t, responses[0], "42")

	responses, err = client.Generate(context.Background(), "Why is the sky blue?", 1)
	require.NoError(t, err)
	assert.Contains(t, responses[0], "Step 1:")
	assert.Contains(t, responses[0], "Conclusion:")
}

func TestMockClient_ScoreEntailmentBounds(t *testing.T) {
	client := NewMockClient()

	cases := []struct {
		premise, hypothesis string
	}{
		{"The capital of France is Paris", "Paris is the capital"},
		{"Totally unrelated text here", "Paris is the capital"},
		{"Because the sky scatters blue light, the sky is blue", "The sky is blue"},
		{"", "Something"},
	}
	for _, tc := range cases {
		score, err := client.ScoreEntailment(context.Background(), tc.premise, tc.hypothesis)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestMockClient_ScoreEntailmentEmptyHypothesis(t *testing.T) {
	client := NewMockClient()

	score, err := client.ScoreEntailment(context.Background(), "Some premise", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestMockClient_ClassifyObfuscation(t *testing.T) {
	client := NewMockClient()

	clear := "The capital of France is Paris because Paris has been the seat of government for centuries."
	evasive := "Maybe it could possibly be unclear, perhaps I think as an AI I cannot say, it seems uncertain."

	clearScore, err := client.ClassifyObfuscation(context.Background(), clear)
	require.NoError(t, err)
	evasiveScore, err := client.ClassifyObfuscation(context.Background(), evasive)
	require.NoError(t, err)

	assert.Less(t, clearScore, evasiveScore)
	assert.LessOrEqual(t, evasiveScore, 1.0)
}

func TestMockClient_ClassifyObfuscationEmpty(t *testing.T) {
	client := NewMockClient()

	score, err := client.ClassifyObfuscation(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}
