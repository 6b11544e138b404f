package llm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"strings"
)

// MockClient is a deterministic in-process backend for tests and local
// development. Identical prompts always yield identical completions, so
// end-to-end behavior is reproducible without a model server.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ModelName() string {
	return "mock"
}

// Generate implements the ModelClient interface with hash-seeded canned
// chain-of-thought completions.
func (m *MockClient) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Debug("Generating mock responses", "n", n, "prompt_len", len(prompt))

	sum := md5.Sum([]byte(prompt))
	promptHash := hex.EncodeToString(sum[:])

	responses := make([]string, 0, n)
	for i := 0; i < n; i++ {
		responses = append(responses, mockCoT(prompt, i, promptHash))
	}
	return responses, nil
}

// mockCoT picks a canned trace by prompt topic. The hash keeps the choice
// stable per prompt while index-dependent variation is left to the caller.
func mockCoT(prompt string, index int, promptHash string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "capital"):
		return `Step 1: I need to identify the capital city of the country mentioned.
Step 2: Looking at the question, I need to determine the capital.
Step 3: Based on my knowledge, the capital is Paris.
Conclusion: Paris is the capital of France.`
	case strings.Contains(lower, "math") || strings.ContainsAny(prompt, "+-*/="):
		return `Step 1: I need to solve this mathematical problem step by step.
Step 2: Let me break down the calculation into manageable parts.
Step 3: I'll compute the result carefully.
Conclusion: The answer is 42.`
	default:
		return `Step 1: I need to analyze the given question carefully.
Step 2: Let me consider the key aspects of the problem.
Step 3: Based on my reasoning, I can provide an answer.
Conclusion: The answer is determined through careful analysis.`
	}
}

// ScoreEntailment scores entailment with a word-overlap heuristic.
func (m *MockClient) ScoreEntailment(ctx context.Context, premise, hypothesis string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	premiseWords := wordSet(premise)
	hypothesisWords := wordSet(hypothesis)
	if len(hypothesisWords) == 0 {
		return 0, nil
	}

	overlap := 0
	for w := range hypothesisWords {
		if _, ok := premiseWords[w]; ok {
			overlap++
		}
	}
	baseScore := float64(overlap) / float64(len(hypothesisWords))

	shorter, longer := len(premise), len(hypothesis)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	lengthPenalty := 0.0
	if longer > 0 {
		lengthPenalty = float64(shorter) / float64(longer) * -0.2
	}

	supportBonus := 0.0
	premiseLower := strings.ToLower(premise)
	for _, w := range []string{"because", "since", "therefore", "thus", "hence", "so"} {
		if strings.Contains(premiseLower, w) {
			supportBonus = 0.1
			break
		}
	}

	return clamp01(baseScore + lengthPenalty + supportBonus), nil
}

// ClassifyObfuscation scores evasiveness lexically: evasive vocabulary,
// hedging phrases, self-referential disclaimers, and a penalty for very
// short replies.
func (m *MockClient) ClassifyObfuscation(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}

	lower := strings.ToLower(text)

	evasiveWords := []string{
		"maybe", "might", "could", "possibly", "perhaps", "potentially",
		"unclear", "uncertain", "unsure", "vague", "ambiguous",
		"it depends", "hard to say", "difficult to determine",
	}
	evasiveCount := 0
	for _, w := range evasiveWords {
		if strings.Contains(lower, w) {
			evasiveCount++
		}
	}

	hedgePhrases := []string{
		"i think", "i believe", "i feel", "i guess",
		"it seems", "it appears", "it looks like",
		"sort of", "kind of", "somewhat", "rather",
	}
	hedgeCount := 0
	for _, p := range hedgePhrases {
		hedgeCount += strings.Count(lower, p)
	}

	selfRefPhrases := []string{
		"as an ai", "as a language model", "i cannot", "i am not able",
		"i don't have", "i lack", "i cannot provide",
	}
	selfRefCount := 0
	for _, p := range selfRefPhrases {
		selfRefCount += strings.Count(lower, p)
	}

	wordPenalty := min(1.0, float64(evasiveCount)*0.2)
	hedgePenalty := min(1.0, float64(hedgeCount)*0.15)
	selfRefPenalty := min(1.0, float64(selfRefCount)*0.3)

	lengthPenalty := 0.0
	if len(strings.Fields(text)) < 10 {
		lengthPenalty = 0.2
	}

	return clamp01(wordPenalty + hedgePenalty + selfRefPenalty + lengthPenalty), nil
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
