package llm

import "context"

// ModelClient defines the standard interface for any generation backend.
// Pipeline and monitor code must never branch on the concrete implementation.
type ModelClient interface {
	// ModelName returns the backend's model identifier for logging and events.
	ModelName() string

	// Generate produces n independent completions for the prompt.
	Generate(ctx context.Context, prompt string, n int) ([]string, error)

	// ScoreEntailment rates how well premise supports hypothesis in [0,1].
	ScoreEntailment(ctx context.Context, premise, hypothesis string) (float64, error)

	// ClassifyObfuscation rates how evasive the text is in [0,1].
	ClassifyObfuscation(ctx context.Context, text string) (float64, error)
}
