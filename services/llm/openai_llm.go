package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const maxBackendAttempts = 3

type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	backoff time.Duration
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API key from secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		// Monitoring fans out into O(steps^2) scoring calls per candidate,
		// so pace requests below the account rate limit.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		backoff: time.Second,
	}, nil
}

func (o *OpenAIClient) ModelName() string {
	return o.model
}

// Generate implements the ModelClient interface. The API supports n-way
// sampling in a single request, so one call covers all candidates.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	slog.Debug("Generating text via OpenAI", "model", o.model, "n", n)

	req := openai.ChatCompletionRequest{
		Model: o.model,
		N:     n,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	}

	resp, err := o.createWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	completions := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		completions = append(completions, strings.TrimSpace(choice.Message.Content))
	}
	return completions, nil
}

// ScoreEntailment asks the model to judge a premise/hypothesis pair. An
// unparseable reply degrades to the neutral 0.5 rather than failing the step.
func (o *OpenAIClient) ScoreEntailment(ctx context.Context, premise, hypothesis string) (float64, error) {
	reply, err := o.judge(ctx, entailmentPrompt(premise, hypothesis))
	if err != nil {
		return 0, fmt.Errorf("entailment scoring failed: %w", err)
	}
	return extractScore(reply, 0.5), nil
}

func (o *OpenAIClient) ClassifyObfuscation(ctx context.Context, text string) (float64, error) {
	reply, err := o.judge(ctx, obfuscationPrompt(text))
	if err != nil {
		return 0, fmt.Errorf("obfuscation classification failed: %w", err)
	}
	return extractScore(reply, 0.0), nil
}

// judge runs a single deterministic completion for scoring prompts.
func (o *OpenAIClient) judge(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.0,
		MaxTokens:   16,
	}
	resp, err := o.createWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// createWithRetry paces the request and retries transient failures with
// exponential backoff. Exhausted retries surface as a single error for the
// caller to absorb per item.
func (o *OpenAIClient) createWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxBackendAttempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return openai.ChatCompletionResponse{}, err
		}

		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		slog.Warn("OpenAI API call failed", "attempt", attempt+1, "error", err)

		if attempt < maxBackendAttempts-1 {
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(o.backoff << attempt):
			}
		}
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("exhausted %d attempts: %w", maxBackendAttempts, lastErr)
}
