package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("bering.llm.gemini")

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	limiter    *rate.Limiter
	backoff    time.Duration
}

// Gemini REST API structures (generateContent endpoint).
type geminiGenerateRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature    float64 `json:"temperature"`
	CandidateCount int     `json:"candidateCount,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiClient() (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		slog.Warn("GEMINI_MODEL not set, defaulting to gemini-pro")
		model = "gemini-pro"
	}
	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	slog.Info("Initializing Gemini client", "base_url", baseURL, "model", model)
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		backoff:    time.Second,
	}, nil
}

func (g *GeminiClient) ModelName() string {
	return g.model
}

// Generate implements the ModelClient interface. Gemini's candidateCount is
// capped low server-side, so completions are requested one at a time.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.model), attribute.Int("llm.n", n))

	completions := make([]string, 0, n)
	for i := 0; i < n; i++ {
		text, err := g.callWithRetry(ctx, prompt, 0.7)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("Gemini API call failed: %w", err)
		}
		completions = append(completions, text)
	}
	return completions, nil
}

func (g *GeminiClient) ScoreEntailment(ctx context.Context, premise, hypothesis string) (float64, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.ScoreEntailment")
	defer span.End()

	reply, err := g.callWithRetry(ctx, entailmentPrompt(premise, hypothesis), 0.0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("entailment scoring failed: %w", err)
	}
	return extractScore(reply, 0.5), nil
}

func (g *GeminiClient) ClassifyObfuscation(ctx context.Context, text string) (float64, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.ClassifyObfuscation")
	defer span.End()

	reply, err := g.callWithRetry(ctx, obfuscationPrompt(text), 0.0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("obfuscation classification failed: %w", err)
	}
	return extractScore(reply, 0.0), nil
}

func (g *GeminiClient) callWithRetry(ctx context.Context, prompt string, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxBackendAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := g.call(ctx, prompt, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		slog.Warn("Gemini API call failed", "attempt", attempt+1, "error", err)

		if attempt < maxBackendAttempts-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.backoff << attempt):
			}
		}
	}
	return "", fmt.Errorf("exhausted %d attempts: %w", maxBackendAttempts, lastErr)
}

func (g *GeminiClient) call(ctx context.Context, prompt string, temperature float64) (string, error) {
	generateURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	payload := geminiGenerateRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{Temperature: temperature},
	}
	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request to Gemini: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generateURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request to Gemini: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from Gemini: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini returned status %d: %s", resp.StatusCode, string(respBodyBytes))
	}

	var geminiResp geminiGenerateResponse
	if err := json.Unmarshal(respBodyBytes, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response from Gemini: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}
	return strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text), nil
}
