package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-flash-latest"

// GeminiClient generates completions with Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini-backed Generator.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger.Info("Gemini client initialized", "model", cfg.Model)
	return &GeminiClient{client: client, model: cfg.Model, logger: logger}, nil
}

// Counterparty text is hostile by construction, so content filters are off.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// Complete sends prompt as a single user turn.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(opts.Temperature),
		SafetySettings: safetySettings,
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(min(opts.MaxTokens, 1<<20)) //nolint:gosec // bounded above
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classify(ctx, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.logger.Warn("Gemini returned empty response", "model", c.model, "candidates", len(resp.Candidates))
		return "", &Error{Kind: KindTransient, Err: ErrEmptyCompletion}
	}
	return text, nil
}

// classify maps a Gemini failure onto the three collaborator error kinds.
func classify(ctx context.Context, err error) *Error {
	if ctx.Err() != nil {
		return &Error{Kind: KindTransient, Err: err}
	}
	apiErr, ok := asAPIError(err)
	if !ok {
		return classifyMessage(err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return &Error{Kind: KindQuota, Err: err}
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return &Error{Kind: KindAuth, Err: err}
	case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return &Error{Kind: KindAuth, Err: err}
	}
	return &Error{Kind: KindTransient, Err: err}
}

// asAPIError accepts both value and pointer forms of genai.APIError.
func asAPIError(err error) (genai.APIError, bool) {
	var val genai.APIError
	if errors.As(err, &val) {
		return val, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

func classifyMessage(err error) *Error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return &Error{Kind: KindQuota, Err: err}
	case strings.Contains(msg, "api key") || strings.Contains(msg, "permission denied") || strings.Contains(msg, "unauthenticated"):
		return &Error{Kind: KindAuth, Err: err}
	}
	return &Error{Kind: KindTransient, Err: err}
}
