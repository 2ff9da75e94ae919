// Package gemini wraps the external generative completion capability behind a
// retrying client with structured (schema-constrained) and free-text modes.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrBlocked marks an attempt whose response was rejected by a safety or
// content rating. It is terminal for the attempt but still consumes the
// retry budget like any other failure.
var ErrBlocked = errors.New("response blocked by content rating")

// Config holds client settings. The API key comes from the environment at
// startup (see config.LoadAPIKey) and is never logged.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MaxOutputTokens   int
	RequestsPerSecond float64
	Burst             int
}

// Client issues generateContent calls with retry, backoff, and outbound pacing.
// It keeps no local cache of responses.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client
	limiter         *rate.Limiter
	backoff         BackoffPolicy
	sleep           func(context.Context, time.Duration) error
	logger          *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// withSleep replaces the backoff sleeper so tests can observe induced delays.
func withSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates a completion client.
func NewClient(cfg Config, opts ...Option) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2.0
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 4
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	c := &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: timeout},
		limiter:         rate.NewLimiter(rate.Limit(rps), burst),
		backoff:         LinearBackoff(time.Second),
		sleep:           sleepContext,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompleteStructured requests a schema-constrained JSON completion and returns
// the parsed raw message. A malformed JSON response counts as an attempt
// failure and is retried; after the budget is exhausted the last error
// propagates verbatim.
func (c *Client) CompleteStructured(ctx context.Context, instruction, user string, schema map[string]any, opts GenOptions) (json.RawMessage, error) {
	gen := c.generationConfig(opts)
	gen.ResponseMimeType = "application/json"
	gen.ResponseSchema = schema
	return retryDo(ctx, maxAttempts, c.backoff, c.sleep, func() (json.RawMessage, error) {
		text, err := c.generate(ctx, instruction, user, gen)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("malformed JSON in structured response: %w", err)
		}
		return raw, nil
	})
}

// CompleteText requests a free-text completion and returns the raw text
// unmodified, under the same retry budget as the structured mode.
func (c *Client) CompleteText(ctx context.Context, instruction, user string, opts GenOptions) (string, error) {
	gen := c.generationConfig(opts)
	return retryDo(ctx, maxAttempts, c.backoff, c.sleep, func() (string, error) {
		return c.generate(ctx, instruction, user, gen)
	})
}

func (c *Client) generationConfig(opts GenOptions) GenerationConfig {
	temp := opts.Temperature
	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = c.maxOutputTokens
	}
	return GenerationConfig{
		Temperature:     &temp,
		TopP:            opts.TopP,
		TopK:            opts.TopK,
		MaxOutputTokens: maxTokens,
	}
}

// generate issues exactly one external request and validates the response
// shape: at least one candidate with content, and no blocking content rating.
func (c *Client) generate(ctx context.Context, instruction, user string, gen GenerationConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	reqBody := generateRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: user}}},
		},
		SystemInstruction: &Content{Parts: []Part{{Text: instruction}}},
		GenerationConfig:  gen,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no completion returned")
	}
	cand := parsed.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return "", fmt.Errorf("%w: finish reason SAFETY", ErrBlocked)
	}
	for _, r := range cand.SafetyRatings {
		if r.Blocked {
			return "", fmt.Errorf("%w: category %s", ErrBlocked, r.Category)
		}
	}

	var result strings.Builder
	for _, part := range cand.Content.Parts {
		result.WriteString(part.Text)
	}
	text := strings.TrimSpace(result.String())
	if text == "" {
		return "", errors.New("empty completion text")
	}

	c.logger.Debug("completion",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(text)),
	)
	return text, nil
}
