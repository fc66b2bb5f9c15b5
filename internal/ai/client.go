// Package ai wraps the Anthropic API for the narrative generator: bounded,
// rate-limited calls with retry, and defensive parsing of model output.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Model constants. Narrative generation is a summarization task, so the
// cost-efficient model is the default; GOVAUDIT_MODEL overrides.
const (
	ModelSonnet = "claude-sonnet-4-5-20250929"
	ModelHaiku  = "claude-3-5-haiku-20241022"
)

// DefaultModel returns the model to use, honoring the GOVAUDIT_MODEL
// environment variable.
func DefaultModel() string {
	if model := os.Getenv("GOVAUDIT_MODEL"); model != "" {
		return model
	}
	return ModelHaiku
}

// ErrNotConfigured is returned when no API key is available. Callers treat
// this as "narrative backend absent", not as a failure.
var ErrNotConfigured = errors.New("ANTHROPIC_API_KEY not set")

// Config holds client configuration.
type Config struct {
	APIKey     string        // falls back to ANTHROPIC_API_KEY
	Model      string        // falls back to DefaultModel()
	Timeout    time.Duration // per-request timeout (default 60s)
	MaxRetries int           // default 3
	// MaxConcurrent bounds in-flight API calls (default 2).
	MaxConcurrent int64
	// CallsPerMinute throttles request starts (default 30).
	CallsPerMinute int
}

// Client is a bounded Anthropic client.
type Client struct {
	client     anthropic.Client
	model      string
	timeout    time.Duration
	maxRetries int
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
}

// NewClient builds a client, or ErrNotConfigured when no key is present.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = 2
	}
	callsPerMinute := cfg.CallsPerMinute
	if callsPerMinute == 0 {
		callsPerMinute = 30
	}

	return &Client{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:      model,
		timeout:    timeout,
		maxRetries: maxRetries,
		sem:        semaphore.NewWeighted(maxConcurrent),
		limiter:    rate.NewLimiter(rate.Limit(float64(callsPerMinute)/60.0), callsPerMinute),
	}, nil
}

// Available reports whether the backend can be called. A nil client means
// no credentials were configured.
func (c *Client) Available(ctx context.Context) bool {
	return c != nil
}

// Generate sends one prompt and returns the concatenated text blocks of the
// response. Retries transient failures with exponential backoff; every
// attempt is bounded by the per-request timeout.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquiring API slot: %w", err)
	}
	defer c.sem.Release(1)

	var response *anthropic.Message
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying anthropic call", "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		cancel()
		if err == nil {
			response = resp
			break
		}
		lastErr = err
		if !isRetryable(err) {
			return "", fmt.Errorf("anthropic API call failed: %w", err)
		}
	}
	if response == nil {
		return "", fmt.Errorf("anthropic API call failed after %d attempts: %w", c.maxRetries+1, lastErr)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// isRetryable classifies transient API failures: rate limits, overload, and
// server-side errors are retried; everything else is permanent.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"429", "529", "500", "502", "503", "overloaded", "rate limit", "timeout"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
