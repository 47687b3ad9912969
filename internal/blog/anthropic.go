// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	maxRetries        = 5
	initialRetryDelay = 2 * time.Second

	// apiErrorSnippetLen caps how much of an error body reaches logs.
	apiErrorSnippetLen = 300
)

// Usage reports token consumption for a single completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

type messagesRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
	Messages  []messagesMessage `json:"messages"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// apiError is a non-2xx response from the Messages API.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("anthropic api error (%d): %s", e.Status, e.Body)
}

// retryable reports whether another attempt can succeed.
func (e *apiError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Client calls the Anthropic Messages API. Requests flow through a
// circuit breaker so a degraded upstream fails fast instead of eating
// the full retry budget on every scheduled run.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	retryDelay time.Duration
	http       *http.Client
	cb         *gobreaker.CircuitBreaker[*messagesResponse]
}

// NewClient creates a Messages API client from the blog config.
func NewClient(cfg config.BlogConfig) *Client {
	const cbName = "anthropic"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*messagesResponse](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("anthropic circuit breaker state change")
		},
	})

	return &Client{
		apiKey:     cfg.AnthropicAPIKey,
		baseURL:    anthropicBaseURL,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		retryDelay: initialRetryDelay,
		http:       &http.Client{Timeout: 60 * time.Second},
		cb:         cb,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Complete sends a system+user prompt and returns the model's text.
// Transport errors, 429s, and 5xx responses are retried with exponential
// backoff; an open breaker aborts immediately.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	if c.apiKey == "" {
		return "", Usage{}, errors.New("anthropic api key is not configured")
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  []messagesMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", Usage{}, ctx.Err()
			}
		}

		resp, execErr := c.cb.Execute(func() (*messagesResponse, error) {
			return c.send(ctx, body)
		})
		if execErr == nil {
			metrics.CircuitBreakerRequests.WithLabelValues("anthropic", "success").Inc()
			if len(resp.Content) == 0 {
				return "", Usage{}, errors.New("empty response content")
			}
			usage := Usage{
				InputTokens:  resp.Usage.InputTokens,
				OutputTokens: resp.Usage.OutputTokens,
			}
			return resp.Content[0].Text, usage, nil
		}

		if errors.Is(execErr, gobreaker.ErrOpenState) || errors.Is(execErr, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues("anthropic", "rejected").Inc()
			return "", Usage{}, fmt.Errorf("anthropic circuit breaker open: %w", execErr)
		}
		metrics.CircuitBreakerRequests.WithLabelValues("anthropic", "failure").Inc()

		var aErr *apiError
		if errors.As(execErr, &aErr) && !aErr.retryable() {
			return "", Usage{}, execErr
		}
		if ctx.Err() != nil {
			return "", Usage{}, ctx.Err()
		}
		lastErr = execErr
	}

	return "", Usage{}, fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// send performs one Messages API round trip.
func (c *Client) send(ctx context.Context, body []byte) (*messagesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(respBody)
		if len(snippet) > apiErrorSnippetLen {
			snippet = snippet[:apiErrorSnippetLen]
		}
		return nil, &apiError{Status: resp.StatusCode, Body: snippet}
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &apiResp, nil
}
