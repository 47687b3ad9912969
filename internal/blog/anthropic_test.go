// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodahq/custoda/internal/config"
)

func testBlogConfig() config.BlogConfig {
	return config.BlogConfig{
		AnthropicAPIKey: "test-key",
		Model:           "claude-sonnet-4-20250514",
		MaxTokens:       1024,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(testBlogConfig())
	c.baseURL = server.URL
	c.retryDelay = time.Millisecond
	return c
}

const completionBody = `{
	"content": [{"type": "text", "text": "Title: Test\n\nBody text."}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 40, "output_tokens": 120}
}`

func TestCompleteSuccess(t *testing.T) {
	var gotVersion, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})

	text, usage, err := c.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(text, "Title: Test") {
		t.Errorf("unexpected completion text %q", text)
	}
	if usage.InputTokens != 40 || usage.OutputTokens != 120 {
		t.Errorf("usage = %+v, want 40/120", usage)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
}

func TestCompleteRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(completionBody))
	})

	_, _, err := c.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad prompt"}}`))
	})

	_, _, err := c.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestCompleteBreakerOpensOnRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := c.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error when upstream keeps failing")
	}
	if !strings.Contains(err.Error(), "circuit breaker open") {
		t.Fatalf("err = %v, want breaker-open abort", err)
	}
	// The breaker trips after three failures; later attempts are
	// rejected without reaching the server.
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	c := NewClient(config.BlogConfig{Model: "claude-sonnet-4-20250514"})
	if _, _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error without an api key")
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	})
	if _, _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty content")
	}
}
