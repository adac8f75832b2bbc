package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClaudeClient_Complete(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": [{"type": "text", "text": "{\"groups\": "}, {"type": "text", "text": "[]}"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("test-key", "claude-test", WithClaudeURL(srv.URL), WithClaudeMaxTokens(1000))
	defer c.Close()

	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"groups": []}` {
		t.Errorf("expected joined text blocks, got %q", out)
	}
	if gotReq.Model != "claude-test" || gotReq.MaxTokens != 1000 || gotReq.Temperature != 0 {
		t.Errorf("unexpected request: %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "hello" {
		t.Errorf("expected single user message, got %+v", gotReq.Messages)
	}
}

func TestClaudeClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error": {"type": "x", "message": "nope"}}`))
		}))
		c := NewClaudeClient("k", "m", WithClaudeURL(srv.URL))
		_, err := c.Complete(context.Background(), "p")
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: retryable=%v, want %v", tt.status, IsRetryable(err), tt.retryable)
		}
	}
}

func TestClaudeClient_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": []}`))
	}))
	defer srv.Close()

	_, err := NewClaudeClient("k", "m", WithClaudeURL(srv.URL)).Complete(context.Background(), "p")
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "local-model",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"groups\": []}"}}]
		}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "local-model"})
	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"groups": []}` {
		t.Errorf("unexpected content %q", out)
	}
	if gotBody["model"] != "local-model" {
		t.Errorf("expected model in request, got %v", gotBody["model"])
	}
	if gotBody["temperature"] != float64(0) {
		t.Errorf("expected temperature 0, got %v", gotBody["temperature"])
	}
}

func TestOpenAIClient_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), "p")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestWithRetry(t *testing.T) {
	var calls atomic.Int32
	flaky := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		if calls.Add(1) < 3 {
			return "", &RetryableError{StatusCode: 503, Message: "busy"}
		}
		return "ok", nil
	})

	out, err := WithRetry(flaky, RetryConfig{Attempts: 3}, nil).Complete(context.Background(), "p")
	if err != nil || out != "ok" {
		t.Fatalf("expected success on third attempt, got %q, %v", out, err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestWithRetry_NonRetryableStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	bad := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "", errors.New("bad request")
	})

	_, err := WithRetry(bad, RetryConfig{Attempts: 5}, nil).Complete(context.Background(), "p")
	if err == nil || err.Error() != "bad request" {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestWithRetry_ExhaustedReturnsLastError(t *testing.T) {
	busy := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", &RetryableError{StatusCode: 429, Message: "busy"}
	})

	_, err := WithRetry(busy, RetryConfig{Attempts: 2}, nil).Complete(context.Background(), "p")
	if !IsRetryable(err) {
		t.Fatalf("expected last retryable error, got %v", err)
	}
}

func TestMetered(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	slow := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "x", nil
	})

	c := Metered(slow, stats)
	c.Complete(context.Background(), "a")
	c.Complete(context.Background(), "b")

	snap := stats.Snapshot()
	if snap.Calls != 2 || snap.Failed != 0 {
		t.Fatalf("expected 2 successful calls, got %+v", snap)
	}
	if snap.MinMs < 5 {
		t.Errorf("expected latency >= 5ms, got %d", snap.MinMs)
	}
}

func TestBuildChunkPrompt(t *testing.T) {
	p := BuildChunkPrompt("Chunk 2/3 | Chars: 3600-7600", "Current main group: Heating", "DN 80 steel pipe")

	for _, want := range []string{
		ExtractionPrompt,
		"Chunk info: Chunk 2/3 | Chars: 3600-7600",
		"Previous context:\nCurrent main group: Heating",
		"DN 80 steel pipe",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(p, "DN 80 steel pipe") {
		t.Error("chunk text should come last")
	}
}
