package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(httpClient *http.Client) *Client {
	c := NewClient(httpClient, "feedhook-test/1.0")
	c.policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestSendSuccess(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json content type, got: %s", ct)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.Client())
	result, err := client.Send(context.Background(), server.URL, "**Example | Hello**\n\nhttps://example.com/1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.OK() {
		t.Errorf("Expected 2xx result, got: %d", result.StatusCode)
	}

	var decoded map[string]string
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("Expected JSON request body, got: %v", err)
	}
	if decoded["content"] != "**Example | Hello**\n\nhttps://example.com/1" {
		t.Errorf("Expected content field to carry the message, got: %s", decoded["content"])
	}
}

func TestSendNotFoundAborts(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.Client())
	_, err := client.Send(context.Background(), server.URL, "hello")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got: %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got: %d", statusErr.StatusCode)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("Expected exactly 1 attempt for 404, got: %d", got)
	}
}

func TestSendRateLimitRetriesAfterDelay(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message": "You are being rate limited.", "retry_after": 0.25, "global": false}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(server.Client(), "feedhook-test/1.0")
	client.policy.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	result, err := client.Send(context.Background(), server.URL, "hello")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.OK() {
		t.Errorf("Expected 2xx result, got: %d", result.StatusCode)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("Expected 2 attempts, got: %d", got)
	}
	if len(slept) != 1 {
		t.Fatalf("Expected 1 sleep, got: %d", len(slept))
	}
	if slept[0] < 250*time.Millisecond {
		t.Errorf("Expected wait of at least 250ms, got: %v", slept[0])
	}
}

func TestSendRateLimitExhaustsBudget(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "You are being rate limited.", "retry_after": 0.01, "global": true, "code": 429}`))
	}))
	defer server.Close()

	client := newTestClient(server.Client())
	_, err := client.Send(context.Background(), server.URL, "hello")
	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("Expected RateLimitError, got: %v", err)
	}
	if !rateLimitErr.Global {
		t.Error("Expected global flag to be parsed")
	}
	if rateLimitErr.Code != 429 {
		t.Errorf("Expected code 429, got: %d", rateLimitErr.Code)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got: %d", got)
	}
}

func TestSendOtherStatusReturnedAsResult(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Cannot send an empty message"}`))
	}))
	defer server.Close()

	client := newTestClient(server.Client())
	result, err := client.Send(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got: %d", result.StatusCode)
	}
	if result.OK() {
		t.Error("Expected result not to be OK")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("Expected exactly 1 attempt, got: %d", got)
	}
}

func TestRetryAfterDuration(t *testing.T) {
	e := &RateLimitError{RetryAfter: 1.5}
	if got := e.RetryAfterDuration(); got != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got: %v", got)
	}
}
