// Package webhook delivers item notifications to an outgoing webhook,
// honoring rate-limit backoff and permanent-failure short-circuiting.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"feedhook/app/retry"
)

// StatusError reports a permanent upstream failure (HTTP 404 on the webhook
// endpoint). It is never retried.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook request failed: %s", e.Status)
}

// RateLimitError carries the rate-limit payload of an HTTP 429 response.
type RateLimitError struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"` // seconds, possibly fractional
	Global     bool    `json:"global"`
	Code       int     `json:"code,omitempty"`
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("webhook rate limit exceeded: %s (retry after %.2fs)", e.Message, e.RetryAfter)
}

// RetryAfterDuration converts the server-specified delay into a Duration.
func (e *RateLimitError) RetryAfterDuration() time.Duration {
	return time.Duration(e.RetryAfter * float64(time.Second))
}

// Result is the raw outcome of a non-aborted delivery attempt. Non-2xx
// statuses other than 404 and 429 are returned here; the caller treats them
// as a soft failure for the item.
type Result struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type payload struct {
	Content string `json:"content"`
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	policy     retry.Policy
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		policy: retry.Policy{
			MaxAttempts: retry.DefaultMaxAttempts,
			NewBackOff:  retry.NewExponentialBackOff,
		},
	}
}

// Send posts a JSON notification to webhookURL. 404 aborts immediately with
// a StatusError; 429 waits at least the server-specified delay and retries
// within the shared attempt budget. Every other response is returned as a
// Result for the caller to classify.
func (c *Client) Send(ctx context.Context, webhookURL string, content string) (*Result, error) {
	body, err := json.Marshal(payload{Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) (*Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send webhook: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, retry.Permanent(&StatusError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
			})
		case http.StatusTooManyRequests:
			rateLimitErr := &RateLimitError{}
			if err := json.Unmarshal(respBody, rateLimitErr); err != nil {
				return nil, fmt.Errorf("failed to parse rate limit payload: %w", err)
			}
			slog.Warn("Webhook rate limit exceeded", "retry_after", rateLimitErr.RetryAfter, "global", rateLimitErr.Global)
			return nil, retry.After(rateLimitErr, rateLimitErr.RetryAfterDuration())
		}

		return &Result{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       respBody,
		}, nil
	})
}
