package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"feedhook/app/retry"
)

// FetchResult is the raw outcome of a non-aborted fetch. Non-2xx statuses
// other than 404 are returned here rather than as errors; the caller decides
// how to treat them.
type FetchResult struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (r *FetchResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	policy     retry.Policy
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		policy: retry.Policy{
			MaxAttempts: retry.DefaultMaxAttempts,
			NewBackOff:  retry.NewExponentialBackOff,
		},
	}
}

// Run performs an HTTP GET against url. Transport errors are retried up to
// the attempt budget; HTTP 404 aborts immediately as a permanent failure.
// Every other response is returned as-is.
func (f *Fetcher) Run(ctx context.Context, url string) (*FetchResult, error) {
	return retry.Do(ctx, f.policy, func(ctx context.Context) (*FetchResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, retry.Permanent(fmt.Errorf("feed not found: %s", resp.Status))
		}

		return &FetchResult{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
		}, nil
	})
}
