// Package fetch retrieves the full cart collection from the source API.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cartstream/internal/cart"
)

// Fetcher retrieves the complete current record set. Implementations own
// their retry policy; callers treat an error as "no data this cycle",
// never as fatal.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]cart.Cart, error)
}

// httpDoer is the subset of http.Client used, injectable for tests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFetcher fetches carts over HTTP with bounded retry and exponential
// backoff.
type HTTPFetcher struct {
	url            string
	client         httpDoer
	maxRetries     int
	initialBackoff time.Duration
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher for url. maxRetries is the attempt
// ceiling; initialBackoff doubles per attempt.
func NewHTTPFetcher(url string, timeout time.Duration, maxRetries int, initialBackoff time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url:            url,
		client:         &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}
}

// FetchAll implements Fetcher.
func (f *HTTPFetcher) FetchAll(ctx context.Context) ([]cart.Cart, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		slog.Info("Fetching carts from API", "attempt", attempt, "max_retries", f.maxRetries)

		carts, err := f.fetchOnce(ctx)
		if err == nil {
			slog.Info("Successfully fetched carts", "count", len(carts))
			return carts, nil
		}
		lastErr = err

		slog.Warn("API error", "error", err, "attempt", attempt, "max_retries", f.maxRetries)

		if attempt < f.maxRetries {
			backoff := f.initialBackoff * (1 << (attempt - 1))
			slog.Warn("Waiting before retry", "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("max retries reached: %w", lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context) ([]cart.Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, f.url)
	}

	var carts []cart.Cart
	if err := json.NewDecoder(resp.Body).Decode(&carts); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return carts, nil
}
