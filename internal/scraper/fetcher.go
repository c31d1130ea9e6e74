/**
 * @description
 * Rate-limited page fetcher.
 * Single shared gate for every outbound fetch against the bookstore: a
 * semaphore caps in-flight requests and a rate limiter enforces minimum
 * spacing between dispatches. Both bounds are process-wide: construct one
 * Fetcher and pass it to every component that fetches. A second uncoordinated
 * fetch path would defeat the gate.
 *
 * @dependencies
 * - golang.org/x/time/rate: Inter-request spacing
 * - standard net/http
 */

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/priceshelf-project/backend/internal/config"
)

// ErrFetch marks any network, timeout or non-2xx failure
var ErrFetch = errors.New("fetch failed")

// Fetcher serializes outbound page fetches behind a concurrency cap and a
// minimum inter-request interval. Callers block (backpressure) when the cap
// is reached; requests are never shed.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	sem       chan struct{}
	userAgent string
}

// NewFetcher creates the shared fetch gate from scraper configuration
func NewFetcher(cfg config.ScraperConfig) *Fetcher {
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		sem:       make(chan struct{}, maxConcurrent),
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves the page at url and returns its body.
// Blocks until a concurrency slot and a dispatch slot are available.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	select {
	case f.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrFetch, ctx.Err())
	}
	defer func() { <-f.sem }()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}
	return body, nil
}
