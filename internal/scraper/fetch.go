package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

// Fetch failure classification.
// A fetch either succeeds with the body, fails permanently (a client
// error that retrying cannot fix), or exhausts its retry budget on
// transient failures. The orchestrator treats both failure classes as a
// bad page; the distinction only matters for logging.
var (
	// ErrPermanentFailure marks a non-retryable response (4xx other than
	// rate limiting). Retrying the same URL would yield the same answer.
	ErrPermanentFailure = errors.New("permanent fetch failure")

	// ErrRetriesExhausted marks a page that kept failing transiently
	// until the retry budget ran out.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")
)

// backoffBase is the unit of the exponential retry backoff. Attempt n
// waits backoffBase * 2^n plus random jitter up to backoffJitterMax.
const (
	backoffBase      = 600 * time.Millisecond
	backoffJitterMax = 400 * time.Millisecond
)

// maxFetchBodySize caps the response body size. Survey listing pages are
// a few hundred kilobytes; anything larger is misbehavior.
const maxFetchBodySize = 10 * 1024 * 1024 // 10MB

// Fetcher performs one HTTP GET per page with bounded retries.
//
// Design decision: We use a struct with the http.Client rather than
// passing the client on each call because:
//  1. Client configuration (timeout, transport) should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with an httptest server
type Fetcher struct {
	// client performs the requests. Its Timeout bounds each attempt.
	client *http.Client

	// userAgent is the User-Agent header sent with each request.
	userAgent string

	// retries is the maximum number of retry attempts after the first.
	retries int

	// jitterMin and jitterMax bound the random pre-attempt delay.
	jitterMin time.Duration
	jitterMax time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header for page requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRetries sets the maximum retry count per fetch.
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithJitter sets the bounds of the random pre-attempt delay.
func WithJitter(minDelay, maxDelay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if minDelay >= 0 && maxDelay >= minDelay {
			f.jitterMin = minDelay
			f.jitterMax = maxDelay
		}
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
// The client's Timeout should be set to the desired per-attempt timeout.
//
// Design decision: We require an external client rather than building one
// internally because it allows different transports in tests and keeps
// timeout configuration in one place (the caller's config).
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    client,
		userAgent: "Mozilla/5.0 (Windows) GradScan/1.0",
		retries:   4,
		jitterMin: 100 * time.Millisecond,
		jitterMax: 350 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs an HTTP GET for the given page URL and returns the raw
// response body.
//
// Transient failures (rate limiting, 5xx responses, network errors) are
// retried up to the configured budget with exponential backoff plus
// jitter. Other client errors fail immediately with ErrPermanentFailure.
// Exhausting the budget fails with ErrRetriesExhausted holding the last
// transient error. A small random delay precedes every attempt so the
// crawl never bursts.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if err := sleepContext(ctx, f.preAttemptJitter()); err != nil {
			return nil, err
		}

		body, err := f.attempt(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrPermanentFailure) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if attempt < f.retries {
			if err := sleepContext(ctx, RetryDelay(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

// attempt performs a single GET and classifies the response.
func (f *Fetcher) attempt(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		// A URL the stdlib cannot even form a request for will never work.
		return nil, fmt.Errorf("%w: %v", ErrPermanentFailure, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodySize))
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("retryable status %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrPermanentFailure, resp.StatusCode)
	}
}

// preAttemptJitter returns the random delay applied before an attempt.
func (f *Fetcher) preAttemptJitter() time.Duration {
	if f.jitterMax <= f.jitterMin {
		return f.jitterMin
	}
	return f.jitterMin + rand.N(f.jitterMax-f.jitterMin)
}

// RetryDelay returns the backoff delay before retrying after the given
// zero-based failed attempt: backoffBase * 2^attempt plus random jitter.
// Exported so tests can verify the schedule without sleeping through it.
func RetryDelay(attempt int) time.Duration {
	return backoffBase<<uint(attempt) + rand.N(backoffJitterMax)
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
