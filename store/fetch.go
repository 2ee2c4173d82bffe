package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	xmlvalidator "github.com/xmlvalid/validator"
)

// Fetcher downloads remote schemas with a fixed per-request timeout and a
// bounded retry budget. Server errors and transport failures are retried
// with exponential backoff; client errors are not.
type Fetcher struct {
	client    *http.Client
	retries   int
	delay     time.Duration
	maxDelay  time.Duration
	userAgent string
}

// NewFetcher creates a Fetcher from opts.
func NewFetcher(opts *xmlvalidator.Options) *Fetcher {
	if opts == nil {
		opts = xmlvalidator.DefaultOptions()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.FetchTimeout,
		},
		retries:   opts.FetchRetries,
		delay:     opts.RetryDelay,
		maxDelay:  opts.MaxRetryDelay,
		userAgent: xmlvalidator.UserAgent,
	}
}

// Fetch downloads url, retrying retryable failures until the budget is
// exhausted. The final error wraps the last failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	delay := f.delay
	var lastErr error

	for attempt := 0; ; attempt++ {
		data, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable || attempt >= f.retries {
			break
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
		if delay > f.maxDelay {
			delay = f.maxDelay
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

// fetchOnce performs a single request. The bool reports whether the failure
// is worth retrying.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		// Transport errors (refused, reset, timeout) are retryable unless
		// the context itself is done.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return nil, resp.StatusCode >= 500, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return data, false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
