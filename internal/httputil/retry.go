// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the source connectors.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	defaultMaxRetries = 4

	// maxRetryAfter caps server-requested waits. Crossref has been seen
	// asking for multi-minute delays that would blow the collection budget.
	maxRetryAfter = 30 * time.Second
)

// DoWithRetry executes an HTTP request and retries on HTTP 429 and 503,
// the two statuses the literature APIs use for rate limiting (arXiv and
// Crossref throttle with 503). The wait honors a Retry-After header in
// seconds form when present, capped at maxRetryAfter; otherwise it backs
// off exponentially from RetryBaseDelay.
//
// When maxRetries is 0 the default (4) is used. On each throttled response
// the body is drained and closed before sleeping. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last throttled response is returned so the caller
// can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	delay := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !throttled(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries, return the throttled response as-is.
		if attempt >= maxRetries {
			return resp, nil
		}

		wait := delay
		if ra := retryAfter(resp); ra > 0 {
			wait = ra
		}
		delay *= 2

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func throttled(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfter parses the seconds form of a Retry-After header. Zero means
// the header is absent or unusable.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	wait := time.Duration(secs) * time.Second
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	return wait
}
