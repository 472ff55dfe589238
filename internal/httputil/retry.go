// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil carries HTTP plumbing shared by the stages that talk
// to NCBI outside the E-utilities client, where throttling shows up as
// plain 429 responses rather than Entrez error payloads.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the wait before the first 429 retry; it doubles per
// attempt. NCBI throttles scrapers aggressively, so the waits are long.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 5 * time.Second

const defaultMaxRetries = 3

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests).
// maxRetries of 0 means the default (3). The last 429 response is
// returned after retries run out so the caller can inspect it; a context
// cancelled mid-wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryWait(resp, attempt)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryWait honors a numeric Retry-After header when the server sent
// one, otherwise backs off exponentially from RetryBaseDelay.
func retryWait(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return RetryBaseDelay << attempt
}
