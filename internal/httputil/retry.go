// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying HTTP call shared by the model
// backends.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the first backoff step. Tests shrink it to avoid real
// sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps both computed backoff and server-provided Retry-After.
var MaxRetryDelay = 2 * time.Minute

const defaultMaxRetries = 5

// Retryable reports whether a status code is worth another attempt: rate
// limiting, a busy upstream, or Anthropic's overloaded status.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway, 529:
		return true
	}
	return false
}

// DoWithRetry sends req and retries while the response status is
// Retryable. The wait before attempt n is the server's Retry-After when it
// sends one, otherwise RetryBaseDelay doubled n times, capped at
// MaxRetryDelay.
//
// maxRetries <= 0 means the default (5). Retried response bodies are
// drained and closed. A cancelled context during a wait returns ctx.Err().
// Once retries run out the last response is returned unread so the caller
// can report it. req must have a replayable body (GetBody set), which
// http.NewRequest does for bytes and strings readers.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff returns the wait before the next attempt. Retry-After is honored
// in its delay-seconds form; HTTP-date values fall back to exponential.
func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, MaxRetryDelay)
	}
	wait := RetryBaseDelay << attempt
	if wait <= 0 || wait > MaxRetryDelay {
		return MaxRetryDelay
	}
	return wait
}
