package apiclient

import (
	"context"
	"fmt"
	"time"
)

const bodySnippetLimit = 200

// AuthenticationError means a login exchange failed, or a request was rejected
// with an authentication error even after one forced re-login. The status and
// body are those of the upstream response that caused the failure.
type AuthenticationError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s", e.Err)
	}
	return fmt.Sprintf("authentication failed: status %d: %s", e.Status, e.Body)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// RateLimitTimeoutError means a caller's deadline elapsed while waiting for a
// token from the bucket for the given category.
type RateLimitTimeoutError struct {
	Category string
	Err      error
}

func (e *RateLimitTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for rate limit token in category %q: %s", e.Category, e.Err)
}

func (e *RateLimitTimeoutError) Unwrap() error { return e.Err }

// TransportError is a network-level failure: the request could not be sent, no
// response arrived, or the response body could not be read. ConnectionFailed is
// true only when we know the request never produced a server response, which is
// the one case where retrying a non-idempotent request is safe.
type TransportError struct {
	Err              error
	ConnectionFailed bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FatalRequestError is a 4xx response other than 401/429. These indicate a
// problem with the request itself, so they are never retried.
type FatalRequestError struct {
	Method   string
	Path     string
	Status   int
	Body     string
	Category string
}

func (e *FatalRequestError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d (category %q): %s",
		e.Method, e.Path, e.Status, e.Category, e.Body)
}

// RetryExhaustedError is returned when a retryable failure was not (or no
// longer) eligible for retry. Attempts is the number of attempts actually made.
type RetryExhaustedError struct {
	Method   string
	Path     string
	Category string
	Attempts int
	Last     Outcome
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s) (category %q): %s",
		e.Method, e.Path, e.Attempts, e.Category, e.Last.describe())
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last.Err }

func bodySnippet(data []byte) string {
	if len(data) > bodySnippetLimit {
		return string(data[:bodySnippetLimit]) + "..."
	}
	return string(data)
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
