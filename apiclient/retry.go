package apiclient

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Millisecond * 500
	defaultMaxDelay    = time.Second * 30
	defaultJitter      = 0.5
)

// RetryPolicy decides whether a failed attempt should be retried and how long
// to wait first. The zero value gets sensible defaults (3 total attempts,
// exponential backoff from 500ms with jitter, capped at 30s).
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, including the first attempt.
	MaxAttempts int

	// BaseDelay is the backoff interval before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// Jitter is the backoff randomization factor; each delay is multiplied
	// by a random value in [1-Jitter, 1+Jitter]. Tests set it to a negative
	// value to disable randomization entirely.
	Jitter float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Jitter == 0 {
		p.Jitter = defaultJitter
	}
	return p
}

// Decide reports whether the attempt-th attempt (1-based) should be followed
// by another, and the delay to apply first. Only retryable outcomes are ever
// retried; non-idempotent requests are retried only when the failed attempt
// provably did not reach the server's mutation logic, which covers both
// connection-level failures and rate-limit rejections.
func (p RetryPolicy) Decide(attempt int, desc *RequestDescriptor, outcome Outcome) (bool, time.Duration) {
	if outcome.Kind != OutcomeRetryable {
		return false, 0
	}
	if attempt >= p.MaxAttempts {
		return false, 0
	}
	// A 429 is rejected by the server's rate limiter before any mutation
	// runs, so it is safe to repeat regardless of idempotency.
	rateLimited := outcome.Response != nil && outcome.Response.Status == http.StatusTooManyRequests
	if !desc.Idempotent && !outcome.ConnectionFailed && !rateLimited {
		// The server may already have applied the mutation; retrying risks
		// a duplicate side effect.
		return false, 0
	}
	if outcome.RetryAfter > 0 {
		return true, outcome.RetryAfter
	}
	return true, p.backoffDelay(attempt)
}

// backoffDelay computes the delay before the retry following the attempt-th
// attempt: BaseDelay doubling per attempt with jitter, capped at MaxDelay.
func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = 2
	bo.MaxInterval = p.MaxDelay
	bo.MaxElapsedTime = 0
	bo.RandomizationFactor = p.Jitter
	if p.Jitter < 0 {
		bo.RandomizationFactor = 0
	}
	bo.Reset()

	d := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = bo.NextBackOff()
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// classify turns the result of one attempt into an Outcome. A nil response
// with a non-nil error is a network-level failure; sendFailed distinguishes
// "the request never got a response" from "the response body could not be
// read", which matters for non-idempotent retries.
func classify(resp *Response, err error, sendFailed bool) Outcome {
	if err != nil {
		return Outcome{
			Kind:             OutcomeRetryable,
			Err:              &TransportError{Err: err, ConnectionFailed: sendFailed},
			ConnectionFailed: sendFailed,
		}
	}
	switch {
	case resp.Status >= 200 && resp.Status < 300:
		return Outcome{Kind: OutcomeSuccess, Response: resp}
	case resp.Status == http.StatusTooManyRequests:
		return Outcome{
			Kind:       OutcomeRetryable,
			Response:   resp,
			RetryAfter: parseRetryAfter(resp.Headers.Get("Retry-After")),
		}
	case resp.Status >= 500:
		return Outcome{Kind: OutcomeRetryable, Response: resp}
	default:
		return Outcome{Kind: OutcomeFatal, Response: resp}
	}
}

// parseRetryAfter parses a Retry-After header in either delta-seconds or
// HTTP-date form. Unparseable or past values yield zero.
func parseRetryAfter(val string) time.Duration {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil && secs >= 0 {
		return time.Duration(math.Ceil(secs)) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
