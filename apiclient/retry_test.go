package apiclient

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idempotentDescriptor() *RequestDescriptor {
	return &RequestDescriptor{Method: "GET", Path: "/document-records/1", Idempotent: true}
}

func nonIdempotentDescriptor() *RequestDescriptor {
	return &RequestDescriptor{Method: "POST", Path: "/document-records", Idempotent: false}
}

func TestRetryPolicyDecisions(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Jitter: -1}.withDefaults()

	retryable := Outcome{Kind: OutcomeRetryable, Response: &Response{Status: 503}}
	connFailure := Outcome{Kind: OutcomeRetryable, Err: &TransportError{Err: errors.New("refused"), ConnectionFailed: true}, ConnectionFailed: true}

	t.Run("success is never retried", func(t *testing.T) {
		retry, _ := policy.Decide(1, idempotentDescriptor(), Outcome{Kind: OutcomeSuccess})
		assert.False(t, retry)
	})

	t.Run("fatal failure is never retried", func(t *testing.T) {
		retry, _ := policy.Decide(1, idempotentDescriptor(), Outcome{Kind: OutcomeFatal, Response: &Response{Status: 404}})
		assert.False(t, retry)
	})

	t.Run("idempotent 5xx is retried until the cap", func(t *testing.T) {
		retry, _ := policy.Decide(1, idempotentDescriptor(), retryable)
		assert.True(t, retry)
		retry, _ = policy.Decide(2, idempotentDescriptor(), retryable)
		assert.True(t, retry)
		retry, _ = policy.Decide(3, idempotentDescriptor(), retryable)
		assert.False(t, retry, "third attempt exhausts the default budget of 3")
	})

	t.Run("non-idempotent with a server response is not retried", func(t *testing.T) {
		retry, _ := policy.Decide(1, nonIdempotentDescriptor(), retryable)
		assert.False(t, retry)
	})

	t.Run("non-idempotent connection failure is retried", func(t *testing.T) {
		retry, _ := policy.Decide(1, nonIdempotentDescriptor(), connFailure)
		assert.True(t, retry)
	})

	t.Run("non-idempotent 429 is retried", func(t *testing.T) {
		// A rate-limited request never reached the mutation logic, so even a
		// create is safe to repeat.
		outcome := Outcome{Kind: OutcomeRetryable, Response: &Response{Status: 429}, RetryAfter: 2 * time.Second}
		retry, delay := policy.Decide(1, nonIdempotentDescriptor(), outcome)
		assert.True(t, retry)
		assert.Equal(t, 2*time.Second, delay)
	})

	t.Run("non-idempotent 429 without Retry-After uses backoff", func(t *testing.T) {
		outcome := Outcome{Kind: OutcomeRetryable, Response: &Response{Status: 429}}
		retry, delay := policy.Decide(1, nonIdempotentDescriptor(), outcome)
		assert.True(t, retry)
		assert.Equal(t, 10*time.Millisecond, delay)
	})

	t.Run("Retry-After overrides computed backoff", func(t *testing.T) {
		outcome := Outcome{Kind: OutcomeRetryable, Response: &Response{Status: 429}, RetryAfter: 2 * time.Second}
		retry, delay := policy.Decide(1, idempotentDescriptor(), outcome)
		assert.True(t, retry)
		assert.Equal(t, 2*time.Second, delay)
	})
}

func TestRetryPolicyBackoffGrowth(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: -1}

	d1 := policy.backoffDelay(1)
	d2 := policy.backoffDelay(2)
	d3 := policy.backoffDelay(3)
	assert.Equal(t, 100*time.Millisecond, d1)
	assert.Equal(t, 200*time.Millisecond, d2)
	assert.Equal(t, 400*time.Millisecond, d3)
	assert.Greater(t, d2, d1)
	assert.Greater(t, d3, d2)

	// Far enough out, the cap takes over.
	assert.Equal(t, time.Second, policy.backoffDelay(10))
}

func TestRetryPolicyBackoffJitterBounds(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Minute, Jitter: 0.5}

	for i := 0; i < 50; i++ {
		d := policy.backoffDelay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond, "jittered delay below half the nominal 200ms")
		assert.LessOrEqual(t, d, 300*time.Millisecond, "jittered delay above 1.5x the nominal 200ms")
	}
}

func TestClassify(t *testing.T) {
	t.Run("2xx is success", func(t *testing.T) {
		outcome := classify(&Response{Status: 201}, nil, false)
		assert.Equal(t, OutcomeSuccess, outcome.Kind)
	})

	t.Run("429 is retryable with Retry-After", func(t *testing.T) {
		resp := &Response{Status: 429, Headers: http.Header{"Retry-After": []string{"2"}}}
		outcome := classify(resp, nil, false)
		assert.Equal(t, OutcomeRetryable, outcome.Kind)
		assert.Equal(t, 2*time.Second, outcome.RetryAfter)
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		outcome := classify(&Response{Status: 503, Headers: http.Header{}}, nil, false)
		assert.Equal(t, OutcomeRetryable, outcome.Kind)
		assert.Zero(t, outcome.RetryAfter)
	})

	t.Run("other 4xx is fatal", func(t *testing.T) {
		for _, status := range []int{400, 403, 404, 409, 422} {
			outcome := classify(&Response{Status: status}, nil, false)
			assert.Equal(t, OutcomeFatal, outcome.Kind, "status %d", status)
		}
	})

	t.Run("send failure is a connection-level transport error", func(t *testing.T) {
		outcome := classify(nil, errors.New("connection refused"), true)
		assert.Equal(t, OutcomeRetryable, outcome.Kind)
		assert.True(t, outcome.ConnectionFailed)
		var transportErr *TransportError
		require.ErrorAs(t, outcome.Err, &transportErr)
		assert.True(t, transportErr.ConnectionFailed)
	})

	t.Run("body read failure is transport but not connection-level", func(t *testing.T) {
		outcome := classify(nil, errors.New("unexpected EOF"), false)
		assert.Equal(t, OutcomeRetryable, outcome.Kind)
		assert.False(t, outcome.ConnectionFailed)
	})
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, 3*time.Second, parseRetryAfter("2.5"), "fractional seconds round up")
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("not-a-delay"))

	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 8*time.Second)
	assert.LessOrEqual(t, d, 10*time.Second)

	past := time.Now().Add(-10 * time.Second).UTC().Format(http.TimeFormat)
	assert.Zero(t, parseRetryAfter(past))
}
