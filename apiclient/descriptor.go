package apiclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// RequestOpts is the per-call configuration bag accepted by the verb methods of
// Client. Endpoint clients fill this in declaratively; tests normally never
// construct one directly.
type RequestOpts struct {
	// Data, if non-nil, is marshaled to JSON and sent as the request body.
	Data interface{}

	// Params are appended to the request URL as query parameters.
	Params url.Values

	// Category selects the rate-limit bucket for this call. An empty or
	// unconfigured category falls back to a permissive bucket.
	Category string

	// Idempotent declares whether the operation is safe to repeat. It gates
	// which failures the retry policy will retry.
	Idempotent bool

	// MaxAttempts overrides the session's retry ceiling for this call, when set.
	MaxAttempts ldvalue.OptionalInt
}

// RequestDescriptor is the immutable description of one logical request,
// constructed once per call and shared by all of its attempts.
type RequestDescriptor struct {
	Method     string
	Path       string
	Params     url.Values
	Body       []byte
	Category   string
	Idempotent bool
	RequestID  string
}

// Response is the raw result of a request. The harness deliberately does not
// interpret it beyond status classification; asserting on status codes and
// body shapes is the job of the individual tests.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// OutcomeKind tags an Outcome as success, retryable failure, or fatal failure.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeFatal
)

// Outcome is the classified result of a single attempt. It drives the retry
// policy's next decision.
type Outcome struct {
	Kind     OutcomeKind
	Response *Response
	Err      error

	// RetryAfter is the server-requested delay from a Retry-After header,
	// or zero if none was present.
	RetryAfter time.Duration

	// ConnectionFailed is true when the attempt produced no server response
	// at all, meaning the request cannot have reached the server's mutation
	// logic.
	ConnectionFailed bool
}

func (o Outcome) describe() string {
	switch {
	case o.Response != nil:
		return fmt.Sprintf("status %d: %s", o.Response.Status, bodySnippet(o.Response.Body))
	case o.Err != nil:
		return o.Err.Error()
	default:
		return "no outcome recorded"
	}
}
