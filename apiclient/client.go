package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Client is the session-scoped request pipeline shared by every endpoint
// client and every load-test virtual user targeting one environment. It
// composes the AuthManager, RateLimiter, and RetryPolicy into a single path:
// build descriptor, acquire rate slot, acquire auth, send, classify, retry or
// return. Endpoint clients hold a *Client and add nothing but path and
// category declarations on top.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *AuthManager
	limiter    *RateLimiter
	retry      RetryPolicy
	timeout    time.Duration
	logger     hclog.Logger
	counters   statCounters
}

// NewClient creates a client session from a resolved configuration. The caller
// owns the session and shares it across workers; there are no module-level
// singletons.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		auth:       newAuthManager(cfg),
		limiter:    newRateLimiter(cfg.Categories, cfg.Logger),
		retry:      cfg.Retry,
		timeout:    cfg.RequestTimeout,
		logger:     cfg.Logger.Named("apiclient"),
	}
}

// Auth exposes the session's credential manager, mainly so tests can observe
// login counts and force invalidation.
func (c *Client) Auth() *AuthManager { return c.auth }

// Stats returns a snapshot of the session's request counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:    c.counters.requests.Load(),
		Attempts:    c.counters.attempts.Load(),
		Retries:     c.counters.retries.Load(),
		AuthRetries: c.counters.authRetries.Load(),
		Failures:    c.counters.failures.Load(),
		LoginCount:  c.auth.Logins(),
	}
}

// Get issues a GET request through the pipeline.
func (c *Client) Get(ctx context.Context, path string, opts RequestOpts) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request through the pipeline.
func (c *Client) Post(ctx context.Context, path string, opts RequestOpts) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request through the pipeline.
func (c *Client) Put(ctx context.Context, path string, opts RequestOpts) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, opts)
}

// Patch issues a PATCH request through the pipeline.
func (c *Client) Patch(ctx context.Context, path string, opts RequestOpts) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, opts)
}

// Delete issues a DELETE request through the pipeline.
func (c *Client) Delete(ctx context.Context, path string, opts RequestOpts) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, opts)
}

func (c *Client) do(ctx context.Context, method, path string, opts RequestOpts) (*Response, error) {
	desc, err := c.buildDescriptor(method, path, opts)
	if err != nil {
		return nil, err
	}

	policy := c.retry
	if opts.MaxAttempts.IsDefined() {
		policy.MaxAttempts = opts.MaxAttempts.IntValue()
	}

	logger := c.logger.With("requestId", desc.RequestID, "method", method,
		"path", path, "category", desc.Category)
	c.counters.requests.Add(1)

	var (
		attempt   int  // counted attempts, for the retry budget
		reauthed  bool // whether the single post-401 re-login has been spent
		lastState Outcome
	)

	for {
		// Each attempt consumes a fresh rate token: a retry is real load on
		// the upstream service.
		if err := c.limiter.Acquire(ctx, desc.Category); err != nil {
			c.counters.failures.Add(1)
			return nil, err
		}

		token, err := c.auth.Token(ctx)
		if err != nil {
			c.counters.failures.Add(1)
			return nil, c.asAuthError(err)
		}

		attempt++
		c.counters.attempts.Add(1)
		resp, outcome := c.send(ctx, desc, token)

		if resp != nil && resp.Status == http.StatusUnauthorized {
			if !reauthed {
				// One forced re-login per request, and the immediate re-send
				// does not count against the retry budget.
				reauthed = true
				attempt--
				c.counters.authRetries.Add(1)
				c.auth.Invalidate()
				logger.Debug("got 401, invalidating credential and retrying once")
				continue
			}
			c.counters.failures.Add(1)
			return nil, &AuthenticationError{Status: resp.Status, Body: bodySnippet(resp.Body)}
		}

		switch outcome.Kind {
		case OutcomeSuccess:
			logger.Debug("request succeeded", "status", resp.Status, "attempt", attempt)
			return resp, nil

		case OutcomeFatal:
			c.counters.failures.Add(1)
			return nil, &FatalRequestError{
				Method:   method,
				Path:     path,
				Status:   resp.Status,
				Body:     bodySnippet(resp.Body),
				Category: desc.Category,
			}
		}

		lastState = outcome
		retry, delay := policy.Decide(attempt, desc, outcome)
		if !retry {
			c.counters.failures.Add(1)
			return nil, &RetryExhaustedError{
				Method:   method,
				Path:     path,
				Category: desc.Category,
				Attempts: attempt,
				Last:     lastState,
			}
		}

		c.counters.retries.Add(1)
		logger.Debug("retrying after failure", "attempt", attempt,
			"delay", delay, "reason", outcome.describe())
		if err := sleepCtx(ctx, delay); err != nil {
			c.counters.failures.Add(1)
			return nil, err
		}
	}
}

func (c *Client) buildDescriptor(method, path string, opts RequestOpts) (*RequestDescriptor, error) {
	var body []byte
	if opts.Data != nil {
		data, err := json.Marshal(opts.Data)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body for %s %s: %w", method, path, err)
		}
		body = data
	}
	return &RequestDescriptor{
		Method:     method,
		Path:       path,
		Params:     opts.Params,
		Body:       body,
		Category:   opts.Category,
		Idempotent: opts.Idempotent,
		RequestID:  uuid.NewString(),
	}, nil
}

// send performs one HTTP attempt and classifies its result. The returned
// Response is nil for network-level failures.
func (c *Client) send(ctx context.Context, desc *RequestDescriptor, token string) (*Response, Outcome) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestURL := c.baseURL + desc.Path
	if len(desc.Params) > 0 {
		requestURL += "?" + desc.Params.Encode()
	}

	var bodyReader io.Reader
	if desc.Body != nil {
		bodyReader = bytes.NewReader(desc.Body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, desc.Method, requestURL, bodyReader)
	if err != nil {
		return nil, classify(nil, err, true)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", desc.RequestID)
	if desc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		// The request never produced a response, so it cannot have reached
		// the server's mutation logic.
		return nil, classify(nil, err, true)
	}
	body, err := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if err != nil {
		// A response arrived but could not be read in full; the server may
		// well have processed the request.
		return nil, classify(nil, err, false)
	}

	resp := &Response{
		Status:  httpResp.StatusCode,
		Headers: httpResp.Header,
		Body:    body,
	}
	return resp, classify(resp, nil, false)
}

func (c *Client) asAuthError(err error) error {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &AuthenticationError{Err: err}
}
