package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"
)

// Credential is a bearer token obtained from the login exchange, together with
// its validity window. It is owned exclusively by the AuthManager and never
// handed to endpoint clients.
type Credential struct {
	Token      string
	ExpiresAt  time.Time
	ObtainedAt time.Time
}

// AuthManager acquires, caches, and refreshes the session's bearer credential.
// It is safe for use by any number of concurrent callers; at most one login
// exchange is in flight at a time, and callers arriving while one is in
// progress share its result rather than triggering their own.
type AuthManager struct {
	loginURL     string
	username     string
	password     string
	safetyMargin time.Duration
	httpClient   *http.Client
	logger       hclog.Logger
	now          func() time.Time

	mu    sync.Mutex
	cred  *Credential
	group singleflight.Group

	logins uint64 // guarded by mu; total completed login exchanges
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn,omitempty"`
}

func newAuthManager(cfg Config) *AuthManager {
	return &AuthManager{
		loginURL:     cfg.BaseURL + cfg.LoginPath,
		username:     cfg.Username,
		password:     cfg.Password,
		safetyMargin: cfg.SafetyMargin,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger.Named("auth"),
		now:          time.Now,
	}
}

// Token returns a bearer token that is valid for at least the configured
// safety margin, performing a login exchange if necessary. Concurrent callers
// without a cached credential block on a single shared exchange.
func (a *AuthManager) Token(ctx context.Context) (string, error) {
	if tok, ok := a.cachedToken(); ok {
		return tok, nil
	}

	// The singleflight slot is the "one in-flight login" guard: the first
	// caller runs the exchange, the rest wait on the same result, and the
	// slot clears when the exchange finishes, success or failure.
	ch := a.group.DoChan("login", func() (interface{}, error) {
		// Re-check under the slot: another caller may have refreshed the
		// credential between our cache miss and winning the slot.
		if tok, ok := a.cachedToken(); ok {
			return tok, nil
		}
		return a.login()
	})

	select {
	case <-ctx.Done():
		// The exchange keeps running for the callers still waiting on it;
		// this caller just stops waiting.
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate discards the cached credential so that the next Token call forces
// a fresh login exchange. The client calls this when a request that presented
// a token is rejected with an authentication error.
func (a *AuthManager) Invalidate() {
	a.mu.Lock()
	a.cred = nil
	a.mu.Unlock()
	a.logger.Debug("credential invalidated")
}

// Logins reports how many login exchanges have completed.
func (a *AuthManager) Logins() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logins
}

func (a *AuthManager) cachedToken() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cred == nil {
		return "", false
	}
	if !a.now().Before(a.cred.ExpiresAt.Add(-a.safetyMargin)) {
		return "", false
	}
	return a.cred.Token, true
}

func (a *AuthManager) login() (string, error) {
	a.logger.Debug("performing login exchange", "url", a.loginURL)

	data, err := json.Marshal(loginRequest{Username: a.username, Password: a.password})
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	req, err := http.NewRequest("POST", a.loginURL, bytes.NewReader(data))
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthenticationError{Status: resp.StatusCode, Body: bodySnippet(body)}
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", &AuthenticationError{Err: fmt.Errorf("malformed login response: %w", err)}
	}
	if lr.AccessToken == "" {
		return "", &AuthenticationError{Status: resp.StatusCode, Body: "login response contained no access token"}
	}

	lifetime := defaultTokenLifetime
	if lr.ExpiresIn > 0 {
		lifetime = time.Duration(lr.ExpiresIn) * time.Second
	}
	now := a.now()
	cred := &Credential{
		Token:      lr.AccessToken,
		ObtainedAt: now,
		ExpiresAt:  now.Add(lifetime),
	}

	a.mu.Lock()
	a.cred = cred
	a.logins++
	a.mu.Unlock()

	a.logger.Debug("login exchange succeeded", "expiresAt", cred.ExpiresAt)
	return cred.Token, nil
}
