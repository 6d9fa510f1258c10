package apiclient

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	defaultRequestTimeout = time.Second * 30
	defaultSafetyMargin   = time.Second * 30
	defaultLoginPath      = "/auth/login"
	defaultTokenLifetime  = time.Hour
)

// Config is the resolved configuration for one client session. It is normally
// produced by the config package from a YAML file plus environment overrides;
// the client itself only ever sees the resolved values.
type Config struct {
	// BaseURL is the root of the target API, e.g. "https://emea.legito.com/api/v7".
	BaseURL string

	// LoginPath is the path of the login exchange endpoint, relative to BaseURL.
	LoginPath string

	// Username and Password are the credentials for the login exchange.
	Username string
	Password string

	// RequestTimeout bounds each individual attempt, not the whole operation.
	// Callers impose an overall ceiling through the context they pass in.
	RequestTimeout time.Duration

	// SafetyMargin is subtracted from a credential's expiry when deciding
	// whether it is still usable, so that a token never expires mid-request.
	SafetyMargin time.Duration

	// Retry is the default retry policy for all calls in the session.
	Retry RetryPolicy

	// Categories maps rate-limit category names to their bucket settings.
	// Categories not listed here get a permissive bucket.
	Categories map[string]CategoryConfig

	// HTTPClient, if set, replaces the default transport. Tests use this to
	// point the session at a local stub server.
	HTTPClient *http.Client

	// Logger receives debug output for every attempt. Defaults to a no-op
	// logger; the harness installs an adapter that captures output per test.
	Logger hclog.Logger
}

func (c Config) withDefaults() Config {
	if c.LoginPath == "" {
		c.LoginPath = defaultLoginPath
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.SafetyMargin <= 0 {
		c.SafetyMargin = defaultSafetyMargin
	}
	c.Retry = c.Retry.withDefaults()
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}
