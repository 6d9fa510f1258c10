package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
baseUrl: https://workspace.example.com/api/v7
loginPath: /auth/login
username: harness
password: secret
requestTimeoutMs: 15000
safetyMarginSec: 60
retry:
  maxAttempts: 4
  baseDelayMs: 250
  maxDelayMs: 10000
categories:
  document-records:
    capacity: 10
    refillPerSecond: 5
  reference-data:
    capacity: 50
    refillPerSecond: 25
`

func TestParseResolvesFullConfig(t *testing.T) {
	cfg, err := Parse([]byte(validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://workspace.example.com/api/v7", cfg.BaseURL)
	assert.Equal(t, "/auth/login", cfg.LoginPath)
	assert.Equal(t, "harness", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.SafetyMargin)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)

	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, 10, cfg.Categories["document-records"].Capacity)
	assert.Equal(t, 5.0, cfg.Categories["document-records"].RefillPerSecond)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "harness", cfg.Username)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("baseUrl: [unclosed"))
	assert.Error(t, err)
}

func TestEnvironmentOverridesFileValues(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://other.example.com")
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvPassword, "env-pass")

	cfg, err := Parse([]byte(validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", cfg.BaseURL)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-pass", cfg.Password)
}

func TestEnvironmentCanSupplyCredentialsAlone(t *testing.T) {
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvPassword, "env-pass")

	// The file carries no credentials at all; the environment fills them in.
	cfg, err := Parse([]byte("baseUrl: https://workspace.example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-pass", cfg.Password)
}

func TestValidationFailures(t *testing.T) {
	for name, yaml := range map[string]string{
		"missing baseUrl":  "username: u\npassword: p\n",
		"baseUrl not URL":  "baseUrl: not a url\nusername: u\npassword: p\n",
		"missing username": "baseUrl: https://x.example.com\npassword: p\n",
		"missing password": "baseUrl: https://x.example.com\nusername: u\n",
		"zero capacity": `
baseUrl: https://x.example.com
username: u
password: p
categories:
  document-records:
    capacity: 0
    refillPerSecond: 1
`,
		"zero refill": `
baseUrl: https://x.example.com
username: u
password: p
categories:
  document-records:
    capacity: 1
    refillPerSecond: 0
`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yaml))
			assert.Error(t, err)
		})
	}
}
