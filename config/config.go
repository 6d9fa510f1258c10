// Package config resolves the harness configuration from a YAML file plus
// environment overrides. The client core never reads files or environment
// variables itself; it only consumes the resolved apiclient.Config produced
// here.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
)

// Environment variables that override the corresponding file values, so
// credentials never have to live in a checked-in config file.
const (
	EnvBaseURL  = "LEGITO_BASE_URL"
	EnvUsername = "LEGITO_USERNAME"
	EnvPassword = "LEGITO_PASSWORD"
)

// File is the on-disk configuration shape.
type File struct {
	BaseURL          string                    `yaml:"baseUrl"`
	LoginPath        string                    `yaml:"loginPath"`
	Username         string                    `yaml:"username"`
	Password         string                    `yaml:"password"`
	RequestTimeoutMS int                       `yaml:"requestTimeoutMs"`
	SafetyMarginSec  int                       `yaml:"safetyMarginSec"`
	Retry            RetrySettings             `yaml:"retry"`
	Categories       map[string]CategoryLimits `yaml:"categories"`
}

type RetrySettings struct {
	MaxAttempts int `yaml:"maxAttempts"`
	BaseDelayMS int `yaml:"baseDelayMs"`
	MaxDelayMS  int `yaml:"maxDelayMs"`
}

type CategoryLimits struct {
	Capacity        int     `yaml:"capacity"`
	RefillPerSecond float64 `yaml:"refillPerSecond"`
}

func (f File) Validate() error {
	if err := validation.ValidateStruct(&f,
		validation.Field(&f.BaseURL, validation.Required, is.URL),
		validation.Field(&f.Username, validation.Required),
		validation.Field(&f.Password, validation.Required),
		validation.Field(&f.RequestTimeoutMS, validation.Min(0)),
		validation.Field(&f.Retry),
	); err != nil {
		return err
	}
	for name, limits := range f.Categories {
		if err := validation.ValidateStruct(&limits,
			validation.Field(&limits.Capacity, validation.Required, validation.Min(1)),
			validation.Field(&limits.RefillPerSecond, validation.Required, validation.Min(0.000001)),
		); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
	}
	return nil
}

func (r RetrySettings) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Min(0)),
		validation.Field(&r.BaseDelayMS, validation.Min(0)),
		validation.Field(&r.MaxDelayMS, validation.Min(0)),
	)
}

// Load reads the file at path, applies environment overrides, validates the
// result, and resolves it into an apiclient.Config.
func Load(path string) (apiclient.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apiclient.Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse resolves configuration from raw YAML, applying the same environment
// overrides and validation as Load.
func Parse(data []byte) (apiclient.Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return apiclient.Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		f.BaseURL = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		f.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		f.Password = v
	}

	if err := f.Validate(); err != nil {
		return apiclient.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return f.resolve(), nil
}

func (f File) resolve() apiclient.Config {
	cfg := apiclient.Config{
		BaseURL:        f.BaseURL,
		LoginPath:      f.LoginPath,
		Username:       f.Username,
		Password:       f.Password,
		RequestTimeout: time.Duration(f.RequestTimeoutMS) * time.Millisecond,
		SafetyMargin:   time.Duration(f.SafetyMarginSec) * time.Second,
		Retry: apiclient.RetryPolicy{
			MaxAttempts: f.Retry.MaxAttempts,
			BaseDelay:   time.Duration(f.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:    time.Duration(f.Retry.MaxDelayMS) * time.Millisecond,
		},
	}
	if len(f.Categories) > 0 {
		cfg.Categories = make(map[string]apiclient.CategoryConfig, len(f.Categories))
		for name, limits := range f.Categories {
			cfg.Categories[name] = apiclient.CategoryConfig{
				Capacity:        limits.Capacity,
				RefillPerSecond: limits.RefillPerSecond,
			}
		}
	}
	return cfg
}
