// Package loadtest drives sustained concurrent load through a shared client
// session. Each virtual user loops over the scenario's operations; the shared
// session's rate limiter is what keeps aggregate throughput inside the target
// API's limits, so the runner itself applies no pacing of its own.
package loadtest

import (
	"context"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Operation is one named unit of work a virtual user can perform. Run should
// return nil when the API call succeeded; terminal client errors are recorded
// against the operation, not propagated.
type Operation struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scenario describes one load run.
type Scenario struct {
	// Name labels the run in logs and the report.
	Name string `json:"name"`

	// Users is the number of concurrent virtual users.
	Users int `json:"users"`

	// Duration bounds the run in wall-clock time. Zero means the run is
	// bounded only by MaxIterations.
	Duration time.Duration `json:"-"`

	// MaxIterations, when set, stops each user after that many operations
	// even if Duration has not elapsed.
	MaxIterations ldvalue.OptionalInt `json:"maxIterations,omitempty"`
}

func (s Scenario) withDefaults() Scenario {
	if s.Name == "" {
		s.Name = "load"
	}
	if s.Users <= 0 {
		s.Users = 1
	}
	if s.Duration <= 0 && !s.MaxIterations.IsDefined() {
		s.Duration = time.Minute
	}
	return s
}
