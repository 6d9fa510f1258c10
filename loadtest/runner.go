package loadtest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// Runner executes one scenario. All virtual users share whatever session the
// operations close over; the runner only schedules them and records timings.
type Runner struct {
	scenario Scenario
	ops      []Operation
	logger   hclog.Logger
}

func NewRunner(scenario Scenario, ops []Operation, logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{
		scenario: scenario.withDefaults(),
		ops:      ops,
		logger:   logger.Named("loadtest"),
	}
}

// Run starts the virtual users and blocks until the scenario completes or the
// context is cancelled. Operation-level errors are recorded in the report, not
// returned; the returned error is non-nil only when the run itself could not
// proceed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if len(r.ops) == 0 {
		return nil, errors.New("loadtest: scenario has no operations")
	}

	runID := uuid.NewString()
	recorder := NewRecorder()

	runCtx := ctx
	var cancel context.CancelFunc
	if r.scenario.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.scenario.Duration)
		defer cancel()
	}

	r.logger.Info("starting load run", "runId", runID, "scenario", r.scenario.Name,
		"users", r.scenario.Users, "duration", r.scenario.Duration)
	start := time.Now()

	group, groupCtx := errgroup.WithContext(runCtx)
	for u := 0; u < r.scenario.Users; u++ {
		user := u
		group.Go(func() error {
			r.runUser(groupCtx, user, recorder)
			return nil
		})
	}
	_ = group.Wait()

	elapsed := time.Since(start)
	report := recorder.Summarize(runID, r.scenario.Name, r.scenario.Users, elapsed)
	r.logger.Info("load run finished", "runId", runID, "elapsed", elapsed)

	// A cancellation from outside (not the scenario's own duration) is the
	// caller's signal to abort.
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

func (r *Runner) runUser(ctx context.Context, user int, recorder *Recorder) {
	iterations := 0
	for {
		if ctx.Err() != nil {
			return
		}
		if r.scenario.MaxIterations.IsDefined() && iterations >= r.scenario.MaxIterations.IntValue() {
			return
		}

		op := r.ops[iterations%len(r.ops)]
		start := time.Now()
		err := op.Run(ctx)
		elapsed := time.Since(start)

		// A call cut short by the run ending is not an API failure; drop it.
		if ctx.Err() != nil && err != nil {
			return
		}
		recorder.Record(op.Name, elapsed, err)
		if err != nil {
			r.logger.Debug("operation failed", "user", user, "operation", op.Name, "error", err)
		}
		iterations++
	}
}
