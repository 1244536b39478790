package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/actions"
	"github.com/ternarybob/blogadmin/internal/report"
)

// StepError identifies the step that stopped a run.
type StepError struct {
	Index  int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepResult records one executed step.
type StepResult struct {
	Index    int
	Action   string
	Duration time.Duration
	Err      error
}

// Result is the outcome of one scenario run. Err is nil when every step passed.
type Result struct {
	Scenario  string
	RunID     string
	Steps     []StepResult
	Duration  time.Duration
	Err       error
	Artifacts *report.Artifacts
}

// Passed reports whether every step succeeded.
func (r *Result) Passed() bool {
	return r.Err == nil
}

// Runner executes scenarios in order against one BlogAdmin.
type Runner struct {
	blog    *actions.BlogAdmin
	reports *report.Writer
	logger  arbor.ILogger
}

// NewRunner creates a runner. reports may be nil to skip failure artifacts.
func NewRunner(blog *actions.BlogAdmin, reports *report.Writer, logger arbor.ILogger) *Runner {
	return &Runner{
		blog:    blog,
		reports: reports,
		logger:  logger,
	}
}

// Run executes the steps of sc in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Result {
	runID := uuid.New().String()
	logger := r.logger.WithCorrelationId(runID)
	result := &Result{Scenario: sc.Name, RunID: runID}
	start := time.Now()

	// Scenarios built in code skip Parse
	if err := sc.Validate(); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		logger.Error().Err(err).Str("scenario", sc.Name).Msg("Scenario rejected")
		return result
	}

	logger.Info().
		Str("scenario", sc.Name).
		Int("steps", len(sc.Steps)).
		Msg("Scenario started")

	for i, step := range sc.Steps {
		stepStart := time.Now()
		var err error
		if def, ok := steps[step.Action]; ok {
			err = def.run(ctx, r.blog, step.Args)
		} else {
			err = fmt.Errorf("unknown action %q", step.Action)
		}
		result.Steps = append(result.Steps, StepResult{
			Index:    i,
			Action:   step.Action,
			Duration: time.Since(stepStart),
			Err:      err,
		})

		if err != nil {
			result.Err = &StepError{Index: i, Action: step.Action, Err: err}
			logger.Error().
				Err(err).
				Str("scenario", sc.Name).
				Int("step", i+1).
				Str("action", step.Action).
				Bool("assertion", actions.IsAssertion(err)).
				Msg("Scenario step failed")
			break
		}

		logger.Debug().
			Int("step", i+1).
			Str("action", step.Action).
			Dur("duration", time.Since(stepStart)).
			Msg("Scenario step passed")
	}

	result.Duration = time.Since(start)

	if result.Err != nil {
		r.saveArtifacts(ctx, sc, result, logger)
		return result
	}

	logger.Info().
		Str("scenario", sc.Name).
		Dur("duration", result.Duration).
		Msg("Scenario passed")
	return result
}

// RunAll runs every scenario, continuing past failures, and returns the
// results with a joined error for the failed ones.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	var errs []error
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result := r.Run(ctx, sc)
		results = append(results, result)
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("scenario %q: %w", sc.Name, result.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) saveArtifacts(ctx context.Context, sc *Scenario, result *Result, logger arbor.ILogger) {
	if r.reports == nil {
		return
	}
	// Capture even when the run context was canceled
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	name := sc.Name + "-" + result.RunID[:8]
	artifacts, err := r.reports.Save(captureCtx, r.blog.Page(), name)
	if err != nil {
		logger.Warn().Err(err).Str("scenario", sc.Name).Msg("Failed to save some failure artifacts")
	}
	result.Artifacts = artifacts
}
