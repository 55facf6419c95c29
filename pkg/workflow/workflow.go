package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step is a single unit of a compensable workflow. Forward performs the
// step's effect and returns the result passed to the next step, plus an
// opaque undo value handed back to Inverse if a later step fails. A nil
// Inverse means the step has no compensating action.
type Step struct {
	Name    string
	Forward func(ctx context.Context, input any) (result any, undo any, err error)
	Inverse func(ctx context.Context, undo any) error
}

// CompensatedError reports a workflow failure after compensation has run.
// Unwrap returns the original step error, so errors.Is and errors.As see
// through to the cause regardless of how compensation went.
type CompensatedError struct {
	Workflow   string
	FailedStep string
	Err        error
	// InverseErrs holds failures from compensating actions, in the order
	// they were attempted (reverse of execution order). Empty when every
	// inverse succeeded.
	InverseErrs []error
}

func (e *CompensatedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow %s failed at step %s: %v", e.Workflow, e.FailedStep, e.Err)
	if len(e.InverseErrs) > 0 {
		fmt.Fprintf(&b, " (%d compensation errors)", len(e.InverseErrs))
	}
	return b.String()
}

func (e *CompensatedError) Unwrap() error {
	return e.Err
}

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_runs_total",
			Help: "Total number of workflow executions by outcome",
		},
		[]string{"workflow", "outcome"},
	)

	stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_step_duration_seconds",
			Help:    "Duration of workflow step execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"workflow", "step"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_compensations_total",
			Help: "Total number of compensating actions executed by outcome",
		},
		[]string{"workflow", "step", "outcome"},
	)
)

// Runner executes compensable workflows.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a workflow runner.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// committed records a successfully executed step together with its undo value.
type committed struct {
	step Step
	undo any
}

// Run executes the steps in order, threading each step's result into the next
// step's input. The first step receives the given input; the final step's
// result is returned.
//
// If a step fails, the inverses of all previously committed steps run in
// reverse order. Compensation is best effort: an inverse failure is logged
// and recorded, but the remaining inverses still run. The returned error is
// always a *CompensatedError wrapping the original step error.
//
// An empty step list succeeds trivially and returns the input unchanged.
func (r *Runner) Run(ctx context.Context, name string, steps []Step, input any) (any, error) {
	done := make([]committed, 0, len(steps))
	current := input

	for _, step := range steps {
		start := time.Now()
		result, undo, err := step.Forward(ctx, current)
		stepDuration.WithLabelValues(name, step.Name).Observe(time.Since(start).Seconds())

		if err != nil {
			r.logger.ErrorContext(ctx, "workflow step failed",
				slog.String("workflow", name),
				slog.String("step", step.Name),
				slog.Int("committed_steps", len(done)),
				slog.String("error", err.Error()),
			)
			inverseErrs := r.compensate(ctx, name, done)
			runsTotal.WithLabelValues(name, "failed").Inc()
			return nil, &CompensatedError{
				Workflow:    name,
				FailedStep:  step.Name,
				Err:         err,
				InverseErrs: inverseErrs,
			}
		}

		done = append(done, committed{step: step, undo: undo})
		current = result
	}

	runsTotal.WithLabelValues(name, "succeeded").Inc()
	return current, nil
}

// compensate runs the inverses of committed steps in reverse order. The
// original failure context may already be canceled, so inverses run against
// a detached context to make rollback as reliable as the forward path allows.
func (r *Runner) compensate(ctx context.Context, name string, done []committed) []error {
	var errs []error

	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		if c.step.Inverse == nil {
			continue
		}

		inverseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		err := c.step.Inverse(inverseCtx, c.undo)
		cancel()

		if err != nil {
			compensationsTotal.WithLabelValues(name, c.step.Name, "failed").Inc()
			r.logger.ErrorContext(ctx, "compensating action failed",
				slog.String("workflow", name),
				slog.String("step", c.step.Name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("inverse %s: %w", c.step.Name, err))
			continue
		}

		compensationsTotal.WithLabelValues(name, c.step.Name, "succeeded").Inc()
		r.logger.InfoContext(ctx, "compensating action completed",
			slog.String("workflow", name),
			slog.String("step", c.step.Name),
		)
	}

	return errs
}
