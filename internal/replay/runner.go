package replay

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
)

// ErrExpectationsFailed is returned by Report.Err when any step missed its
// expectations.
var ErrExpectationsFailed = errors.New("replay expectations failed")

// StepResult records the outcome of one step.
type StepResult struct {
	Number int
	Step   Step
	// Row is the row inserted or deleted, if any.
	Row *table.Row
	Err error
	// Rows is the table after the step.
	Rows    []table.Row
	CanUndo bool
	CanRedo bool
	// Failure explains a missed expectation; empty when the step passed.
	Failure string
}

// Passed reports whether the step met its expectations.
func (r StepResult) Passed() bool {
	return r.Failure == ""
}

// Report is the outcome of a whole script.
type Report struct {
	Policy  history.Policy
	Initial []table.Row
	Steps   []StepResult
}

// Failed counts steps that missed their expectations.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Passed() {
			n++
		}
	}
	return n
}

// Err returns ErrExpectationsFailed wrapped with the failure count, or nil.
func (r Report) Err() error {
	if n := r.Failed(); n > 0 {
		return fmt.Errorf("%w: %d of %d steps", ErrExpectationsFailed, n, len(r.Steps))
	}
	return nil
}

// Runner executes scripts.
type Runner struct {
	tracer trace.Tracer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTracer records a span per history transition.
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every step in order. A step that misses its expectations is
// recorded and the run continues; the returned error is only set when ctx
// is cancelled.
func (r *Runner) Run(ctx context.Context, s Script) (Report, error) {
	policy, err := history.ParsePolicy(s.Policy)
	if err != nil {
		return Report{}, err
	}

	initial := s.initialRows()
	tbl := table.New(initial...)
	opts := []history.Option{
		history.WithPolicy(policy),
		history.WithContentPrefix(s.prefix()),
	}
	if r.tracer != nil {
		opts = append(opts, history.WithTracer(r.tracer))
	}
	mgr := history.NewManager(tbl, s.idSource(initial), opts...)

	report := Report{Policy: policy, Initial: slices.Clone(initial)}
	log.Info(log.CatReplay, "Replay started", "policy", policy, "rows", len(initial), "steps", len(s.Steps))

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := StepResult{Number: i + 1, Step: step}
		res.Row, res.Err = apply(ctx, mgr, tbl, step, s.prefix())
		res.Rows = tbl.Rows()
		res.CanUndo = mgr.CanUndo()
		res.CanRedo = mgr.CanRedo()
		res.Failure = check(step, res)
		if !res.Passed() {
			log.Warn(log.CatReplay, "Step failed", "step", res.Number, "op", step.Op, "reason", res.Failure)
		} else {
			log.Debug(log.CatReplay, "Step passed", "step", res.Number, "op", step.Op)
		}
		report.Steps = append(report.Steps, res)
	}

	log.Info(log.CatReplay, "Replay finished", "steps", len(report.Steps), "failed", report.Failed())
	return report, nil
}

// apply performs one step. External ops bypass the manager.
func apply(ctx context.Context, mgr *history.Manager, tbl *table.Table, step Step, prefix string) (*table.Row, error) {
	switch step.Op {
	case OpInsert:
		row, err := mgr.Insert(ctx)
		return rowOrNil(row, err)
	case OpDelete:
		row, err := mgr.Delete(ctx, *step.Index)
		return rowOrNil(row, err)
	case OpUndo:
		return nil, mgr.Undo(ctx)
	case OpRedo:
		return nil, mgr.Redo(ctx)
	case OpExternalDelete:
		row, err := tbl.RemoveAt(*step.Index)
		return rowOrNil(row, err)
	case OpExternalInsert:
		row := table.NewRow(*step.ID, prefix)
		tbl.Append(row)
		return &row, nil
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func rowOrNil(row table.Row, err error) (*table.Row, error) {
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// check compares a step's outcome with its expectations.
func check(step Step, res StepResult) string {
	if step.ExpectError == "" {
		if res.Err != nil {
			return fmt.Sprintf("unexpected error: %v", res.Err)
		}
	} else {
		want := expectedErrors[step.ExpectError]
		switch {
		case res.Err == nil:
			return fmt.Sprintf("expected %s, got success", step.ExpectError)
		case !errors.Is(res.Err, want):
			return fmt.Sprintf("expected %s, got %v", step.ExpectError, res.Err)
		}
	}
	if step.ExpectRows != nil && !sameIDs(res.Rows, step.ExpectRows) {
		return fmt.Sprintf("expected rows %v, got %v", step.ExpectRows, idsOf(res.Rows))
	}
	return ""
}
