package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/storeprofile/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the run accumulated by
// the previous steps.
type Step interface {
	// Do executes the step against run.
	// A hard step's error aborts the pipeline. A soft step's error only
	// empties the profile section the step owns.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name. Soft steps are named after the source
	// they populate, so the name is also the key of their SourceResult.
	Name() string
}

// entry is a registered step and its failure policy.
type entry struct {
	step Step
	soft bool
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []entry
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]entry, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a hard step. Its failure aborts the run.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, entry{step: step})
}

// AddSoftStep appends a soft step. Its failure, or panic, is recorded as
// a failed SourceResult and the run continues.
func (p *Pipeline) AddSoftStep(step Step) {
	p.steps = append(p.steps, entry{step: step, soft: true})
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, e := range p.steps {
		names[i] = e.step.Name()
	}
	return names
}

// Execute runs all steps in order.
//
// Context cancellation is checked before each step. The first hard step
// failure is returned unchanged, so callers can match *model.ScrapeError
// with errors.As. Soft failures never surface here; they are visible only
// through run.Sources() and the empty profile section.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	for _, e := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", e.step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		if g, ok := e.step.(*group); ok {
			if err := g.run(ctx, run, p.logger); err != nil {
				return err
			}
			continue
		}

		if e.soft {
			runSoft(ctx, e.step, run, p.logger)
			continue
		}

		p.logger.Info("executing step", "step", e.step.Name(), "store", run.StoreURL)
		if err := e.step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", e.step.Name(),
				"store", run.StoreURL,
				"error", err,
			)
			run.RecordSource(failed(e.step.Name(), err))
			return err
		}
		run.RecordSource(model.SourceResult{Source: e.step.Name(), OK: true})
	}
	return nil
}

// runSoft executes step inside a failure boundary.
func runSoft(ctx context.Context, step Step, run *model.Run, logger *slog.Logger) {
	name := step.Name()
	if run.Skipped(name) {
		logger.Debug("skipping source", "source", name, "store", run.StoreURL)
		run.RecordSource(model.SourceResult{Source: name, Skipped: true, Reason: "skipped by configuration"})
		return
	}

	logger.Info("executing step", "step", name, "store", run.StoreURL)
	if err := doRecover(ctx, step, run); err != nil {
		logger.Warn("source unavailable",
			"source", name,
			"store", run.StoreURL,
			"error", err,
		)
		run.RecordSource(failed(name, err))
		return
	}
	run.RecordSource(model.SourceResult{Source: name, OK: true})
}

// doRecover turns a panic in step into an error.
func doRecover(ctx context.Context, step Step, run *model.Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", step.Name(), r)
		}
	}()
	return step.Do(ctx, run)
}

func failed(source string, err error) model.SourceResult {
	return model.SourceResult{Source: source, Reason: reasonOf(err), Err: err}
}

// reasonOf returns a short user-facing reason for err.
func reasonOf(err error) string {
	var se *model.ScrapeError
	if errors.As(err, &se) && se.Reason != nil {
		if se.StatusCode != 0 {
			return fmt.Sprintf("%s (status %d)", se.Reason, se.StatusCode)
		}
		return se.Reason.Error()
	}
	return err.Error()
}

// group runs soft steps concurrently.
type group struct {
	name  string
	steps []Step
}

// Concurrent returns a step that runs the given soft steps concurrently.
// Each step writes only the profile section it owns, so the merged result
// does not depend on completion order. A failing member never cancels the
// others.
func Concurrent(name string, steps ...Step) Step {
	return &group{name: name, steps: steps}
}

// Name returns the group name.
func (g *group) Name() string {
	return g.name
}

// Do runs the group with the default logger.
func (g *group) Do(ctx context.Context, run *model.Run) error {
	return g.run(ctx, run, slog.Default())
}

func (g *group) run(ctx context.Context, run *model.Run, logger *slog.Logger) error {
	var eg errgroup.Group
	for _, step := range g.steps {
		eg.Go(func() error {
			runSoft(ctx, step, run, logger)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
