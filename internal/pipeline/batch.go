package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/storeprofile/internal/model"
)

// Runner profiles one store. *Profiler implements it.
type Runner interface {
	Run(ctx context.Context, storeInput string) (*model.Run, error)
}

// BatchResult is the outcome of one store of a batch.
type BatchResult struct {
	// Store is the input as given by the user.
	Store string
	// Run is the run, including a failed one. Nil only when the batch was
	// cancelled before the store started.
	Run *model.Run
	// Err is the fatal error of the run.
	Err error
}

// BatchProcessor profiles several stores concurrently.
// A store that fails does not stop the others.
type BatchProcessor struct {
	runner Runner

	// concurrency is the maximum number of stores profiled at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(runner Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch profiles every store and returns one result per store, in
// input order. The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, stores []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(stores))
	err := bp.ProcessBatchWithCallback(ctx, stores, func(r BatchResult, i int) {
		results[i] = r
	})
	for i := range results {
		if results[i].Store == "" {
			results[i] = BatchResult{Store: stores[i], Err: ctx.Err()}
		}
	}
	return results, err
}

// ProcessBatchWithCallback profiles every store and calls callback as each
// run completes. The callback is called from the goroutine that ran the
// store, so it must be safe for concurrent use. Each index is reported once.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	stores []string,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_stores", len(stores),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, store := range stores {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("profiling store",
				"store", store,
				"index", i+1,
				"total", len(stores),
			)

			run, err := bp.runner.Run(ctx, store)
			if err != nil {
				bp.logger.Warn("profile failed", "store", store, "error", err)
			}
			callback(BatchResult{Store: store, Run: run, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_stores", len(stores),
		"elapsed", time.Since(startTime),
	)
	return err
}
