package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/abogus/internal/model"
)

// DefaultConcurrency is the number of targets signed at once when no
// concurrency is configured.
const DefaultConcurrency = 4

// BatchSigner signs multiple targets concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchSigner struct {
	// pipelineFactory creates a new pipeline for each target.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of targets in flight.
	concurrency int

	// userAgent and engine are copied into every new result.
	userAgent string
	engine    string

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchSigner.
type BatchOption func(*BatchSigner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchSigner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of targets signed at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchSigner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchUserAgent sets the user agent recorded in every result.
// An empty value lets the sign step fill in the signer's default.
func WithBatchUserAgent(ua string) BatchOption {
	return func(b *BatchSigner) {
		b.userAgent = ua
	}
}

// WithBatchEngine sets the engine name recorded in every result.
func WithBatchEngine(engine string) BatchOption {
	return func(b *BatchSigner) {
		b.engine = engine
	}
}

// NewBatchSigner creates a new BatchSigner. pipelineFactory is called once
// per target.
func NewBatchSigner(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchSigner {
	bs := &BatchSigner{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bs)
	}

	if bs.logger == nil {
		bs.logger = slog.Default()
	}

	return bs
}

// Concurrency returns the configured concurrency limit.
func (bs *BatchSigner) Concurrency() int {
	return bs.concurrency
}

// SignBatch signs every target and returns one result per target in input
// order. Per-target failures are recorded in the results. When ctx is
// cancelled no further targets are started; targets that never ran get a
// result carrying the cancellation error, and the context error is returned.
func (bs *BatchSigner) SignBatch(ctx context.Context, targets []string) ([]*model.SignResult, error) {
	results := make([]*model.SignResult, len(targets))
	var mu sync.Mutex

	err := bs.run(ctx, targets, func(result *model.SignResult, index int) {
		mu.Lock()
		results[index] = result
		mu.Unlock()
	})

	for i, r := range results {
		if r == nil {
			r = bs.newResult(targets[i])
			if cerr := ctx.Err(); cerr != nil {
				r.SetError(cerr)
			} else {
				r.SetError(context.Canceled)
			}
			results[i] = r
		}
	}
	return results, err
}

// SignBatchWithCallback signs every target and calls callback as each one
// completes. Callbacks may run concurrently from different goroutines.
func (bs *BatchSigner) SignBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(result *model.SignResult, index int),
) error {
	return bs.run(ctx, targets, callback)
}

func (bs *BatchSigner) run(
	ctx context.Context,
	targets []string,
	callback func(result *model.SignResult, index int),
) error {
	bs.logger.Info("starting batch signing",
		"total_targets", len(targets),
		"concurrency", bs.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.concurrency)

	for i, target := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Cancellation may have happened while waiting for a slot.
			if err := gctx.Err(); err != nil {
				return err
			}

			result := bs.newResult(target)
			if err := bs.pipelineFactory().Execute(gctx, result); err != nil {
				bs.logger.Warn("signing failed",
					"url", result.URL,
					"index", i+1,
					"error", err,
				)
			}

			callback(result, i)

			// Failures stay in the result so the other targets keep going.
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bs.logger.Info("batch signing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)
	return err
}

func (bs *BatchSigner) newResult(target string) *model.SignResult {
	return model.NewSignResult(target, bs.userAgent, bs.engine)
}
