package common

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

// MapFunc transforms a single item.  It must be safe to call concurrently
// with itself on distinct items.
type MapFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ItemError records a failed item by its input position.
type ItemError struct {
	Index int
	Err   error
}

// MapResult is the outcome of one ParallelMap call.  Results[i] always
// corresponds to items[i]; failed items keep the zero value and are listed
// in Failed.
type MapResult[R any] struct {
	Results []R
	Failed  []ItemError
}

// Ok reports whether every item succeeded.
func (r *MapResult[R]) Ok() bool { return len(r.Failed) == 0 }

type mapConfig struct {
	concurrency int
	stage       string
	logger      logging.Logger
	metrics     PipelineMetrics
}

// MapOption configures a ParallelMap call.
type MapOption func(*mapConfig)

// WithConcurrency caps the number of items processed at once.  Defaults to
// the number of CPUs.
func WithConcurrency(n int) MapOption {
	return func(c *mapConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithStage names the stage for metrics and logs.
func WithStage(stage string) MapOption {
	return func(c *mapConfig) { c.stage = stage }
}

// WithLogger injects a logger.
func WithLogger(l logging.Logger) MapOption {
	return func(c *mapConfig) { c.logger = l }
}

// WithMetrics injects a metrics collector.
func WithMetrics(m PipelineMetrics) MapOption {
	return func(c *mapConfig) { c.metrics = m }
}

// ParallelMap applies fn to every item with bounded concurrency and returns
// the results in input order.  The per-document stages (normalize, score,
// transform, attribute) only read shared fitted state, so a plain semaphore
// fan-out is sufficient; there is no retry here, retries belong to the
// ingestion layer.  Cancellation marks all unstarted items failed with the
// context error.
func ParallelMap[T, R any](ctx context.Context, items []T, fn MapFunc[T, R], opts ...MapOption) (*MapResult[R], error) {
	if fn == nil {
		return nil, errors.NewInvalidInputError("map function must not be nil")
	}

	cfg := &mapConfig{concurrency: runtime.NumCPU(), stage: "map"}
	for _, o := range opts {
		o(cfg)
	}

	out := &MapResult[R]{Results: make([]R, len(items))}
	if len(items) == 0 {
		return out, nil
	}

	start := time.Now()
	sem := make(chan struct{}, cfg.concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		go func(idx int, item T) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				out.Failed = append(out.Failed, ItemError{Index: idx, Err: ctx.Err()})
				mu.Unlock()
				return
			}

			res, err := fn(ctx, item)
			mu.Lock()
			if err != nil {
				out.Failed = append(out.Failed, ItemError{Index: idx, Err: err})
			} else {
				out.Results[idx] = res
			}
			mu.Unlock()
		}(i, items[i])
	}
	wg.Wait()

	if cfg.metrics != nil {
		cfg.metrics.RecordStage(ctx, cfg.stage, len(items), msSince(start))
	}
	if cfg.logger != nil && len(out.Failed) > 0 {
		cfg.logger.Warn("parallel stage finished with failures",
			logging.String("stage", cfg.stage),
			logging.Int("items", len(items)),
			logging.Int("failed", len(out.Failed)))
	}
	return out, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
