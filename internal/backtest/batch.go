package backtest

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// Job is one backtest to execute within a batch.
type Job struct {
	Config   domain.RunConfig
	Bars     []domain.Bar
	Features FeatureLookup
	Decide   DecisionProvider
}

// JobResult pairs a job's result with the error that aborted it, if
// any. Exactly one of Result and Err is set.
type JobResult struct {
	Index  int
	Result *domain.BacktestResult
	Err    error
}

// BatchRunner executes independent backtests in parallel. Each run gets
// its own ledger and equity curve; runs never share mutable state.
type BatchRunner struct {
	engine      *Engine
	logger      zerolog.Logger
	concurrency int
}

// NewBatchRunner creates a runner bounded to the given number of
// concurrent runs. Concurrency below 1 is treated as 1.
func NewBatchRunner(engine *Engine, logger zerolog.Logger, concurrency int) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRunner{
		engine:      engine,
		logger:      logger.With().Str("component", "batch_runner").Logger(),
		concurrency: concurrency,
	}
}

// Run executes every job and returns results in job order. A failed or
// cancelled job does not stop the others; cancellation of ctx lets
// in-flight runs finish their partial results while queued jobs start
// and immediately observe the cancelled context.
func (b *BatchRunner) Run(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	sem := make(chan struct{}, b.concurrency)

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, j Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := b.engine.Run(ctx, j.Config, j.Bars, j.Features, j.Decide)
			results[idx] = JobResult{Index: idx, Result: res, Err: err}
			if err != nil {
				b.logger.Error().Err(err).
					Str("symbol", j.Config.Symbol).
					Str("strategy", j.Config.Strategy).
					Msg("batch job failed")
			}
		}(i, job)
	}
	wg.Wait()

	return results
}
