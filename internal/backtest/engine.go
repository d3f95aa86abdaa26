// Package backtest contains the event-driven orchestrator: it replays
// bars in order through the decision provider, drives the ledger, and
// assembles the immutable run result. One run is strictly sequential;
// independent runs share no mutable state and may execute in parallel.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpiteira/ktrdr-sub000/internal/analytics"
	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/execution"
	"github.com/kpiteira/ktrdr-sub000/internal/idhash"
	"github.com/kpiteira/ktrdr-sub000/internal/ledger"
	"github.com/kpiteira/ktrdr-sub000/internal/observability"
)

// Engine runs backtests. It is stateless across runs and safe for
// concurrent use; all per-run state lives in locals and the run's own
// ledger.
type Engine struct {
	logger  zerolog.Logger
	metrics *observability.Metrics // nil disables instrumentation
}

// NewEngine creates an engine. Pass zerolog.Nop() and nil metrics to
// run silent.
func NewEngine(logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{logger: logger, metrics: metrics}
}

// Run executes one backtest.
// Steps:
//  1. Validate config and bar ordering (fail fast, no partial result)
//  2. Per bar: feature lookup -> decision -> ledger execute/update
//  3. Append one equity sample per processed bar
//  4. Check cooperative cancellation between bars
//  5. Compute performance metrics and assemble the result
//
// Recoverable per-bar failures become warnings on the result and the
// bar is treated as Hold; under cfg.StrictMode they abort with the
// original error. Cancellation returns the partial result with status
// CANCELLED.
func (e *Engine) Run(ctx context.Context, cfg domain.RunConfig, bars []domain.Bar, features FeatureLookup, decide DecisionProvider) (*domain.BacktestResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	runID := idhash.ComputeRunID(cfg)
	logger := e.logger.With().Str("run_id", runID).Str("symbol", cfg.Symbol).Logger()

	led := ledger.New(cfg)
	equity := make([]domain.EquitySample, 0, len(bars))
	var warnings []domain.Warning
	status := domain.RunCompleted
	startedAt := time.Now().UTC()

	if e.metrics != nil {
		e.metrics.RunsStarted.Inc()
	}

	warn := func(i int, bar domain.Bar, kind domain.WarningKind, err error) {
		warnings = append(warnings, domain.Warning{
			BarIndex:  i,
			Timestamp: bar.Timestamp,
			Kind:      kind,
			Message:   err.Error(),
		})
		logger.Warn().Int("bar", i).Str("kind", string(kind)).Err(err).Msg("recoverable bar failure")
		if e.metrics != nil {
			e.metrics.WarningsTotal.WithLabelValues(string(kind)).Inc()
		}
	}

loop:
	for i, bar := range bars {
		select {
		case <-ctx.Done():
			status = domain.RunCancelled
			break loop
		default:
		}

		decision := domain.Decision{Signal: domain.SignalHold}

		featureVec, err := features.FeaturesAt(i)
		if err != nil {
			if cfg.StrictMode {
				return nil, e.abort(fmt.Errorf("bar %d: %w", i, err))
			}
			warn(i, bar, domain.WarnFeatureMissing, err)
		} else {
			d, err := decide.Decide(ctx, featureVec, led.Position())
			switch {
			case err != nil:
				err = fmt.Errorf("%w: %v", ErrDecisionProvider, err)
				if cfg.StrictMode {
					return nil, e.abort(fmt.Errorf("bar %d: %w", i, err))
				}
				warn(i, bar, domain.WarnDecisionProvider, err)
			case !d.Signal.Valid() || !d.ValidConfidence():
				err = fmt.Errorf("%w: malformed decision (signal=%q confidence=%f)", ErrDecisionProvider, d.Signal, d.Confidence)
				if cfg.StrictMode {
					return nil, e.abort(fmt.Errorf("bar %d: %w", i, err))
				}
				warn(i, bar, domain.WarnDecisionProvider, err)
			default:
				decision = d
			}
		}

		if decision.Signal != domain.SignalHold {
			trade, err := led.Execute(decision.Signal, bar.Close, bar.Timestamp, decision.Metadata)
			switch {
			case errors.Is(err, execution.ErrInsufficientCapital):
				// Always recoverable: the signal is ignored.
				warn(i, bar, domain.WarnInsufficientCapital, err)
			case errors.Is(err, ledger.ErrInvalidTransition):
				if cfg.StrictMode {
					return nil, e.abort(fmt.Errorf("bar %d: %w", i, err))
				}
				warn(i, bar, domain.WarnInvalidTransition, err)
			case err != nil:
				return nil, e.abort(fmt.Errorf("bar %d: %w", i, err))
			}
			if trade != nil {
				logger.Debug().Int("trade_id", trade.TradeID).Float64("net_pnl", trade.NetPnL).Msg("trade closed")
				if e.metrics != nil {
					e.metrics.TradesClosed.Inc()
				}
			}
		}

		led.Update(bar.Close, bar.Timestamp)
		equity = append(equity, domain.EquitySample{
			Timestamp:      bar.Timestamp,
			PortfolioValue: led.PortfolioValue(),
			PositionStatus: led.Position().Status,
		})
		if e.metrics != nil {
			e.metrics.BarsProcessed.Inc()
		}
	}

	result := &domain.BacktestResult{
		RunID:         runID,
		Config:        cfg,
		Status:        status,
		Trades:        led.Trades(),
		EquityCurve:   equity,
		Metrics:       analytics.Compute(equity, led.Trades()),
		Warnings:      warnings,
		BarsProcessed: len(equity),
		StartedAt:     startedAt,
		FinishedAt:    time.Now().UTC(),
	}

	if e.metrics != nil {
		e.metrics.RunsFinished.WithLabelValues(string(status)).Inc()
		e.metrics.RunDuration.Observe(result.FinishedAt.Sub(startedAt).Seconds())
	}
	logger.Info().
		Str("status", string(status)).
		Int("bars", result.BarsProcessed).
		Int("trades", len(result.Trades)).
		Int("warnings", len(warnings)).
		Msg("run finished")

	return result, nil
}

// abort records a failed run in the instrumentation and returns err.
func (e *Engine) abort(err error) error {
	if e.metrics != nil {
		e.metrics.RunsFinished.WithLabelValues(string(domain.RunFailed)).Inc()
	}
	return err
}

// validateConfig rejects configs that cannot produce a meaningful run.
func validateConfig(cfg domain.RunConfig) error {
	if cfg.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %f", ErrInvalidConfig, cfg.InitialCapital)
	}
	if cfg.CommissionRate < 0 {
		return fmt.Errorf("%w: commission rate must be >= 0, got %f", ErrInvalidConfig, cfg.CommissionRate)
	}
	if cfg.SlippageRate < 0 {
		return fmt.Errorf("%w: slippage rate must be >= 0, got %f", ErrInvalidConfig, cfg.SlippageRate)
	}
	if cfg.CapitalUtilization <= 0 || cfg.CapitalUtilization > 1 {
		return fmt.Errorf("%w: capital utilization must be in (0, 1], got %f", ErrInvalidConfig, cfg.CapitalUtilization)
	}
	return nil
}
