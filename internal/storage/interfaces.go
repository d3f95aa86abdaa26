package storage

import (
	"context"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// BarStore provides access to historical bar storage.
type BarStore interface {
	// InsertBulk adds bars for an instrument/timeframe. Fails the entire
	// batch on a duplicate (symbol, timeframe, timestamp).
	InsertBulk(ctx context.Context, symbol, timeframe string, bars []domain.Bar) error

	// GetBySymbol retrieves all bars for an instrument/timeframe,
	// ordered by timestamp ASC with SequenceIndex assigned.
	GetBySymbol(ctx context.Context, symbol, timeframe string) ([]domain.Bar, error)

	// GetByTimeRange retrieves bars within [start, end] (inclusive),
	// ordered by timestamp ASC with SequenceIndex assigned.
	GetByTimeRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error)
}

// TradeStore provides access to closed-trade storage.
type TradeStore interface {
	// Insert adds one trade under a run. Returns ErrDuplicateKey if
	// (run_id, trade_id) exists.
	Insert(ctx context.Context, runID string, t *domain.Trade) error

	// InsertBulk adds a run's trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error

	// GetByRunID retrieves all trades for a run, ordered by trade_id ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error)
}

// RunStore provides access to run-summary storage: config, status, and
// computed metrics. Trades and the equity curve live in their own
// stores; results read back here carry empty Trades/EquityCurve slices.
type RunStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, result *domain.BacktestResult) error

	// GetByRunID retrieves a run summary. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.BacktestResult, error)

	// GetBySymbol retrieves all run summaries for an instrument,
	// ordered by started_at ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.BacktestResult, error)
}

// EquityCurveStore provides access to per-run equity-curve storage.
type EquityCurveStore interface {
	// InsertBulk adds a run's equity samples. Fails entire batch on duplicate.
	InsertBulk(ctx context.Context, runID string, samples []domain.EquitySample) error

	// GetByRunID retrieves all samples for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquitySample, error)
}
