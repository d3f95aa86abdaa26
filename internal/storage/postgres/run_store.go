package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, symbol, timeframe, strategy, start_time, end_time,
	initial_capital, commission_rate, slippage_rate, capital_utilization,
	strict_mode, allow_reversal,
	status, bars_processed, warnings, started_at, finished_at,
	total_return, total_return_pct, annualized_return,
	volatility, sharpe_ratio, sortino_ratio,
	max_drawdown, max_drawdown_duration, calmar_ratio,
	total_trades, winning_trades, losing_trades, win_rate,
	average_win, average_loss, profit_factor, risk_reward,
	avg_holding_period_hours, max_holding_period_hours, min_holding_period_hours,
	avg_max_favorable_excursion, avg_max_adverse_excursion
`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, result *domain.BacktestResult) error {
	if result == nil || result.RunID == "" {
		return storage.ErrInvalidInput
	}

	m := result.Metrics
	if m == nil {
		m = &domain.PerformanceMetrics{}
	}
	cfg := result.Config

	query := `
		INSERT INTO backtest_runs (` + runColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20,
			$21, $22, $23,
			$24, $25, $26,
			$27, $28, $29, $30,
			$31, $32, $33, $34,
			$35, $36, $37,
			$38, $39
		)
	`

	_, err := s.pool.Exec(ctx, query,
		result.RunID, cfg.Symbol, cfg.Timeframe, cfg.Strategy, cfg.Start, cfg.End,
		cfg.InitialCapital, cfg.CommissionRate, cfg.SlippageRate, cfg.CapitalUtilization,
		cfg.StrictMode, cfg.AllowReversal,
		string(result.Status), result.BarsProcessed, result.Warnings, result.StartedAt, result.FinishedAt,
		m.TotalReturn, m.TotalReturnPct, m.AnnualizedReturn,
		m.Volatility, m.SharpeRatio, m.SortinoRatio,
		m.MaxDrawdown, m.MaxDrawdownDuration, m.CalmarRatio,
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate,
		m.AverageWin, m.AverageLoss, m.ProfitFactor, m.RiskReward,
		m.AvgHoldingPeriodHours, m.MaxHoldingPeriodHours, m.MinHoldingPeriodHours,
		m.AvgMaxFavorableExcursion, m.AvgMaxAdverseExcursion,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run summary. Returns ErrNotFound if not exists.
func (s *RunStore) GetByRunID(ctx context.Context, runID string) (*domain.BacktestResult, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	result, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return result, nil
}

// GetBySymbol retrieves all run summaries for an instrument, ordered by
// started_at ASC.
func (s *RunStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.BacktestResult, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE symbol = $1 ORDER BY started_at ASC`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query runs by symbol: %w", err)
	}
	defer rows.Close()

	var results []*domain.BacktestResult
	for rows.Next() {
		result, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return results, nil
}

func scanRun(row pgx.Row) (*domain.BacktestResult, error) {
	var (
		result domain.BacktestResult
		m      domain.PerformanceMetrics
		status string
	)

	err := row.Scan(
		&result.RunID, &result.Config.Symbol, &result.Config.Timeframe, &result.Config.Strategy,
		&result.Config.Start, &result.Config.End,
		&result.Config.InitialCapital, &result.Config.CommissionRate,
		&result.Config.SlippageRate, &result.Config.CapitalUtilization,
		&result.Config.StrictMode, &result.Config.AllowReversal,
		&status, &result.BarsProcessed, &result.Warnings, &result.StartedAt, &result.FinishedAt,
		&m.TotalReturn, &m.TotalReturnPct, &m.AnnualizedReturn,
		&m.Volatility, &m.SharpeRatio, &m.SortinoRatio,
		&m.MaxDrawdown, &m.MaxDrawdownDuration, &m.CalmarRatio,
		&m.TotalTrades, &m.WinningTrades, &m.LosingTrades, &m.WinRate,
		&m.AverageWin, &m.AverageLoss, &m.ProfitFactor, &m.RiskReward,
		&m.AvgHoldingPeriodHours, &m.MaxHoldingPeriodHours, &m.MinHoldingPeriodHours,
		&m.AvgMaxFavorableExcursion, &m.AvgMaxAdverseExcursion,
	)
	if err != nil {
		return nil, err
	}

	result.Status = domain.RunStatus(status)
	result.Metrics = &m
	return &result, nil
}
