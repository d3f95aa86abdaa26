package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO backtest_trades (
		run_id, trade_id, side,
		entry_price, entry_time, exit_price, exit_time, quantity,
		gross_pnl, commission, slippage_cost, net_pnl,
		holding_period_hours, max_favorable_excursion, max_adverse_excursion,
		decision_metadata
	) VALUES (
		$1, $2, $3,
		$4, $5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15,
		$16
	)
`

// Insert adds one trade under a run. Returns ErrDuplicateKey if
// (run_id, trade_id) exists.
func (s *TradeStore) Insert(ctx context.Context, runID string, t *domain.Trade) error {
	if runID == "" || t == nil || t.TradeID <= 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(runID, t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds a run's trades atomically. Fails entire batch on any
// duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []*domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID <= 0 {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(runID, t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves all trades for a run, ordered by trade_id ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error) {
	query := `
		SELECT
			trade_id, side,
			entry_price, entry_time, exit_price, exit_time, quantity,
			gross_pnl, commission, slippage_cost, net_pnl,
			holding_period_hours, max_favorable_excursion, max_adverse_excursion,
			decision_metadata
		FROM backtest_trades
		WHERE run_id = $1
		ORDER BY trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades by run id: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

func tradeArgs(runID string, t *domain.Trade) []any {
	return []any{
		runID, t.TradeID, string(t.Side),
		t.EntryPrice, t.EntryTime, t.ExitPrice, t.ExitTime, t.Quantity,
		t.GrossPnL, t.Commission, t.SlippageCost, t.NetPnL,
		t.HoldingPeriodHours, t.MaxFavorableExcursion, t.MaxAdverseExcursion,
		t.DecisionMetadata,
	}
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var (
		t    domain.Trade
		side string
	)

	err := row.Scan(
		&t.TradeID, &side,
		&t.EntryPrice, &t.EntryTime, &t.ExitPrice, &t.ExitTime, &t.Quantity,
		&t.GrossPnL, &t.Commission, &t.SlippageCost, &t.NetPnL,
		&t.HoldingPeriodHours, &t.MaxFavorableExcursion, &t.MaxAdverseExcursion,
		&t.DecisionMetadata,
	)
	if err != nil {
		return nil, err
	}

	t.Side = domain.Side(side)
	return &t, nil
}
