package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds a run's equity samples. Fails the entire batch on a
// duplicate (run_id, timestamp); duplicates are checked explicitly
// before the batch is sent.
func (s *EquityCurveStore) InsertBulk(ctx context.Context, runID string, samples []domain.EquitySample) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(samples))
	for _, sample := range samples {
		ts := sample.Timestamp.UnixMilli()
		if _, exists := seen[ts]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, sample := range samples {
		exists, err := s.exists(ctx, runID, sample.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curve (
			run_id, timestamp_ms, portfolio_value, position_status
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sample := range samples {
		err = batch.Append(
			runID, uint64(sample.Timestamp.UnixMilli()),
			sample.PortfolioValue, string(sample.PositionStatus),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all samples for a run, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquitySample, error) {
	query := `
		SELECT timestamp_ms, portfolio_value, position_status
		FROM equity_curve
		WHERE run_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity curve: %w", err)
	}
	defer rows.Close()

	var samples []domain.EquitySample
	for rows.Next() {
		var (
			sample domain.EquitySample
			ts     uint64
			status string
		)
		if err := rows.Scan(&ts, &sample.PortfolioValue, &status); err != nil {
			return nil, fmt.Errorf("scan equity sample: %w", err)
		}
		sample.Timestamp = time.UnixMilli(int64(ts)).UTC()
		sample.PositionStatus = domain.PositionStatus(status)
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity samples: %w", err)
	}
	return samples, nil
}

func (s *EquityCurveStore) exists(ctx context.Context, runID string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM equity_curve
		WHERE run_id = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
