package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars for an instrument/timeframe. Fails the entire
// batch on a duplicate (symbol, timeframe, timestamp). MergeTree does
// not enforce uniqueness, so duplicates are checked explicitly before
// the batch is sent.
func (s *BarStore) InsertBulk(ctx context.Context, symbol, timeframe string, bars []domain.Bar) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		ts := b.Timestamp.UnixMilli()
		if _, exists := seen[ts]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, b := range bars {
		exists, err := s.exists(ctx, symbol, timeframe, b.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, timeframe, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			symbol, timeframe, uint64(b.Timestamp.UnixMilli()),
			b.Open, b.High, b.Low, b.Close, b.Volume,
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

// GetBySymbol retrieves all bars for an instrument/timeframe, ordered
// by timestamp ASC with SequenceIndex assigned.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol, timeframe string) ([]domain.Bar, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("query bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves bars within [start, end] (inclusive),
// ordered by timestamp ASC with SequenceIndex assigned.
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, timeframe,
		uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

func (s *BarStore) exists(ctx context.Context, symbol, timeframe string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM bars
		WHERE symbol = ? AND timeframe = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, timeframe, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanBars(rows driver.Rows) ([]domain.Bar, error) {
	var bars []domain.Bar
	for rows.Next() {
		var (
			b  domain.Bar
			ts uint64
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = time.UnixMilli(int64(ts)).UTC()
		b.SequenceIndex = len(bars)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	return bars, nil
}
