package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// LoadBarsCSV reads OHLCV bars from a CSV file with a header row.
// Required columns: timestamp, open, high, low, close. Volume is
// optional and defaults to 0. Timestamps are RFC 3339 strings or unix
// milliseconds. SequenceIndex is assigned from row order.
func LoadBarsCSV(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bars csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, fmt.Errorf("%w: csv %s has no data rows", ErrDataUnavailable, path)
	}

	colIdx := make(map[string]int, len(records[0]))
	for idx, col := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = idx
	}
	for _, col := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("bars csv missing column %q", col)
		}
	}
	volumeIdx, hasVolume := colIdx["volume"]

	bars := make([]domain.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		ts, err := parseTimestamp(strings.TrimSpace(rec[colIdx["timestamp"]]))
		if err != nil {
			return nil, fmt.Errorf("bars csv row %d: %w", i+1, err)
		}

		bar := domain.Bar{Timestamp: ts, SequenceIndex: i}
		for col, dst := range map[string]*float64{
			"open": &bar.Open, "high": &bar.High, "low": &bar.Low, "close": &bar.Close,
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[colIdx[col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("bars csv row %d column %s: %w", i+1, col, err)
			}
			*dst = v
		}
		if hasVolume && volumeIdx < len(rec) {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[volumeIdx]), 64)
			if err != nil {
				return nil, fmt.Errorf("bars csv row %d column volume: %w", i+1, err)
			}
			bar.Volume = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is neither RFC3339 nor unix millis", s)
	}
	return time.UnixMilli(ms).UTC(), nil
}
