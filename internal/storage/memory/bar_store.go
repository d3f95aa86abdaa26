package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

type barKey struct {
	symbol    string
	timeframe string
}

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[barKey]map[int64]domain.Bar // keyed by unix-milli timestamp
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[barKey]map[int64]domain.Bar),
	}
}

// InsertBulk adds bars for an instrument/timeframe. Fails the entire
// batch (no bars written) on a duplicate timestamp, including
// duplicates within the batch itself.
func (s *BarStore) InsertBulk(_ context.Context, symbol, timeframe string, bars []domain.Bar) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := barKey{symbol: symbol, timeframe: timeframe}
	existing := s.data[key]

	seen := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		ts := b.Timestamp.UnixMilli()
		if _, dup := seen[ts]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := existing[ts]; dup {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]domain.Bar, len(bars))
		s.data[key] = existing
	}
	for _, b := range bars {
		existing[b.Timestamp.UnixMilli()] = b
	}
	return nil
}

// GetBySymbol retrieves all bars for an instrument/timeframe, ordered
// by timestamp ASC with SequenceIndex assigned.
func (s *BarStore) GetBySymbol(_ context.Context, symbol, timeframe string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(symbol, timeframe, func(domain.Bar) bool { return true }), nil
}

// GetByTimeRange retrieves bars within [start, end] (inclusive),
// ordered by timestamp ASC with SequenceIndex assigned.
func (s *BarStore) GetByTimeRange(_ context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(symbol, timeframe, func(b domain.Bar) bool {
		return !b.Timestamp.Before(start) && !b.Timestamp.After(end)
	}), nil
}

func (s *BarStore) collect(symbol, timeframe string, keep func(domain.Bar) bool) []domain.Bar {
	var result []domain.Bar
	for _, b := range s.data[barKey{symbol: symbol, timeframe: timeframe}] {
		if keep(b) {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	for i := range result {
		result[i].SequenceIndex = i
	}
	return result
}

// Ensure BarStore implements storage.BarStore
var _ storage.BarStore = (*BarStore)(nil)
