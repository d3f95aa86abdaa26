package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// EquityCurveStore is an in-memory implementation of
// storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.EquitySample // run_id -> unix-milli -> sample
}

// NewEquityCurveStore creates a new in-memory equity-curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string]map[int64]domain.EquitySample),
	}
}

// InsertBulk adds a run's equity samples. Fails the entire batch (no
// samples written) on a duplicate timestamp, including within the batch.
func (s *EquityCurveStore) InsertBulk(_ context.Context, runID string, samples []domain.EquitySample) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	seen := make(map[int64]struct{}, len(samples))
	for _, sample := range samples {
		ts := sample.Timestamp.UnixMilli()
		if _, dup := seen[ts]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := existing[ts]; dup {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]domain.EquitySample, len(samples))
		s.data[runID] = existing
	}
	for _, sample := range samples {
		existing[sample.Timestamp.UnixMilli()] = sample
	}
	return nil
}

// GetByRunID retrieves all samples for a run, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]domain.EquitySample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EquitySample
	for _, sample := range s.data[runID] {
		result = append(result, sample)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// Ensure EquityCurveStore implements storage.EquityCurveStore
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)
