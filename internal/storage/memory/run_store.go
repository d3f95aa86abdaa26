package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore. It keeps
// run summaries only; trades and equity samples live in their stores.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestResult // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.BacktestResult),
	}
}

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, result *domain.BacktestResult) error {
	if result == nil || result.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[result.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[result.RunID] = summaryCopy(result)
	return nil
}

// GetByRunID retrieves a run summary. Returns ErrNotFound if not exists.
func (s *RunStore) GetByRunID(_ context.Context, runID string) (*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return summaryCopy(result), nil
}

// GetBySymbol retrieves all run summaries for an instrument, ordered by
// started_at ASC.
func (s *RunStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestResult
	for _, r := range s.data {
		if r.Config.Symbol == symbol {
			result = append(result, summaryCopy(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

// summaryCopy strips trades and the equity curve so the stored summary
// never aliases the caller's slices.
func summaryCopy(r *domain.BacktestResult) *domain.BacktestResult {
	c := *r
	c.Trades = nil
	c.EquityCurve = nil
	if r.Metrics != nil {
		m := *r.Metrics
		c.Metrics = &m
	}
	c.Warnings = append([]domain.Warning(nil), r.Warnings...)
	return &c
}

// Ensure RunStore implements storage.RunStore
var _ storage.RunStore = (*RunStore)(nil)
