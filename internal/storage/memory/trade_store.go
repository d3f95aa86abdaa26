package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

type tradeKey struct {
	runID   string
	tradeID int
}

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[tradeKey]*domain.Trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[tradeKey]*domain.Trade),
	}
}

// Insert adds one trade under a run. Returns ErrDuplicateKey if
// (run_id, trade_id) exists.
func (s *TradeStore) Insert(_ context.Context, runID string, t *domain.Trade) error {
	if runID == "" || t == nil || t.TradeID <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(runID, t)
}

// InsertBulk adds a run's trades atomically. Fails the entire batch (no
// trades written) on any duplicate, including within the batch.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []*domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TradeID <= 0 {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[t.TradeID]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := s.data[tradeKey{runID: runID, tradeID: t.TradeID}]; dup {
			return storage.ErrDuplicateKey
		}
		seen[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		if err := s.insertLocked(runID, t); err != nil {
			return err
		}
	}
	return nil
}

// GetByRunID retrieves all trades for a run, ordered by trade_id ASC.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for key, t := range s.data {
		if key.runID == runID {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeID < result[j].TradeID
	})
	return result, nil
}

func (s *TradeStore) insertLocked(runID string, t *domain.Trade) error {
	key := tradeKey{runID: runID, tradeID: t.TradeID}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	tradeCopy := *t
	s.data[key] = &tradeCopy
	return nil
}

// Ensure TradeStore implements storage.TradeStore
var _ storage.TradeStore = (*TradeStore)(nil)
