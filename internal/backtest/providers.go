package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// HistoricalDataProvider loads the ordered, duplicate-free bar sequence
// for a run. Gap resolution is entirely the provider's responsibility;
// the engine validates ordering and fails fast on violation.
type HistoricalDataProvider interface {
	// Load returns bars within [start, end]. Returns ErrDataUnavailable
	// if the range cannot be satisfied.
	Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error)
}

// FeatureLookup exposes the precomputed feature vectors of the external
// feature pipeline, deterministic and pure given the data up to each
// bar index.
type FeatureLookup interface {
	// FeaturesAt returns the feature vector for all data up to and
	// including the bar at index. A missing vector is reported as
	// ErrFeatureMissing, not a crash.
	FeaturesAt(index int) (map[string]float64, error)
}

// DecisionProvider is the strategy/model under test. It is treated as a
// black box: any error or malformed decision is caught at the engine
// boundary.
type DecisionProvider interface {
	Decide(ctx context.Context, features map[string]float64, position domain.Position) (domain.Decision, error)
}

// StoreDataProvider adapts a storage.BarStore to the
// HistoricalDataProvider contract.
type StoreDataProvider struct {
	store storage.BarStore
}

// NewStoreDataProvider creates a bar-store-backed data provider.
func NewStoreDataProvider(store storage.BarStore) *StoreDataProvider {
	return &StoreDataProvider{store: store}
}

// Load retrieves bars from the store. An empty range is reported as
// ErrDataUnavailable.
func (p *StoreDataProvider) Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	bars, err := p.store.GetByTimeRange(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s/%s in range", ErrDataUnavailable, symbol, timeframe)
	}
	return bars, nil
}

// Ensure StoreDataProvider implements HistoricalDataProvider
var _ HistoricalDataProvider = (*StoreDataProvider)(nil)

// SliceFeatureLookup serves precomputed per-bar feature vectors from a
// slice. A nil vector at an index is a lookup miss.
type SliceFeatureLookup struct {
	vectors []map[string]float64
}

// NewSliceFeatureLookup creates a lookup over precomputed vectors,
// one per bar.
func NewSliceFeatureLookup(vectors []map[string]float64) *SliceFeatureLookup {
	return &SliceFeatureLookup{vectors: vectors}
}

// FeaturesAt returns the vector at index, or ErrFeatureMissing when the
// index is out of range or the vector is nil.
func (l *SliceFeatureLookup) FeaturesAt(index int) (map[string]float64, error) {
	if index < 0 || index >= len(l.vectors) || l.vectors[index] == nil {
		return nil, fmt.Errorf("%w: index %d", ErrFeatureMissing, index)
	}
	return l.vectors[index], nil
}

// Ensure SliceFeatureLookup implements FeatureLookup
var _ FeatureLookup = (*SliceFeatureLookup)(nil)
