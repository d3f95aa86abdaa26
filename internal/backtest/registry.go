package backtest

import (
	"context"
	"fmt"
	"sync"
)

// ModelHandle ties a resolved decision provider to its identity and the
// strategy parameters it was registered with.
type ModelHandle struct {
	Strategy  string
	Symbol    string
	Timeframe string
	Version   int
	Provider  DecisionProvider
	Params    map[string]string
}

// ID returns the fully-qualified strategy identifier including version.
func (h ModelHandle) ID() string {
	return fmt.Sprintf("%s:%s:%s:v%d", h.Strategy, h.Symbol, h.Timeframe, h.Version)
}

// ModelResolver looks up the strategy/model under test. Version "" (or
// 0) resolves to the latest registered version.
type ModelResolver interface {
	// Resolve returns the matching handle or ErrModelNotFound.
	Resolve(ctx context.Context, strategy, symbol, timeframe string, version int) (ModelHandle, error)
}

// Registry is an in-memory ModelResolver. Registration is expected at
// startup; Resolve is safe for concurrent use afterwards.
type Registry struct {
	mu      sync.RWMutex
	handles map[string][]ModelHandle // keyed by strategy|symbol|timeframe, version ASC
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string][]ModelHandle)}
}

// Register adds a model version. Versions must be registered in
// ascending order per (strategy, symbol, timeframe).
func (r *Registry) Register(h ModelHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey(h.Strategy, h.Symbol, h.Timeframe)
	r.handles[key] = append(r.handles[key], h)
}

// Resolve returns the requested version, or the latest one when version
// is 0. Returns ErrModelNotFound if no match exists.
func (r *Registry) Resolve(_ context.Context, strategy, symbol, timeframe string, version int) (ModelHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.handles[registryKey(strategy, symbol, timeframe)]
	if len(versions) == 0 {
		return ModelHandle{}, fmt.Errorf("%w: %s for %s/%s", ErrModelNotFound, strategy, symbol, timeframe)
	}

	if version == 0 {
		return versions[len(versions)-1], nil
	}
	for _, h := range versions {
		if h.Version == version {
			return h, nil
		}
	}
	return ModelHandle{}, fmt.Errorf("%w: %s v%d for %s/%s", ErrModelNotFound, strategy, version, symbol, timeframe)
}

func registryKey(strategy, symbol, timeframe string) string {
	return strategy + "|" + symbol + "|" + timeframe
}

// Ensure Registry implements ModelResolver
var _ ModelResolver = (*Registry)(nil)
