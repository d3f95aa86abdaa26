package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

// Generator produces reports from stored run data.
type Generator struct {
	runStore    storage.RunStore
	tradeStore  storage.TradeStore
	equityStore storage.EquityCurveStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore, tradeStore storage.TradeStore, equityStore storage.EquityCurveStore) *Generator {
	return &Generator{
		runStore:    runStore,
		tradeStore:  tradeStore,
		equityStore: equityStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles the report for a persisted run. Returns
// storage.ErrNotFound if the run was never stored.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	summary, err := g.runStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	trades, err := g.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", runID, err)
	}

	equity, err := g.equityStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load equity curve for %s: %w", runID, err)
	}

	metrics := domain.PerformanceMetrics{}
	if summary.Metrics != nil {
		metrics = *summary.Metrics
	}

	finalEquity := summary.Config.InitialCapital
	if len(equity) > 0 {
		finalEquity = equity[len(equity)-1].PortfolioValue
	}

	return &Report{
		GeneratedAt:   g.now(),
		RunID:         summary.RunID,
		Status:        summary.Status,
		Config:        summary.Config,
		Metrics:       metrics,
		Trades:        trades,
		EquityCurve:   equity,
		Warnings:      summary.Warnings,
		BarsProcessed: summary.BarsProcessed,
		FinalEquity:   finalEquity,
	}, nil
}

// FromResult builds a report directly from an in-memory result, for
// runs that were not persisted.
func (g *Generator) FromResult(result *domain.BacktestResult) *Report {
	metrics := domain.PerformanceMetrics{}
	if result.Metrics != nil {
		metrics = *result.Metrics
	}

	return &Report{
		GeneratedAt:   g.now(),
		RunID:         result.RunID,
		Status:        result.Status,
		Config:        result.Config,
		Metrics:       metrics,
		Trades:        result.Trades,
		EquityCurve:   result.EquityCurve,
		Warnings:      result.Warnings,
		BarsProcessed: result.BarsProcessed,
		FinalEquity:   result.FinalEquity(),
	}
}
