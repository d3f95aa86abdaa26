package reporting

import (
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// Report is the renderable view of one backtest run, assembled from the
// persisted summary, trades, and equity curve.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Status      domain.RunStatus

	Config  domain.RunConfig
	Metrics domain.PerformanceMetrics

	Trades      []*domain.Trade
	EquityCurve []domain.EquitySample
	Warnings    []domain.Warning

	BarsProcessed int
	FinalEquity   float64
}
