package domain

import "time"

// RunStatus represents the terminal state of a backtest run.
type RunStatus string

// Run status constants.
const (
	RunCompleted RunStatus = "COMPLETED"
	RunCancelled RunStatus = "CANCELLED"
	RunFailed    RunStatus = "FAILED"
)

// WarningKind classifies recoverable conditions accumulated during a run.
type WarningKind string

// Warning kind constants.
const (
	WarnFeatureMissing      WarningKind = "FEATURE_MISSING"
	WarnDecisionProvider    WarningKind = "DECISION_PROVIDER_FAILURE"
	WarnInsufficientCapital WarningKind = "INSUFFICIENT_CAPITAL"
	WarnInvalidTransition   WarningKind = "INVALID_STATE_TRANSITION"
)

// Warning records one recoverable condition attached to the result.
type Warning struct {
	BarIndex  int
	Timestamp time.Time
	Kind      WarningKind
	Message   string
}

// BacktestResult is the immutable output of one run. A cancelled run
// carries all data accumulated up to the cancellation point; the ledger
// is never half-mutated.
type BacktestResult struct {
	RunID  string
	Config RunConfig
	Status RunStatus

	Trades      []*Trade
	EquityCurve []EquitySample
	Metrics     *PerformanceMetrics
	Warnings    []Warning

	BarsProcessed int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// FinalEquity returns the last equity-curve value, or the configured
// initial capital when no bar was processed.
func (r *BacktestResult) FinalEquity() float64 {
	if len(r.EquityCurve) == 0 {
		return r.Config.InitialCapital
	}
	return r.EquityCurve[len(r.EquityCurve)-1].PortfolioValue
}
