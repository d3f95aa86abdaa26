package domain

import (
	"encoding/json"
	"math"
)

// PerformanceMetrics is the immutable aggregate computed once at the end
// of a run from the trade list and equity curve.
//
// Division-by-zero cases resolve to documented sentinels (0 or +Inf),
// never to NaN: volatility needs at least 2 samples, Sharpe needs
// volatility > 0, Sortino needs negative returns, Calmar needs a
// non-zero drawdown, and ProfitFactor/RiskRewardRatio are +Inf when
// there are no losses.
type PerformanceMetrics struct {
	// Returns
	TotalReturn      float64 // last equity - first equity
	TotalReturnPct   float64
	AnnualizedReturn float64 // percent, 0 if the run spans zero days

	// Risk
	Volatility          float64 // annualized stdev of per-period returns, percent
	SharpeRatio         float64
	SortinoRatio        float64
	MaxDrawdown         float64 // percent, always <= 0
	MaxDrawdownDuration float64 // longest time at or below a running peak, calendar days
	CalmarRatio         float64

	// Trade statistics
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // 0..1
	AverageWin    float64 // mean NetPnL of winners, 0 if none
	AverageLoss   float64 // mean NetPnL of losers (negative), 0 if none
	ProfitFactor  float64 // gross profits / gross losses, +Inf if no losses
	RiskReward    float64 // |AverageWin / AverageLoss|, +Inf if no losses

	// Holding periods in hours, 0 if no trades
	AvgHoldingPeriodHours float64
	MaxHoldingPeriodHours float64
	MinHoldingPeriodHours float64

	// Mean excursions over all trades
	AvgMaxFavorableExcursion float64
	AvgMaxAdverseExcursion   float64
}

// MarshalJSON encodes the +Inf ratio sentinels as the string "inf" so
// metrics survive encoding/json, which rejects infinities.
func (m PerformanceMetrics) MarshalJSON() ([]byte, error) {
	type alias PerformanceMetrics
	out := struct {
		alias
		ProfitFactor any
		RiskReward   any
	}{alias: alias(m), ProfitFactor: m.ProfitFactor, RiskReward: m.RiskReward}
	if math.IsInf(m.ProfitFactor, 1) {
		out.ProfitFactor = "inf"
	}
	if math.IsInf(m.RiskReward, 1) {
		out.RiskReward = "inf"
	}
	return json.Marshal(out)
}
