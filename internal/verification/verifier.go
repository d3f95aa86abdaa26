// Package verification checks run reproducibility: the same config over
// the same bars must produce identical trades, equity curve, and
// metrics across executions.
package verification

import (
	"context"
	"fmt"
	"math"

	"github.com/kpiteira/ktrdr-sub000/internal/backtest"
	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Identical
// inputs follow the same code path, so only representation-level noise
// is tolerated.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between two executions.
type FieldDivergence struct {
	Field    string      // field name with index context
	Expected interface{} // first execution's value
	Actual   interface{} // second execution's value
}

// Report contains the outcome of a reproducibility check.
type Report struct {
	RunID       string
	Match       bool
	Divergences []FieldDivergence
}

// ProviderFactory builds a fresh decision provider per execution. The
// two executions must not share provider state.
type ProviderFactory func() backtest.DecisionProvider

// Verifier replays a run twice and compares the results.
type Verifier struct {
	engine *backtest.Engine
}

// NewVerifier creates a verifier on top of the given engine.
func NewVerifier(engine *backtest.Engine) *Verifier {
	return &Verifier{engine: engine}
}

// Verify executes the config twice with independent providers and
// reports any field-level divergence.
func (v *Verifier) Verify(ctx context.Context, cfg domain.RunConfig, bars []domain.Bar, features backtest.FeatureLookup, newProvider ProviderFactory) (*Report, error) {
	first, err := v.engine.Run(ctx, cfg, bars, features, newProvider())
	if err != nil {
		return nil, fmt.Errorf("first execution: %w", err)
	}
	second, err := v.engine.Run(ctx, cfg, bars, features, newProvider())
	if err != nil {
		return nil, fmt.Errorf("second execution: %w", err)
	}

	divergences := CompareResults(first, second)
	return &Report{
		RunID:       first.RunID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// CompareResults compares two results field by field and returns every
// divergence found.
func CompareResults(a, b *domain.BacktestResult) []FieldDivergence {
	var divs []FieldDivergence

	if a.RunID != b.RunID {
		divs = append(divs, FieldDivergence{Field: "RunID", Expected: a.RunID, Actual: b.RunID})
	}
	if a.Status != b.Status {
		divs = append(divs, FieldDivergence{Field: "Status", Expected: a.Status, Actual: b.Status})
	}
	if a.BarsProcessed != b.BarsProcessed {
		divs = append(divs, FieldDivergence{Field: "BarsProcessed", Expected: a.BarsProcessed, Actual: b.BarsProcessed})
	}

	divs = append(divs, compareTrades(a.Trades, b.Trades)...)
	divs = append(divs, compareEquity(a.EquityCurve, b.EquityCurve)...)
	divs = append(divs, compareMetrics(a.Metrics, b.Metrics)...)
	return divs
}

func compareTrades(a, b []*domain.Trade) []FieldDivergence {
	if len(a) != len(b) {
		return []FieldDivergence{{Field: "Trades.len", Expected: len(a), Actual: len(b)}}
	}

	var divs []FieldDivergence
	for i := range a {
		prefix := fmt.Sprintf("Trades[%d].", i)
		x, y := a[i], b[i]

		if x.TradeID != y.TradeID {
			divs = append(divs, FieldDivergence{Field: prefix + "TradeID", Expected: x.TradeID, Actual: y.TradeID})
		}
		if x.Side != y.Side {
			divs = append(divs, FieldDivergence{Field: prefix + "Side", Expected: x.Side, Actual: y.Side})
		}
		if !x.EntryTime.Equal(y.EntryTime) {
			divs = append(divs, FieldDivergence{Field: prefix + "EntryTime", Expected: x.EntryTime, Actual: y.EntryTime})
		}
		if !x.ExitTime.Equal(y.ExitTime) {
			divs = append(divs, FieldDivergence{Field: prefix + "ExitTime", Expected: x.ExitTime, Actual: y.ExitTime})
		}

		for field, pair := range map[string][2]float64{
			"EntryPrice":   {x.EntryPrice, y.EntryPrice},
			"ExitPrice":    {x.ExitPrice, y.ExitPrice},
			"Quantity":     {x.Quantity, y.Quantity},
			"GrossPnL":     {x.GrossPnL, y.GrossPnL},
			"Commission":   {x.Commission, y.Commission},
			"SlippageCost": {x.SlippageCost, y.SlippageCost},
			"NetPnL":       {x.NetPnL, y.NetPnL},
		} {
			if !floatsEqual(pair[0], pair[1]) {
				divs = append(divs, FieldDivergence{Field: prefix + field, Expected: pair[0], Actual: pair[1]})
			}
		}
	}
	return divs
}

func compareEquity(a, b []domain.EquitySample) []FieldDivergence {
	if len(a) != len(b) {
		return []FieldDivergence{{Field: "EquityCurve.len", Expected: len(a), Actual: len(b)}}
	}

	var divs []FieldDivergence
	for i := range a {
		prefix := fmt.Sprintf("EquityCurve[%d].", i)
		if !a[i].Timestamp.Equal(b[i].Timestamp) {
			divs = append(divs, FieldDivergence{Field: prefix + "Timestamp", Expected: a[i].Timestamp, Actual: b[i].Timestamp})
		}
		if !floatsEqual(a[i].PortfolioValue, b[i].PortfolioValue) {
			divs = append(divs, FieldDivergence{Field: prefix + "PortfolioValue", Expected: a[i].PortfolioValue, Actual: b[i].PortfolioValue})
		}
		if a[i].PositionStatus != b[i].PositionStatus {
			divs = append(divs, FieldDivergence{Field: prefix + "PositionStatus", Expected: a[i].PositionStatus, Actual: b[i].PositionStatus})
		}
	}
	return divs
}

func compareMetrics(a, b *domain.PerformanceMetrics) []FieldDivergence {
	if a == nil || b == nil {
		if a != b {
			return []FieldDivergence{{Field: "Metrics", Expected: a, Actual: b}}
		}
		return nil
	}

	var divs []FieldDivergence
	for field, pair := range map[string][2]float64{
		"TotalReturn":      {a.TotalReturn, b.TotalReturn},
		"TotalReturnPct":   {a.TotalReturnPct, b.TotalReturnPct},
		"AnnualizedReturn": {a.AnnualizedReturn, b.AnnualizedReturn},
		"Volatility":       {a.Volatility, b.Volatility},
		"SharpeRatio":      {a.SharpeRatio, b.SharpeRatio},
		"SortinoRatio":     {a.SortinoRatio, b.SortinoRatio},
		"MaxDrawdown":      {a.MaxDrawdown, b.MaxDrawdown},
		"CalmarRatio":      {a.CalmarRatio, b.CalmarRatio},
		"WinRate":          {a.WinRate, b.WinRate},
		"ProfitFactor":     {a.ProfitFactor, b.ProfitFactor},
	} {
		if !floatsEqual(pair[0], pair[1]) {
			divs = append(divs, FieldDivergence{Field: "Metrics." + field, Expected: pair[0], Actual: pair[1]})
		}
	}
	if a.TotalTrades != b.TotalTrades {
		divs = append(divs, FieldDivergence{Field: "Metrics.TotalTrades", Expected: a.TotalTrades, Actual: b.TotalTrades})
	}
	return divs
}

// floatsEqual compares with FloatTolerance; infinities of the same sign
// compare equal.
func floatsEqual(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= FloatTolerance
}
