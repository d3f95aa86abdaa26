// Package evaluation turns a backtest result into a GO/NO-GO deployment
// verdict: GO only when every criterion passes and no trigger fires.
package evaluation

import (
	"fmt"
	"math"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// Decision represents the final GO/NO-GO verdict.
type Decision string

const (
	DecisionGO   Decision = "GO"
	DecisionNOGO Decision = "NO-GO"
)

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Result contains the final verdict with the full checklist.
type Result struct {
	Decision   Decision
	RunID      string
	Strategy   string
	Symbol     string
	GOCriteria []CriterionResult
	NOGOChecks []CriterionResult
}

// Thresholds configures the evaluation gates.
type Thresholds struct {
	MinTrades       int     // GO: enough trades for significance
	MinSharpe       float64 // GO: risk-adjusted return floor
	MinProfitFactor float64 // GO: gross profit over gross loss floor
	MinWinRate      float64 // GO: fraction in [0, 1]
	MaxDrawdownPct  float64 // GO: drawdown ceiling, positive magnitude

	HardDrawdownPct float64 // NO-GO: absolute drawdown limit, positive magnitude
	MaxWarningRatio float64 // NO-GO: warnings per processed bar
}

// DefaultThresholds are the standard deployment gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTrades:       30,
		MinSharpe:       1.0,
		MinProfitFactor: 1.5,
		MinWinRate:      0.45,
		MaxDrawdownPct:  25,
		HardDrawdownPct: 40,
		MaxWarningRatio: 0.1,
	}
}

// Evaluator evaluates deployment criteria against a run.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(thresholds Thresholds) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate produces the verdict for a completed run.
// GO if ALL criteria pass and NO trigger fires.
func (e *Evaluator) Evaluate(result *domain.BacktestResult) *Result {
	goCriteria := e.evaluateGOCriteria(result)
	nogoChecks := e.evaluateNOGOTriggers(result)

	allGOPass := true
	for _, c := range goCriteria {
		if !c.Pass {
			allGOPass = false
			break
		}
	}

	anyNOGOTriggered := false
	for _, c := range nogoChecks {
		if !c.Pass { // Pass=false means triggered
			anyNOGOTriggered = true
			break
		}
	}

	decision := DecisionGO
	if !allGOPass || anyNOGOTriggered {
		decision = DecisionNOGO
	}

	return &Result{
		Decision:   decision,
		RunID:      result.RunID,
		Strategy:   result.Config.Strategy,
		Symbol:     result.Config.Symbol,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}
}

func (e *Evaluator) evaluateGOCriteria(result *domain.BacktestResult) []CriterionResult {
	m := result.Metrics
	t := e.thresholds
	criteria := make([]CriterionResult, 5)

	criteria[0] = CriterionResult{
		Name:      "Trade count",
		Threshold: fmt.Sprintf(">= %d", t.MinTrades),
		Actual:    fmt.Sprintf("%d", m.TotalTrades),
		Pass:      m.TotalTrades >= t.MinTrades,
	}

	criteria[1] = CriterionResult{
		Name:      "Sharpe ratio",
		Threshold: fmt.Sprintf(">= %.2f", t.MinSharpe),
		Actual:    fmt.Sprintf("%.2f", m.SharpeRatio),
		Pass:      m.SharpeRatio >= t.MinSharpe,
	}

	// +Inf profit factor (no losing trades) passes any floor.
	criteria[2] = CriterionResult{
		Name:      "Profit factor",
		Threshold: fmt.Sprintf(">= %.2f", t.MinProfitFactor),
		Actual:    formatRatio(m.ProfitFactor),
		Pass:      m.ProfitFactor >= t.MinProfitFactor,
	}

	criteria[3] = CriterionResult{
		Name:      "Win rate",
		Threshold: fmt.Sprintf(">= %.0f%%", t.MinWinRate*100),
		Actual:    fmt.Sprintf("%.1f%%", m.WinRate*100),
		Pass:      m.WinRate >= t.MinWinRate,
	}

	// MaxDrawdown is <= 0; compare its magnitude against the ceiling.
	criteria[4] = CriterionResult{
		Name:      "Max drawdown",
		Threshold: fmt.Sprintf("<= %.0f%%", t.MaxDrawdownPct),
		Actual:    fmt.Sprintf("%.1f%%", -m.MaxDrawdown),
		Pass:      -m.MaxDrawdown <= t.MaxDrawdownPct,
	}

	return criteria
}

func (e *Evaluator) evaluateNOGOTriggers(result *domain.BacktestResult) []CriterionResult {
	m := result.Metrics
	t := e.thresholds
	checks := make([]CriterionResult, 4)

	checks[0] = CriterionResult{
		Name:      "Negative total return",
		Threshold: "TotalReturnPct < 0",
		Actual:    fmt.Sprintf("%.2f%%", m.TotalReturnPct),
		Pass:      m.TotalReturnPct >= 0,
	}

	checks[1] = CriterionResult{
		Name:      "Catastrophic drawdown",
		Threshold: fmt.Sprintf("> %.0f%%", t.HardDrawdownPct),
		Actual:    fmt.Sprintf("%.1f%%", -m.MaxDrawdown),
		Pass:      -m.MaxDrawdown <= t.HardDrawdownPct,
	}

	warningRatio := 0.0
	if result.BarsProcessed > 0 {
		warningRatio = float64(len(result.Warnings)) / float64(result.BarsProcessed)
	}
	checks[2] = CriterionResult{
		Name:      "Excessive warnings",
		Threshold: fmt.Sprintf("> %.0f%% of bars", t.MaxWarningRatio*100),
		Actual:    fmt.Sprintf("%.1f%%", warningRatio*100),
		Pass:      warningRatio <= t.MaxWarningRatio,
	}

	checks[3] = CriterionResult{
		Name:      "Run not completed",
		Threshold: "status != COMPLETED",
		Actual:    string(result.Status),
		Pass:      result.Status == domain.RunCompleted,
	}

	return checks
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
