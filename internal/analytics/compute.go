// Package analytics computes the performance report for a finished run
// from its equity curve and closed-trade list. It is stateless given
// its inputs and never fails: every division-by-zero case resolves to a
// documented sentinel (0 or +Inf), not NaN.
package analytics

import (
	"math"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

const (
	tradingDaysPerYear  = 252.0
	calendarDaysPerYear = 365.25
)

// Compute derives all metrics from the equity-sample sequence and the
// trade list. Both order-dependent calculations (drawdown, duration)
// rely on the curve being in bar order, which the orchestrator
// guarantees.
func Compute(equity []domain.EquitySample, trades []*domain.Trade) *domain.PerformanceMetrics {
	m := &domain.PerformanceMetrics{}
	if len(equity) == 0 {
		fillTradeStats(m, trades)
		return m
	}

	first := equity[0].PortfolioValue
	last := equity[len(equity)-1].PortfolioValue

	m.TotalReturn = last - first
	if first != 0 {
		m.TotalReturnPct = m.TotalReturn / first * 100
	}

	spanDays := equity[len(equity)-1].Timestamp.Sub(equity[0].Timestamp).Hours() / 24
	m.AnnualizedReturn = computeAnnualizedReturn(first, last, spanDays)

	returns := computeReturns(equity)
	m.Volatility = computeStddev(returns) * math.Sqrt(tradingDaysPerYear) * 100
	if m.Volatility > 0 {
		m.SharpeRatio = m.AnnualizedReturn / m.Volatility
	}
	m.SortinoRatio = computeSortino(m.AnnualizedReturn, returns)

	m.MaxDrawdown = computeMaxDrawdown(equity)
	m.MaxDrawdownDuration = computeMaxDrawdownDuration(equity)
	if m.MaxDrawdown != 0 {
		m.CalmarRatio = math.Abs(m.AnnualizedReturn / m.MaxDrawdown)
	}

	fillTradeStats(m, trades)
	return m
}

// computeAnnualizedReturn compounds the total return over the run span:
// ((last/first)^(365.25/spanDays) - 1) * 100. Zero-day spans yield 0.
func computeAnnualizedReturn(first, last, spanDays float64) float64 {
	if spanDays == 0 || first <= 0 || last <= 0 {
		return 0
	}
	return (math.Pow(last/first, calendarDaysPerYear/spanDays) - 1) * 100
}

// computeReturns produces the per-period fractional equity changes.
func computeReturns(equity []domain.EquitySample) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].PortfolioValue
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (equity[i].PortfolioValue-prev)/prev)
	}
	return returns
}

// computeStddev is the sample standard deviation (n-1 denominator).
// Fewer than 2 values yield 0.
func computeStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := computeMean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeSortino divides the annualized return by the annualized
// downside deviation. No negative returns, or a downside deviation of
// zero, yields the 0 sentinel.
func computeSortino(annualizedReturn float64, returns []float64) float64 {
	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return 0
	}
	downside := computeStddev(negatives) * math.Sqrt(tradingDaysPerYear)
	if downside == 0 {
		return 0
	}
	return annualizedReturn / downside
}

// computeMaxDrawdown returns the worst percentage decline from a running
// peak: min over t of (equity[t] - peak) / peak * 100. Always <= 0, and
// exactly 0 when equity never dips below its running peak.
func computeMaxDrawdown(equity []domain.EquitySample) float64 {
	peak := equity[0].PortfolioValue
	maxDrawdown := 0.0
	for _, s := range equity {
		if s.PortfolioValue > peak {
			peak = s.PortfolioValue
		}
		if peak <= 0 {
			continue
		}
		drawdown := (s.PortfolioValue - peak) / peak * 100
		if drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxDrawdownDuration returns the longest span, in calendar days,
// between a running peak and the last sample still at or below it. A new
// peak (or a recovery to the prior peak) resets the clock.
func computeMaxDrawdownDuration(equity []domain.EquitySample) float64 {
	peak := equity[0].PortfolioValue
	peakTime := equity[0].Timestamp
	maxDays := 0.0
	for _, s := range equity[1:] {
		if s.PortfolioValue >= peak {
			peak = s.PortfolioValue
			peakTime = s.Timestamp
			continue
		}
		days := s.Timestamp.Sub(peakTime).Hours() / 24
		if days > maxDays {
			maxDays = days
		}
	}
	return maxDays
}

// fillTradeStats populates trade-level statistics. Winners have
// NetPnL > 0, losers NetPnL < 0; break-even trades count toward
// totals only.
func fillTradeStats(m *domain.PerformanceMetrics, trades []*domain.Trade) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		m.ProfitFactor = math.Inf(1)
		m.RiskReward = math.Inf(1)
		return
	}

	var (
		grossProfits, grossLosses float64
		sumWins, sumLosses        float64
		sumHold, sumMFE, sumMAE   float64
	)
	maxHold := math.Inf(-1)
	minHold := math.Inf(1)

	for _, t := range trades {
		switch {
		case t.NetPnL > 0:
			m.WinningTrades++
			sumWins += t.NetPnL
			grossProfits += t.NetPnL
		case t.NetPnL < 0:
			m.LosingTrades++
			sumLosses += t.NetPnL
			grossLosses += -t.NetPnL
		}

		sumHold += t.HoldingPeriodHours
		if t.HoldingPeriodHours > maxHold {
			maxHold = t.HoldingPeriodHours
		}
		if t.HoldingPeriodHours < minHold {
			minHold = t.HoldingPeriodHours
		}
		sumMFE += t.MaxFavorableExcursion
		sumMAE += t.MaxAdverseExcursion
	}

	n := float64(len(trades))
	m.WinRate = float64(m.WinningTrades) / n

	if m.WinningTrades > 0 {
		m.AverageWin = sumWins / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = sumLosses / float64(m.LosingTrades)
	}

	if grossLosses > 0 {
		m.ProfitFactor = grossProfits / grossLosses
	} else {
		m.ProfitFactor = math.Inf(1)
	}
	if m.AverageLoss != 0 {
		m.RiskReward = math.Abs(m.AverageWin / m.AverageLoss)
	} else {
		m.RiskReward = math.Inf(1)
	}

	m.AvgHoldingPeriodHours = sumHold / n
	m.MaxHoldingPeriodHours = maxHold
	m.MinHoldingPeriodHours = minHold
	m.AvgMaxFavorableExcursion = sumMFE / n
	m.AvgMaxAdverseExcursion = sumMAE / n
}
