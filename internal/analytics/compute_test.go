package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

func day(i int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func curve(values ...float64) []domain.EquitySample {
	samples := make([]domain.EquitySample, len(values))
	for i, v := range values {
		samples[i] = domain.EquitySample{
			Timestamp:      day(i),
			PortfolioValue: v,
			PositionStatus: domain.PositionFlat,
		}
	}
	return samples
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompute_TotalReturn(t *testing.T) {
	m := Compute(curve(100000, 101000, 103000), nil)

	if !almostEqual(m.TotalReturn, 3000) {
		t.Errorf("expected total return 3000, got %f", m.TotalReturn)
	}
	if !almostEqual(m.TotalReturnPct, 3.0) {
		t.Errorf("expected 3%%, got %f", m.TotalReturnPct)
	}
}

func TestCompute_FlatCurveIsAllZero(t *testing.T) {
	m := Compute(curve(100000, 100000, 100000), nil)

	if m.TotalReturn != 0 || m.AnnualizedReturn != 0 {
		t.Error("flat curve must have zero returns")
	}
	if m.Volatility != 0 || m.SharpeRatio != 0 || m.SortinoRatio != 0 {
		t.Error("flat curve must have zero risk metrics")
	}
	if m.MaxDrawdown != 0 {
		t.Errorf("flat curve must have zero drawdown, got %f", m.MaxDrawdown)
	}
}

func TestCompute_AnnualizedReturn(t *testing.T) {
	// 10 days, 100000 -> 110000: ((1.1)^(365.25/10) - 1) * 100
	samples := curve(100000, 102000, 101000, 103000, 104000, 105000, 106000, 107000, 108000, 109000, 110000)
	m := Compute(samples, nil)

	want := (math.Pow(1.1, 365.25/10) - 1) * 100
	if !almostEqual(m.AnnualizedReturn, want) {
		t.Errorf("expected annualized %f, got %f", want, m.AnnualizedReturn)
	}
}

func TestCompute_SingleSample(t *testing.T) {
	m := Compute(curve(100000), nil)

	if m.AnnualizedReturn != 0 {
		t.Errorf("zero-day span must yield 0 annualized, got %f", m.AnnualizedReturn)
	}
	if m.Volatility != 0 {
		t.Errorf("fewer than 2 samples must yield 0 volatility, got %f", m.Volatility)
	}
}

func TestCompute_MaxDrawdown(t *testing.T) {
	// Peak 120000, trough 90000: (90000-120000)/120000 = -25%
	m := Compute(curve(100000, 120000, 110000, 90000, 115000), nil)

	if !almostEqual(m.MaxDrawdown, -25) {
		t.Errorf("expected -25, got %f", m.MaxDrawdown)
	}
}

func TestCompute_MaxDrawdownNonPositive(t *testing.T) {
	// Monotonically rising equity never draws down.
	m := Compute(curve(100, 110, 120, 130), nil)
	if m.MaxDrawdown != 0 {
		t.Errorf("non-decreasing equity must have drawdown 0, got %f", m.MaxDrawdown)
	}

	m = Compute(curve(100, 90, 95, 80, 120), nil)
	if m.MaxDrawdown > 0 {
		t.Errorf("drawdown must never be positive, got %f", m.MaxDrawdown)
	}
}

func TestCompute_MaxDrawdownDuration(t *testing.T) {
	// Peak at day 1, underwater days 2-4, recovery day 5: 3 days under.
	m := Compute(curve(100, 120, 110, 105, 118, 125), nil)

	if !almostEqual(m.MaxDrawdownDuration, 3) {
		t.Errorf("expected 3 days, got %f", m.MaxDrawdownDuration)
	}
}

func TestCompute_SortinoZeroWithoutNegativeReturns(t *testing.T) {
	m := Compute(curve(100, 105, 110, 116), nil)
	if m.SortinoRatio != 0 {
		t.Errorf("no negative returns must yield Sortino 0, got %f", m.SortinoRatio)
	}
}

func TestCompute_SortinoWithNegativeReturns(t *testing.T) {
	m := Compute(curve(100, 95, 103, 99, 108, 104, 111), nil)
	if m.SortinoRatio == 0 {
		t.Error("expected non-zero Sortino with mixed returns")
	}
	if math.IsNaN(m.SortinoRatio) || math.IsInf(m.SortinoRatio, 0) {
		t.Errorf("Sortino must be finite, got %f", m.SortinoRatio)
	}
}

func TestCompute_SharpeZeroWhenVolatilityZero(t *testing.T) {
	m := Compute(curve(100, 100, 100), nil)
	if m.SharpeRatio != 0 {
		t.Errorf("zero volatility must yield Sharpe 0, got %f", m.SharpeRatio)
	}
}

func TestCompute_CalmarZeroWhenNoDrawdown(t *testing.T) {
	m := Compute(curve(100, 110, 121), nil)
	if m.CalmarRatio != 0 {
		t.Errorf("zero drawdown must yield Calmar 0, got %f", m.CalmarRatio)
	}
}

func TestCompute_CalmarIsAbsolute(t *testing.T) {
	m := Compute(curve(100, 120, 90, 95), nil)
	if m.CalmarRatio < 0 {
		t.Errorf("Calmar must be non-negative, got %f", m.CalmarRatio)
	}
	if m.MaxDrawdown == 0 {
		t.Fatal("test curve should draw down")
	}
	want := math.Abs(m.AnnualizedReturn / m.MaxDrawdown)
	if !almostEqual(m.CalmarRatio, want) {
		t.Errorf("expected Calmar %f, got %f", want, m.CalmarRatio)
	}
}

func tradeWithPnL(id int, net float64, holdHours float64) *domain.Trade {
	return &domain.Trade{
		TradeID:            id,
		Side:               domain.SideLong,
		NetPnL:             net,
		GrossPnL:           net,
		HoldingPeriodHours: holdHours,
	}
}

func TestCompute_TradeStats(t *testing.T) {
	trades := []*domain.Trade{
		tradeWithPnL(1, 500, 24),
		tradeWithPnL(2, -200, 12),
		tradeWithPnL(3, 300, 48),
		tradeWithPnL(4, -100, 6),
	}
	m := Compute(curve(100000, 100500), trades)

	if m.TotalTrades != 4 || m.WinningTrades != 2 || m.LosingTrades != 2 {
		t.Errorf("counts wrong: %d/%d/%d", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	}
	if !almostEqual(m.WinRate, 0.5) {
		t.Errorf("expected win rate 0.5, got %f", m.WinRate)
	}
	if !almostEqual(m.AverageWin, 400) {
		t.Errorf("expected average win 400, got %f", m.AverageWin)
	}
	if !almostEqual(m.AverageLoss, -150) {
		t.Errorf("expected average loss -150, got %f", m.AverageLoss)
	}
	// profit factor = 800 / 300
	if !almostEqual(m.ProfitFactor, 800.0/300.0) {
		t.Errorf("expected profit factor %f, got %f", 800.0/300.0, m.ProfitFactor)
	}
	// risk/reward = |400 / -150|
	if !almostEqual(m.RiskReward, 400.0/150.0) {
		t.Errorf("expected risk/reward %f, got %f", 400.0/150.0, m.RiskReward)
	}
	if !almostEqual(m.AvgHoldingPeriodHours, 22.5) {
		t.Errorf("expected avg hold 22.5, got %f", m.AvgHoldingPeriodHours)
	}
	if m.MaxHoldingPeriodHours != 48 || m.MinHoldingPeriodHours != 6 {
		t.Errorf("hold extremes wrong: %f/%f", m.MaxHoldingPeriodHours, m.MinHoldingPeriodHours)
	}
}

func TestCompute_ProfitFactorSentinelWithoutLosses(t *testing.T) {
	trades := []*domain.Trade{tradeWithPnL(1, 100, 1), tradeWithPnL(2, 50, 1)}
	m := Compute(curve(100000, 100150), trades)

	if !math.IsInf(m.ProfitFactor, 1) {
		t.Errorf("expected +Inf profit factor, got %f", m.ProfitFactor)
	}
	if !math.IsInf(m.RiskReward, 1) {
		t.Errorf("expected +Inf risk/reward, got %f", m.RiskReward)
	}
}

func TestCompute_NoTrades(t *testing.T) {
	m := Compute(curve(100000, 100000), nil)

	if m.TotalTrades != 0 || m.WinRate != 0 {
		t.Error("no trades must yield zero counts")
	}
	if m.AvgHoldingPeriodHours != 0 || m.MaxHoldingPeriodHours != 0 || m.MinHoldingPeriodHours != 0 {
		t.Error("no trades must yield zero holding periods")
	}
	if !math.IsInf(m.ProfitFactor, 1) {
		t.Errorf("zero losses resolve to +Inf, got %f", m.ProfitFactor)
	}
}

func TestCompute_Excursions(t *testing.T) {
	trades := []*domain.Trade{
		{TradeID: 1, NetPnL: 10, MaxFavorableExcursion: 100, MaxAdverseExcursion: -20},
		{TradeID: 2, NetPnL: -5, MaxFavorableExcursion: 40, MaxAdverseExcursion: -60},
	}
	m := Compute(curve(1000, 1005), trades)

	if !almostEqual(m.AvgMaxFavorableExcursion, 70) {
		t.Errorf("expected avg MFE 70, got %f", m.AvgMaxFavorableExcursion)
	}
	if !almostEqual(m.AvgMaxAdverseExcursion, -40) {
		t.Errorf("expected avg MAE -40, got %f", m.AvgMaxAdverseExcursion)
	}
}

func TestCompute_NeverNaN(t *testing.T) {
	cases := [][]domain.EquitySample{
		curve(100000),
		curve(100000, 100000),
		curve(100000, 0),
		curve(0, 0),
	}
	for i, samples := range cases {
		m := Compute(samples, nil)
		for name, v := range map[string]float64{
			"TotalReturnPct":   m.TotalReturnPct,
			"AnnualizedReturn": m.AnnualizedReturn,
			"Volatility":       m.Volatility,
			"SharpeRatio":      m.SharpeRatio,
			"SortinoRatio":     m.SortinoRatio,
			"MaxDrawdown":      m.MaxDrawdown,
			"CalmarRatio":      m.CalmarRatio,
			"WinRate":          m.WinRate,
		} {
			if math.IsNaN(v) {
				t.Errorf("case %d: %s is NaN", i, name)
			}
		}
	}
}
