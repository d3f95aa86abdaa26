package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/memory"
)

func setupStores(t *testing.T) (*memory.RunStore, *memory.TradeStore, *memory.EquityCurveStore) {
	t.Helper()
	return memory.NewRunStore(), memory.NewTradeStore(), memory.NewEquityCurveStore()
}

func seedRun(t *testing.T, runStore *memory.RunStore, tradeStore *memory.TradeStore, equityStore *memory.EquityCurveStore) string {
	t.Helper()
	ctx := context.Background()
	started := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	result := &domain.BacktestResult{
		RunID: "run1",
		Config: domain.RunConfig{
			Symbol: "AAPL", Timeframe: "1h", Strategy: "scripted",
			Start: started.AddDate(0, -1, 0), End: started,
			InitialCapital: 100_000, CapitalUtilization: 0.95,
		},
		Status: domain.RunCompleted,
		Metrics: &domain.PerformanceMetrics{
			TotalReturn: 9500, TotalReturnPct: 9.5, SharpeRatio: 1.3,
			TotalTrades: 1, WinningTrades: 1, WinRate: 1,
		},
		Warnings:      []domain.Warning{{BarIndex: 3, Kind: domain.WarnFeatureMissing, Message: "gap"}},
		BarsProcessed: 2,
		StartedAt:     started,
		FinishedAt:    started.Add(time.Second),
	}
	if err := runStore.Insert(ctx, result); err != nil {
		t.Fatal(err)
	}

	trade := &domain.Trade{
		TradeID: 1, Side: domain.SideLong,
		EntryPrice: 100, EntryTime: started,
		ExitPrice: 110, ExitTime: started.Add(4 * time.Hour),
		Quantity: 950, GrossPnL: 9500, NetPnL: 9500, HoldingPeriodHours: 4,
	}
	if err := tradeStore.Insert(ctx, "run1", trade); err != nil {
		t.Fatal(err)
	}

	samples := []domain.EquitySample{
		{Timestamp: started, PortfolioValue: 100_000, PositionStatus: domain.PositionLong},
		{Timestamp: started.Add(4 * time.Hour), PortfolioValue: 109_500, PositionStatus: domain.PositionFlat},
	}
	if err := equityStore.InsertBulk(ctx, "run1", samples); err != nil {
		t.Fatal(err)
	}
	return "run1"
}

func TestGenerateAssemblesPersistedRun(t *testing.T) {
	runStore, tradeStore, equityStore := setupStores(t)
	runID := seedRun(t, runStore, tradeStore, equityStore)

	gen := NewGenerator(runStore, tradeStore, equityStore)
	report, err := gen.Generate(context.Background(), runID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if report.RunID != runID {
		t.Errorf("run id = %s", report.RunID)
	}
	if len(report.Trades) != 1 || report.Trades[0].NetPnL != 9500 {
		t.Errorf("unexpected trades: %+v", report.Trades)
	}
	if len(report.EquityCurve) != 2 {
		t.Errorf("equity samples = %d, want 2", len(report.EquityCurve))
	}
	if report.FinalEquity != 109_500 {
		t.Errorf("final equity = %f, want 109500", report.FinalEquity)
	}
	if report.Metrics.SharpeRatio != 1.3 {
		t.Errorf("sharpe = %f", report.Metrics.SharpeRatio)
	}
}

func TestGenerateNotFound(t *testing.T) {
	runStore, tradeStore, equityStore := setupStores(t)

	_, err := NewGenerator(runStore, tradeStore, equityStore).Generate(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerateWithClock(t *testing.T) {
	runStore, tradeStore, equityStore := setupStores(t)
	runID := seedRun(t, runStore, tradeStore, equityStore)

	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(runStore, tradeStore, equityStore).WithClock(func() time.Time { return fixed })

	report, err := gen.Generate(context.Background(), runID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("generated at = %v, want %v", report.GeneratedAt, fixed)
	}
}

func TestRenderMarkdownSections(t *testing.T) {
	runStore, tradeStore, equityStore := setupStores(t)
	runID := seedRun(t, runStore, tradeStore, equityStore)

	report, err := NewGenerator(runStore, tradeStore, equityStore).Generate(context.Background(), runID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Backtest Report",
		"## Configuration",
		"## Performance",
		"## Trade Statistics",
		"## Trades",
		"## Warnings",
		"| Symbol | AAPL |",
		"run1",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderTradesCSV(t *testing.T) {
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{{
		TradeID: 1, Side: domain.SideShort,
		EntryTime: entry, EntryPrice: 102.05,
		ExitTime: entry.Add(2 * time.Hour), ExitPrice: 99.5,
		Quantity: 100, GrossPnL: 255, Commission: 20, SlippageCost: 10, NetPnL: 225,
		HoldingPeriodHours: 2,
	}}

	csv := RenderTradesCSV(trades)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,side,entry_time") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "1,SHORT,2024-01-01T00:00:00Z,102.05") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestRenderEquityCSV(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []domain.EquitySample{
		{Timestamp: base, PortfolioValue: 100_000, PositionStatus: domain.PositionFlat},
		{Timestamp: base.Add(time.Hour), PortfolioValue: 100_250.5, PositionStatus: domain.PositionLong},
	}

	csv := RenderEquityCSV(samples)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[2] != "2024-01-01T01:00:00Z,100250.5,LONG" {
		t.Errorf("unexpected row: %s", lines[2])
	}
}
