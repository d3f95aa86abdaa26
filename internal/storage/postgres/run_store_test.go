package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

func testRunResult(runID, symbol string, startedAt time.Time) *domain.BacktestResult {
	return &domain.BacktestResult{
		RunID: runID,
		Config: domain.RunConfig{
			Symbol:             symbol,
			Timeframe:          "1h",
			Strategy:           "scripted",
			Start:              startedAt.Add(-30 * 24 * time.Hour),
			End:                startedAt,
			InitialCapital:     100_000,
			CommissionRate:     0.001,
			SlippageRate:       0.0005,
			CapitalUtilization: 0.95,
		},
		Status: domain.RunCompleted,
		Metrics: &domain.PerformanceMetrics{
			TotalReturn:    9500,
			TotalReturnPct: 9.5,
			SharpeRatio:    1.2,
			MaxDrawdown:    -4.2,
			TotalTrades:    3,
			WinningTrades:  3,
			WinRate:        1.0,
			ProfitFactor:   math.Inf(1),
			RiskReward:     math.Inf(1),
		},
		Warnings: []domain.Warning{
			{BarIndex: 7, Timestamp: startedAt, Kind: domain.WarnFeatureMissing, Message: "no vector"},
		},
		BarsProcessed: 720,
		StartedAt:     startedAt,
		FinishedAt:    startedAt.Add(2 * time.Second),
	}
}

func TestRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testRunResult("run1", "AAPL", started)))

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", got.Config.Symbol)
	assert.Equal(t, "1h", got.Config.Timeframe)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, 720, got.BarsProcessed)
	assert.Equal(t, 100_000.0, got.Config.InitialCapital)
	assert.Equal(t, 9.5, got.Metrics.TotalReturnPct)
	assert.Equal(t, 3, got.Metrics.TotalTrades)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, domain.WarnFeatureMissing, got.Warnings[0].Kind)
	assert.Equal(t, 7, got.Warnings[0].BarIndex)
}

func TestRunStore_InfinitySentinelsSurviveRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	started := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Insert(ctx, testRunResult("run1", "AAPL", started)))

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)

	assert.True(t, math.IsInf(got.Metrics.ProfitFactor, 1), "profit factor should round-trip as +Inf")
	assert.True(t, math.IsInf(got.Metrics.RiskReward, 1), "risk reward should round-trip as +Inf")
}

func TestRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	started := time.Now().UTC()
	require.NoError(t, store.Insert(ctx, testRunResult("run1", "AAPL", started)))

	err := store.Insert(ctx, testRunResult("run1", "AAPL", started))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewRunStore(pool).GetByRunID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetBySymbolOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testRunResult("run_b", "AAPL", base.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, testRunResult("run_a", "AAPL", base)))
	require.NoError(t, store.Insert(ctx, testRunResult("run_other", "MSFT", base)))

	got, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run_a", got[0].RunID)
	assert.Equal(t, "run_b", got[1].RunID)
}
