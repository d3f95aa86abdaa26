package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
)

func testDBTrade(id int) *domain.Trade {
	entry := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	return &domain.Trade{
		TradeID:               id,
		Side:                  domain.SideLong,
		EntryPrice:            100.05,
		EntryTime:             entry,
		ExitPrice:             109.945,
		ExitTime:              entry.Add(6 * time.Hour),
		Quantity:              950,
		GrossPnL:              9500,
		Commission:            199.5,
		SlippageCost:          99.75,
		NetPnL:                9200.75,
		HoldingPeriodHours:    6,
		MaxFavorableExcursion: 9600,
		MaxAdverseExcursion:   -250,
		DecisionMetadata:      map[string]string{"provider": "scripted", "step": "3"},
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, "run1", testDBTrade(1)))

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	tr := got[0]
	assert.Equal(t, 1, tr.TradeID)
	assert.Equal(t, domain.SideLong, tr.Side)
	assert.Equal(t, 100.05, tr.EntryPrice)
	assert.Equal(t, 9200.75, tr.NetPnL)
	assert.Equal(t, "scripted", tr.DecisionMetadata["provider"])
	assert.True(t, tr.EntryTime.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, "run1", testDBTrade(1)))

	err := store.Insert(ctx, "run1", testDBTrade(1))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same trade ID under another run is a distinct key.
	assert.NoError(t, store.Insert(ctx, "run2", testDBTrade(1)))
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, "run1", testDBTrade(2)))

	err := store.InsertBulk(ctx, "run1", []*domain.Trade{testDBTrade(1), testDBTrade(2), testDBTrade(3)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Transaction rolled back: only the original trade remains.
	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTradeStore_GetByRunIDOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, "run1", []*domain.Trade{
		testDBTrade(3), testDBTrade(1), testDBTrade(2),
	}))

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, tr := range got {
		assert.Equal(t, i+1, tr.TradeID)
	}
}

func TestTradeStore_EmptyRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := NewTradeStore(pool).GetByRunID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
