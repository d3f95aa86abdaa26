package idhash

import (
	"testing"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

func baseConfig() domain.RunConfig {
	return domain.RunConfig{
		Symbol:         "EURUSD",
		Timeframe:      "1h",
		Strategy:       "neuro-mean-reversion:3",
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		InitialCapital: 100000,
	}
}

func TestComputeRunID_Deterministic(t *testing.T) {
	a := ComputeRunID(baseConfig())
	b := ComputeRunID(baseConfig())
	if a != b {
		t.Errorf("same config must hash identically: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestComputeRunID_SensitiveToEachField(t *testing.T) {
	base := ComputeRunID(baseConfig())

	mutations := []func(*domain.RunConfig){
		func(c *domain.RunConfig) { c.Symbol = "GBPUSD" },
		func(c *domain.RunConfig) { c.Timeframe = "4h" },
		func(c *domain.RunConfig) { c.Strategy = "neuro-mean-reversion:4" },
		func(c *domain.RunConfig) { c.Start = c.Start.Add(time.Hour) },
		func(c *domain.RunConfig) { c.End = c.End.Add(time.Hour) },
		func(c *domain.RunConfig) { c.InitialCapital = 50000 },
	}
	for i, mutate := range mutations {
		cfg := baseConfig()
		mutate(&cfg)
		if ComputeRunID(cfg) == base {
			t.Errorf("mutation %d did not change the run ID", i)
		}
	}
}

func TestComputeTradeKey_UniquePerTrade(t *testing.T) {
	runID := ComputeRunID(baseConfig())

	k1 := ComputeTradeKey(runID, 1)
	k2 := ComputeTradeKey(runID, 2)
	if k1 == k2 {
		t.Error("different trade IDs must produce different keys")
	}
	if k1 != ComputeTradeKey(runID, 1) {
		t.Error("trade key must be deterministic")
	}
}
