// Package idhash computes deterministic identifiers so that persisted
// results are reproducible and safe against duplicate inserts.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(symbol|timeframe|strategy|start_ms|end_ms|capital)
// Returns hex-encoded hash (64 characters). Two runs over the same
// instrument, range, strategy, and capital share an identity.
func ComputeRunID(cfg domain.RunConfig) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%.8f",
		cfg.Symbol,
		cfg.Timeframe,
		cfg.Strategy,
		cfg.Start.UnixMilli(),
		cfg.End.UnixMilli(),
		cfg.InitialCapital,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeTradeKey computes the storage key for one closed trade.
// Formula: SHA256(run_id|trade_id). The in-run TradeID stays a small
// monotonic integer; this key makes it globally unique.
func ComputeTradeKey(runID string, tradeID int) string {
	data := fmt.Sprintf("%s|%d", runID, tradeID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
