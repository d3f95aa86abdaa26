package domain

import "time"

// Trade represents a closed round trip with full execution details.
// Created at the moment a position closes and never mutated afterwards.
// Invariant: NetPnL == GrossPnL - Commission - SlippageCost, always.
type Trade struct {
	TradeID int // monotonic within a run, starting at 1
	Side    Side

	// Entry
	EntryPrice float64 // slippage-adjusted fill
	EntryTime  time.Time

	// Exit
	ExitPrice float64 // slippage-adjusted fill
	ExitTime  time.Time

	Quantity float64

	// PnL decomposition. GrossPnL is computed on reference prices;
	// SlippageCost is the entry+exit notional difference between fill
	// and reference, so the invariant above holds exactly.
	GrossPnL     float64
	Commission   float64 // entry leg + exit leg
	SlippageCost float64
	NetPnL       float64

	HoldingPeriodHours float64

	// Excursions recorded over the position's lifetime.
	MaxFavorableExcursion float64
	MaxAdverseExcursion   float64

	// Audit metadata from the opening decision.
	DecisionMetadata map[string]string
}
