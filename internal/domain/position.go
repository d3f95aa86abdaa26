package domain

import "time"

// PositionStatus represents the state of the single active position.
type PositionStatus string

// Position status constants.
const (
	PositionFlat  PositionStatus = "FLAT"
	PositionLong  PositionStatus = "LONG"
	PositionShort PositionStatus = "SHORT"
)

// Side represents the direction of an open position or a closed trade.
type Side string

// Side constants.
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position is the single mutable position instance owned by a ledger.
// Invariant: status FLAT implies Quantity == 0 and UnrealizedPnL == 0;
// any other status implies Quantity > 0.
type Position struct {
	Status         PositionStatus
	EntryPrice     float64 // slippage-adjusted fill price
	EntryRefPrice  float64 // reference (close) price at entry
	EntryTime      time.Time
	Quantity       float64 // whole units, always > 0 magnitude when open
	CurrentPrice   float64
	LastUpdateTime time.Time
	UnrealizedPnL  float64

	// Running excursions, updated on every mark-to-market.
	MaxFavorableExcursion float64
	MaxAdverseExcursion   float64

	// Metadata from the decision that opened the position.
	EntryMetadata map[string]string
}

// Open reports whether the position is currently held.
func (p Position) Open() bool {
	return p.Status == PositionLong || p.Status == PositionShort
}
