package domain

import "time"

// EquitySample is one point of the equity curve. Exactly one sample is
// emitted per processed bar, including bars with no decision change.
type EquitySample struct {
	Timestamp      time.Time
	PortfolioValue float64
	PositionStatus PositionStatus
}
