package domain

import "time"

// RunConfig is the immutable input for one backtest run. It is owned
// solely by the orchestrator for the duration of the run and never
// shared across concurrent runs.
type RunConfig struct {
	Symbol    string
	Timeframe string // e.g. "1h", "1d"
	Strategy  string // resolved strategy/model identifier
	Start     time.Time
	End       time.Time

	InitialCapital float64
	CommissionRate float64 // charged independently on entry and exit
	SlippageRate   float64 // >= 0, 0 is a valid no-op

	// CapitalUtilization is the fraction of available capital committed
	// to a new position, in (0, 1].
	CapitalUtilization float64

	// StrictMode turns recoverable per-bar failures (decision provider
	// errors, missing features, invalid transitions) into fatal aborts.
	StrictMode bool

	// AllowReversal controls the in-position opposite-signal behavior:
	// false closes the position only; true closes it and immediately
	// reopens in the opposite direction on the same bar.
	AllowReversal bool
}
