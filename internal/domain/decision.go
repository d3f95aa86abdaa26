package domain

// Signal represents a trading signal from the decision provider.
type Signal string

// Signal constants.
const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Valid reports whether the signal is one of the known constants.
func (s Signal) Valid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold:
		return true
	}
	return false
}

// Decision is produced once per bar by the decision provider.
// It is immutable and consumed exactly once by the orchestrator.
type Decision struct {
	Signal     Signal
	Confidence float64           // 0.0 to 1.0
	Metadata   map[string]string // opaque audit trail, copied onto closed trades
}

// ValidConfidence reports whether Confidence is within [0, 1].
func (d Decision) ValidConfidence() bool {
	return d.Confidence >= 0 && d.Confidence <= 1
}
