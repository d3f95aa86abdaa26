package domain

import "time"

// Bar represents one OHLCV sample for a fixed time interval.
// Bars arrive from the data provider ordered by strictly increasing
// timestamp with no duplicates; the orchestrator validates this before
// a run starts.
type Bar struct {
	Timestamp     time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64
	SequenceIndex int // position within the loaded range, 0-based
}
