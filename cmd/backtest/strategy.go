package main

import (
	"context"
	"strconv"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// computeSMAFeatures produces one feature vector per bar with the close
// price and, once each window has filled, the fast and slow simple
// moving averages. Warmup bars omit the SMA keys so the strategy holds
// until both are available.
func computeSMAFeatures(bars []domain.Bar, fast, slow int) []map[string]float64 {
	if fast < 1 {
		fast = 1
	}
	if slow < fast {
		slow = fast
	}
	vectors := make([]map[string]float64, len(bars))
	var fastSum, slowSum float64
	for i, bar := range bars {
		fastSum += bar.Close
		slowSum += bar.Close
		if i >= fast {
			fastSum -= bars[i-fast].Close
		}
		if i >= slow {
			slowSum -= bars[i-slow].Close
		}
		v := map[string]float64{"close": bar.Close}
		if i >= fast-1 {
			v["sma_fast"] = fastSum / float64(fast)
		}
		if i >= slow-1 {
			v["sma_slow"] = slowSum / float64(slow)
		}
		vectors[i] = v
	}
	return vectors
}

// smaCrossProvider is the built-in demonstration strategy: long while
// the fast SMA is above the slow SMA, short while below. Confidence
// scales with the relative spread between the two averages.
type smaCrossProvider struct {
	fastKey string
	slowKey string
}

func (p *smaCrossProvider) Decide(_ context.Context, features map[string]float64, _ domain.Position) (domain.Decision, error) {
	fast, fastOK := features[p.fastKey]
	slow, slowOK := features[p.slowKey]
	if !fastOK || !slowOK || slow == 0 {
		return domain.Decision{Signal: domain.SignalHold, Confidence: 1}, nil
	}

	spread := (fast - slow) / slow
	confidence := spread * 100
	if confidence < 0 {
		confidence = -confidence
	}
	if confidence > 1 {
		confidence = 1
	}

	signal := domain.SignalHold
	switch {
	case spread > 0:
		signal = domain.SignalBuy
	case spread < 0:
		signal = domain.SignalSell
	}
	return domain.Decision{
		Signal:     signal,
		Confidence: confidence,
		Metadata: map[string]string{
			"sma_fast": strconv.FormatFloat(fast, 'f', 4, 64),
			"sma_slow": strconv.FormatFloat(slow, 'f', 4, 64),
		},
	}, nil
}
