package backtest

import (
	"fmt"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// ValidateBars checks the monotonicity guarantee the data provider
// makes: strictly increasing timestamps, no duplicates. The engine
// trusts the provider but fails fast here rather than corrupting a
// multi-hour run, since position state and capital depend on prior
// bars.
func ValidateBars(bars []domain.Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty bar sequence", ErrDataUnavailable)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: bar %d (%s) not after bar %d (%s)",
				ErrBarOrdering,
				i, bars[i].Timestamp.Format("2006-01-02T15:04:05Z07:00"),
				i-1, bars[i-1].Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
	}
	return nil
}
