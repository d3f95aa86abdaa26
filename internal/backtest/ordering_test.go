package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

func TestValidateBarsAccepts(t *testing.T) {
	if err := ValidateBars(makeBars(100, 101, 102)); err != nil {
		t.Fatalf("ValidateBars: %v", err)
	}
}

func TestValidateBarsRejectsEmpty(t *testing.T) {
	if err := ValidateBars(nil); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestValidateBarsRejectsDuplicateTimestamp(t *testing.T) {
	bars := makeBars(100, 101)
	bars[1].Timestamp = bars[0].Timestamp

	if err := ValidateBars(bars); !errors.Is(err, ErrBarOrdering) {
		t.Fatalf("err = %v, want ErrBarOrdering", err)
	}
}

func TestValidateBarsRejectsOutOfOrder(t *testing.T) {
	bars := makeBars(100, 101, 102)
	bars[2].Timestamp = bars[0].Timestamp.Add(-time.Hour)

	if err := ValidateBars(bars); !errors.Is(err, ErrBarOrdering) {
		t.Fatalf("err = %v, want ErrBarOrdering", err)
	}
}

func TestValidateBarsSingleBar(t *testing.T) {
	if err := ValidateBars([]domain.Bar{{Timestamp: time.Now().UTC(), Close: 100}}); err != nil {
		t.Fatalf("ValidateBars: %v", err)
	}
}
