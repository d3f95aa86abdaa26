// Package execution provides the pure fill-price, commission, and
// position-sizing arithmetic used by the ledger. All functions are
// side-effect free and deterministic.
package execution

import (
	"errors"
	"math"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// ErrInsufficientCapital is returned when available capital cannot buy
// a single unit at the given price.
var ErrInsufficientCapital = errors.New("insufficient capital to open position")

// FillPrice applies slippage to a reference price. Buys pay up, sells
// receive less; a slippage rate of 0 is a valid no-op.
//
//	Buy:  reference * (1 + slippageRate)
//	Sell: reference * (1 - slippageRate)
func FillPrice(referencePrice float64, side domain.Side, slippageRate float64) float64 {
	if side == domain.SideLong {
		return referencePrice * (1 + slippageRate)
	}
	return referencePrice * (1 - slippageRate)
}

// EntryFillPrice returns the fill price for opening a position on the
// given side. Opening a Long buys; opening a Short sells.
func EntryFillPrice(referencePrice float64, side domain.Side, slippageRate float64) float64 {
	return FillPrice(referencePrice, side, slippageRate)
}

// ExitFillPrice returns the fill price for closing a position on the
// given side. Closing a Long sells; closing a Short buys back.
func ExitFillPrice(referencePrice float64, side domain.Side, slippageRate float64) float64 {
	if side == domain.SideLong {
		return FillPrice(referencePrice, domain.SideShort, slippageRate)
	}
	return FillPrice(referencePrice, domain.SideLong, slippageRate)
}

// CommissionCost computes the commission for one leg:
// price * quantity * commissionRate. Charged independently on entry
// and on exit.
func CommissionCost(price, quantity, commissionRate float64) float64 {
	return price * quantity * commissionRate
}

// PositionSize computes the whole-unit quantity affordable at price
// with the given utilization fraction of available capital:
// floor(availableCapital * utilization / price). Returns
// ErrInsufficientCapital when not even one unit is affordable.
func PositionSize(availableCapital, price, utilization float64) (float64, error) {
	if price <= 0 {
		return 0, ErrInsufficientCapital
	}
	qty := math.Floor(availableCapital * utilization / price)
	if qty < 1 {
		return 0, ErrInsufficientCapital
	}
	return qty, nil
}
