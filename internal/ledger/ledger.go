// Package ledger owns the position state machine and the append-only
// trade list for a single backtest run. It is pure state plus
// transition logic: no I/O, no clocks, no shared state between runs.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/execution"
)

// ErrInvalidTransition is returned for signals the transition table does
// not define, which indicates a logic bug in the caller.
var ErrInvalidTransition = errors.New("invalid position state transition")

// Ledger holds exactly one position and the ordered sequence of closed
// trades. All mutation goes through Execute and Update.
type Ledger struct {
	capital     float64
	position    domain.Position
	trades      []*domain.Trade
	nextTradeID int

	commissionRate float64
	slippageRate   float64
	utilization    float64
	allowReversal  bool
}

// New creates a ledger for one run from its immutable config.
func New(cfg domain.RunConfig) *Ledger {
	return &Ledger{
		capital:        cfg.InitialCapital,
		position:       domain.Position{Status: domain.PositionFlat},
		trades:         make([]*domain.Trade, 0),
		nextTradeID:    1,
		commissionRate: cfg.CommissionRate,
		slippageRate:   cfg.SlippageRate,
		utilization:    cfg.CapitalUtilization,
		allowReversal:  cfg.AllowReversal,
	}
}

// Execute applies the transition table for one signal at the given
// reference price. It returns the closed trade when the signal closed a
// position, nil otherwise.
//
//	FLAT  + BUY  -> open long
//	FLAT  + SELL -> open short
//	LONG  + SELL -> close long (then reopen short when reversal is on)
//	SHORT + BUY  -> close short (then reopen long when reversal is on)
//	LONG  + BUY, SHORT + SELL -> no-op
//	any   + HOLD -> no-op
//
// Opening may fail with execution.ErrInsufficientCapital; the ledger
// state is unchanged in that case. On a reversal the close always
// completes; a sizing failure on the reopen leg returns the closed
// trade together with the error.
func (l *Ledger) Execute(signal domain.Signal, refPrice float64, ts time.Time, metadata map[string]string) (*domain.Trade, error) {
	switch {
	case signal == domain.SignalHold:
		return nil, nil

	case l.position.Status == domain.PositionFlat && signal == domain.SignalBuy:
		return nil, l.open(domain.SideLong, refPrice, ts, metadata)

	case l.position.Status == domain.PositionFlat && signal == domain.SignalSell:
		return nil, l.open(domain.SideShort, refPrice, ts, metadata)

	case l.position.Status == domain.PositionLong && signal == domain.SignalSell:
		trade := l.close(refPrice, ts)
		if l.allowReversal {
			return trade, l.open(domain.SideShort, refPrice, ts, metadata)
		}
		return trade, nil

	case l.position.Status == domain.PositionShort && signal == domain.SignalBuy:
		trade := l.close(refPrice, ts)
		if l.allowReversal {
			return trade, l.open(domain.SideLong, refPrice, ts, metadata)
		}
		return trade, nil

	case l.position.Status == domain.PositionLong && signal == domain.SignalBuy,
		l.position.Status == domain.PositionShort && signal == domain.SignalSell:
		// Already positioned in that direction.
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, signal, l.position.Status)
	}
}

// Update marks the open position to market. Called once per bar
// regardless of signal; a no-op on capital when flat.
func (l *Ledger) Update(currentPrice float64, ts time.Time) {
	l.position.CurrentPrice = currentPrice
	l.position.LastUpdateTime = ts

	if !l.position.Open() {
		return
	}

	qty := l.position.Quantity
	if l.position.Status == domain.PositionLong {
		l.position.UnrealizedPnL = (currentPrice - l.position.EntryPrice) * qty
	} else {
		l.position.UnrealizedPnL = (l.position.EntryPrice - currentPrice) * qty
	}

	if l.position.UnrealizedPnL > l.position.MaxFavorableExcursion {
		l.position.MaxFavorableExcursion = l.position.UnrealizedPnL
	}
	if l.position.UnrealizedPnL < l.position.MaxAdverseExcursion {
		l.position.MaxAdverseExcursion = l.position.UnrealizedPnL
	}
}

// open creates the position. Longs debit the purchase plus commission;
// shorts credit the sale proceeds minus commission.
func (l *Ledger) open(side domain.Side, refPrice float64, ts time.Time, metadata map[string]string) error {
	fill := execution.EntryFillPrice(refPrice, side, l.slippageRate)

	qty, err := execution.PositionSize(l.capital, fill, l.utilization)
	if err != nil {
		return err
	}

	commission := execution.CommissionCost(fill, qty, l.commissionRate)
	if side == domain.SideLong {
		l.capital -= fill*qty + commission
	} else {
		l.capital += fill*qty - commission
	}

	status := domain.PositionLong
	if side == domain.SideShort {
		status = domain.PositionShort
	}

	l.position = domain.Position{
		Status:         status,
		EntryPrice:     fill,
		EntryRefPrice:  refPrice,
		EntryTime:      ts,
		Quantity:       qty,
		CurrentPrice:   refPrice,
		LastUpdateTime: ts,
		EntryMetadata:  copyMetadata(metadata),
	}
	return nil
}

// close converts the position into an immutable trade and resets the
// ledger to flat. Caller guarantees the position is open.
func (l *Ledger) close(refPrice float64, ts time.Time) *domain.Trade {
	pos := l.position
	side := domain.SideLong
	dir := 1.0
	if pos.Status == domain.PositionShort {
		side = domain.SideShort
		dir = -1.0
	}

	exitFill := execution.ExitFillPrice(refPrice, side, l.slippageRate)
	qty := pos.Quantity

	entryCommission := execution.CommissionCost(pos.EntryPrice, qty, l.commissionRate)
	exitCommission := execution.CommissionCost(exitFill, qty, l.commissionRate)
	commission := entryCommission + exitCommission

	// Gross uses reference prices; slippage is the entry+exit notional
	// difference between fill and reference. NetPnL then satisfies
	// net == gross - commission - slippage exactly.
	grossPnL := dir * (refPrice - pos.EntryRefPrice) * qty
	slippageCost := dir * ((pos.EntryPrice - pos.EntryRefPrice) + (refPrice - exitFill)) * qty
	netPnL := grossPnL - commission - slippageCost

	if side == domain.SideLong {
		l.capital += exitFill*qty - exitCommission
	} else {
		l.capital -= exitFill*qty + exitCommission
	}

	trade := &domain.Trade{
		TradeID:               l.nextTradeID,
		Side:                  side,
		EntryPrice:            pos.EntryPrice,
		EntryTime:             pos.EntryTime,
		ExitPrice:             exitFill,
		ExitTime:              ts,
		Quantity:              qty,
		GrossPnL:              grossPnL,
		Commission:            commission,
		SlippageCost:          slippageCost,
		NetPnL:                netPnL,
		HoldingPeriodHours:    ts.Sub(pos.EntryTime).Hours(),
		MaxFavorableExcursion: pos.MaxFavorableExcursion,
		MaxAdverseExcursion:   pos.MaxAdverseExcursion,
		DecisionMetadata:      pos.EntryMetadata,
	}

	l.nextTradeID++
	l.trades = append(l.trades, trade)
	l.position = domain.Position{
		Status:         domain.PositionFlat,
		CurrentPrice:   refPrice,
		LastUpdateTime: ts,
	}
	return trade
}

// PortfolioValue is capital plus the signed market value of the open
// position: long positions add quantity*price, short positions subtract
// the buyback liability.
func (l *Ledger) PortfolioValue() float64 {
	switch l.position.Status {
	case domain.PositionLong:
		return l.capital + l.position.Quantity*l.position.CurrentPrice
	case domain.PositionShort:
		return l.capital - l.position.Quantity*l.position.CurrentPrice
	default:
		return l.capital
	}
}

// Capital returns the free capital not committed to a position.
func (l *Ledger) Capital() float64 {
	return l.capital
}

// Position returns a snapshot copy of the current position.
func (l *Ledger) Position() domain.Position {
	return l.position
}

// Trades returns the ordered closed-trade sequence.
func (l *Ledger) Trades() []*domain.Trade {
	return l.trades
}

func copyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
