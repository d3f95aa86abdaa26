package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/domain"
)

// RenderTradesCSV renders the trade list as a CSV string.
func RenderTradesCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("trade_id,side,entry_time,entry_price,exit_time,exit_price,quantity,")
	sb.WriteString("gross_pnl,commission,slippage_cost,net_pnl,")
	sb.WriteString("holding_period_hours,max_favorable_excursion,max_adverse_excursion\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			t.TradeID,
			t.Side,
			t.EntryTime.Format(time.RFC3339),
			formatF(t.EntryPrice),
			t.ExitTime.Format(time.RFC3339),
			formatF(t.ExitPrice),
			formatF(t.Quantity),
			formatF(t.GrossPnL),
			formatF(t.Commission),
			formatF(t.SlippageCost),
			formatF(t.NetPnL),
			formatF(t.HoldingPeriodHours),
			formatF(t.MaxFavorableExcursion),
			formatF(t.MaxAdverseExcursion),
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as a CSV string.
func RenderEquityCSV(samples []domain.EquitySample) string {
	var sb strings.Builder

	sb.WriteString("timestamp,portfolio_value,position_status\n")
	for _, s := range samples {
		sb.WriteString(fmt.Sprintf("%s,%s,%s\n",
			s.Timestamp.Format(time.RFC3339),
			formatF(s.PortfolioValue),
			s.PositionStatus,
		))
	}

	return sb.String()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
