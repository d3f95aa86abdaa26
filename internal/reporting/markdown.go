package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`  \n", r.RunID))
	sb.WriteString(fmt.Sprintf("Status: %s\n\n", r.Status))

	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Symbol | %s |\n", r.Config.Symbol))
	sb.WriteString(fmt.Sprintf("| Timeframe | %s |\n", r.Config.Timeframe))
	sb.WriteString(fmt.Sprintf("| Strategy | %s |\n", r.Config.Strategy))
	sb.WriteString(fmt.Sprintf("| Range | %s to %s |\n",
		r.Config.Start.Format("2006-01-02"), r.Config.End.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("| Initial Capital | %.2f |\n", r.Config.InitialCapital))
	sb.WriteString(fmt.Sprintf("| Commission Rate | %.4f |\n", r.Config.CommissionRate))
	sb.WriteString(fmt.Sprintf("| Slippage Rate | %.4f |\n", r.Config.SlippageRate))
	sb.WriteString(fmt.Sprintf("| Capital Utilization | %.2f |\n", r.Config.CapitalUtilization))
	sb.WriteString("\n")

	m := r.Metrics
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Bars Processed | %d |\n", r.BarsProcessed))
	sb.WriteString(fmt.Sprintf("| Final Equity | %.2f |\n", r.FinalEquity))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f (%.2f%%) |\n", m.TotalReturn, m.TotalReturnPct))
	sb.WriteString(fmt.Sprintf("| Annualized Return | %.2f%% |\n", m.AnnualizedReturn))
	sb.WriteString(fmt.Sprintf("| Volatility | %.2f%% |\n", m.Volatility))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.2f |\n", m.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Sortino Ratio | %.2f |\n", m.SortinoRatio))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", m.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Max Drawdown Duration | %.1f days |\n", m.MaxDrawdownDuration))
	sb.WriteString(fmt.Sprintf("| Calmar Ratio | %.2f |\n", m.CalmarRatio))
	sb.WriteString("\n")

	sb.WriteString("## Trade Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", m.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winners / Losers | %d / %d |\n", m.WinningTrades, m.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.1f%% |\n", m.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Average Win | %.2f |\n", m.AverageWin))
	sb.WriteString(fmt.Sprintf("| Average Loss | %.2f |\n", m.AverageLoss))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatRatio(m.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Risk/Reward | %s |\n", formatRatio(m.RiskReward)))
	sb.WriteString(fmt.Sprintf("| Avg Holding Period | %.1f h |\n", m.AvgHoldingPeriodHours))
	sb.WriteString(fmt.Sprintf("| Avg MFE / MAE | %.2f / %.2f |\n",
		m.AvgMaxFavorableExcursion, m.AvgMaxAdverseExcursion))
	sb.WriteString("\n")

	if len(r.Trades) > 0 {
		sb.WriteString("## Trades\n\n")
		sb.WriteString("| # | Side | Entry | Exit | Qty | Gross | Commission | Slippage | Net |\n")
		sb.WriteString("|---|------|-------|------|-----|-------|------------|----------|-----|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %.4f | %.0f | %.2f | %.2f | %.2f | %.2f |\n",
				t.TradeID, t.Side, t.EntryPrice, t.ExitPrice, t.Quantity,
				t.GrossPnL, t.Commission, t.SlippageCost, t.NetPnL))
		}
		sb.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		sb.WriteString("| Bar | Kind | Message |\n")
		sb.WriteString("|-----|------|--------|\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", w.BarIndex, w.Kind, w.Message))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
