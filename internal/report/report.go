// Package report renders a backtest run and its statistics as a plain-text
// report for the CLI.
package report

import (
	"fmt"
	"strings"

	"saturn/internal/backtest"
)

// Render formats a completed run's summary. Undefined ratios print as "n/a".
func Render(res *backtest.Result, stats backtest.Statistics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "--- Backtesting Report ---\n")
	fmt.Fprintf(&b, "Stock Ticker: %s\n", res.Symbol)
	fmt.Fprintf(&b, "Strategy: %s\n", res.Strategy)
	fmt.Fprintf(&b, "Start Date: %s\n", res.Start().Format("2006-01-02"))
	fmt.Fprintf(&b, "End Date: %s\n", res.End().Format("2006-01-02"))
	fmt.Fprintf(&b, "Initial Portfolio Value: $%.2f\n", res.InitialCash)
	fmt.Fprintf(&b, "Final Portfolio Value: $%.2f\n", res.Final.Equity)
	fmt.Fprintf(&b, "Total Return: %.2f%%\n", stats.TotalReturn*100)
	fmt.Fprintf(&b, "Annualized Return: %.2f%%\n", stats.AnnualizedReturn*100)
	fmt.Fprintf(&b, "Max Drawdown: %.2f%%\n", stats.MaxDrawdown*100)
	fmt.Fprintf(&b, "Sharpe Ratio: %s\n", ratio(stats.Sharpe, "%.2f"))

	if !res.Final.Position.Flat() {
		fmt.Fprintf(&b, "Open Position: %d shares marked at the final close\n",
			res.Final.Position.Qty)
	}

	fmt.Fprintf(&b, "\n--- Additional Metrics ---\n")
	fmt.Fprintf(&b, "%-15s %-15s %-15s\n", "SQN", "VWR", "Total Trades")
	fmt.Fprintf(&b, "%-15s %-15s %-15d\n",
		ratio(stats.SQN, "%.2f"), ratio(stats.VWR, "%.4f"), stats.Trades.Count)

	ts := stats.Trades
	if ts.Count > 0 {
		fmt.Fprintf(&b, "Win Rate: %.2f%% (%dW/%dL)  Avg Win: $%.2f  Avg Loss: $%.2f\n",
			ts.WinRate*100, ts.Wins, ts.Losses, ts.AvgWin, ts.AvgLoss)
	}
	if n := len(res.Rejected); n > 0 {
		fmt.Fprintf(&b, "Rejected Orders: %d\n", n)
	}
	return b.String()
}

func ratio(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
