package reporting

import (
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cryptoalpha/alpha-agent/internal/evaluation"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
)

// DefaultConsoleReporter renders run results as terminal tables.
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputReport prints the performance report to the console.
func (r *DefaultConsoleReporter) OutputReport(report *evaluation.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("📊 PERFORMANCE REPORT")

	t.AppendRows([]table.Row{
		{"💰 Start Equity", fmt.Sprintf("$%.2f", report.StartEquity)},
		{"💰 End Equity", fmt.Sprintf("$%.2f", report.EndEquity)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", report.TotalReturn*100)},
		{"📈 Annualized Return", fmt.Sprintf("%.2f%%", report.AnnualizedReturn*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", report.SharpeRatio)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown*100)},
		{"💹 Realized PnL", fmt.Sprintf("$%.2f", report.RealizedPnL)},
		{"💹 Profit Factor", formatProfitFactor(report.ProfitFactor)},
		{"🔄 Total Trades", report.TotalTrades},
		{"✅ Winning Trades", fmt.Sprintf("%d (%.1f%%)", report.WinningTrades, report.WinRate*100)},
		{"❌ Losing Trades", report.LosingTrades},
	})
	if !report.Start.IsZero() {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"🕐 Period Start", report.Start.Format("2006-01-02 15:04")},
			{"🕐 Period End", report.End.Format("2006-01-02 15:04")},
		})
	}

	t.Render()
}

// OutputPositions prints the open positions table.
func (r *DefaultConsoleReporter) OutputPositions(positions []portfolio.Position) {
	if len(positions) == 0 {
		fmt.Println("📭 No open positions")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("💼 OPEN POSITIONS")
	t.AppendHeader(table.Row{"Symbol", "Quantity", "Avg Entry", "Unrealized PnL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for _, pos := range positions {
		t.AppendRow(table.Row{
			pos.Symbol,
			fmt.Sprintf("%.6f", pos.Quantity),
			fmt.Sprintf("$%.2f", pos.AvgEntryPrice),
			fmt.Sprintf("$%.2f", pos.UnrealizedPnL),
		})
	}

	t.Render()
}

// OutputTrades prints the trade history table.
func (r *DefaultConsoleReporter) OutputTrades(trades []portfolio.TradeRecord) {
	if len(trades) == 0 {
		fmt.Println("📭 No trades recorded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("🔄 TRADE HISTORY")
	t.AppendHeader(table.Row{"Time", "Symbol", "Side", "Quantity", "Entry", "Exit", "Realized PnL"})

	for _, trade := range trades {
		t.AppendRow(table.Row{
			trade.Timestamp.Format("2006-01-02 15:04"),
			trade.Symbol,
			trade.Side.String(),
			fmt.Sprintf("%.6f", trade.Quantity),
			fmt.Sprintf("$%.2f", trade.EntryPrice),
			fmt.Sprintf("$%.2f", trade.ExitPrice),
			fmt.Sprintf("$%.2f", trade.PnL),
		})
	}

	t.Render()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", pf)
}
