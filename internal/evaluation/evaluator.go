package evaluation

import (
	"math"
	"time"

	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
)

// Report is a read-only snapshot of a run's performance, derived entirely
// from the ledger's history. Output formatting is the caller's concern.
type Report struct {
	StartEquity      float64   `json:"start_equity"`
	EndEquity        float64   `json:"end_equity"`
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	WinRate          float64   `json:"win_rate"`
	ProfitFactor     float64   `json:"profit_factor"`
	RealizedPnL      float64   `json:"realized_pnl"`
	TotalTrades      int       `json:"total_trades"`
	WinningTrades    int       `json:"winning_trades"`
	LosingTrades     int       `json:"losing_trades"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
}

// Evaluate computes performance metrics from the ledger. It never mutates
// the ledger and never sees raw errors, only final state.
func Evaluate(ledger *portfolio.Ledger) *Report {
	report := &Report{
		RealizedPnL: ledger.RealizedPnL(),
	}

	curve := ledger.EquityCurve()
	if len(curve) > 0 {
		report.StartEquity = curve[0].Equity
		report.EndEquity = curve[len(curve)-1].Equity
		report.Start = curve[0].Timestamp
		report.End = curve[len(curve)-1].Timestamp
		if report.StartEquity > 0 {
			report.TotalReturn = (report.EndEquity - report.StartEquity) / report.StartEquity
		}
		report.SharpeRatio = sharpeRatio(curve)
		report.MaxDrawdown = maxDrawdown(curve)
		report.AnnualizedReturn = annualizedReturn(curve)
	}

	trades := ledger.Trades()
	report.TotalTrades = len(trades)

	totalProfit := 0.0
	totalLoss := 0.0
	for _, trade := range trades {
		if trade.PnL > 0 {
			report.WinningTrades++
			totalProfit += trade.PnL
		} else {
			report.LosingTrades++
			totalLoss += math.Abs(trade.PnL)
		}
	}
	if report.TotalTrades > 0 {
		report.WinRate = float64(report.WinningTrades) / float64(report.TotalTrades)
	}
	if totalLoss > 0 {
		report.ProfitFactor = totalProfit / totalLoss
	} else if totalProfit > 0 {
		report.ProfitFactor = math.Inf(1)
	}

	return report
}

// sharpeRatio computes the per-period Sharpe ratio over equity-curve
// returns, assuming a zero risk-free rate.
func sharpeRatio(curve []portfolio.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity > 0 {
			returns = append(returns, (curve[i].Equity-curve[i-1].Equity)/curve[i-1].Equity)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	avg := 0.0
	for _, r := range returns {
		avg += r
	}
	avg /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - avg) * (r - avg)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}
	return avg / stdDev
}

// maxDrawdown returns the largest peak-to-trough decline over the curve.
func maxDrawdown(curve []portfolio.EquityPoint) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (peak - point.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// annualizedReturn computes (end/start)^(1/years) - 1 over the curve span.
func annualizedReturn(curve []portfolio.EquityPoint) float64 {
	if len(curve) < 2 || curve[0].Equity <= 0 {
		return 0
	}
	first := curve[0]
	last := curve[len(curve)-1]

	years := last.Timestamp.Sub(first.Timestamp).Hours() / (24 * 365.25)
	if years <= 0 {
		return 0
	}
	return math.Pow(last.Equity/first.Equity, 1.0/years) - 1.0
}
