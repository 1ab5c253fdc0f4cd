package risk

import "time"

// Limits is the immutable per-run risk configuration. The manager never
// mutates it after construction.
type Limits struct {
	// MaxPositionSize scales the target quantity and caps the resulting
	// order quantity per asset.
	MaxPositionSize float64 `json:"max_position_size"`

	// MaxPortfolioRiskFraction caps aggregate gross exposure across all
	// assets as a fraction of equity.
	MaxPortfolioRiskFraction float64 `json:"max_portfolio_risk_fraction"`

	// MaxDrawdownFraction is the hard stop: once peak-to-current drawdown
	// reaches it, no further orders are emitted for the run.
	MaxDrawdownFraction float64 `json:"max_drawdown_fraction"`

	// MaxTradesPerPeriod bounds order creation over a rolling TradePeriod.
	MaxTradesPerPeriod int           `json:"max_trades_per_period"`
	TradePeriod        time.Duration `json:"trade_period"`

	// MinSignalStrength rejects weak signals outright.
	MinSignalStrength float64 `json:"min_signal_strength"`

	// MinOrderNotional suppresses churn from noise-sized deltas.
	MinOrderNotional float64 `json:"min_order_notional"`
}

// DefaultLimits returns conservative limits suitable for paper trading
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:          0.1,
		MaxPortfolioRiskFraction: 0.5,
		MaxDrawdownFraction:      0.2,
		MaxTradesPerPeriod:       10,
		TradePeriod:              time.Hour,
		MinSignalStrength:        0.2,
		MinOrderNotional:         10.0,
	}
}
