package execution

import (
	"fmt"

	"github.com/cryptoalpha/alpha-agent/internal/monitoring"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// BacktestDriver simulates fills against historical snapshots. It is a
// pure function of history: identical inputs produce identical fills, so
// backtests replay byte-for-byte.
type BacktestDriver struct {
	ledger *portfolio.Ledger

	// participationCap is the maximum fraction of a bar's volume one fill
	// may consume. Larger orders are rejected, modeling slippage
	// conservatively.
	participationCap float64
}

// NewBacktestDriver creates a backtest driver bound to one ledger
func NewBacktestDriver(ledger *portfolio.Ledger, participationCap float64) *BacktestDriver {
	return &BacktestDriver{
		ledger:           ledger,
		participationCap: participationCap,
	}
}

// Execute resolves the order against the next snapshot after the decision
// tick: filled at that snapshot's price, or rejected when liquidity or
// cash is insufficient. The ledger is only touched on the FILLED
// transition.
func (d *BacktestDriver) Execute(order *types.Order, next types.MarketSnapshot) error {
	order.Status = types.OrderSubmitted

	if !next.Valid() {
		d.reject(order, fmt.Sprintf("unusable fill snapshot at %s", next.Timestamp))
		return nil
	}

	if d.participationCap > 0 && order.Quantity > d.participationCap*next.Volume {
		d.reject(order, fmt.Sprintf("quantity %f exceeds %.0f%% of bar volume %f",
			order.Quantity, d.participationCap*100, next.Volume))
		return nil
	}

	// The driver, not the ledger, rejects overdrawing buys; a negative
	// balance reaching the ledger is a bug.
	if order.Side == types.OrderBuy && order.Quantity*next.Price > d.ledger.Cash() {
		d.reject(order, fmt.Sprintf("cost %.2f exceeds cash %.2f", order.Quantity*next.Price, d.ledger.Cash()))
		return nil
	}

	fill := types.Fill{
		Symbol:    order.Symbol,
		Side:      order.Side,
		Price:     next.Price,
		Quantity:  order.Quantity,
		Timestamp: next.Timestamp,
	}

	if err := d.ledger.ApplyFill(order, fill); err != nil {
		return err
	}

	order.Status = types.OrderFilled
	monitoring.RecordOrderResolved(order.Symbol, order.Status.String())
	return nil
}

func (d *BacktestDriver) reject(order *types.Order, reason string) {
	order.Status = types.OrderRejected
	order.RejectReason = reason
	monitoring.RecordOrderResolved(order.Symbol, order.Status.String())
}
