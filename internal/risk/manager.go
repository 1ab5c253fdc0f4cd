package risk

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/cryptoalpha/alpha-agent/internal/monitoring"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/internal/strategy"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// SuppressReason is the audit code attached to every signal the manager
// declines to turn into an order.
type SuppressReason string

const (
	ReasonBadData      SuppressReason = "BAD_DATA"
	ReasonWeakSignal   SuppressReason = "WEAK_SIGNAL"
	ReasonDrawdownStop SuppressReason = "DRAWDOWN_STOP"
	ReasonExposureCap  SuppressReason = "EXPOSURE_CAP"
	ReasonMinNotional  SuppressReason = "MIN_NOTIONAL"
	ReasonTradeLimit   SuppressReason = "TRADE_LIMIT"
)

// Suppression explains why no order was emitted for a signal.
type Suppression struct {
	Reason SuppressReason
	Detail string
}

// Manager is the single gatekeeper between signals and orders. It reads
// the ledger but never mutates it; mutations happen only through the
// execution driver on confirmed fills.
type Manager struct {
	limits     Limits
	ledger     *portfolio.Ledger
	tradeTimes []time.Time

	// stopped latches once drawdown breaches the limit; it never resets
	// within a run.
	stopped bool
}

// NewManager creates a risk manager bound to one ledger instance
func NewManager(limits Limits, ledger *portfolio.Ledger) *Manager {
	return &Manager{
		limits: limits,
		ledger: ledger,
	}
}

// Evaluate converts a signal plus current portfolio state into zero or one
// order. Every suppression is logged with its reason code and counted, as
// competition transparency requires.
func (m *Manager) Evaluate(sig strategy.Signal, price float64, now time.Time) (*types.Order, *Suppression) {
	// Hard stop, not a soft derate: the first breach latches, so a later
	// equity recovery never resumes trading within the same run. Checked
	// before anything else so the latch arms on every cycle, including
	// flat ones.
	if dd := m.ledger.Drawdown(); m.stopped || dd >= m.limits.MaxDrawdownFraction {
		m.stopped = true
		return nil, m.suppress(sig, ReasonDrawdownStop,
			fmt.Sprintf("drawdown %.4f, limit %.4f", dd, m.limits.MaxDrawdownFraction))
	}

	// A single bad tick must never halt the agent; degrade to no-trade.
	if price <= 0 || math.IsNaN(price) || math.IsNaN(sig.Strength) {
		return nil, m.suppress(sig, ReasonBadData,
			fmt.Sprintf("price=%f strength=%f", price, sig.Strength))
	}

	if sig.Direction == strategy.DirectionFlat || sig.Strength < m.limits.MinSignalStrength {
		return nil, m.suppress(sig, ReasonWeakSignal,
			fmt.Sprintf("direction=%s strength=%.3f threshold=%.3f", sig.Direction, sig.Strength, m.limits.MinSignalStrength))
	}

	equity := m.ledger.Equity()

	targetQty := sig.Strength * m.limits.MaxPositionSize * equity / price
	if targetQty > m.limits.MaxPositionSize {
		targetQty = m.limits.MaxPositionSize
	}
	if sig.Direction == strategy.DirectionShort {
		targetQty = -targetQty
	}

	currentQty := 0.0
	if pos, ok := m.ledger.Position(sig.Symbol); ok {
		currentQty = pos.Quantity
	}

	delta := targetQty - currentQty
	delta = m.capToAggregateExposure(sig.Symbol, delta, currentQty, price, equity)
	if delta == 0 {
		return nil, m.suppress(sig, ReasonExposureCap,
			fmt.Sprintf("gross exposure at %.2f of limit %.2f", m.ledger.GrossExposure(), m.limits.MaxPortfolioRiskFraction*equity))
	}

	if notional := math.Abs(delta) * price; notional < m.limits.MinOrderNotional {
		return nil, m.suppress(sig, ReasonMinNotional,
			fmt.Sprintf("delta notional %.2f below minimum %.2f", notional, m.limits.MinOrderNotional))
	}

	if !m.withinTradeBudget(now) {
		return nil, m.suppress(sig, ReasonTradeLimit,
			fmt.Sprintf("%d trades already in rolling %s", len(m.tradeTimes), m.limits.TradePeriod))
	}

	side := types.OrderBuy
	if delta < 0 {
		side = types.OrderSell
	}

	order := &types.Order{
		Symbol:         sig.Symbol,
		Side:           side,
		Quantity:       math.Abs(delta),
		RequestedPrice: price,
		Status:         types.OrderPending,
		CreatedAt:      now,
	}

	m.tradeTimes = append(m.tradeTimes, now)
	monitoring.RecordOrderCreated(order.Symbol, order.Side.String())
	return order, nil
}

// capToAggregateExposure shrinks an exposure-increasing delta so projected
// gross exposure stays within the portfolio risk fraction. Deltas that
// reduce exposure always pass.
func (m *Manager) capToAggregateExposure(symbol string, delta, currentQty, price, equity float64) float64 {
	newAbs := math.Abs(currentQty + delta)
	if newAbs <= math.Abs(currentQty) {
		return delta
	}

	// Subtract the symbol's exposure at the same marked price the ledger
	// valued it with; mixing in the fresh signal price would skew the
	// headroom whenever the two diverge.
	limit := m.limits.MaxPortfolioRiskFraction * equity
	otherExposure := m.ledger.GrossExposure() - m.ledger.SymbolExposure(symbol)
	headroom := limit - otherExposure - math.Abs(currentQty)*price
	if headroom <= 0 {
		return 0
	}

	maxGrow := headroom / price
	grow := newAbs - math.Abs(currentQty)
	if grow <= maxGrow {
		return delta
	}
	if delta > 0 {
		return maxGrow
	}
	return -maxGrow
}

// withinTradeBudget enforces the rolling trade-count limit.
func (m *Manager) withinTradeBudget(now time.Time) bool {
	cutoff := now.Add(-m.limits.TradePeriod)
	kept := m.tradeTimes[:0]
	for _, t := range m.tradeTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.tradeTimes = kept
	return len(m.tradeTimes) < m.limits.MaxTradesPerPeriod
}

func (m *Manager) suppress(sig strategy.Signal, reason SuppressReason, detail string) *Suppression {
	log.Printf("[RISK] %s suppressed for %s (source=%s): %s", reason, sig.Symbol, sig.SourceID, detail)
	monitoring.RecordSuppression(sig.Symbol, string(reason))
	return &Suppression{Reason: reason, Detail: detail}
}

// Limits returns the manager's immutable limits.
func (m *Manager) Limits() Limits {
	return m.limits
}
