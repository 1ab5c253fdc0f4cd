package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// cashTolerance absorbs float rounding when checking the cash invariant.
const cashTolerance = 1e-9

// ConsistencyError marks a violation of a ledger invariant. This is the
// fatal error class: a run must halt rather than keep operating on a
// ledger that can no longer be trusted.
type ConsistencyError struct {
	Op     string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger consistency violation in %s: %s", e.Op, e.Detail)
}

// IsConsistencyViolation reports whether err belongs to the fatal class.
func IsConsistencyViolation(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// Position is an open exposure for one symbol. Quantity is signed:
// positive long, negative short.
type Position struct {
	Symbol        string
	Quantity      float64
	AvgEntryPrice float64
	UnrealizedPnL float64
}

// EquityPoint is one point of the append-only equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// TradeRecord captures realized P&L whenever a fill reduces or closes an
// exposure. The evaluator derives win rate from these.
type TradeRecord struct {
	Symbol     string
	Side       types.OrderSide
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	Timestamp  time.Time
}

// Ledger is the single source of truth for cash, positions and P&L.
// One ledger instance is owned by exactly one run; mutations arrive only
// through ApplyFill and MarkToMarket.
type Ledger struct {
	mu          sync.Mutex
	cash        float64
	positions   map[string]*Position
	lastPrices  map[string]float64
	equityCurve []EquityPoint
	trades      []TradeRecord
	peakEquity  float64
	realizedPnL float64
}

// NewLedger creates a ledger with the given starting cash
func NewLedger(initialCash float64) *Ledger {
	return &Ledger{
		cash:       initialCash,
		positions:  make(map[string]*Position),
		lastPrices: make(map[string]float64),
		peakEquity: initialCash,
	}
}

// ApplyFill applies a confirmed fill to cash and positions using
// weighted-average-cost accounting. Drivers must reject orders that would
// overdraw cash before they reach the ledger; a negative balance here is a
// programming bug, not a runtime condition.
func (l *Ledger) ApplyFill(order *types.Order, fill types.Fill) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fill.Price <= 0 || fill.Quantity <= 0 {
		return fmt.Errorf("invalid fill for %s: price=%f quantity=%f", order.Symbol, fill.Price, fill.Quantity)
	}

	newCash := l.cash - order.Side.Sign()*fill.Price*fill.Quantity
	if newCash < -cashTolerance {
		return &ConsistencyError{
			Op:     "ApplyFill",
			Detail: fmt.Sprintf("fill of %f %s at %f would overdraw cash (%f -> %f)", fill.Quantity, order.Symbol, fill.Price, l.cash, newCash),
		}
	}
	l.cash = newCash

	pos, ok := l.positions[order.Symbol]
	if !ok {
		pos = &Position{Symbol: order.Symbol}
		l.positions[order.Symbol] = pos
	}

	delta := order.Side.Sign() * fill.Quantity
	l.applyToPosition(pos, delta, fill, order.Side)

	if pos.Quantity == 0 {
		delete(l.positions, order.Symbol)
	}

	l.lastPrices[order.Symbol] = fill.Price
	return nil
}

// applyToPosition updates one position for a signed quantity delta,
// realizing P&L on any reduced exposure.
func (l *Ledger) applyToPosition(pos *Position, delta float64, fill types.Fill, side types.OrderSide) {
	sameDirection := pos.Quantity == 0 || (pos.Quantity > 0) == (delta > 0)

	if sameDirection {
		// Growing exposure: recompute the weighted-average cost basis.
		oldAbs := math.Abs(pos.Quantity)
		newAbs := oldAbs + math.Abs(delta)
		pos.AvgEntryPrice = (oldAbs*pos.AvgEntryPrice + math.Abs(delta)*fill.Price) / newAbs
		pos.Quantity += delta
		return
	}

	closed := math.Min(math.Abs(delta), math.Abs(pos.Quantity))
	direction := 1.0
	if pos.Quantity < 0 {
		direction = -1
	}
	pnl := closed * (fill.Price - pos.AvgEntryPrice) * direction
	l.realizedPnL += pnl
	l.trades = append(l.trades, TradeRecord{
		Symbol:     pos.Symbol,
		Side:       side,
		Quantity:   closed,
		EntryPrice: pos.AvgEntryPrice,
		ExitPrice:  fill.Price,
		PnL:        pnl,
		Timestamp:  fill.Timestamp,
	})

	remainder := math.Abs(delta) - math.Abs(pos.Quantity)
	if remainder > 0 {
		// Crossed through zero: remainder opens a fresh position at the
		// fill price.
		pos.Quantity += delta
		pos.AvgEntryPrice = fill.Price
	} else {
		pos.Quantity += delta
		if pos.Quantity == 0 {
			pos.AvgEntryPrice = 0
		}
	}
}

// MarkToMarket records the latest prices, recomputes unrealized P&L and
// appends exactly one equity point. Timestamps must advance strictly; an
// out-of-order append is a fatal consistency violation.
func (l *Ledger) MarkToMarket(ts time.Time, prices map[string]float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.equityCurve); n > 0 && !ts.After(l.equityCurve[n-1].Timestamp) {
		return &ConsistencyError{
			Op:     "MarkToMarket",
			Detail: fmt.Sprintf("equity point at %s does not advance past %s", ts, l.equityCurve[n-1].Timestamp),
		}
	}

	for symbol, price := range prices {
		if price > 0 {
			l.lastPrices[symbol] = price
		}
	}

	equity := l.cash
	for _, symbol := range l.sortedSymbols() {
		pos := l.positions[symbol]
		price, ok := l.lastPrices[symbol]
		if !ok {
			price = pos.AvgEntryPrice
		}
		pos.UnrealizedPnL = pos.Quantity * (price - pos.AvgEntryPrice)
		equity += pos.Quantity * price
	}

	l.equityCurve = append(l.equityCurve, EquityPoint{Timestamp: ts, Equity: equity})
	if equity > l.peakEquity {
		l.peakEquity = equity
	}
	return nil
}

// Equity returns cash plus the mark-to-market value of all positions.
func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.equityLocked()
}

func (l *Ledger) equityLocked() float64 {
	equity := l.cash
	for _, symbol := range l.sortedSymbols() {
		pos := l.positions[symbol]
		price, ok := l.lastPrices[symbol]
		if !ok {
			price = pos.AvgEntryPrice
		}
		equity += pos.Quantity * price
	}
	return equity
}

// sortedSymbols keeps aggregation order stable so float sums are
// reproducible run to run.
func (l *Ledger) sortedSymbols() []string {
	symbols := make([]string, 0, len(l.positions))
	for symbol := range l.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Drawdown returns the fractional decline of current equity from its
// running peak.
func (l *Ledger) Drawdown() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.peakEquity <= 0 {
		return 0
	}
	dd := (l.peakEquity - l.equityLocked()) / l.peakEquity
	if dd < 0 {
		return 0
	}
	return dd
}

// GrossExposure returns the aggregate absolute notional value of all
// open positions at the latest known prices.
func (l *Ledger) GrossExposure() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0.0
	for _, symbol := range l.sortedSymbols() {
		pos := l.positions[symbol]
		price, ok := l.lastPrices[symbol]
		if !ok {
			price = pos.AvgEntryPrice
		}
		total += math.Abs(pos.Quantity) * price
	}
	return total
}

// SymbolExposure returns the absolute notional value of the open
// position in symbol, valued the same way GrossExposure values it.
func (l *Ledger) SymbolExposure(symbol string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return 0
	}
	price, ok := l.lastPrices[symbol]
	if !ok {
		price = pos.AvgEntryPrice
	}
	return math.Abs(pos.Quantity) * price
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// RealizedPnL returns the cumulative realized profit and loss.
func (l *Ledger) RealizedPnL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.realizedPnL
}

// Position returns a copy of the position for symbol, if one is open.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns a copy of all open positions.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.positions))
	for _, symbol := range l.sortedSymbols() {
		out = append(out, *l.positions[symbol])
	}
	return out
}

// EquityCurve returns a copy of the equity curve.
func (l *Ledger) EquityCurve() []EquityPoint {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]EquityPoint, len(l.equityCurve))
	copy(out, l.equityCurve)
	return out
}

// Trades returns a copy of the realized trade history.
func (l *Ledger) Trades() []TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// LastPrice returns the latest known price for symbol.
func (l *Ledger) LastPrice(symbol string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	price, ok := l.lastPrices[symbol]
	return price, ok
}
