package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

func buyOrder(symbol string, qty float64) *types.Order {
	return &types.Order{Symbol: symbol, Side: types.OrderBuy, Quantity: qty}
}

func sellOrder(symbol string, qty float64) *types.Order {
	return &types.Order{Symbol: symbol, Side: types.OrderSell, Quantity: qty}
}

func fillAt(symbol string, side types.OrderSide, price, qty float64, ts time.Time) types.Fill {
	return types.Fill{Symbol: symbol, Side: side, Price: price, Quantity: qty, Timestamp: ts}
}

func TestApplyFillWeightedAverageCost(t *testing.T) {
	ledger := NewLedger(10000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// 1 unit at $100, then 1 unit at $200 -> avg cost $150.
	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 1), fillAt("BTCUSDT", types.OrderBuy, 100, 1, ts)))
	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 1), fillAt("BTCUSDT", types.OrderBuy, 200, 1, ts.Add(time.Hour))))

	pos, ok := ledger.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 2.0, pos.Quantity, 1e-9)
	assert.InDelta(t, 150.0, pos.AvgEntryPrice, 1e-9)
	assert.InDelta(t, 10000-300, ledger.Cash(), 1e-9)
}

func TestApplyFillRealizesPnLOnReduction(t *testing.T) {
	ledger := NewLedger(10000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.ApplyFill(buyOrder("ETHUSDT", 2), fillAt("ETHUSDT", types.OrderBuy, 100, 2, ts)))
	require.NoError(t, ledger.ApplyFill(sellOrder("ETHUSDT", 1), fillAt("ETHUSDT", types.OrderSell, 120, 1, ts.Add(time.Hour))))

	assert.InDelta(t, 20.0, ledger.RealizedPnL(), 1e-9)

	trades := ledger.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 100.0, trades[0].EntryPrice, 1e-9)
	assert.InDelta(t, 120.0, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 20.0, trades[0].PnL, 1e-9)

	pos, ok := ledger.Position("ETHUSDT")
	require.True(t, ok)
	assert.InDelta(t, 1.0, pos.Quantity, 1e-9)
	// Average cost of the remainder is unchanged by the reduction.
	assert.InDelta(t, 100.0, pos.AvgEntryPrice, 1e-9)
}

func TestApplyFillClosingPositionRemovesIt(t *testing.T) {
	ledger := NewLedger(1000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 1), fillAt("BTCUSDT", types.OrderBuy, 100, 1, ts)))
	require.NoError(t, ledger.ApplyFill(sellOrder("BTCUSDT", 1), fillAt("BTCUSDT", types.OrderSell, 110, 1, ts.Add(time.Hour))))

	_, ok := ledger.Position("BTCUSDT")
	assert.False(t, ok)
	assert.InDelta(t, 1010.0, ledger.Cash(), 1e-9)
}

func TestApplyFillOverdrawIsConsistencyViolation(t *testing.T) {
	ledger := NewLedger(100)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := ledger.ApplyFill(buyOrder("BTCUSDT", 2), fillAt("BTCUSDT", types.OrderBuy, 100, 2, ts))
	require.Error(t, err)
	assert.True(t, IsConsistencyViolation(err))

	// The failed fill must leave the ledger untouched.
	assert.InDelta(t, 100.0, ledger.Cash(), 1e-9)
	_, ok := ledger.Position("BTCUSDT")
	assert.False(t, ok)
}

func TestApplyFillRejectsInvalidFill(t *testing.T) {
	ledger := NewLedger(1000)

	err := ledger.ApplyFill(buyOrder("BTCUSDT", 1), types.Fill{Symbol: "BTCUSDT", Price: 0, Quantity: 1})
	require.Error(t, err)
	assert.False(t, IsConsistencyViolation(err))
}

func TestEquityInvariantAcrossFills(t *testing.T) {
	ledger := NewLedger(5000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// A fill at the last marked price moves value between cash and
	// position without changing equity.
	require.NoError(t, ledger.MarkToMarket(ts, map[string]float64{"BTCUSDT": 250}))
	before := ledger.Equity()

	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 4), fillAt("BTCUSDT", types.OrderBuy, 250, 4, ts.Add(time.Minute))))
	assert.InDelta(t, before, ledger.Equity(), 1e-9)
}

func TestMarkToMarketAppendsOnePointAndUpdatesUnrealized(t *testing.T) {
	ledger := NewLedger(1000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 2), fillAt("BTCUSDT", types.OrderBuy, 100, 2, ts)))
	require.NoError(t, ledger.MarkToMarket(ts.Add(time.Hour), map[string]float64{"BTCUSDT": 150}))

	curve := ledger.EquityCurve()
	require.Len(t, curve, 1)
	assert.InDelta(t, 800+2*150, curve[0].Equity, 1e-9)

	pos, ok := ledger.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 100.0, pos.UnrealizedPnL, 1e-9)
}

func TestMarkToMarketRejectsNonAdvancingTimestamp(t *testing.T) {
	ledger := NewLedger(1000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.MarkToMarket(ts, map[string]float64{"BTCUSDT": 100}))

	err := ledger.MarkToMarket(ts, map[string]float64{"BTCUSDT": 101})
	require.Error(t, err)
	assert.True(t, IsConsistencyViolation(err))

	err = ledger.MarkToMarket(ts.Add(-time.Hour), map[string]float64{"BTCUSDT": 101})
	require.Error(t, err)
	assert.True(t, IsConsistencyViolation(err))

	// Curve length is unchanged by the rejected appends.
	assert.Len(t, ledger.EquityCurve(), 1)
}

func TestDrawdownTracksPeak(t *testing.T) {
	ledger := NewLedger(1000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 5), fillAt("BTCUSDT", types.OrderBuy, 100, 5, ts)))
	require.NoError(t, ledger.MarkToMarket(ts.Add(time.Hour), map[string]float64{"BTCUSDT": 120}))
	assert.InDelta(t, 0.0, ledger.Drawdown(), 1e-9)

	// Peak equity 1100; price collapse to 80 -> equity 900.
	require.NoError(t, ledger.MarkToMarket(ts.Add(2*time.Hour), map[string]float64{"BTCUSDT": 80}))
	assert.InDelta(t, (1100.0-900.0)/1100.0, ledger.Drawdown(), 1e-9)
}

func TestGrossExposure(t *testing.T) {
	ledger := NewLedger(10000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 2), fillAt("BTCUSDT", types.OrderBuy, 100, 2, ts)))
	require.NoError(t, ledger.ApplyFill(buyOrder("ETHUSDT", 10), fillAt("ETHUSDT", types.OrderBuy, 50, 10, ts)))

	assert.InDelta(t, 2*100+10*50, ledger.GrossExposure(), 1e-9)
}

func TestSymbolExposureMatchesGrossValuation(t *testing.T) {
	ledger := NewLedger(10000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.ApplyFill(buyOrder("BTCUSDT", 2), fillAt("BTCUSDT", types.OrderBuy, 100, 2, ts)))
	require.NoError(t, ledger.ApplyFill(buyOrder("ETHUSDT", 10), fillAt("ETHUSDT", types.OrderBuy, 50, 10, ts)))
	require.NoError(t, ledger.MarkToMarket(ts.Add(time.Hour), map[string]float64{"BTCUSDT": 120}))

	// Per-symbol exposures decompose the gross figure at the same marks.
	assert.InDelta(t, 2*120, ledger.SymbolExposure("BTCUSDT"), 1e-9)
	assert.InDelta(t, 10*50, ledger.SymbolExposure("ETHUSDT"), 1e-9)
	assert.InDelta(t, ledger.GrossExposure(),
		ledger.SymbolExposure("BTCUSDT")+ledger.SymbolExposure("ETHUSDT"), 1e-9)
	assert.Zero(t, ledger.SymbolExposure("SOLUSDT"))
}
