package evaluation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

func ledgerWithCurve(t *testing.T, initial float64, equities []float64) *portfolio.Ledger {
	t.Helper()
	ledger := portfolio.NewLedger(initial)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Drive equity through a position marked at varying prices: 1 unit,
	// so price == cash delta + equity target.
	order := &types.Order{Symbol: "BTCUSDT", Side: types.OrderBuy, Quantity: 1}
	require.NoError(t, ledger.ApplyFill(order, types.Fill{
		Symbol: "BTCUSDT", Side: types.OrderBuy, Price: 100, Quantity: 1, Timestamp: start,
	}))

	for i, equity := range equities {
		price := equity - (initial - 100)
		require.NoError(t, ledger.MarkToMarket(start.Add(time.Duration(i+1)*time.Hour),
			map[string]float64{"BTCUSDT": price}))
	}
	return ledger
}

func TestEvaluateBasicMetrics(t *testing.T) {
	ledger := ledgerWithCurve(t, 1000, []float64{1000, 1100, 1050, 1200})

	report := Evaluate(ledger)

	assert.InDelta(t, 1000.0, report.StartEquity, 1e-9)
	assert.InDelta(t, 1200.0, report.EndEquity, 1e-9)
	assert.InDelta(t, 0.2, report.TotalReturn, 1e-9)
	// Peak 1100 -> trough 1050.
	assert.InDelta(t, 50.0/1100.0, report.MaxDrawdown, 1e-9)
	assert.Greater(t, report.AnnualizedReturn, 0.0)
}

func TestEvaluateEmptyLedger(t *testing.T) {
	report := Evaluate(portfolio.NewLedger(1000))

	assert.Zero(t, report.StartEquity)
	assert.Zero(t, report.TotalTrades)
	assert.Zero(t, report.SharpeRatio)
	assert.Zero(t, report.MaxDrawdown)
}

func TestEvaluateWinRateAndProfitFactor(t *testing.T) {
	ledger := portfolio.NewLedger(10000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	buy := &types.Order{Symbol: "BTCUSDT", Side: types.OrderBuy, Quantity: 1}
	sell := &types.Order{Symbol: "BTCUSDT", Side: types.OrderSell, Quantity: 1}

	// Winning round trip: +20.
	require.NoError(t, ledger.ApplyFill(buy, types.Fill{Symbol: "BTCUSDT", Side: types.OrderBuy, Price: 100, Quantity: 1, Timestamp: ts}))
	require.NoError(t, ledger.ApplyFill(sell, types.Fill{Symbol: "BTCUSDT", Side: types.OrderSell, Price: 120, Quantity: 1, Timestamp: ts.Add(time.Hour)}))
	// Losing round trip: -10.
	require.NoError(t, ledger.ApplyFill(buy, types.Fill{Symbol: "BTCUSDT", Side: types.OrderBuy, Price: 120, Quantity: 1, Timestamp: ts.Add(2 * time.Hour)}))
	require.NoError(t, ledger.ApplyFill(sell, types.Fill{Symbol: "BTCUSDT", Side: types.OrderSell, Price: 110, Quantity: 1, Timestamp: ts.Add(3 * time.Hour)}))

	report := Evaluate(ledger)

	assert.Equal(t, 2, report.TotalTrades)
	assert.Equal(t, 1, report.WinningTrades)
	assert.Equal(t, 1, report.LosingTrades)
	assert.InDelta(t, 0.5, report.WinRate, 1e-9)
	assert.InDelta(t, 2.0, report.ProfitFactor, 1e-9)
	assert.InDelta(t, 10.0, report.RealizedPnL, 1e-9)
}

func TestEvaluateProfitFactorInfiniteWithoutLosses(t *testing.T) {
	ledger := portfolio.NewLedger(10000)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	buy := &types.Order{Symbol: "BTCUSDT", Side: types.OrderBuy, Quantity: 1}
	sell := &types.Order{Symbol: "BTCUSDT", Side: types.OrderSell, Quantity: 1}
	require.NoError(t, ledger.ApplyFill(buy, types.Fill{Symbol: "BTCUSDT", Side: types.OrderBuy, Price: 100, Quantity: 1, Timestamp: ts}))
	require.NoError(t, ledger.ApplyFill(sell, types.Fill{Symbol: "BTCUSDT", Side: types.OrderSell, Price: 150, Quantity: 1, Timestamp: ts.Add(time.Hour)}))

	report := Evaluate(ledger)
	assert.True(t, math.IsInf(report.ProfitFactor, 1))
	assert.InDelta(t, 1.0, report.WinRate, 1e-9)
}

func TestSharpeRatioZeroOnConstantEquity(t *testing.T) {
	ledger := ledgerWithCurve(t, 1000, []float64{1000, 1000, 1000, 1000})
	report := Evaluate(ledger)
	assert.Zero(t, report.SharpeRatio)
}

func TestSharpeRatioPositiveOnSteadyGains(t *testing.T) {
	ledger := ledgerWithCurve(t, 1000, []float64{1000, 1010, 1021, 1031, 1042})
	report := Evaluate(ledger)
	assert.Greater(t, report.SharpeRatio, 0.0)
}
