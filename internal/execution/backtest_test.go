package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

func nextSnapshot(price, volume float64) types.MarketSnapshot {
	return types.MarketSnapshot{
		Symbol:    "BTCUSDT",
		Timestamp: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		Price:     price,
		Volume:    volume,
	}
}

func TestBacktestExecuteFillsAtNextSnapshotPrice(t *testing.T) {
	ledger := portfolio.NewLedger(1000)
	driver := NewBacktestDriver(ledger, 0.1)

	// Order decided at $100 fills at the next bar's $105.
	order := pendingOrder(types.OrderBuy, 2, 100)
	require.NoError(t, driver.Execute(order, nextSnapshot(105, 1000)))

	assert.Equal(t, types.OrderFilled, order.Status)
	assert.InDelta(t, 1000-2*105, ledger.Cash(), 1e-9)

	pos, ok := ledger.Position("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 105.0, pos.AvgEntryPrice, 1e-9)
}

func TestBacktestExecuteRejectsAboveParticipationCap(t *testing.T) {
	ledger := portfolio.NewLedger(100000)
	driver := NewBacktestDriver(ledger, 0.1)

	// 50 units against 100 volume breaches the 10% cap.
	order := pendingOrder(types.OrderBuy, 50, 100)
	require.NoError(t, driver.Execute(order, nextSnapshot(100, 100)))

	assert.Equal(t, types.OrderRejected, order.Status)
	assert.Contains(t, order.RejectReason, "volume")
	assert.InDelta(t, 100000.0, ledger.Cash(), 1e-9)
}

func TestBacktestExecuteRejectsUnaffordableBuy(t *testing.T) {
	ledger := portfolio.NewLedger(100)
	driver := NewBacktestDriver(ledger, 0.5)

	order := pendingOrder(types.OrderBuy, 2, 100)
	require.NoError(t, driver.Execute(order, nextSnapshot(100, 1000)))

	assert.Equal(t, types.OrderRejected, order.Status)
	assert.InDelta(t, 100.0, ledger.Cash(), 1e-9)
	_, ok := ledger.Position("BTCUSDT")
	assert.False(t, ok)
}

func TestBacktestExecuteRejectsBadSnapshot(t *testing.T) {
	ledger := portfolio.NewLedger(1000)
	driver := NewBacktestDriver(ledger, 0.1)

	order := pendingOrder(types.OrderBuy, 1, 100)
	require.NoError(t, driver.Execute(order, types.MarketSnapshot{Symbol: "BTCUSDT"}))

	assert.Equal(t, types.OrderRejected, order.Status)
	assert.InDelta(t, 1000.0, ledger.Cash(), 1e-9)
}

func TestBacktestExecuteIsDeterministic(t *testing.T) {
	run := func() (float64, types.OrderStatus) {
		ledger := portfolio.NewLedger(1000)
		driver := NewBacktestDriver(ledger, 0.1)
		order := pendingOrder(types.OrderBuy, 2, 100)
		require.NoError(t, driver.Execute(order, nextSnapshot(105, 1000)))
		return ledger.Cash(), order.Status
	}

	cash1, status1 := run()
	cash2, status2 := run()
	assert.Equal(t, cash1, cash2)
	assert.Equal(t, status1, status2)
}
