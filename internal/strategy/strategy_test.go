package strategy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

var windowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// buildWindow creates a snapshot series from a price function.
func buildWindow(symbol string, n int, price func(i int) float64, volume func(i int) float64) []types.MarketSnapshot {
	window := make([]types.MarketSnapshot, n)
	for i := 0; i < n; i++ {
		window[i] = types.MarketSnapshot{
			Symbol:    symbol,
			Timestamp: windowStart.Add(time.Duration(i) * time.Hour),
			Price:     price(i),
			Volume:    volume(i),
		}
	}
	return window
}

func flatPrices(n int) []types.MarketSnapshot {
	return buildWindow("BTCUSDT", n,
		func(i int) float64 { return 100 },
		func(i int) float64 { return 100 })
}

func TestShortWindowYieldsFlatNotError(t *testing.T) {
	window := flatPrices(MinWindow - 1)

	strategies := []Strategy{
		NewMomentumStrategy(),
		NewMeanReversionStrategy(),
		NewBreakoutStrategy(),
		NewMLScoreStrategy(ReturnScorer{}),
		NewComposite(WeightedStrategy{Strategy: NewMomentumStrategy(), Weight: 1}),
	}

	for _, s := range strategies {
		sig, err := s.Evaluate(window)
		require.NoError(t, err, s.GetName())
		assert.Equal(t, DirectionFlat, sig.Direction, s.GetName())
		assert.Zero(t, sig.Strength, s.GetName())
	}
}

func TestInvalidSnapshotIsAnError(t *testing.T) {
	window := flatPrices(MinWindow + 10)
	window[5].Price = -1

	_, err := NewMomentumStrategy().Evaluate(window)
	assert.Error(t, err)
}

func TestMomentumLongOnSustainedRally(t *testing.T) {
	// 1% per bar with a volume spike on the last bar.
	window := buildWindow("BTCUSDT", 60,
		func(i int) float64 { return 100 * pow(1.01, i) },
		func(i int) float64 {
			if i == 59 {
				return 500
			}
			return 100
		})

	sig, err := NewMomentumStrategy().Evaluate(window)
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, sig.Direction)
	assert.Greater(t, sig.Strength, 0.5)
	assert.Equal(t, "momentum", sig.SourceID)
}

func TestMomentumFlatOnStablePrices(t *testing.T) {
	sig, err := NewMomentumStrategy().Evaluate(flatPrices(60))
	require.NoError(t, err)
	assert.Equal(t, DirectionFlat, sig.Direction)
}

func TestMeanReversionLongOnOversold(t *testing.T) {
	// Stable at 100, then a sharp drop on the final bar.
	window := buildWindow("BTCUSDT", 60,
		func(i int) float64 {
			if i == 59 {
				return 80
			}
			return 100
		},
		func(i int) float64 { return 100 })

	sig, err := NewMeanReversionStrategy().Evaluate(window)
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, sig.Direction)
	assert.Greater(t, sig.Strength, 0.0)
}

func TestMeanReversionShortOnOverbought(t *testing.T) {
	window := buildWindow("BTCUSDT", 60,
		func(i int) float64 {
			if i == 59 {
				return 125
			}
			return 100
		},
		func(i int) float64 { return 100 })

	sig, err := NewMeanReversionStrategy().Evaluate(window)
	require.NoError(t, err)
	assert.Equal(t, DirectionShort, sig.Direction)
}

func TestBreakoutLongAboveRangeHigh(t *testing.T) {
	// Range-bound at 100, then a 10% close above the range on high volume.
	window := buildWindow("BTCUSDT", 60,
		func(i int) float64 {
			if i == 59 {
				return 110
			}
			return 100
		},
		func(i int) float64 {
			if i == 59 {
				return 1000
			}
			return 100
		})

	sig, err := NewBreakoutStrategy().Evaluate(window)
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, sig.Direction)
	assert.Greater(t, sig.Strength, 0.5)
}

func TestBreakoutFlatWithoutVolume(t *testing.T) {
	window := buildWindow("BTCUSDT", 60,
		func(i int) float64 {
			if i == 59 {
				return 110
			}
			return 100
		},
		func(i int) float64 { return 100 })

	sig, err := NewBreakoutStrategy().Evaluate(window)
	require.NoError(t, err)
	assert.Equal(t, DirectionFlat, sig.Direction)
}

// stubStrategy returns a fixed signal, for composite aggregation tests.
type stubStrategy struct {
	name      string
	direction Direction
	strength  float64
	err       error
}

func (s stubStrategy) Evaluate(window []types.MarketSnapshot) (Signal, error) {
	if s.err != nil {
		return Signal{}, s.err
	}
	last := lastSnapshot(window)
	return Signal{
		Symbol:    last.Symbol,
		Timestamp: last.Timestamp,
		Direction: s.direction,
		Strength:  s.strength,
		SourceID:  s.name,
	}, nil
}

func (s stubStrategy) GetName() string { return s.name }

func TestCompositeExactTieIsFlat(t *testing.T) {
	c := NewComposite(
		WeightedStrategy{Strategy: stubStrategy{name: "bull", direction: DirectionLong, strength: 0.6}, Weight: 1},
		WeightedStrategy{Strategy: stubStrategy{name: "bear", direction: DirectionShort, strength: 0.6}, Weight: 1},
	)

	sig, err := c.Evaluate(flatPrices(60))
	require.NoError(t, err)
	assert.Equal(t, DirectionFlat, sig.Direction)
	assert.Zero(t, sig.Strength)
}

func TestCompositeWeightedConsensus(t *testing.T) {
	c := NewComposite(
		WeightedStrategy{Strategy: stubStrategy{name: "bull", direction: DirectionLong, strength: 0.8}, Weight: 3},
		WeightedStrategy{Strategy: stubStrategy{name: "bear", direction: DirectionShort, strength: 0.8}, Weight: 1},
	)

	sig, err := c.Evaluate(flatPrices(60))
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, sig.Direction)
	// (0.8*3 - 0.8*1) / 4 = 0.4
	assert.InDelta(t, 0.4, sig.Strength, 1e-9)
}

func TestCompositeSkipsErroringMember(t *testing.T) {
	c := NewComposite(
		WeightedStrategy{Strategy: stubStrategy{name: "broken", err: fmt.Errorf("model offline")}, Weight: 5},
		WeightedStrategy{Strategy: stubStrategy{name: "bull", direction: DirectionLong, strength: 0.5}, Weight: 1},
	)

	sig, err := c.Evaluate(flatPrices(60))
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, sig.Direction)
	assert.InDelta(t, 0.5, sig.Strength, 1e-9)
}

func TestCompositeNoStrategiesIsFlat(t *testing.T) {
	sig, err := NewComposite().Evaluate(flatPrices(60))
	require.NoError(t, err)
	assert.Equal(t, DirectionFlat, sig.Direction)
}

func TestMLScoreDegradesToFlatOnScorerError(t *testing.T) {
	s := NewMLScoreStrategy(failingScorer{})
	sig, err := s.Evaluate(flatPrices(60))
	require.NoError(t, err)
	assert.Equal(t, DirectionFlat, sig.Direction)
	assert.Zero(t, sig.Strength)
}

func TestMLScoreDirectionFollowsScore(t *testing.T) {
	// Rising series over the scorer horizon -> positive score -> LONG.
	window := buildWindow("BTCUSDT", 60,
		func(i int) float64 { return 100 + float64(i) },
		func(i int) float64 { return 100 })

	sig, err := NewMLScoreStrategy(ReturnScorer{Horizon: 10}).Evaluate(window)
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, sig.Direction)
	assert.Greater(t, sig.Strength, 0.0)
}

type failingScorer struct{}

func (failingScorer) Score(window []types.MarketSnapshot) (float64, error) {
	return 0, fmt.Errorf("model offline")
}

func (failingScorer) Name() string { return "failing" }

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
