package strategy

import (
	"fmt"

	"github.com/cryptoalpha/alpha-agent/internal/indicators"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// BreakoutStrategy trades range breaks: a close beyond the prior lookback
// high or low by more than the breakout threshold, confirmed by elevated
// volume, signals continuation in that direction.
type BreakoutStrategy struct {
	lookbackPeriod    int
	breakoutThreshold float64
	volumeThreshold   float64
}

// NewBreakoutStrategy creates a breakout strategy with default parameters
func NewBreakoutStrategy() *BreakoutStrategy {
	return &BreakoutStrategy{
		lookbackPeriod:    20,
		breakoutThreshold: 0.02, // 2% beyond the range edge
		volumeThreshold:   1.5,
	}
}

// Evaluate analyzes the window and returns a breakout signal
func (b *BreakoutStrategy) Evaluate(window []types.MarketSnapshot) (Signal, error) {
	if len(window) < MinWindow {
		last := lastSnapshot(window)
		return Flat(last.Symbol, last.Timestamp, b.GetName(), "insufficient data"), nil
	}
	if err := validateWindow(window); err != nil {
		return Signal{}, err
	}

	last := window[len(window)-1]

	high, low, err := indicators.PriceRange(window, b.lookbackPeriod)
	if err != nil {
		return Signal{}, err
	}

	if !b.volumeConfirms(window) {
		return Flat(last.Symbol, last.Timestamp, b.GetName(), "no volume confirmation"), nil
	}

	if high > 0 && last.Price > high*(1+b.breakoutThreshold) {
		excess := (last.Price - high) / high
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: DirectionLong,
			Strength:  clamp01(excess / (2 * b.breakoutThreshold)),
			SourceID:  b.GetName(),
			Reason:    fmt.Sprintf("upside breakout %.2f%% above %d-period high", excess*100, b.lookbackPeriod),
		}, nil
	}

	if low > 0 && last.Price < low*(1-b.breakoutThreshold) {
		excess := (low - last.Price) / low
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: DirectionShort,
			Strength:  clamp01(excess / (2 * b.breakoutThreshold)),
			SourceID:  b.GetName(),
			Reason:    fmt.Sprintf("downside breakout %.2f%% below %d-period low", excess*100, b.lookbackPeriod),
		}, nil
	}

	return Flat(last.Symbol, last.Timestamp, b.GetName(), "price inside range"), nil
}

func (b *BreakoutStrategy) volumeConfirms(window []types.MarketSnapshot) bool {
	avg, err := indicators.AverageVolume(window, b.lookbackPeriod)
	if err != nil || avg == 0 {
		return true
	}
	return window[len(window)-1].Volume/avg >= b.volumeThreshold
}

// GetName returns the strategy name
func (b *BreakoutStrategy) GetName() string {
	return "breakout"
}
