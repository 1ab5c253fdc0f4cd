package strategy

import (
	"fmt"
	"math"

	"github.com/cryptoalpha/alpha-agent/internal/indicators"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// MeanReversionStrategy fades moves away from the trailing mean. It combines
// a z-score check, the price's position within Bollinger bands, and RSI
// extremes; any one firing strongly is enough to trade against the move.
type MeanReversionStrategy struct {
	lookbackPeriod int
	zScoreLimit    float64
	bandPeriod     int
	bandStdDev     float64
	rsi            *indicators.RSI
}

// NewMeanReversionStrategy creates a mean reversion strategy with default parameters
func NewMeanReversionStrategy() *MeanReversionStrategy {
	return &MeanReversionStrategy{
		lookbackPeriod: 20,
		zScoreLimit:    2.0,
		bandPeriod:     20,
		bandStdDev:     2.0,
		rsi:            indicators.NewRSI(14),
	}
}

// Evaluate analyzes the window and returns a mean-reversion signal
func (m *MeanReversionStrategy) Evaluate(window []types.MarketSnapshot) (Signal, error) {
	if len(window) < MinWindow {
		last := lastSnapshot(window)
		return Flat(last.Symbol, last.Timestamp, m.GetName(), "insufficient data"), nil
	}
	if err := validateWindow(window); err != nil {
		return Signal{}, err
	}

	last := window[len(window)-1]

	zScore, err := indicators.ZScore(window, m.lookbackPeriod)
	if err != nil {
		return Signal{}, err
	}
	bandPos := m.bandPosition(window)
	rsi, err := m.rsi.Calculate(window)
	if err != nil {
		return Signal{}, err
	}

	// Strong overbought: fade with a short
	if zScore > m.zScoreLimit || bandPos > 0.8 || rsi > 80 {
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: DirectionShort,
			Strength:  clamp01(math.Abs(zScore) * 0.25),
			SourceID:  m.GetName(),
			Reason:    fmt.Sprintf("overbought: z=%.2f band=%.2f rsi=%.1f", zScore, bandPos, rsi),
		}, nil
	}

	// Strong oversold: fade with a long
	if zScore < -m.zScoreLimit || bandPos < 0.2 || rsi < 20 {
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: DirectionLong,
			Strength:  clamp01(math.Abs(zScore) * 0.25),
			SourceID:  m.GetName(),
			Reason:    fmt.Sprintf("oversold: z=%.2f band=%.2f rsi=%.1f", zScore, bandPos, rsi),
		}, nil
	}

	// Moderate stretch from the mean
	if math.Abs(zScore) > m.zScoreLimit/2 {
		dir := DirectionShort
		if zScore < 0 {
			dir = DirectionLong
		}
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: dir,
			Strength:  clamp01(math.Abs(zScore) * 0.15),
			SourceID:  m.GetName(),
			Reason:    fmt.Sprintf("moderate stretch: z=%.2f", zScore),
		}, nil
	}

	return Flat(last.Symbol, last.Timestamp, m.GetName(), "price within normal range"), nil
}

// bandPosition returns where the latest price sits within the Bollinger
// bands: 0 at the lower band, 1 at the upper, 0.5 when the bands collapse.
func (m *MeanReversionStrategy) bandPosition(window []types.MarketSnapshot) float64 {
	sma := indicators.NewSMA(m.bandPeriod)
	mid, err := sma.Calculate(window)
	if err != nil {
		return 0.5
	}
	std, err := indicators.StdDev(window, m.bandPeriod)
	if err != nil || std == 0 {
		return 0.5
	}

	upper := mid + std*m.bandStdDev
	lower := mid - std*m.bandStdDev
	return (window[len(window)-1].Price - lower) / (upper - lower)
}

// GetName returns the strategy name
func (m *MeanReversionStrategy) GetName() string {
	return "mean_reversion"
}
