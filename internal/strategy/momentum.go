package strategy

import (
	"fmt"
	"math"

	"github.com/cryptoalpha/alpha-agent/internal/indicators"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// MomentumStrategy follows price trends. It blends momentum over several
// horizons, weighting recent horizons heavier, and only trades when volume
// and trend slope confirm the move.
type MomentumStrategy struct {
	lookbackPeriod    int
	momentumThreshold float64
	volumeThreshold   float64
}

// NewMomentumStrategy creates a momentum strategy with default parameters
func NewMomentumStrategy() *MomentumStrategy {
	return &MomentumStrategy{
		lookbackPeriod:    20,
		momentumThreshold: 0.02, // 2% momentum threshold
		volumeThreshold:   1.5,  // 1.5x average volume
	}
}

// Evaluate analyzes the window and returns a momentum signal
func (m *MomentumStrategy) Evaluate(window []types.MarketSnapshot) (Signal, error) {
	if len(window) < MinWindow {
		last := lastSnapshot(window)
		return Flat(last.Symbol, last.Timestamp, m.GetName(), "insufficient data"), nil
	}
	if err := validateWindow(window); err != nil {
		return Signal{}, err
	}

	last := window[len(window)-1]

	momentum := m.momentumScore(window)
	volumeOK := m.volumeConfirms(window)
	slope, _ := indicators.TrendSlope(window, m.lookbackPeriod)

	strength := clamp01(math.Abs(momentum) / (2 * m.momentumThreshold))

	switch {
	case momentum > m.momentumThreshold && volumeOK && slope > 1:
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: DirectionLong,
			Strength:  strength,
			SourceID:  m.GetName(),
			Reason:    fmt.Sprintf("upward momentum %.2f%% with trend %.2f%%", momentum*100, slope),
		}, nil
	case momentum < -m.momentumThreshold && volumeOK && slope < -1:
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: DirectionShort,
			Strength:  strength,
			SourceID:  m.GetName(),
			Reason:    fmt.Sprintf("downward momentum %.2f%% with trend %.2f%%", momentum*100, slope),
		}, nil
	case math.Abs(momentum) > m.momentumThreshold/2:
		dir := DirectionLong
		if momentum < 0 {
			dir = DirectionShort
		}
		return Signal{
			Symbol:    last.Symbol,
			Timestamp: last.Timestamp,
			Direction: dir,
			Strength:  strength / 2,
			SourceID:  m.GetName(),
			Reason:    fmt.Sprintf("moderate momentum %.2f%%", momentum*100),
		}, nil
	}

	return Flat(last.Symbol, last.Timestamp, m.GetName(), "insufficient momentum"), nil
}

// momentumScore blends price momentum over 5, 10 and lookback periods,
// weighting more recent horizons heavier.
func (m *MomentumStrategy) momentumScore(window []types.MarketSnapshot) float64 {
	current := window[len(window)-1].Price

	periods := []int{5, 10, m.lookbackPeriod}
	weights := []float64{0.5, 0.3, 0.2}

	score := 0.0
	for i, period := range periods {
		past := window[len(window)-1-period].Price
		if past > 0 {
			score += (current - past) / past * weights[i]
		}
	}
	return score
}

func (m *MomentumStrategy) volumeConfirms(window []types.MarketSnapshot) bool {
	avg, err := indicators.AverageVolume(window, m.lookbackPeriod)
	if err != nil || avg == 0 {
		return true // assume confirmation when volume data is unusable
	}
	return window[len(window)-1].Volume/avg >= m.volumeThreshold
}

// GetName returns the strategy name
func (m *MomentumStrategy) GetName() string {
	return "momentum"
}

func lastSnapshot(window []types.MarketSnapshot) types.MarketSnapshot {
	if len(window) == 0 {
		return types.MarketSnapshot{}
	}
	return window[len(window)-1]
}
