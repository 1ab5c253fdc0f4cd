package strategy

import (
	"fmt"
	"math"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// WeightedStrategy links a strategy with its weight in the composite vote.
type WeightedStrategy struct {
	Strategy Strategy
	Weight   float64
}

// Composite aggregates signals from multiple strategies by weighted
// average of their directional scores. Opposing signals cancel; an exact
// tie resolves to FLAT, the conservative default.
type Composite struct {
	strategies []WeightedStrategy
}

// NewComposite creates a composite signal source from weighted strategies
func NewComposite(strategies ...WeightedStrategy) *Composite {
	return &Composite{strategies: strategies}
}

// Evaluate combines the member strategies into one signal
func (c *Composite) Evaluate(window []types.MarketSnapshot) (Signal, error) {
	last := lastSnapshot(window)

	if len(c.strategies) == 0 {
		return Flat(last.Symbol, last.Timestamp, c.GetName(), "no strategies configured"), nil
	}

	net := 0.0
	totalWeight := 0.0
	for _, ws := range c.strategies {
		if ws.Weight <= 0 {
			continue
		}
		sig, err := ws.Strategy.Evaluate(window)
		if err != nil {
			// One misbehaving strategy must not halt the cycle.
			continue
		}

		score := sig.Strength
		switch sig.Direction {
		case DirectionShort:
			score = -score
		case DirectionFlat:
			score = 0
		}
		net += score * ws.Weight
		totalWeight += ws.Weight
	}

	if totalWeight == 0 {
		return Flat(last.Symbol, last.Timestamp, c.GetName(), "no usable strategy output"), nil
	}

	net /= totalWeight
	if net == 0 {
		return Flat(last.Symbol, last.Timestamp, c.GetName(), "strategies disagree, defaulting flat"), nil
	}

	dir := DirectionLong
	if net < 0 {
		dir = DirectionShort
	}

	return Signal{
		Symbol:    last.Symbol,
		Timestamp: last.Timestamp,
		Direction: dir,
		Strength:  clamp01(math.Abs(net)),
		SourceID:  c.GetName(),
		Reason:    fmt.Sprintf("weighted consensus %.3f across %d strategies", net, len(c.strategies)),
	}, nil
}

// GetName returns the strategy name
func (c *Composite) GetName() string {
	return "composite"
}
