package strategy

import (
	"fmt"
	"math"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// Scorer is an opaque predictive model: a pure scoring function over the
// snapshot window. Scores are directional in [-1, 1]; positive means the
// model expects the price to rise. Model training and selection happen
// outside the agent entirely.
type Scorer interface {
	Score(window []types.MarketSnapshot) (float64, error)
	Name() string
}

// MLScoreStrategy adapts any Scorer to the Strategy interface.
type MLScoreStrategy struct {
	scorer Scorer
}

// NewMLScoreStrategy wraps a scoring model as a strategy
func NewMLScoreStrategy(scorer Scorer) *MLScoreStrategy {
	return &MLScoreStrategy{scorer: scorer}
}

// Evaluate converts the model score into a directional signal
func (m *MLScoreStrategy) Evaluate(window []types.MarketSnapshot) (Signal, error) {
	if len(window) < MinWindow {
		last := lastSnapshot(window)
		return Flat(last.Symbol, last.Timestamp, m.GetName(), "insufficient data"), nil
	}
	if err := validateWindow(window); err != nil {
		return Signal{}, err
	}

	last := window[len(window)-1]

	score, err := m.scorer.Score(window)
	if err != nil || math.IsNaN(score) {
		// A failing model never halts the agent; degrade to flat.
		return Flat(last.Symbol, last.Timestamp, m.GetName(), "model score unavailable"), nil
	}

	dir := DirectionFlat
	if score > 0 {
		dir = DirectionLong
	} else if score < 0 {
		dir = DirectionShort
	}

	return Signal{
		Symbol:    last.Symbol,
		Timestamp: last.Timestamp,
		Direction: dir,
		Strength:  clamp01(math.Abs(score)),
		SourceID:  m.GetName(),
		Reason:    fmt.Sprintf("model score %.3f", score),
	}, nil
}

// GetName returns the strategy name
func (m *MLScoreStrategy) GetName() string {
	return "ml_" + m.scorer.Name()
}

// ReturnScorer is a minimal reference scorer: the normalized trailing
// return over its horizon. Useful as a stand-in model in backtests.
type ReturnScorer struct {
	Horizon int
}

func (r ReturnScorer) Score(window []types.MarketSnapshot) (float64, error) {
	horizon := r.Horizon
	if horizon <= 0 {
		horizon = 10
	}
	if len(window) <= horizon {
		return 0, fmt.Errorf("window shorter than horizon %d", horizon)
	}
	past := window[len(window)-1-horizon].Price
	if past <= 0 {
		return 0, fmt.Errorf("non-positive reference price")
	}
	ret := (window[len(window)-1].Price - past) / past
	// Squash into [-1, 1]; a 10% move saturates the score.
	return math.Tanh(ret * 10), nil
}

func (r ReturnScorer) Name() string {
	return "return_scorer"
}
