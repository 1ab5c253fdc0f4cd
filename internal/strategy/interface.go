package strategy

import (
	"fmt"
	"time"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// MinWindow is the minimum trailing history a strategy needs before it may
// emit a directional signal. Shorter windows produce a flat signal rather
// than an error.
const MinWindow = 50

// Direction is the directional component of a trading signal
type Direction int

const (
	DirectionFlat Direction = iota
	DirectionLong
	DirectionShort
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "LONG"
	case DirectionShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Signal is the output of one strategy evaluation for one symbol.
// It is ephemeral; only the ledger keeps durable state.
type Signal struct {
	Symbol    string
	Timestamp time.Time
	Direction Direction
	Strength  float64 // [0,1]
	SourceID  string
	Reason    string
}

// Flat builds the conservative no-trade signal.
func Flat(symbol string, ts time.Time, source, reason string) Signal {
	return Signal{
		Symbol:    symbol,
		Timestamp: ts,
		Direction: DirectionFlat,
		Strength:  0,
		SourceID:  source,
		Reason:    reason,
	}
}

// Strategy defines the interface for trading strategies. Implementations
// must be pure functions of the window so live and backtest runs behave
// identically.
type Strategy interface {
	// Evaluate analyzes the trailing snapshot window and returns a signal.
	// Windows shorter than MinWindow yield a flat signal, not an error;
	// errors are reserved for malformed input.
	Evaluate(window []types.MarketSnapshot) (Signal, error)

	// GetName returns the name of the strategy
	GetName() string
}

// validateWindow rejects windows containing unusable snapshots.
func validateWindow(window []types.MarketSnapshot) error {
	for i := range window {
		if !window[i].Valid() {
			return fmt.Errorf("invalid snapshot at index %d: price=%f volume=%f",
				i, window[i].Price, window[i].Volume)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
