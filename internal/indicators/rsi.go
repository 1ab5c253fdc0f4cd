package indicators

import (
	"errors"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// RSI represents the Relative Strength Index technical indicator
type RSI struct {
	period    int
	lastValue float64
}

// NewRSI creates a new RSI indicator
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
	}
}

// Calculate calculates the RSI value over the trailing window
func (r *RSI) Calculate(data []types.MarketSnapshot) (float64, error) {
	if len(data) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}

	gains := 0.0
	losses := 0.0
	for i := len(data) - r.period; i < len(data); i++ {
		change := data[i].Price - data[i-1].Price
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(r.period)
	avgLoss := losses / float64(r.period)

	if avgLoss == 0 {
		r.lastValue = 100
		return r.lastValue, nil
	}

	rs := avgGain / avgLoss
	r.lastValue = 100 - (100 / (1 + rs))
	return r.lastValue, nil
}

// GetName returns the indicator name
func (r *RSI) GetName() string {
	return "RSI"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}
