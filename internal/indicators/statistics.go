package indicators

import (
	"errors"
	"math"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// StdDev computes the standard deviation of prices over the trailing period.
func StdDev(data []types.MarketSnapshot, period int) (float64, error) {
	if len(data) < period {
		return 0, errors.New("insufficient data for standard deviation")
	}

	mean := 0.0
	for i := len(data) - period; i < len(data); i++ {
		mean += data[i].Price
	}
	mean /= float64(period)

	variance := 0.0
	for i := len(data) - period; i < len(data); i++ {
		diff := data[i].Price - mean
		variance += diff * diff
	}
	variance /= float64(period)

	return math.Sqrt(variance), nil
}

// ZScore measures how many standard deviations the latest price sits from
// the trailing mean. Returns 0 when the window is flat.
func ZScore(data []types.MarketSnapshot, period int) (float64, error) {
	std, err := StdDev(data, period)
	if err != nil {
		return 0, err
	}
	if std == 0 {
		return 0, nil
	}

	mean := 0.0
	for i := len(data) - period; i < len(data); i++ {
		mean += data[i].Price
	}
	mean /= float64(period)

	return (data[len(data)-1].Price - mean) / std, nil
}

// TrendSlope fits a least-squares line through the trailing prices and
// returns the slope as a percentage of the first price in the window.
func TrendSlope(data []types.MarketSnapshot, period int) (float64, error) {
	if len(data) < period {
		return 0, errors.New("insufficient data for trend slope")
	}

	window := data[len(data)-period:]
	n := float64(period)

	var sumX, sumY, sumXY, sumXX float64
	for i, s := range window {
		x := float64(i)
		sumX += x
		sumY += s.Price
		sumXY += x * s.Price
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 || window[0].Price == 0 {
		return 0, nil
	}

	slope := (n*sumXY - sumX*sumY) / denom
	return slope / window[0].Price * 100, nil
}

// PriceRange returns the highest and lowest price over the trailing period,
// excluding the latest snapshot so breakouts compare against prior history.
func PriceRange(data []types.MarketSnapshot, period int) (high, low float64, err error) {
	if len(data) < period+1 {
		return 0, 0, errors.New("insufficient data for price range")
	}

	window := data[len(data)-period-1 : len(data)-1]
	high = window[0].Price
	low = window[0].Price
	for _, s := range window[1:] {
		if s.Price > high {
			high = s.Price
		}
		if s.Price < low {
			low = s.Price
		}
	}
	return high, low, nil
}

// AverageVolume returns the mean volume over the trailing period.
func AverageVolume(data []types.MarketSnapshot, period int) (float64, error) {
	if len(data) < period {
		return 0, errors.New("insufficient data for average volume")
	}

	sum := 0.0
	for i := len(data) - period; i < len(data); i++ {
		sum += data[i].Volume
	}
	return sum / float64(period), nil
}
