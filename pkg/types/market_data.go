package types

import "time"

// MarketSnapshot is one normalized price/volume observation for a symbol.
// Timestamps are strictly increasing per symbol; a snapshot is immutable
// once created.
type MarketSnapshot struct {
	Symbol    string
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// Valid reports whether the snapshot carries usable data.
func (s MarketSnapshot) Valid() bool {
	return s.Price > 0 && s.Volume >= 0 && !s.Timestamp.IsZero()
}

type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}
