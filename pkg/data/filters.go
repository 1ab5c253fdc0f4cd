package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// DefaultDataFilter implements common series-shaping operations used when
// preparing a backtest window.
type DefaultDataFilter struct{}

// NewDefaultDataFilter creates a new default data filter
func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByDateRange keeps snapshots with start <= timestamp <= end.
func (f *DefaultDataFilter) FilterByDateRange(data []types.MarketSnapshot, start, end time.Time) []types.MarketSnapshot {
	if len(data) == 0 {
		return data
	}

	var filtered []types.MarketSnapshot
	for _, snapshot := range data {
		if !snapshot.Timestamp.Before(start) && !snapshot.Timestamp.After(end) {
			filtered = append(filtered, snapshot)
		}
	}
	return filtered
}

// FilterByPeriod keeps the trailing period ending at the last snapshot.
func (f *DefaultDataFilter) FilterByPeriod(data []types.MarketSnapshot, period time.Duration) []types.MarketSnapshot {
	if period <= 0 || len(data) == 0 {
		return data
	}

	cutoff := data[len(data)-1].Timestamp.Add(-period)
	startIdx := 0
	for i, snapshot := range data {
		if !snapshot.Timestamp.Before(cutoff) {
			startIdx = i
			break
		}
	}
	return data[startIdx:]
}

// ValidateTimeSequence ensures data is strictly chronological with no
// duplicate timestamps.
func (f *DefaultDataFilter) ValidateTimeSequence(data []types.MarketSnapshot) error {
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, data[i].Timestamp.Format(time.RFC3339), data[i-1].Timestamp.Format(time.RFC3339))
		}
		if data[i].Timestamp.Equal(data[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, data[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// SortByTimestamp returns a copy sorted in ascending timestamp order.
func (f *DefaultDataFilter) SortByTimestamp(data []types.MarketSnapshot) []types.MarketSnapshot {
	if len(data) <= 1 {
		return data
	}

	sorted := make([]types.MarketSnapshot, len(data))
	copy(sorted, data)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// RemoveDuplicates removes duplicate timestamps, keeping the first occurrence
func (f *DefaultDataFilter) RemoveDuplicates(data []types.MarketSnapshot) []types.MarketSnapshot {
	if len(data) <= 1 {
		return data
	}

	var filtered []types.MarketSnapshot
	seen := make(map[int64]bool)
	for _, snapshot := range data {
		key := snapshot.Timestamp.UnixNano()
		if !seen[key] {
			seen[key] = true
			filtered = append(filtered, snapshot)
		}
	}
	return filtered
}
