package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// CSVColumnMapping describes where snapshot fields live in a CSV row.
type CSVColumnMapping struct {
	TimestampCol int
	PriceCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches files with header timestamp,price,volume.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	PriceCol:     1,
	VolumeCol:    2,
	MinColumns:   3,
	DateFormat:   time.RFC3339,
}

// KlineCSVFormat matches exchange kline exports
// (timestamp,open,high,low,close,volume); close is used as the price.
var KlineCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	PriceCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider loads market snapshots from CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical snapshots for symbol from a CSV file. Bad rows
// are skipped with a warning; a missing file falls back to generated
// sample data so backtests remain runnable out of the box.
func (p *CSVProvider) LoadData(filename, symbol string) ([]types.MarketSnapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("⚠️  Historical data file %s not found, generating sample data...", filename)
			return GenerateSampleData(symbol, 365*24), nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var data []types.MarketSnapshot

	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %v", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping",
				lineNum, p.format.MinColumns, len(record))
			continue
		}

		timestamp, err := parseTimestamp(record[p.format.TimestampCol], p.format.DateFormat)
		if err != nil {
			log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v",
				record[p.format.TimestampCol], lineNum, err)
			continue
		}

		price, err := strconv.ParseFloat(record[p.format.PriceCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid price '%s' at line %d, skipping: %v",
				record[p.format.PriceCol], lineNum, err)
			continue
		}

		volume, err := strconv.ParseFloat(record[p.format.VolumeCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid volume '%s' at line %d, skipping: %v",
				record[p.format.VolumeCol], lineNum, err)
			continue
		}

		snapshot := types.MarketSnapshot{
			Symbol:    symbol,
			Timestamp: timestamp,
			Price:     price,
			Volume:    volume,
		}
		if !snapshot.Valid() {
			log.Printf("⚠️ Unusable snapshot at line %d (price %.4f, volume %.4f), skipping",
				lineNum, price, volume)
			continue
		}

		data = append(data, snapshot)
	}

	return data, nil
}

// parseTimestamp accepts the configured layout plus unix millisecond
// epochs, which exchange exports commonly use.
func parseTimestamp(raw, layout string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(layout, raw)
}

// GenerateSampleData creates a random-walk snapshot series for testing
// when no real data is available.
func GenerateSampleData(symbol string, points int) []types.MarketSnapshot {
	data := make([]types.MarketSnapshot, points)
	startTime := time.Now().UTC().Add(-time.Duration(points) * time.Hour).Truncate(time.Hour)
	basePrice := 30000.0

	rng := rand.New(rand.NewSource(42))
	for i := range data {
		volatility := 0.02
		trend := float64(i) * 0.1
		randomWalk := (rng.Float64() - 0.5) * basePrice * volatility

		price := basePrice + trend + randomWalk
		if price < basePrice*0.5 {
			price = basePrice * 0.5
		}

		data[i] = types.MarketSnapshot{
			Symbol:    symbol,
			Timestamp: startTime.Add(time.Duration(i) * time.Hour),
			Price:     price,
			Volume:    rng.Float64() * 1000000,
		}

		basePrice = price
	}

	return data
}

// ValidateData checks the integrity of a loaded series.
func (p *CSVProvider) ValidateData(data []types.MarketSnapshot) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, snapshot := range data {
		if !snapshot.Valid() {
			return fmt.Errorf("invalid snapshot at index %d: price must be positive, volume non-negative", i)
		}
		if i > 0 && !snapshot.Timestamp.After(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i)
		}
	}

	return nil
}
