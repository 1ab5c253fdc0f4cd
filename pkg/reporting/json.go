package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cryptoalpha/alpha-agent/internal/evaluation"
)

// DefaultJSONFormatter serializes run results for machine consumption.
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// FormatReport formats the report as indented JSON bytes. An infinite
// profit factor (no losing trades) is flattened to zero since JSON has no
// infinity.
func (f *DefaultJSONFormatter) FormatReport(report *evaluation.Report) ([]byte, error) {
	clean := *report
	if math.IsInf(clean.ProfitFactor, 0) {
		clean.ProfitFactor = 0
	}
	return json.MarshalIndent(&clean, "", "  ")
}

// PrintReport prints the report as JSON to the console.
func (f *DefaultJSONFormatter) PrintReport(report *evaluation.Report) {
	data, _ := f.FormatReport(report)
	fmt.Println(string(data))
}

// WriteReportJSON writes the report to a JSON file, creating parent
// directories as needed.
func WriteReportJSON(report *evaluation.Report, path string) error {
	formatter := NewDefaultJSONFormatter()
	data, err := formatter.FormatReport(report)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}
