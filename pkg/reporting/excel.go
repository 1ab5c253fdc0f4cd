package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/cryptoalpha/alpha-agent/internal/evaluation"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
)

// DefaultExcelReporter writes run results to an Excel workbook.
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// ExcelStyles holds the style IDs shared across sheets.
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
}

// WriteReportXLSX writes the report, trade history, and equity curve to a
// three-sheet workbook at path.
func (r *DefaultExcelReporter) WriteReportXLSX(report *evaluation.Report, trades []portfolio.TradeRecord, curve []portfolio.EquityPoint, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const equitySheet = "Equity Curve"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(equitySheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, trades, styles); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, equitySheet, curve, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *evaluation.Report, styles ExcelStyles) error {
	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Start Equity", report.StartEquity, styles.CurrencyStyle},
		{"End Equity", report.EndEquity, styles.CurrencyStyle},
		{"Total Return", report.TotalReturn, styles.PercentStyle},
		{"Annualized Return", report.AnnualizedReturn, styles.PercentStyle},
		{"Sharpe Ratio", report.SharpeRatio, 0},
		{"Max Drawdown", report.MaxDrawdown, styles.PercentStyle},
		{"Realized PnL", report.RealizedPnL, styles.CurrencyStyle},
		{"Win Rate", report.WinRate, styles.PercentStyle},
		{"Total Trades", report.TotalTrades, 0},
		{"Winning Trades", report.WinningTrades, 0},
		{"Losing Trades", report.LosingTrades, 0},
	}

	if err := fx.SetCellValue(sheet, "A1", "Metric"); err != nil {
		return err
	}
	if err := fx.SetCellValue(sheet, "B1", "Value"); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle); err != nil {
		return err
	}

	for i, row := range rows {
		labelCell := fmt.Sprintf("A%d", i+2)
		valueCell := fmt.Sprintf("B%d", i+2)
		if err := fx.SetCellValue(sheet, labelCell, row.label); err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, valueCell, row.value); err != nil {
			return err
		}
		if row.style != 0 {
			if err := fx.SetCellStyle(sheet, valueCell, valueCell, row.style); err != nil {
				return err
			}
		}
	}

	return fx.SetColWidth(sheet, "A", "B", 22)
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, trades []portfolio.TradeRecord, styles ExcelStyles) error {
	headers := []string{"Time", "Symbol", "Side", "Quantity", "Entry Price", "Exit Price", "Realized PnL"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle); err != nil {
			return err
		}
	}

	for i, trade := range trades {
		row := i + 2
		values := []interface{}{
			trade.Timestamp.Format("2006-01-02 15:04:05"),
			trade.Symbol,
			trade.Side.String(),
			trade.Quantity,
			trade.EntryPrice,
			trade.ExitPrice,
			trade.PnL,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
		for _, col := range []string{"E", "F", "G"} {
			cell := fmt.Sprintf("%s%d", col, row)
			if err := fx.SetCellStyle(sheet, cell, cell, styles.CurrencyStyle); err != nil {
				return err
			}
		}
	}

	return fx.SetColWidth(sheet, "A", "G", 18)
}

func (r *DefaultExcelReporter) writeEquitySheet(fx *excelize.File, sheet string, curve []portfolio.EquityPoint, styles ExcelStyles) error {
	headers := []string{"Time", "Equity"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle); err != nil {
			return err
		}
	}

	for i, point := range curve {
		row := i + 2
		timeCell := fmt.Sprintf("A%d", row)
		equityCell := fmt.Sprintf("B%d", row)
		if err := fx.SetCellValue(sheet, timeCell, point.Timestamp.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, equityCell, point.Equity); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, equityCell, equityCell, styles.CurrencyStyle); err != nil {
			return err
		}
	}

	return fx.SetColWidth(sheet, "A", "B", 18)
}
