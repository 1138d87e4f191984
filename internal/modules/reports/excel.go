package reports

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders a portfolio report as an xlsx workbook with a
// Positions sheet, an Accounts sheet and a Totals sheet. Unpriced
// positions render their valuation columns as "n/a".
type Exporter struct {
	log zerolog.Logger
}

// NewExporter creates a new xlsx exporter
func NewExporter(log zerolog.Logger) *Exporter {
	return &Exporter{
		log: log.With().Str("component", "xlsx_exporter").Logger(),
	}
}

// Export builds the workbook and returns its bytes
func (e *Exporter) Export(report *PortfolioReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.Error().Err(err).Msg("Failed to close workbook")
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := e.fillPositionsSheet(f, report, headerStyle); err != nil {
		return nil, err
	}
	if err := e.fillAccountsSheet(f, report, headerStyle); err != nil {
		return nil, err
	}
	if err := e.fillTotalsSheet(f, report); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.log.Error().Err(err).Msg("Failed to delete default sheet")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *Exporter) fillPositionsSheet(f *excelize.File, report *PortfolioReport, headerStyle int) error {
	const sheet = "Positions"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []string{"Account", "Symbol", "Shares", "Acquisition Price", "Cost Basis",
		"Price Date", "Latest Close", "Market Value", "Unrealized P/L", "P/L %"}
	for i, title := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellStr(sheet, cell, title)
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	names := accountNames(report)

	row := 1
	for _, account := range report.Accounts {
		for _, position := range account.Positions {
			row++
			_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), names[position.AccountID])
			_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), position.Symbol)
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), position.Shares)
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), position.AcquisitionPrice)
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), position.CostBasis)

			if !position.Priced {
				for _, col := range []string{"F", "G", "H", "I", "J"} {
					_ = f.SetCellStr(sheet, fmt.Sprintf("%s%d", col, row), "n/a")
				}
				continue
			}

			_ = f.SetCellStr(sheet, fmt.Sprintf("F%d", row), position.PriceDate)
			_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), *position.LatestClose)
			_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), *position.MarketValue)
			_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), *position.UnrealizedPL)
			if position.UnrealizedPLPct != nil {
				_ = f.SetCellValue(sheet, fmt.Sprintf("J%d", row), *position.UnrealizedPLPct)
			} else {
				_ = f.SetCellStr(sheet, fmt.Sprintf("J%d", row), "n/a")
			}
		}
	}

	return nil
}

func (e *Exporter) fillAccountsSheet(f *excelize.File, report *PortfolioReport, headerStyle int) error {
	const sheet = "Accounts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []string{"Name", "Platform", "Principal", "Balance", "Ledger P/L",
		"Positions Value", "Cost Basis", "Unrealized P/L", "Partial"}
	for i, title := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellStr(sheet, cell, title)
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, account := range report.Accounts {
		row := i + 2
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), account.Account.Name)
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), account.Account.Platform)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), account.Account.Principal)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), account.Account.Balance)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), account.Account.ProfitLoss)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), account.Totals.MarketValue)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), account.Totals.CostBasis)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), account.Totals.UnrealizedPL)
		_ = f.SetCellBool(sheet, fmt.Sprintf("I%d", row), account.Partial)
	}

	return nil
}

func (e *Exporter) fillTotalsSheet(f *excelize.File, report *PortfolioReport) error {
	const sheet = "Totals"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := []struct {
		label string
		value interface{}
	}{
		{"As Of", report.AsOf},
		{"Market Value", report.Totals.MarketValue},
		{"Cost Basis", report.Totals.CostBasis},
		{"Unrealized P/L", report.Totals.UnrealizedPL},
		{"Principal", report.Ledger.Principal},
		{"Balance", report.Ledger.Balance},
		{"Ledger P/L", report.Ledger.ProfitLoss},
		{"Partial", report.Partial},
		{"Missing Symbols", strings.Join(report.MissingSymbols, ", ")},
	}

	for i, r := range rows {
		row := i + 1
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), r.label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.value)
	}

	return nil
}

func accountNames(report *PortfolioReport) map[int64]string {
	names := make(map[int64]string, len(report.Accounts))
	for _, account := range report.Accounts {
		names[account.Account.ID] = account.Account.Name
	}
	return names
}
