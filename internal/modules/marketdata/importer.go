package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aristath/vigil/internal/events"
	"github.com/aristath/vigil/internal/utils"
)

// CSV column layout: Symbol,Date(MM/DD/YYYY),Open,High,Low,Close,Volume,NFB/NFS
const importColumns = 8

// csvDateLayout is the date format used by PSE CSV exports
const csvDateLayout = "01/02/2006"

// numericCleaner strips currency markers and thousands separators so
// values like "1,234.50" or "PHP 12.30" parse as plain decimals.
var numericCleaner = strings.NewReplacer(",", "", "₱", "", "PHP", "", "Php", "", "php", "", " ", "")

// Import parses CSV rows from r and upserts every valid row into the
// store. Rows that fail validation are rejected individually and
// reported in the summary; one bad row never aborts the batch.
func (s *Service) Import(r io.Reader) (*ImportSummary, error) {
	defer utils.OperationTimer("csv_import", s.log)()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Column count is validated per row
	reader.TrimLeadingSpace = true

	summary := &ImportSummary{BatchID: uuid.New().String()}

	var bars []PriceBar
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++

		if err != nil {
			summary.Rejected++
			summary.Rejections = append(summary.Rejections, RowRejection{
				Line:   line,
				Reason: fmt.Sprintf("malformed CSV: %v", err),
			})
			continue
		}

		// First row is the header
		if line == 1 {
			continue
		}

		bar, rejection := parseRow(record, line)
		if rejection != nil {
			summary.Rejected++
			summary.Rejections = append(summary.Rejections, *rejection)
			continue
		}

		bars = append(bars, bar)
	}

	if err := s.repo.UpsertBatch(bars); err != nil {
		return nil, fmt.Errorf("failed to store imported bars: %w", err)
	}
	summary.Accepted = len(bars)

	s.log.Info().
		Str("batch_id", summary.BatchID).
		Int("accepted", summary.Accepted).
		Int("rejected", summary.Rejected).
		Msg("CSV import completed")

	if s.bus != nil {
		s.bus.PublishData("marketdata", &events.ImportCompletedData{
			BatchID:  summary.BatchID,
			Accepted: summary.Accepted,
			Rejected: summary.Rejected,
		})
	}

	return summary, nil
}

// parseRow validates one CSV record into a PriceBar or a rejection.
// Every row resolves to exactly one of the two, never a partial result.
func parseRow(record []string, line int) (PriceBar, *RowRejection) {
	reject := func(reason string) (PriceBar, *RowRejection) {
		return PriceBar{}, &RowRejection{Line: line, Reason: reason}
	}

	if len(record) != importColumns {
		return reject(fmt.Sprintf("expected %d columns, got %d", importColumns, len(record)))
	}

	symbol := strings.ToUpper(strings.TrimSpace(record[0]))
	if symbol == "" {
		return reject("empty symbol")
	}

	date, err := time.Parse(csvDateLayout, strings.TrimSpace(record[1]))
	if err != nil {
		return reject(fmt.Sprintf("invalid date %q (want MM/DD/YYYY)", record[1]))
	}

	open, err := parsePrice("open", record[2])
	if err != nil {
		return reject(err.Error())
	}
	high, err := parsePrice("high", record[3])
	if err != nil {
		return reject(err.Error())
	}
	low, err := parsePrice("low", record[4])
	if err != nil {
		return reject(err.Error())
	}
	closePrice, err := parsePrice("close", record[5])
	if err != nil {
		return reject(err.Error())
	}

	volume, err := parseVolume(record[6])
	if err != nil {
		return reject(err.Error())
	}

	// Net foreign buy/sell is signed: negative means net foreign selling
	nfb, err := parseSigned("net foreign buy/sell", record[7])
	if err != nil {
		return reject(err.Error())
	}

	return PriceBar{
		Symbol:            symbol,
		Date:              date.Format(utils.DayFormat),
		Open:              open,
		High:              high,
		Low:               low,
		Close:             closePrice,
		Volume:            volume,
		NetForeignBuySell: nfb,
	}, nil
}

// parsePrice parses a non-negative price field
func parsePrice(name, value string) (float64, error) {
	d, err := parseDecimal(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative %s %q", name, value)
	}

	f, _ := d.Float64()
	return f, nil
}

// parseVolume parses a non-negative integer volume field
func parseVolume(value string) (int64, error) {
	d, err := parseDecimal(value)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q", value)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative volume %q", value)
	}

	return d.IntPart(), nil
}

// parseSigned parses a decimal field that may legitimately be negative.
// An empty field is treated as zero (some exports omit it on quiet days).
func parseSigned(name, value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}

	d, err := parseDecimal(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}

	f, _ := d.Float64()
	return f, nil
}

// parseDecimal cleans and parses a numeric CSV field
func parseDecimal(value string) (decimal.Decimal, error) {
	cleaned := numericCleaner.Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty value")
	}

	return decimal.NewFromString(cleaned)
}
