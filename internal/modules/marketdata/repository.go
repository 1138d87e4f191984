package marketdata

import (
	"database/sql"
	"fmt"

	"github.com/aristath/vigil/internal/utils"
	"github.com/rs/zerolog"
)

// Repository provides access to stored price bars
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new market data repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "marketdata").Logger(),
	}
}

// Upsert inserts or replaces a single price bar keyed by (symbol, date).
// Last write wins; re-importing a day overwrites the stored values.
func (r *Repository) Upsert(bar PriceBar) error {
	dateUnix, err := utils.ParseDay(bar.Date)
	if err != nil {
		return fmt.Errorf("failed to parse bar date: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO price_bars
		(symbol, date, open, high, low, close, volume, net_foreign_buy_sell)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		bar.Symbol,
		dateUnix,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
		bar.NetForeignBuySell,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price bar: %w", err)
	}

	return nil
}

// UpsertBatch writes a batch of price bars in a single transaction.
// Used by the CSV importer so one file is one write burst.
func (r *Repository) UpsertBatch(bars []PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	done := utils.MeasureDBQuery("upsert_price_bars", r.log)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if Commit succeeds

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO price_bars
		(symbol, date, open, high, low, close, volume, net_foreign_buy_sell)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		dateUnix, err := utils.ParseDay(bar.Date)
		if err != nil {
			return fmt.Errorf("failed to parse date %s: %w", bar.Date, err)
		}

		_, err = stmt.Exec(
			bar.Symbol,
			dateUnix,
			bar.Open,
			bar.High,
			bar.Low,
			bar.Close,
			bar.Volume,
			bar.NetForeignBuySell,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert price bar for %s %s: %w", bar.Symbol, bar.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	done(int64(len(bars)))

	return nil
}

// Query fetches price bars for a symbol ordered by date ascending.
// Empty from/to leave that side of the range unbounded.
func (r *Repository) Query(symbol, from, to string) ([]PriceBar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, volume, net_foreign_buy_sell
		FROM price_bars
		WHERE symbol = ?
	`
	args := []interface{}{symbol}

	if from != "" {
		fromUnix, err := utils.ParseDay(from)
		if err != nil {
			return nil, fmt.Errorf("failed to parse from date: %w", err)
		}
		query += " AND date >= ?"
		args = append(args, fromUnix)
	}

	if to != "" {
		toUnix, err := utils.ParseDay(to)
		if err != nil {
			return nil, fmt.Errorf("failed to parse to date: %w", err)
		}
		query += " AND date <= ?"
		args = append(args, toUnix)
	}

	query += " ORDER BY date ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	return r.scanPriceBars(rows)
}

// LatestBefore returns the most recent bar for symbol at or before date.
// Returns nil if no such bar exists (not an error).
func (r *Repository) LatestBefore(symbol, date string) (*PriceBar, error) {
	dateUnix, err := utils.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}

	query := `
		SELECT id, symbol, date, open, high, low, close, volume, net_foreign_buy_sell
		FROM price_bars
		WHERE symbol = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`

	var bar PriceBar
	var barDate int64

	err = r.db.QueryRow(query, symbol, dateUnix).Scan(
		&bar.ID,
		&bar.Symbol,
		&barDate,
		&bar.Open,
		&bar.High,
		&bar.Low,
		&bar.Close,
		&bar.Volume,
		&bar.NetForeignBuySell,
	)
	if err == sql.ErrNoRows {
		return nil, nil // No bar at or before the date (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bar before %s: %w", date, err)
	}

	bar.Date = utils.FormatDay(barDate)
	return &bar, nil
}

// LatestDate returns the most recent date any bar was stored for.
// Returns empty string when the store is empty.
func (r *Repository) LatestDate() (string, error) {
	var dateUnix sql.NullInt64

	err := r.db.QueryRow("SELECT MAX(date) FROM price_bars").Scan(&dateUnix)
	if err != nil {
		return "", fmt.Errorf("failed to get latest date: %w", err)
	}

	if !dateUnix.Valid {
		return "", nil
	}

	return utils.FormatDay(dateUnix.Int64), nil
}

// Symbols returns all distinct symbols in the store, sorted
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM price_bars ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// CountBySymbol returns the number of stored bars for a symbol
func (r *Repository) CountBySymbol(symbol string) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM price_bars WHERE symbol = ?", symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bars for %s: %w", symbol, err)
	}

	return count, nil
}

// DeleteBySymbol removes all bars for a symbol and returns how many were deleted
func (r *Repository) DeleteBySymbol(symbol string) (int64, error) {
	result, err := r.db.Exec("DELETE FROM price_bars WHERE symbol = ?", symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bars for %s: %w", symbol, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		r.log.Info().
			Str("symbol", symbol).
			Int64("rows_deleted", rowsAffected).
			Msg("Deleted price bars")
	}

	return rowsAffected, nil
}

// SymbolRange returns bar count and first/last dates for a symbol.
// Count is zero when the symbol is unknown.
func (r *Repository) SymbolRange(symbol string) (count int64, first, last string, err error) {
	var minDate, maxDate sql.NullInt64

	err = r.db.QueryRow(
		"SELECT COUNT(*), MIN(date), MAX(date) FROM price_bars WHERE symbol = ?",
		symbol,
	).Scan(&count, &minDate, &maxDate)
	if err != nil {
		return 0, "", "", fmt.Errorf("failed to get range for %s: %w", symbol, err)
	}

	if minDate.Valid {
		first = utils.FormatDay(minDate.Int64)
	}
	if maxDate.Valid {
		last = utils.FormatDay(maxDate.Int64)
	}

	return count, first, last, nil
}

// HighLowSince returns the highest high and lowest low at or after the given date
func (r *Repository) HighLowSince(symbol, since string) (high, low float64, err error) {
	sinceUnix, err := utils.ParseDay(since)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse since date: %w", err)
	}

	var maxHigh, minLow sql.NullFloat64
	err = r.db.QueryRow(
		"SELECT MAX(high), MIN(low) FROM price_bars WHERE symbol = ? AND date >= ?",
		symbol, sinceUnix,
	).Scan(&maxHigh, &minLow)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get high/low for %s: %w", symbol, err)
	}

	return maxHigh.Float64, minLow.Float64, nil
}

// AvgVolumeSince returns the mean daily volume at or after the given date
func (r *Repository) AvgVolumeSince(symbol, since string) (float64, error) {
	sinceUnix, err := utils.ParseDay(since)
	if err != nil {
		return 0, fmt.Errorf("failed to parse since date: %w", err)
	}

	var avg sql.NullFloat64
	err = r.db.QueryRow(
		"SELECT AVG(volume) FROM price_bars WHERE symbol = ? AND date >= ?",
		symbol, sinceUnix,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to get average volume for %s: %w", symbol, err)
	}

	return avg.Float64, nil
}

// OverviewRows returns every symbol's bar on the most recent session,
// with the previous session's close for change computation.
// Returns an empty slice when the store is empty.
func (r *Repository) OverviewRows() ([]OverviewRow, error) {
	query := `
		SELECT b.symbol, b.date, b.close, b.volume, b.net_foreign_buy_sell,
			(SELECT p.close FROM price_bars p
			 WHERE p.symbol = b.symbol AND p.date < b.date
			 ORDER BY p.date DESC LIMIT 1) AS previous_close
		FROM price_bars b
		WHERE b.date = (SELECT MAX(date) FROM price_bars)
		ORDER BY b.symbol
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query overview rows: %w", err)
	}
	defer rows.Close()

	var overview []OverviewRow
	for rows.Next() {
		var row OverviewRow
		var dateUnix int64
		var previousClose sql.NullFloat64

		err := rows.Scan(
			&row.Symbol,
			&dateUnix,
			&row.Close,
			&row.Volume,
			&row.NetForeignBuySell,
			&previousClose,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overview row: %w", err)
		}

		row.Date = utils.FormatDay(dateUnix)
		if previousClose.Valid {
			row.PreviousClose = &previousClose.Float64
		}

		overview = append(overview, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overview rows: %w", err)
	}

	return overview, nil
}

// scanPriceBars scans query rows into PriceBar structs
func (r *Repository) scanPriceBars(rows *sql.Rows) ([]PriceBar, error) {
	var bars []PriceBar

	for rows.Next() {
		var bar PriceBar
		var dateUnix int64

		err := rows.Scan(
			&bar.ID,
			&bar.Symbol,
			&dateUnix,
			&bar.Open,
			&bar.High,
			&bar.Low,
			&bar.Close,
			&bar.Volume,
			&bar.NetForeignBuySell,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}

		bar.Date = utils.FormatDay(dateUnix)
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price bars: %w", err)
	}

	return bars, nil
}
