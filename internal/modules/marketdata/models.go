package marketdata

// PriceBar represents one symbol's daily OHLCV row plus the PSE net
// foreign buy/sell figure. (symbol, date) is unique; re-imports overwrite.
type PriceBar struct {
	ID                int64   `json:"id,omitempty"`
	Symbol            string  `json:"symbol"`
	Date              string  `json:"date"` // YYYY-MM-DD
	Open              float64 `json:"open"`
	High              float64 `json:"high"`
	Low               float64 `json:"low"`
	Close             float64 `json:"close"`
	Volume            int64   `json:"volume"`
	NetForeignBuySell float64 `json:"net_foreign_buy_sell"`
}

// RowRejection describes a single CSV row the importer refused.
// Line is 1-based and counts the header row.
type RowRejection struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportSummary reports the outcome of one CSV import batch
type ImportSummary struct {
	BatchID    string         `json:"batch_id"`
	Accepted   int            `json:"accepted"`
	Rejected   int            `json:"rejected"`
	Rejections []RowRejection `json:"rejections,omitempty"`
}

// OverviewRow is one symbol's line on the market overview:
// the latest bar plus change against the previous session's close.
type OverviewRow struct {
	Symbol            string   `json:"symbol"`
	Date              string   `json:"date"`
	Close             float64  `json:"close"`
	Volume            int64    `json:"volume"`
	NetForeignBuySell float64  `json:"net_foreign_buy_sell"`
	PreviousClose     *float64 `json:"previous_close,omitempty"`
	Change            *float64 `json:"change,omitempty"`
	ChangePercent     *float64 `json:"change_percent,omitempty"`
}

// SymbolDetail aggregates statistics for a single symbol's stored history
type SymbolDetail struct {
	Symbol           string    `json:"symbol"`
	Bars             int64     `json:"bars"`
	FirstDate        string    `json:"first_date"`
	LastDate         string    `json:"last_date"`
	Latest           *PriceBar `json:"latest,omitempty"`
	High52W          float64   `json:"high_52w"`
	Low52W           float64   `json:"low_52w"`
	AvgVolume        float64   `json:"avg_volume"`
	MeanDailyReturn  float64   `json:"mean_daily_return"`
	ReturnStdDev     float64   `json:"return_std_dev"`
	AnnualVolatility float64   `json:"annual_volatility"`
}
