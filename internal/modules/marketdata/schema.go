package marketdata

import "database/sql"

// PriceBarsSchema ensures the price_bars table exists in market.db.
// The UNIQUE(symbol, date) index enforces one bar per symbol per day at
// the storage layer; imports rely on it for upsert semantics.
const PriceBarsSchema = `
CREATE TABLE IF NOT EXISTS price_bars (
    id INTEGER PRIMARY KEY,
    symbol TEXT NOT NULL,
    date INTEGER NOT NULL,
    open REAL NOT NULL,
    high REAL NOT NULL,
    low REAL NOT NULL,
    close REAL NOT NULL,
    volume INTEGER NOT NULL,
    net_foreign_buy_sell REAL NOT NULL DEFAULT 0,
    UNIQUE(symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_price_bars_symbol_date ON price_bars(symbol, date);
CREATE INDEX IF NOT EXISTS idx_price_bars_date ON price_bars(date);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(PriceBarsSchema)
	return err
}
