package reports

import (
	"github.com/aristath/vigil/internal/modules/ledger"
)

// PositionReport values one holding lot against the latest stored close.
// When no price exists for the symbol, Priced is false and the valuation
// fields stay null; cost basis is always present.
type PositionReport struct {
	HoldingID        int64    `json:"holding_id"`
	AccountID        int64    `json:"account_id"`
	Symbol           string   `json:"symbol"`
	Shares           float64  `json:"shares"`
	AcquisitionPrice float64  `json:"acquisition_price"`
	CostBasis        float64  `json:"cost_basis"`
	Priced           bool     `json:"priced"`
	PriceDate        string   `json:"price_date,omitempty"`
	LatestClose      *float64 `json:"latest_close"`
	MarketValue      *float64 `json:"market_value"`
	UnrealizedPL     *float64 `json:"unrealized_pl"`
	UnrealizedPLPct  *float64 `json:"unrealized_pl_pct"`
}

// ReportTotals aggregates position values. CostBasis covers every lot;
// MarketValue and UnrealizedPL cover priced lots only, so a partial report
// never fabricates a market value for symbols without price data.
type ReportTotals struct {
	MarketValue  float64 `json:"market_value"`
	CostBasis    float64 `json:"cost_basis"`
	UnrealizedPL float64 `json:"unrealized_pl"`
}

// LedgerTotals rolls up the account-level figures (deposits vs reported
// balances), independent of per-lot market pricing.
type LedgerTotals struct {
	Principal  float64 `json:"principal"`
	Balance    float64 `json:"balance"`
	ProfitLoss float64 `json:"profit_loss"`
}

// AccountReport is one account with its valued positions
type AccountReport struct {
	Account        ledger.InvestmentAccount `json:"account"`
	Positions      []PositionReport         `json:"positions"`
	Totals         ReportTotals             `json:"totals"`
	Partial        bool                     `json:"partial"`
	MissingSymbols []string                 `json:"missing_symbols"`
	AsOf           string                   `json:"as_of"`
}

// PortfolioReport is every account plus grand totals
type PortfolioReport struct {
	Accounts       []AccountReport `json:"accounts"`
	Totals         ReportTotals    `json:"totals"`
	Ledger         LedgerTotals    `json:"ledger"`
	Partial        bool            `json:"partial"`
	MissingSymbols []string        `json:"missing_symbols"`
	AsOf           string          `json:"as_of"`
}

// SymbolSummary aggregates every lot of one symbol across accounts:
// total shares, weighted average acquisition price, combined value
type SymbolSummary struct {
	Symbol          string   `json:"symbol"`
	Lots            int      `json:"lots"`
	TotalShares     float64  `json:"total_shares"`
	AveragePrice    float64  `json:"average_price"`
	CostBasis       float64  `json:"cost_basis"`
	Priced          bool     `json:"priced"`
	LatestClose     *float64 `json:"latest_close"`
	MarketValue     *float64 `json:"market_value"`
	UnrealizedPL    *float64 `json:"unrealized_pl"`
	UnrealizedPLPct *float64 `json:"unrealized_pl_pct"`
}
