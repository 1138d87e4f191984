package reports

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/vigil/internal/modules/ledger"
	"github.com/aristath/vigil/internal/modules/marketdata"
	"github.com/aristath/vigil/internal/utils"
)

// LedgerSource defines the contract for ledger operations needed by reports
type LedgerSource interface {
	GetAccount(id int64) (*ledger.InvestmentAccount, error)
	Accounts() ([]ledger.InvestmentAccount, error)
	Holdings(accountID int64) ([]ledger.HoldingLot, error)
	AllHoldings() ([]ledger.HoldingLot, error)
}

// PriceSource defines the contract for price lookups needed by reports
type PriceSource interface {
	LatestBefore(symbol, date string) (*marketdata.PriceBar, error)
}

// Service values holding lots against the latest stored closes and
// aggregates them into account, portfolio and per-symbol reports.
// Money arithmetic runs on decimals and rounds to 2 places at the edge.
type Service struct {
	ledger LedgerSource
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a new reports service
func NewService(ledgerSource LedgerSource, prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		ledger: ledgerSource,
		prices: prices,
		log:    log.With().Str("service", "reports").Logger(),
	}
}

// ForAccount builds the report for one account.
// Returns nil when the account is unknown.
func (s *Service) ForAccount(accountID int64) (*AccountReport, error) {
	account, err := s.ledger.GetAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, nil
	}

	lots, err := s.ledger.Holdings(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	asOf := utils.FormatDay(utils.Today())
	cache := map[string]*marketdata.PriceBar{}

	report := s.buildAccountReport(*account, lots, asOf, cache)
	return &report, nil
}

// ForPortfolio builds the report across every account
func (s *Service) ForPortfolio() (*PortfolioReport, error) {
	accounts, err := s.ledger.Accounts()
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	asOf := utils.FormatDay(utils.Today())
	cache := map[string]*marketdata.PriceBar{}

	report := PortfolioReport{
		Accounts:       make([]AccountReport, 0, len(accounts)),
		MissingSymbols: []string{},
		AsOf:           asOf,
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	totalPL := decimal.Zero
	missing := map[string]bool{}

	for _, account := range accounts {
		lots, err := s.ledger.Holdings(account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get holdings for account %d: %w", account.ID, err)
		}

		accountReport := s.buildAccountReport(account, lots, asOf, cache)
		report.Accounts = append(report.Accounts, accountReport)

		totalValue = totalValue.Add(decimal.NewFromFloat(accountReport.Totals.MarketValue))
		totalCost = totalCost.Add(decimal.NewFromFloat(accountReport.Totals.CostBasis))
		totalPL = totalPL.Add(decimal.NewFromFloat(accountReport.Totals.UnrealizedPL))
		for _, symbol := range accountReport.MissingSymbols {
			missing[symbol] = true
		}

		report.Ledger.Principal += account.Principal
		report.Ledger.Balance += account.Balance
	}

	report.Ledger.ProfitLoss = round2(decimal.NewFromFloat(report.Ledger.Balance).
		Sub(decimal.NewFromFloat(report.Ledger.Principal)))
	report.Totals = ReportTotals{
		MarketValue:  round2(totalValue),
		CostBasis:    round2(totalCost),
		UnrealizedPL: round2(totalPL),
	}
	report.MissingSymbols = sortedKeys(missing)
	report.Partial = len(report.MissingSymbols) > 0

	return &report, nil
}

// StocksSummary aggregates all lots per symbol across accounts
func (s *Service) StocksSummary() ([]SymbolSummary, error) {
	lots, err := s.ledger.AllHoldings()
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	asOf := utils.FormatDay(utils.Today())
	cache := map[string]*marketdata.PriceBar{}

	type accum struct {
		lots   int
		shares decimal.Decimal
		cost   decimal.Decimal
	}
	bySymbol := map[string]*accum{}
	for _, lot := range lots {
		a, ok := bySymbol[lot.Symbol]
		if !ok {
			a = &accum{}
			bySymbol[lot.Symbol] = a
		}
		shares := decimal.NewFromFloat(lot.Shares)
		a.lots++
		a.shares = a.shares.Add(shares)
		a.cost = a.cost.Add(shares.Mul(decimal.NewFromFloat(lot.AcquisitionPrice)))
	}

	summaries := make([]SymbolSummary, 0, len(bySymbol))
	for symbol, a := range bySymbol {
		summary := SymbolSummary{
			Symbol:      symbol,
			Lots:        a.lots,
			TotalShares: a.shares.InexactFloat64(),
			CostBasis:   round2(a.cost),
		}
		if a.shares.IsPositive() {
			summary.AveragePrice = round2(a.cost.Div(a.shares))
		}

		if bar := s.lookup(symbol, asOf, cache); bar != nil {
			close := decimal.NewFromFloat(bar.Close)
			value := a.shares.Mul(close)
			pl := value.Sub(a.cost)

			summary.Priced = true
			summary.LatestClose = ptr(bar.Close)
			summary.MarketValue = ptr(round2(value))
			summary.UnrealizedPL = ptr(round2(pl))
			if !a.cost.IsZero() {
				summary.UnrealizedPLPct = ptr(round2(pl.Div(a.cost).Mul(decimal.NewFromInt(100))))
			}
		}

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Symbol < summaries[j].Symbol
	})

	return summaries, nil
}

func (s *Service) buildAccountReport(account ledger.InvestmentAccount, lots []ledger.HoldingLot, asOf string, cache map[string]*marketdata.PriceBar) AccountReport {
	report := AccountReport{
		Account:        account,
		Positions:      make([]PositionReport, 0, len(lots)),
		MissingSymbols: []string{},
		AsOf:           asOf,
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	totalPL := decimal.Zero
	missing := map[string]bool{}

	for _, lot := range lots {
		position := s.valueLot(lot, asOf, cache)
		report.Positions = append(report.Positions, position)

		totalCost = totalCost.Add(decimal.NewFromFloat(position.CostBasis))
		if position.Priced {
			totalValue = totalValue.Add(decimal.NewFromFloat(*position.MarketValue))
			totalPL = totalPL.Add(decimal.NewFromFloat(*position.UnrealizedPL))
		} else {
			missing[lot.Symbol] = true
		}
	}

	report.Totals = ReportTotals{
		MarketValue:  round2(totalValue),
		CostBasis:    round2(totalCost),
		UnrealizedPL: round2(totalPL),
	}
	report.MissingSymbols = sortedKeys(missing)
	report.Partial = len(report.MissingSymbols) > 0

	return report
}

// valueLot prices one lot. Unpriced lots keep their cost basis but no
// market value is ever fabricated for them.
func (s *Service) valueLot(lot ledger.HoldingLot, asOf string, cache map[string]*marketdata.PriceBar) PositionReport {
	shares := decimal.NewFromFloat(lot.Shares)
	cost := shares.Mul(decimal.NewFromFloat(lot.AcquisitionPrice))

	position := PositionReport{
		HoldingID:        lot.ID,
		AccountID:        lot.AccountID,
		Symbol:           lot.Symbol,
		Shares:           lot.Shares,
		AcquisitionPrice: lot.AcquisitionPrice,
		CostBasis:        round2(cost),
	}

	bar := s.lookup(lot.Symbol, asOf, cache)
	if bar == nil {
		return position
	}

	close := decimal.NewFromFloat(bar.Close)
	value := shares.Mul(close)
	pl := value.Sub(cost)

	position.Priced = true
	position.PriceDate = bar.Date
	position.LatestClose = ptr(bar.Close)
	position.MarketValue = ptr(round2(value))
	position.UnrealizedPL = ptr(round2(pl))
	if !cost.IsZero() {
		position.UnrealizedPLPct = ptr(round2(pl.Div(cost).Mul(decimal.NewFromInt(100))))
	}

	return position
}

// lookup resolves the latest close for a symbol, caching per report build
// so repeated lots of the same symbol hit the store once. A cached nil
// records a known-missing symbol.
func (s *Service) lookup(symbol, asOf string, cache map[string]*marketdata.PriceBar) *marketdata.PriceBar {
	bar, seen := cache[symbol]
	if seen {
		return bar
	}

	bar, err := s.prices.LatestBefore(symbol, asOf)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to look up latest price")
		bar = nil
	}

	cache[symbol] = bar
	return bar
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func ptr(v float64) *float64 {
	return &v
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
