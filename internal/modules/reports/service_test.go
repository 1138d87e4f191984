package reports

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vigil/internal/modules/ledger"
	"github.com/aristath/vigil/internal/modules/marketdata"
)

func setupTestService(t *testing.T) (*Service, *ledger.Service, *marketdata.Repository, func()) {
	ledgerDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, ledger.InitSchema(ledgerDB))

	marketDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, marketdata.InitSchema(marketDB))

	ledgerSvc := ledger.NewService(ledger.NewRepository(ledgerDB, zerolog.Nop()), nil, zerolog.Nop())
	marketRepo := marketdata.NewRepository(marketDB, zerolog.Nop())
	svc := NewService(ledgerSvc, marketRepo, zerolog.Nop())

	return svc, ledgerSvc, marketRepo, func() {
		ledgerDB.Close()
		marketDB.Close()
	}
}

func seedCloses(t *testing.T, repo *marketdata.Repository, symbol string, closes map[string]float64) {
	bars := make([]marketdata.PriceBar, 0, len(closes))
	for date, close := range closes {
		bars = append(bars, marketdata.PriceBar{
			Symbol: symbol,
			Date:   date,
			Open:   close - 1,
			High:   close + 2,
			Low:    close - 2,
			Close:  close,
			Volume: 10000,
		})
	}
	require.NoError(t, repo.UpsertBatch(bars))
}

func TestValuesPositionAgainstLatestClose(t *testing.T) {
	svc, ledgerSvc, marketRepo, cleanup := setupTestService(t)
	defer cleanup()

	account, err := ledgerSvc.CreateAccount("Main", "Broker", 0)
	require.NoError(t, err)

	_, err = ledgerSvc.CreateHolding(account.ID, "TEL", 10, 100, "")
	require.NoError(t, err)

	// Latest close wins, not the first
	seedCloses(t, marketRepo, "TEL", map[string]float64{
		"2024-01-02": 110,
		"2024-01-03": 120,
	})

	report, err := svc.ForAccount(account.ID)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Positions, 1)

	position := report.Positions[0]
	assert.True(t, position.Priced)
	assert.Equal(t, "2024-01-03", position.PriceDate)
	assert.Equal(t, 1000.0, position.CostBasis)
	require.NotNil(t, position.MarketValue)
	assert.Equal(t, 1200.0, *position.MarketValue)
	require.NotNil(t, position.UnrealizedPL)
	assert.Equal(t, 200.0, *position.UnrealizedPL)
	require.NotNil(t, position.UnrealizedPLPct)
	assert.Equal(t, 20.0, *position.UnrealizedPLPct)

	assert.Equal(t, 1200.0, report.Totals.MarketValue)
	assert.Equal(t, 1000.0, report.Totals.CostBasis)
	assert.Equal(t, 200.0, report.Totals.UnrealizedPL)
	assert.False(t, report.Partial)
	assert.Empty(t, report.MissingSymbols)
}

func TestUnpricedPositionKeepsCostBasis(t *testing.T) {
	svc, ledgerSvc, marketRepo, cleanup := setupTestService(t)
	defer cleanup()

	account, err := ledgerSvc.CreateAccount("Main", "Broker", 0)
	require.NoError(t, err)

	_, err = ledgerSvc.CreateHolding(account.ID, "TEL", 10, 100, "")
	require.NoError(t, err)
	_, err = ledgerSvc.CreateHolding(account.ID, "GHOST", 5, 50, "")
	require.NoError(t, err)

	seedCloses(t, marketRepo, "TEL", map[string]float64{"2024-01-03": 120})

	report, err := svc.ForAccount(account.ID)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Positions, 2)

	// Sorted by symbol: GHOST first
	ghost := report.Positions[0]
	assert.Equal(t, "GHOST", ghost.Symbol)
	assert.False(t, ghost.Priced)
	assert.Equal(t, 250.0, ghost.CostBasis)
	assert.Nil(t, ghost.LatestClose)
	assert.Nil(t, ghost.MarketValue)
	assert.Nil(t, ghost.UnrealizedPL)
	assert.Nil(t, ghost.UnrealizedPLPct)

	// Unpriced cost basis still counts; market value is never fabricated
	assert.Equal(t, 1250.0, report.Totals.CostBasis)
	assert.Equal(t, 1200.0, report.Totals.MarketValue)
	assert.Equal(t, 200.0, report.Totals.UnrealizedPL)
	assert.True(t, report.Partial)
	assert.Equal(t, []string{"GHOST"}, report.MissingSymbols)
}

func TestForAccountUnknown(t *testing.T) {
	svc, _, _, cleanup := setupTestService(t)
	defer cleanup()

	report, err := svc.ForAccount(999)
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestForPortfolio(t *testing.T) {
	svc, ledgerSvc, marketRepo, cleanup := setupTestService(t)
	defer cleanup()

	first, err := ledgerSvc.CreateAccount("Alpha", "Broker", 1000)
	require.NoError(t, err)
	second, err := ledgerSvc.CreateAccount("Beta", "Broker", 2000)
	require.NoError(t, err)

	_, err = ledgerSvc.UpdateBalance(second.ID, 2500)
	require.NoError(t, err)

	_, err = ledgerSvc.CreateHolding(first.ID, "TEL", 10, 100, "")
	require.NoError(t, err)
	_, err = ledgerSvc.CreateHolding(second.ID, "BDO", 100, 130, "")
	require.NoError(t, err)
	_, err = ledgerSvc.CreateHolding(second.ID, "GHOST", 5, 50, "")
	require.NoError(t, err)

	seedCloses(t, marketRepo, "TEL", map[string]float64{"2024-01-03": 120})
	seedCloses(t, marketRepo, "BDO", map[string]float64{"2024-01-03": 140})

	report, err := svc.ForPortfolio()
	require.NoError(t, err)
	require.Len(t, report.Accounts, 2)
	assert.Equal(t, "Alpha", report.Accounts[0].Account.Name)

	// TEL 10*120 + BDO 100*140
	assert.Equal(t, 15200.0, report.Totals.MarketValue)
	// 1000 + 13000 + 250
	assert.Equal(t, 14250.0, report.Totals.CostBasis)
	// 200 + 1000
	assert.Equal(t, 1200.0, report.Totals.UnrealizedPL)

	assert.Equal(t, 3000.0, report.Ledger.Principal)
	assert.Equal(t, 3500.0, report.Ledger.Balance)
	assert.Equal(t, 500.0, report.Ledger.ProfitLoss)

	assert.True(t, report.Partial)
	assert.Equal(t, []string{"GHOST"}, report.MissingSymbols)
	assert.False(t, report.Accounts[0].Partial)
	assert.True(t, report.Accounts[1].Partial)
}

func TestStocksSummaryWeightedAverage(t *testing.T) {
	svc, ledgerSvc, marketRepo, cleanup := setupTestService(t)
	defer cleanup()

	first, err := ledgerSvc.CreateAccount("Alpha", "Broker", 0)
	require.NoError(t, err)
	second, err := ledgerSvc.CreateAccount("Beta", "Broker", 0)
	require.NoError(t, err)

	// Same symbol held in two accounts at different prices
	_, err = ledgerSvc.CreateHolding(first.ID, "TEL", 10, 100, "")
	require.NoError(t, err)
	_, err = ledgerSvc.CreateHolding(second.ID, "TEL", 30, 120, "")
	require.NoError(t, err)
	_, err = ledgerSvc.CreateHolding(second.ID, "GHOST", 5, 50, "")
	require.NoError(t, err)

	seedCloses(t, marketRepo, "TEL", map[string]float64{"2024-01-03": 120})

	summaries, err := svc.StocksSummary()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	ghost := summaries[0]
	assert.Equal(t, "GHOST", ghost.Symbol)
	assert.False(t, ghost.Priced)
	assert.Nil(t, ghost.MarketValue)
	assert.Equal(t, 250.0, ghost.CostBasis)

	tel := summaries[1]
	assert.Equal(t, "TEL", tel.Symbol)
	assert.Equal(t, 2, tel.Lots)
	assert.Equal(t, 40.0, tel.TotalShares)
	// (10*100 + 30*120) / 40
	assert.Equal(t, 115.0, tel.AveragePrice)
	assert.Equal(t, 4600.0, tel.CostBasis)
	require.NotNil(t, tel.MarketValue)
	assert.Equal(t, 4800.0, *tel.MarketValue)
	require.NotNil(t, tel.UnrealizedPL)
	assert.Equal(t, 200.0, *tel.UnrealizedPL)
	require.NotNil(t, tel.UnrealizedPLPct)
	assert.Equal(t, 4.35, *tel.UnrealizedPLPct)
}

func TestReportWithNoHoldings(t *testing.T) {
	svc, ledgerSvc, _, cleanup := setupTestService(t)
	defer cleanup()

	account, err := ledgerSvc.CreateAccount("Empty", "Broker", 0)
	require.NoError(t, err)

	report, err := svc.ForAccount(account.ID)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Empty(t, report.Positions)
	assert.Zero(t, report.Totals.MarketValue)
	assert.Zero(t, report.Totals.CostBasis)
	assert.False(t, report.Partial)
}

func TestZeroCostBasisHasNoPercentage(t *testing.T) {
	svc, ledgerSvc, marketRepo, cleanup := setupTestService(t)
	defer cleanup()

	account, err := ledgerSvc.CreateAccount("Main", "Broker", 0)
	require.NoError(t, err)

	// Free shares: percentage is undefined, not infinite
	_, err = ledgerSvc.CreateHolding(account.ID, "TEL", 10, 0, "")
	require.NoError(t, err)

	seedCloses(t, marketRepo, "TEL", map[string]float64{"2024-01-03": 120})

	report, err := svc.ForAccount(account.ID)
	require.NoError(t, err)
	require.Len(t, report.Positions, 1)

	position := report.Positions[0]
	assert.True(t, position.Priced)
	assert.Zero(t, position.CostBasis)
	require.NotNil(t, position.UnrealizedPL)
	assert.Equal(t, 1200.0, *position.UnrealizedPL)
	assert.Nil(t, position.UnrealizedPLPct)
}
