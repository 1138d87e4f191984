package marketdata

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/events"
	"github.com/aristath/vigil/internal/utils"
	"github.com/aristath/vigil/pkg/formulas"
)

// Service provides market data operations above the repository:
// CSV imports, the market overview and per-symbol statistics.
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new market data service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "marketdata").Logger(),
	}
}

// Overview returns the latest session's row per symbol with change
// figures against each symbol's previous close.
func (s *Service) Overview() ([]OverviewRow, error) {
	rows, err := s.repo.OverviewRows()
	if err != nil {
		return nil, fmt.Errorf("failed to build market overview: %w", err)
	}

	for i := range rows {
		if rows[i].PreviousClose == nil || *rows[i].PreviousClose == 0 {
			continue
		}

		change := round(rows[i].Close - *rows[i].PreviousClose)
		changePercent := round(change / *rows[i].PreviousClose * 100)
		rows[i].Change = &change
		rows[i].ChangePercent = &changePercent
	}

	return rows, nil
}

// SymbolDetail aggregates stored history statistics for one symbol.
// Returns nil when the symbol has no bars (not an error).
func (s *Service) SymbolDetail(symbol string) (*SymbolDetail, error) {
	count, first, last, err := s.repo.SymbolRange(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol range: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	detail := &SymbolDetail{
		Symbol:    symbol,
		Bars:      count,
		FirstDate: first,
		LastDate:  last,
	}

	latest, err := s.repo.LatestBefore(symbol, last)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bar: %w", err)
	}
	detail.Latest = latest

	// 52-week window measured back from the last stored session,
	// not from the wall clock, so stale data still reports sensibly.
	lastDay, err := time.Parse(utils.DayFormat, last)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last date: %w", err)
	}
	since := lastDay.AddDate(0, 0, -364).Format(utils.DayFormat)

	high, low, err := s.repo.HighLowSince(symbol, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get 52-week high/low: %w", err)
	}
	detail.High52W = high
	detail.Low52W = low

	avgVolume, err := s.repo.AvgVolumeSince(symbol, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get average volume: %w", err)
	}
	detail.AvgVolume = math.Round(avgVolume)

	bars, err := s.repo.Query(symbol, since, "")
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for stats: %w", err)
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	returns := formulas.CalculateReturns(closes)
	detail.MeanDailyReturn = formulas.Mean(returns)
	detail.ReturnStdDev = formulas.StdDev(returns)
	detail.AnnualVolatility = formulas.AnnualizedVolatility(returns)

	return detail, nil
}

// RemoveSymbol deletes all stored bars for a symbol
func (s *Service) RemoveSymbol(symbol string) (int64, error) {
	deleted, err := s.repo.DeleteBySymbol(symbol)
	if err != nil {
		return 0, err
	}

	if deleted > 0 && s.bus != nil {
		s.bus.PublishData("marketdata", &events.SymbolRemovedData{
			Symbol: symbol,
			Bars:   deleted,
		})
	}

	return deleted, nil
}

// round rounds to 2 decimal places for display values
func round(val float64) float64 {
	return math.Round(val*100) / 100
}
