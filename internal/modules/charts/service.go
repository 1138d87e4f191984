// Package charts turns stored price history into renderable chart
// payloads: candles, indicator overlays and the PSE foreign-flow series.
package charts

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/marketdata"
	"github.com/aristath/vigil/pkg/formulas"
)

// PriceSource defines the contract for price access needed by charts
type PriceSource interface {
	Query(symbol, from, to string) ([]marketdata.PriceBar, error)
	CountBySymbol(symbol string) (int64, error)
}

// Candle is one OHLCV point, dates ascending
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ChartData is the chart payload for one symbol. Overlay arrays are
// aligned index-for-index with Candles; entries are null until the
// indicator window has warmed up.
type ChartData struct {
	Symbol      string                `json:"symbol"`
	Range       string                `json:"range"`
	Candles     []Candle              `json:"candles"`
	Overlays    map[string][]*float64 `json:"overlays"`
	VWAP        []*float64            `json:"vwap"`
	ForeignFlow []float64             `json:"foreign_flow"`
}

// Service provides chart data operations
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a new charts service
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

// SymbolChart builds the chart payload for a symbol over a range with
// the requested indicator overlays. Returns nil when the symbol has no
// stored bars at all.
func (s *Service) SymbolChart(symbol, rangeStr string, overlays []string) (*ChartData, error) {
	startDate, err := parseDateRange(rangeStr)
	if err != nil {
		return nil, err
	}

	count, err := s.prices.CountBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to count bars: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	bars, err := s.prices.Query(symbol, startDate, "")
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}

	chart := &ChartData{
		Symbol:      symbol,
		Range:       rangeStr,
		Candles:     make([]Candle, 0, len(bars)),
		Overlays:    map[string][]*float64{},
		ForeignFlow: make([]float64, 0, len(bars)),
	}

	closes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		chart.Candles = append(chart.Candles, Candle{
			Date:   bar.Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
		chart.ForeignFlow = append(chart.ForeignFlow, bar.NetForeignBuySell)
		closes = append(closes, bar.Close)
	}

	chart.VWAP = vwapSeries(bars)

	for _, name := range overlays {
		series, err := overlaySeries(name, closes)
		if err != nil {
			return nil, err
		}
		chart.Overlays[name] = series
	}

	return chart, nil
}

// overlaySeries computes one named indicator over the closes
func overlaySeries(name string, closes []float64) ([]*float64, error) {
	switch name {
	case "sma20":
		return formulas.SMASeries(closes, 20), nil
	case "sma50":
		return formulas.SMASeries(closes, 50), nil
	case "ema20":
		return formulas.EMASeries(closes, 20), nil
	case "rsi14":
		return formulas.RSISeries(closes, 14), nil
	default:
		return nil, fmt.Errorf("unknown overlay %q", name)
	}
}

// vwapSeries is the running volume-weighted average price over the
// window, using the typical price (H+L+C)/3 per session. Entries stay
// null while cumulative volume is zero.
func vwapSeries(bars []marketdata.PriceBar) []*float64 {
	series := make([]*float64, len(bars))

	var cumValue, cumVolume float64
	for i, bar := range bars {
		typical := (bar.High + bar.Low + bar.Close) / 3
		cumValue += typical * float64(bar.Volume)
		cumVolume += float64(bar.Volume)

		if cumVolume > 0 {
			v := cumValue / cumVolume
			series[i] = &v
		}
	}

	return series
}

// parseDateRange converts a range string to a start date, empty for all
func parseDateRange(rangeStr string) (string, error) {
	now := time.Now()
	var startDate time.Time

	switch rangeStr {
	case "all":
		return "", nil
	case "1m":
		startDate = now.AddDate(0, -1, 0)
	case "3m":
		startDate = now.AddDate(0, -3, 0)
	case "6m":
		startDate = now.AddDate(0, -6, 0)
	case "1y":
		startDate = now.AddDate(-1, 0, 0)
	default:
		return "", fmt.Errorf("invalid range %q (must be 1m, 3m, 6m, 1y or all)", rangeStr)
	}

	return startDate.Format("2006-01-02"), nil
}
