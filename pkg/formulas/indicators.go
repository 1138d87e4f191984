package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMASeries calculates a Simple Moving Average series aligned to the input.
// Entries before the window has filled are nil so chart overlays can be
// plotted index-for-index against their candles.
func SMASeries(closes []float64, period int) []*float64 {
	if period <= 0 || len(closes) < period {
		return make([]*float64, len(closes))
	}

	raw := talib.Sma(closes, period)
	return nullPadded(raw, period-1)
}

// EMASeries calculates an Exponential Moving Average series aligned to the input
func EMASeries(closes []float64, period int) []*float64 {
	if period <= 0 || len(closes) < period {
		return make([]*float64, len(closes))
	}

	raw := talib.Ema(closes, period)
	return nullPadded(raw, period-1)
}

// RSISeries calculates a Relative Strength Index series aligned to the input.
// RSI needs period+1 prices before the first defined value.
func RSISeries(closes []float64, period int) []*float64 {
	if period <= 0 || len(closes) <= period {
		return make([]*float64, len(closes))
	}

	raw := talib.Rsi(closes, period)
	return nullPadded(raw, period)
}

// nullPadded converts a talib output slice into a nullable series,
// masking the first warmup entries (talib fills them with zeros).
func nullPadded(raw []float64, warmup int) []*float64 {
	series := make([]*float64, len(raw))
	for i := warmup; i < len(raw); i++ {
		if isNaN(raw[i]) {
			continue
		}
		v := raw[i]
		series[i] = &v
	}
	return series
}
