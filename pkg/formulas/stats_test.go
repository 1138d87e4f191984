package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.Equal(t, 5.0, Mean([]float64{5}))
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))

	// A single observation has no spread
	assert.Equal(t, 0.0, StdDev([]float64{5}))

	// Sample std dev of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.138, got, 0.001)
}

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))

	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestCalculateReturnsSkipsZeroPrices(t *testing.T) {
	returns := CalculateReturns([]float64{0, 100, 110})
	require.Len(t, returns, 2)
	assert.Equal(t, 0.0, returns[0])
	assert.InDelta(t, 0.10, returns[1], 1e-9)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))

	// Constant returns have zero volatility
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.01, 0.01, 0.01}))

	// Annualization scales by sqrt(252)
	daily := []float64{0.01, -0.01, 0.02, -0.02}
	assert.InDelta(t, StdDev(daily)*15.8745, AnnualizedVolatility(daily), 0.001)
}

func TestSMASeries(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	series := SMASeries(closes, 3)
	require.Len(t, series, 5)

	// Warm-up entries are nil
	assert.Nil(t, series[0])
	assert.Nil(t, series[1])

	require.NotNil(t, series[2])
	assert.InDelta(t, 2.0, *series[2], 1e-9)
	require.NotNil(t, series[4])
	assert.InDelta(t, 4.0, *series[4], 1e-9)
}

func TestSMASeriesInsufficientData(t *testing.T) {
	series := SMASeries([]float64{1, 2}, 5)
	require.Len(t, series, 2)
	assert.Nil(t, series[0])
	assert.Nil(t, series[1])
}

func TestEMASeriesAlignment(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15}

	series := EMASeries(closes, 4)
	require.Len(t, series, len(closes))
	assert.Nil(t, series[2])
	require.NotNil(t, series[3])

	// First EMA value equals the SMA of the first window
	assert.InDelta(t, 11.5, *series[3], 1e-9)
}

func TestRSISeriesWarmup(t *testing.T) {
	closes := []float64{44, 44.5, 44.2, 44.8, 45.1, 44.9, 45.3, 45.0, 45.6, 45.8,
		45.5, 46.0, 46.2, 45.9, 46.5}

	series := RSISeries(closes, 14)
	require.Len(t, series, len(closes))

	for i := 0; i < 14; i++ {
		assert.Nil(t, series[i], "index %d should be warm-up", i)
	}
	require.NotNil(t, series[14])
	assert.Greater(t, *series[14], 0.0)
	assert.LessOrEqual(t, *series[14], 100.0)
}
