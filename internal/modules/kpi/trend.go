package kpi

import "github.com/markcheno/go-talib"

// FeeTrend smooths the total-fee series of the given records with a simple
// moving average. The window is clamped to the series length; entries
// before the first full window are talib's leading zeros.
func FeeTrend(records []Record, window int) []float64 {
	fees := feeSeries(records)
	if len(fees) < 2 {
		return fees
	}
	return talib.Sma(fees, clampWindow(window, len(fees)))
}

// FeeTrendExp is the exponentially weighted variant, reacting faster to
// recent runs.
func FeeTrendExp(records []Record, window int) []float64 {
	fees := feeSeries(records)
	if len(fees) < 2 {
		return fees
	}
	return talib.Ema(fees, clampWindow(window, len(fees)))
}

func feeSeries(records []Record) []float64 {
	fees := make([]float64, len(records))
	for i, r := range records {
		fees[i] = float64(r.TotalFee)
	}
	return fees
}

func clampWindow(window, n int) int {
	if window < 2 {
		window = 2
	}
	if window > n {
		window = n
	}
	return window
}
