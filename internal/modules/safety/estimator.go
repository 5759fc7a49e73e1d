// Package safety estimates per-bank minimum balances from cash-flow
// history.
package safety

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/fundflow/internal/domain"
)

// Estimate returns the safety stock per bank: the requested quantile of the
// trailing horizonDays-calendar-day net outflow, clipped at zero and
// rounded up to an integer.
//
// Outflows count positive and inflows negative — the estimator measures how
// much cash can leave an account over the window. Banks with no history are
// simply absent from the result; callers treat missing keys as zero.
func Estimate(obs []domain.CashflowObservation, horizonDays int, quantile float64) (map[string]int64, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon_days must be positive, got %d", horizonDays)
	}
	if quantile < 0 || quantile > 1 {
		return nil, fmt.Errorf("quantile must be in [0, 1], got %v", quantile)
	}

	// Aggregate signed amounts per (bank, day). Days with no observations
	// contribute zero to any window, so only observed days need tracking.
	daily := make(map[string]map[time.Time]float64)
	for _, o := range obs {
		var sign float64
		switch o.Direction {
		case domain.DirectionOut:
			sign = 1
		case domain.DirectionIn:
			sign = -1
		default:
			return nil, fmt.Errorf("direction must be %q or %q, got %q",
				domain.DirectionIn, domain.DirectionOut, o.Direction)
		}
		day := o.Date.UTC().Truncate(24 * time.Hour)
		if daily[o.Bank] == nil {
			daily[o.Bank] = make(map[time.Time]float64)
		}
		daily[o.Bank][day] += sign * float64(o.Amount)
	}

	window := time.Duration(horizonDays) * 24 * time.Hour
	out := make(map[string]int64, len(daily))
	for bank, byDay := range daily {
		days := make([]time.Time, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		// Rolling sum over the trailing window ending at each observed
		// date. Two-pointer sweep: drop days that fell out of the window.
		rolled := make([]float64, len(days))
		lo := 0
		var sum float64
		for i, d := range days {
			sum += byDay[d]
			for d.Sub(days[lo]) >= window {
				sum -= byDay[days[lo]]
				lo++
			}
			rolled[i] = sum
		}

		sort.Float64s(rolled)
		q := stat.Quantile(quantile, stat.Empirical, rolled, nil)
		if q < 0 {
			q = 0
		}
		out[bank] = int64(math.Ceil(q))
	}
	return out, nil
}
