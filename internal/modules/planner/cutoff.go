package planner

import (
	"fmt"
	"time"

	"github.com/aristath/fundflow/internal/domain"
)

// cutoffSchedule precomputes, per (bank, service), whether a transfer
// initiated at the planning time still settles the same day.
type cutoffSchedule struct {
	sameDay map[domain.BankService]bool
	numDays int
}

func newCutoffSchedule(banks, services []string, cutOffs map[domain.BankService]string, planningTime string, numDays int) (*cutoffSchedule, error) {
	plan, err := parseClock(planningTime)
	if err != nil {
		return nil, fmt.Errorf("planning_time: %w", err)
	}

	sameDay := make(map[domain.BankService]bool, len(banks)*len(services))
	for _, b := range banks {
		for _, s := range services {
			key := domain.BankService{Bank: b, Service: s}
			raw, ok := cutOffs[key]
			if !ok || raw == "" {
				// No cut-off configured: same-day settlement.
				sameDay[key] = true
				continue
			}
			cut, err := parseClock(raw)
			if err != nil {
				return nil, fmt.Errorf("cut_off_time for %s/%s: %w", b, s, err)
			}
			sameDay[key] = !cut.Before(plan)
		}
	}
	return &cutoffSchedule{sameDay: sameDay, numDays: numDays}, nil
}

// settlementIndex maps an initiation day index to the index on which both
// legs of the transfer hit the balances. Transfers past the cut-off settle
// the next day, clipped to the end of the horizon.
func (c *cutoffSchedule) settlementIndex(bank, service string, dayIdx int) int {
	if c.sameDay[domain.BankService{Bank: bank, Service: service}] {
		return dayIdx
	}
	next := dayIdx + 1
	if next > c.numDays-1 {
		next = c.numDays - 1
	}
	return next
}

func parseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}
