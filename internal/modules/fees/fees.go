// Package fees resolves transfer fees from the fee table.
//
// Two capabilities live here and stay separate on purpose: the Calculator
// answers per-amount, bin-tiered lookups for reporting and export, while
// BuildRouteFees flattens the table into the amount-independent per-route
// fee the planner's linear objective consumes.
package fees

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/aristath/fundflow/internal/domain"
)

// ErrNoMatchingRule is returned when no fee rule covers a lookup.
var ErrNoMatchingRule = errors.New("no fee rule matches the given inputs")

var (
	rangeBin = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
	openBin  = regexp.MustCompile(`^(\d+)\+?$`)
)

// Interval is a parsed amount bin. "low-high" is closed on both ends,
// "low+" is [low, +inf). Whether the upper bound should be exclusive is an
// open product question; the closed form matches the lookup the fee tables
// were built against.
type Interval struct {
	Low  float64
	High float64
}

// Contains reports whether amount falls inside the interval.
func (iv Interval) Contains(amount float64) bool {
	return amount >= iv.Low && amount <= iv.High
}

// ParseBin parses an amount_bin string into an Interval.
func ParseBin(bin string) (Interval, error) {
	if m := rangeBin.FindStringSubmatch(bin); m != nil {
		low, _ := strconv.ParseFloat(m[1], 64)
		high, _ := strconv.ParseFloat(m[2], 64)
		return Interval{Low: low, High: high}, nil
	}
	if m := openBin.FindStringSubmatch(bin); m != nil {
		low, _ := strconv.ParseFloat(m[1], 64)
		return Interval{Low: low, High: math.Inf(1)}, nil
	}
	return Interval{}, fmt.Errorf("invalid amount_bin %q", bin)
}

type binRule struct {
	rule domain.FeeRule
	iv   Interval
}

// Calculator answers per-amount fee lookups. Bins are parsed once at
// construction so a malformed table fails before any solve is attempted.
type Calculator struct {
	rules []binRule
}

// NewCalculator parses every amount bin in the table.
func NewCalculator(rules []domain.FeeRule) (*Calculator, error) {
	parsed := make([]binRule, 0, len(rules))
	for _, r := range rules {
		iv, err := ParseBin(r.AmountBin)
		if err != nil {
			return nil, fmt.Errorf("fee rule %s/%s -> %s/%s service %s: %w",
				r.FromBank, r.FromBranch, r.ToBank, r.ToBranch, r.Service, err)
		}
		parsed = append(parsed, binRule{rule: r, iv: iv})
	}
	return &Calculator{rules: parsed}, nil
}

// Fee returns the fee of the first rule matching the route whose bin
// contains amount.
func (c *Calculator) Fee(route domain.Route, amount int64) (int64, error) {
	for _, br := range c.rules {
		if br.rule.Route() == route && br.iv.Contains(float64(amount)) {
			return br.rule.Fee, nil
		}
	}
	return 0, fmt.Errorf("%w: %s/%s -> %s/%s service %s amount %d",
		ErrNoMatchingRule, route.FromBank, route.FromBranch, route.ToBank,
		route.ToBranch, route.Service, amount)
}

// BuildRouteFees flattens the fee table into the amount-independent
// per-route fee map the planner consumes. The first rule seen for a route
// wins, mirroring the Calculator's first-match lookup. Bins are still
// validated so a malformed table fails fast here too.
func BuildRouteFees(rules []domain.FeeRule) (map[domain.Route]int64, error) {
	if _, err := NewCalculator(rules); err != nil {
		return nil, err
	}
	routeFees := make(map[domain.Route]int64, len(rules))
	for _, r := range rules {
		route := r.Route()
		if _, ok := routeFees[route]; ok {
			continue
		}
		routeFees[route] = r.Fee
	}
	return routeFees, nil
}
