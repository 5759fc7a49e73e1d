// Package domain contains the core value types shared across modules.
// The domain layer is pure: no infrastructure dependencies.
package domain

import "time"

// Direction tokens recognised in cashflow history.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Account identifies a cash account as a (bank, branch) pair.
type Account struct {
	Bank   string
	Branch string
}

// Route is a transfer channel: two account endpoints plus the service
// (payment rail) that carries the money.
type Route struct {
	FromBank   string
	FromBranch string
	ToBank     string
	ToBranch   string
	Service    string
}

// From returns the sending account.
func (r Route) From() Account {
	return Account{Bank: r.FromBank, Branch: r.FromBranch}
}

// To returns the receiving account.
func (r Route) To() Account {
	return Account{Bank: r.ToBank, Branch: r.ToBranch}
}

// SelfRoute reports whether sender and receiver are the same account.
// Self-routes never enter the decision space.
func (r Route) SelfRoute() bool {
	return r.FromBank == r.ToBank && r.FromBranch == r.ToBranch
}

// MasterRow is one bank/branch/service row of the master table, carrying
// the same-day cut-off time for transfers initiated over that service.
type MasterRow struct {
	Bank       string
	Branch     string
	Service    string
	CutOffTime string // HH:MM, empty when no cut-off applies
}

// FeeRule prices a route for one amount bin.
type FeeRule struct {
	FromBank   string
	FromBranch string
	Service    string
	AmountBin  string
	ToBank     string
	ToBranch   string
	Fee        int64
}

// Route returns the transfer channel this rule prices.
func (f FeeRule) Route() Route {
	return Route{
		FromBank:   f.FromBank,
		FromBranch: f.FromBranch,
		ToBank:     f.ToBank,
		ToBranch:   f.ToBranch,
		Service:    f.Service,
	}
}

// BalanceSnapshot is the opening balance for a bank, taken the day before
// the planning horizon starts.
type BalanceSnapshot struct {
	Bank    string
	Balance int64
}

// CashflowObservation is one historical cash movement for a bank.
type CashflowObservation struct {
	Date      time.Time
	Bank      string
	Amount    int64
	Direction string // DirectionIn or DirectionOut
}

// BankService keys per-(bank, service) data such as cut-off rules.
type BankService struct {
	Bank    string
	Service string
}

// BankDay keys per-bank per-day quantities: forecasts, balances,
// shortfalls.
type BankDay struct {
	Bank string
	Day  string
}

// Transfer is one recommended movement in a solved plan. Day is the
// initiation day; the money hits both balances on the settlement day
// derived from the sender's cut-off rule.
type Transfer struct {
	Route  Route
	Day    string
	Amount float64
	Fee    float64
}
