// Package planner builds and solves the multi-period transfer plan: which
// amounts to move over which routes on which days so that every bank keeps
// its safety stock at minimum total fee.
package planner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fundflow/internal/domain"
	"github.com/aristath/fundflow/internal/solver"
)

const (
	defaultPlanningTime = "15:00"
	amountEps           = 1e-6
)

// Request carries everything one solve needs. All inputs are explicit;
// nothing is read from ambient state.
type Request struct {
	Banks    []string
	Branches map[string][]string
	Days     []string // ordered horizon labels, index 0 is the first decision day
	Services []string

	// NetCash is the inflow-positive per-(bank, day) forecast added into
	// the balance recurrence. Missing keys mean zero.
	NetCash        map[domain.BankDay]int64
	InitialBalance map[string]int64
	Safety         map[string]int64
	RouteFees      map[domain.Route]int64
	CutOffs        map[domain.BankService]string

	// ShortfallPenalty weighs shortfall against fees; the zero value means
	// the default of 1.0.
	ShortfallPenalty float64
	// PlanningTime is the HH:MM time-of-day transfers are initiated;
	// empty means 15:00.
	PlanningTime string
}

// Plan is the outcome of one solve. Transfers and balances are only
// populated when Status is optimal; any other status means "no
// recommendation this period" and is not an error.
type Plan struct {
	Status         solver.Status
	Transfers      []domain.Transfer
	Balances       map[domain.BankDay]float64
	Shortfalls     map[domain.BankDay]float64
	TotalFee       float64
	TotalShortfall float64
	Objective      float64
}

// Optimal reports whether the solve produced a usable plan.
func (p Plan) Optimal() bool {
	return p.Status == solver.StatusOptimal
}

// Planner builds transfer-plan models and runs them through a solver
// backend. Stateless: each Solve is an independent build-solve-extract.
type Planner struct {
	backend solver.Backend
	log     zerolog.Logger
}

// New creates a planner on the given backend.
func New(backend solver.Backend, log zerolog.Logger) *Planner {
	return &Planner{
		backend: backend,
		log:     log.With().Str("component", "planner").Logger(),
	}
}

type xKey struct {
	route  domain.Route
	dayIdx int
}

// Solve builds the model and extracts the plan.
//
// Both the debit and the credit of a transfer are applied on its settlement
// day, derived from the sender's cut-off rule. Whether the debit should
// instead hit the initiation day is an open treasury question; the
// established behavior is kept.
func (p *Planner) Solve(ctx context.Context, req Request) (Plan, error) {
	penalty := req.ShortfallPenalty
	if penalty == 0 {
		penalty = 1.0
	}
	planningTime := req.PlanningTime
	if planningTime == "" {
		planningTime = defaultPlanningTime
	}

	sched, err := newCutoffSchedule(req.Banks, req.Services, req.CutOffs, planningTime, len(req.Days))
	if err != nil {
		return Plan{}, err
	}

	m := solver.NewModel()

	// Transfer variables, one per route per initiation day; self-routes
	// are never instantiated. Build order is deterministic so extraction
	// and identical re-runs line up.
	xVars := make(map[xKey]solver.Var)
	var xKeys []xKey
	for _, i := range req.Banks {
		for _, ib := range req.Branches[i] {
			for _, j := range req.Banks {
				for _, jb := range req.Branches[j] {
					if i == j && ib == jb {
						continue
					}
					for _, s := range req.Services {
						route := domain.Route{FromBank: i, FromBranch: ib, ToBank: j, ToBranch: jb, Service: s}
						fee := float64(req.RouteFees[route])
						for d, label := range req.Days {
							k := xKey{route: route, dayIdx: d}
							xVars[k] = m.AddVar(fmt.Sprintf("x_%s_%s_%s_%s_%s_%s", i, ib, j, jb, s, label), fee)
							xKeys = append(xKeys, k)
						}
					}
				}
			}
		}
	}

	balVars := make(map[domain.BankDay]solver.Var)
	shortVars := make(map[domain.BankDay]solver.Var)
	for _, b := range req.Banks {
		for _, d := range req.Days {
			key := domain.BankDay{Bank: b, Day: d}
			balVars[key] = m.AddVar(fmt.Sprintf("B_%s_%s", b, d), 0)
			shortVars[key] = m.AddVar(fmt.Sprintf("S_%s_%s", b, d), penalty)
		}
	}

	// Group transfer legs by the (bank, settlement day) they affect.
	incoming := make(map[domain.BankDay][]solver.Var)
	outgoing := make(map[domain.BankDay][]solver.Var)
	for _, k := range xKeys {
		settle := req.Days[sched.settlementIndex(k.route.FromBank, k.route.Service, k.dayIdx)]
		v := xVars[k]
		inKey := domain.BankDay{Bank: k.route.ToBank, Day: settle}
		outKey := domain.BankDay{Bank: k.route.FromBank, Day: settle}
		incoming[inKey] = append(incoming[inKey], v)
		outgoing[outKey] = append(outgoing[outKey], v)
	}

	for _, b := range req.Banks {
		for idx, d := range req.Days {
			key := domain.BankDay{Bank: b, Day: d}

			// B[b,d] - B[b,d-1] - settled_in + settled_out = net (+ initial on day 0)
			terms := []solver.Term{{Var: balVars[key], Coef: 1}}
			rhs := float64(req.NetCash[key])
			if idx == 0 {
				rhs += float64(req.InitialBalance[b])
			} else {
				prev := domain.BankDay{Bank: b, Day: req.Days[idx-1]}
				terms = append(terms, solver.Term{Var: balVars[prev], Coef: -1})
			}
			for _, v := range incoming[key] {
				terms = append(terms, solver.Term{Var: v, Coef: -1})
			}
			for _, v := range outgoing[key] {
				terms = append(terms, solver.Term{Var: v, Coef: 1})
			}
			m.AddConstraint(terms, solver.Eq, rhs)

			// B[b,d] + S[b,d] >= safety[b]
			m.AddConstraint([]solver.Term{
				{Var: balVars[key], Coef: 1},
				{Var: shortVars[key], Coef: 1},
			}, solver.Ge, float64(req.Safety[b]))
		}
	}

	p.log.Debug().
		Int("variables", m.NumVars()).
		Int("constraints", m.NumConstraints()).
		Msg("model built")

	sol := p.backend.Solve(ctx, m)
	if sol.Status != solver.StatusOptimal {
		p.log.Warn().
			Str("status", string(sol.Status)).
			Int("variables", m.NumVars()).
			Msg("solve did not reach optimality")
		return Plan{
			Status:     sol.Status,
			Balances:   map[domain.BankDay]float64{},
			Shortfalls: map[domain.BankDay]float64{},
		}, nil
	}

	plan := Plan{
		Status:     sol.Status,
		Balances:   make(map[domain.BankDay]float64, len(balVars)),
		Shortfalls: make(map[domain.BankDay]float64, len(shortVars)),
		Objective:  sol.Objective,
	}
	for _, k := range xKeys {
		amt := sol.Value(xVars[k])
		if amt <= amountEps {
			continue
		}
		fee := float64(req.RouteFees[k.route]) * amt
		plan.Transfers = append(plan.Transfers, domain.Transfer{
			Route:  k.route,
			Day:    req.Days[k.dayIdx],
			Amount: amt,
			Fee:    fee,
		})
		plan.TotalFee += fee
	}
	for key, v := range balVars {
		plan.Balances[key] = sol.Value(v)
	}
	for key, v := range shortVars {
		s := sol.Value(v)
		plan.Shortfalls[key] = s
		plan.TotalShortfall += s
	}
	return plan, nil
}
