// Package solver provides a minimal linear-programming model and a simplex
// backend. The model is deliberately narrow — non-negative continuous
// variables, linear constraints, linear minimize objective — which is all
// the transfer planner needs and keeps the backend replaceable.
package solver

import "context"

// Op is a constraint comparison operator.
type Op int

const (
	// Eq constrains the expression to equal the right-hand side.
	Eq Op = iota
	// Le constrains the expression to be at most the right-hand side.
	Le
	// Ge constrains the expression to be at least the right-hand side.
	Ge
)

// Var is an opaque handle to a model variable.
type Var int

// Term is coefficient × variable inside a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

type constraint struct {
	terms []Term
	op    Op
	rhs   float64
}

// Model accumulates variables and constraints for a single solve.
// All variables are continuous and bounded below by zero.
type Model struct {
	names []string
	obj   []float64
	cons  []constraint
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddVar adds a non-negative variable with the given objective coefficient
// and returns its handle.
func (m *Model) AddVar(name string, cost float64) Var {
	m.names = append(m.names, name)
	m.obj = append(m.obj, cost)
	return Var(len(m.names) - 1)
}

// AddConstraint adds the constraint Σ terms (op) rhs. Duplicate variables
// within terms are summed.
func (m *Model) AddConstraint(terms []Term, op Op, rhs float64) {
	m.cons = append(m.cons, constraint{terms: terms, op: op, rhs: rhs})
}

// NumVars returns the number of variables added so far.
func (m *Model) NumVars() int {
	return len(m.names)
}

// NumConstraints returns the number of constraints added so far.
func (m *Model) NumConstraints() int {
	return len(m.cons)
}

// VarName returns the name a variable was registered under.
func (m *Model) VarName(v Var) string {
	return m.names[v]
}

// Status of a finished solve. Anything other than StatusOptimal means
// "no recommendation": the caller gets the status string and no values.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusTimeout    Status = "timeout"
)

// Solution holds the outcome of a solve. Objective and variable values are
// only meaningful when Status == StatusOptimal.
type Solution struct {
	Status    Status
	Objective float64
	values    []float64
}

// Value returns the solved value of v, or zero when the solve was not
// optimal.
func (s *Solution) Value(v Var) float64 {
	if int(v) < len(s.values) {
		return s.values[v]
	}
	return 0
}

// Backend solves a built model. Implementations must treat infeasibility
// and other non-optimal terminations as statuses, not errors.
type Backend interface {
	Solve(ctx context.Context, m *Model) *Solution
}
