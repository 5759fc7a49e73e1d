package solver

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Simplex solves models with gonum's dense simplex implementation.
type Simplex struct {
	// Tol is passed through to lp.Simplex; zero selects gonum's default.
	Tol float64
}

// Solve converts the model to standard form — one slack or surplus variable
// per inequality, every variable already non-negative — and runs the
// simplex method. Cancelling the context abandons the running solve and
// yields StatusTimeout.
//
// Variables whose coefficients cancel out of every constraint (their
// column in A is all zeros, which lp.Simplex rejects) are pinned at zero
// and removed from the problem, then reinserted as zeros on extraction.
// With a non-negative cost that is their optimal value; a negative cost
// on such a variable makes the model unbounded.
func (s Simplex) Solve(ctx context.Context, m *Model) *Solution {
	n := m.NumVars()
	if n == 0 || len(m.cons) == 0 {
		return &Solution{Status: StatusOptimal, values: make([]float64, n)}
	}
	if ctx.Err() != nil {
		return &Solution{Status: StatusTimeout}
	}

	// Sum duplicate terms per constraint and find the variables that
	// actually appear in the constraint matrix.
	rows := len(m.cons)
	coefs := make([][]float64, rows)
	used := make([]bool, n)
	for i, con := range m.cons {
		row := make([]float64, n)
		for _, t := range con.terms {
			row[t.Var] += t.Coef
		}
		coefs[i] = row
		for j, v := range row {
			if v != 0 {
				used[j] = true
			}
		}
	}

	keep := make([]int, 0, n)
	for j := 0; j < n; j++ {
		if used[j] {
			keep = append(keep, j)
			continue
		}
		if m.obj[j] < 0 {
			return &Solution{Status: StatusUnbounded}
		}
	}

	// Every variable cancelled: the zero vector is the only candidate.
	if len(keep) == 0 {
		for _, con := range m.cons {
			if !satisfiedByZero(con) {
				return &Solution{Status: StatusInfeasible}
			}
		}
		return &Solution{Status: StatusOptimal, values: make([]float64, n)}
	}

	extra := 0
	for _, con := range m.cons {
		if con.op != Eq {
			extra++
		}
	}

	cols := len(keep) + extra
	c := make([]float64, cols)
	for k, j := range keep {
		c[k] = m.obj[j]
	}
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)

	slack := len(keep)
	for i, con := range m.cons {
		for k, j := range keep {
			a.Set(i, k, coefs[i][j])
		}
		b[i] = con.rhs
		switch con.op {
		case Le:
			a.Set(i, slack, 1)
			slack++
		case Ge:
			a.Set(i, slack, -1)
			slack++
		}
	}

	type outcome struct {
		opt float64
		x   []float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		opt, x, err := lp.Simplex(c, a, b, s.Tol, nil)
		done <- outcome{opt: opt, x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		return &Solution{Status: StatusTimeout}
	case out := <-done:
		if out.err != nil {
			switch {
			case errors.Is(out.err, lp.ErrInfeasible):
				return &Solution{Status: StatusInfeasible}
			case errors.Is(out.err, lp.ErrUnbounded):
				return &Solution{Status: StatusUnbounded}
			default:
				return &Solution{Status: Status(fmt.Sprintf("error: %v", out.err))}
			}
		}
		values := make([]float64, n)
		for k, j := range keep {
			values[j] = out.x[k]
		}
		return &Solution{Status: StatusOptimal, Objective: out.opt, values: values}
	}
}

func satisfiedByZero(con constraint) bool {
	switch con.op {
	case Le:
		return con.rhs >= 0
	case Ge:
		return con.rhs <= 0
	default:
		return con.rhs == 0
	}
}
