package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplex_EqualityOnly(t *testing.T) {
	// minimize x + 2y  s.t.  x + y = 10
	m := NewModel()
	x := m.AddVar("x", 1)
	y := m.AddVar("y", 2)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Eq, 10)

	sol := Simplex{}.Solve(context.Background(), m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.Value(x), 1e-9)
	assert.InDelta(t, 0, sol.Value(y), 1e-9)
	assert.InDelta(t, 10, sol.Objective, 1e-9)
}

func TestSimplex_Inequalities(t *testing.T) {
	// minimize 3x + y  s.t.  x + y >= 4, x <= 3
	m := NewModel()
	x := m.AddVar("x", 3)
	y := m.AddVar("y", 1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, Ge, 4)
	m.AddConstraint([]Term{{Var: x, Coef: 1}}, Le, 3)

	sol := Simplex{}.Solve(context.Background(), m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 0, sol.Value(x), 1e-9)
	assert.InDelta(t, 4, sol.Value(y), 1e-9)
	assert.InDelta(t, 4, sol.Objective, 1e-9)
}

func TestSimplex_DuplicateTermsAreSummed(t *testing.T) {
	// x appears twice in the same constraint: 2x = 6.
	m := NewModel()
	x := m.AddVar("x", 1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: x, Coef: 1}}, Eq, 6)

	sol := Simplex{}.Solve(context.Background(), m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 3, sol.Value(x), 1e-9)
}

func TestSimplex_CancellingColumnIsPinnedAtZero(t *testing.T) {
	// y's coefficients cancel inside the only constraint it touches, so
	// its column in A is all zeros. The backend must pin it at zero and
	// still solve, not surface a matrix-shape error.
	m := NewModel()
	x := m.AddVar("x", 2)
	y := m.AddVar("y", 5)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}, {Var: y, Coef: -1}}, Eq, 3)

	sol := Simplex{}.Solve(context.Background(), m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 3, sol.Value(x), 1e-9)
	assert.InDelta(t, 0, sol.Value(y), 1e-9)
	assert.InDelta(t, 6, sol.Objective, 1e-9)
}

func TestSimplex_CancellingColumnNegativeCost(t *testing.T) {
	// A cancelled variable with a negative cost can grow without bound.
	m := NewModel()
	x := m.AddVar("x", 1)
	y := m.AddVar("y", -1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}, {Var: y, Coef: -1}}, Eq, 3)

	sol := Simplex{}.Solve(context.Background(), m)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestSimplex_AllColumnsCancelled(t *testing.T) {
	m := NewModel()
	x := m.AddVar("x", 1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: x, Coef: -1}}, Eq, 0)
	sol := Simplex{}.Solve(context.Background(), m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 0.0, sol.Value(x))

	m = NewModel()
	x = m.AddVar("x", 1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}, {Var: x, Coef: -1}}, Eq, 7)
	assert.Equal(t, StatusInfeasible, Simplex{}.Solve(context.Background(), m).Status)
}

func TestSimplex_Infeasible(t *testing.T) {
	// x >= 0 but x = -5 is impossible.
	m := NewModel()
	x := m.AddVar("x", 1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}}, Eq, -5)

	sol := Simplex{}.Solve(context.Background(), m)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Equal(t, 0.0, sol.Value(x))
}

func TestSimplex_Unbounded(t *testing.T) {
	// minimize -x  s.t.  x >= 1 has no finite optimum.
	m := NewModel()
	x := m.AddVar("x", -1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}}, Ge, 1)

	sol := Simplex{}.Solve(context.Background(), m)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestSimplex_EmptyModel(t *testing.T) {
	sol := Simplex{}.Solve(context.Background(), NewModel())
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 0.0, sol.Objective)
}

func TestSimplex_CancelledContext(t *testing.T) {
	m := NewModel()
	x := m.AddVar("x", 1)
	m.AddConstraint([]Term{{Var: x, Coef: 1}}, Eq, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol := Simplex{}.Solve(ctx, m)
	assert.Equal(t, StatusTimeout, sol.Status)
}
