package solver

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible indicates the LP had no feasible split meeting the cargo
// conservation constraint.
var ErrInfeasible = errors.New("lp infeasible")

// solvePlantSplit runs the simplex algorithm to minimise rail cost subject to
// per-plant capacity bounds and exact cargo conservation:
//
//	min  Σ costs[i]·x[i]
//	s.t. x[i] ≤ caps[i], Σ x[i] = target, x ≥ 0
func solvePlantSplit(costs, caps []float64, target float64) ([]float64, error) {
	n := len(costs)
	c := make([]float64, n)
	copy(c, costs)

	// Inequality rows: x[i] <= caps[i] and -x[i] <= 0, so the general form
	// itself pins x to [0, cap].
	g := mat.NewDense(2*n, n, nil)
	h := make([]float64, 2*n)
	for i, cap := range caps {
		g.Set(i, i, 1)
		h[i] = cap
		g.Set(n+i, i, -1)
	}

	a := mat.NewDense(1, n, nil)
	for i := 0; i < n; i++ {
		a.Set(0, i, 1)
	}
	b := []float64{target}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, xs, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, err
	}
	// Convert splits each free variable into a positive pair, so the standard
	// form solution is [x+, x-, slacks]. Recombine before returning.
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = xs[i] - xs[n+i]
	}
	return x, nil
}

// lpSolve points to the function used to solve the split LP. It can be
// overridden in tests to simulate solver failures.
var lpSolve = solvePlantSplit
