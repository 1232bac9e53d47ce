// Package linalg provides the tridiagonal solves the split-step
// integrator needs: the Thomas algorithm and its periodic (cyclic)
// variant via the Sherman-Morrison correction.
package linalg

import (
	"errors"
	"fmt"
)

// ErrSingular indicates a zero pivot during elimination.
var ErrSingular = errors.New("linalg: singular tridiagonal system")

// SolveTridiag solves a tridiagonal system with the Thomas algorithm:
//
//	a[i] x[i-1] + b[i] x[i] + c[i] x[i+1] = d[i]
//
// a[0] and c[n-1] are ignored. Inputs are left unmodified; x and d may
// be the same slice. O(n), no pivoting, so b must be diagonally
// dominant or the solve may hit a zero pivot.
func SolveTridiag(a, b, c, d, x []float64) error {
	n := len(b)
	if n < 2 {
		return fmt.Errorf("linalg: tridiagonal system needs n >= 2, got %d", n)
	}
	if len(a) != n || len(c) != n || len(d) != n || len(x) != n {
		return fmt.Errorf("linalg: band and rhs lengths disagree (n=%d)", n)
	}
	cp := make([]float64, n-1)
	return thomas(a, b, c, d, x, cp)
}

// thomas runs the forward elimination and back substitution. cp must
// have length n-1. x and d may alias: d[i] is consumed before x[i] is
// written.
func thomas(a, b, c, d, x, cp []float64) error {
	n := len(b)
	pivot := b[0]
	if pivot == 0 {
		return ErrSingular
	}
	x[0] = d[0] / pivot
	for i := 1; i < n; i++ {
		cp[i-1] = c[i-1] / pivot
		pivot = b[i] - a[i]*cp[i-1]
		if pivot == 0 {
			return ErrSingular
		}
		x[i] = (d[i] - a[i]*x[i-1]) / pivot
	}
	for i := n - 2; i >= 0; i-- {
		x[i] -= cp[i] * x[i+1]
	}
	return nil
}

// SolveCyclic solves a periodic tridiagonal system: like SolveTridiag
// but with wraparound couplings a[0] (to x[n-1]) and c[n-1] (to x[0]).
// Requires n >= 3.
func SolveCyclic(a, b, c, d, x []float64) error {
	n := len(b)
	if n < 3 {
		return fmt.Errorf("linalg: cyclic system needs n >= 3, got %d", n)
	}
	if len(a) != n || len(c) != n || len(d) != n || len(x) != n {
		return fmt.Errorf("linalg: band and rhs lengths disagree (n=%d)", n)
	}

	alpha := a[0]    // top-right corner
	corner := c[n-1] // bottom-left corner

	// Rank-1 split A = T + u v^T with u = gamma e0 + corner e_{n-1},
	// v = e0 + (alpha/gamma) e_{n-1}.
	gamma := -b[0]
	if gamma == 0 {
		gamma = 1.0
	}

	bb := make([]float64, n)
	copy(bb, b)
	bb[0] = b[0] - gamma
	bb[n-1] = b[n-1] - corner*alpha/gamma

	cp := make([]float64, n-1)
	y := make([]float64, n)
	z := make([]float64, n)
	u := make([]float64, n)
	u[0] = gamma
	u[n-1] = corner

	if err := thomas(a, bb, c, d, y, cp); err != nil {
		return err
	}
	if err := thomas(a, bb, c, u, z, cp); err != nil {
		return err
	}

	vy := y[0] + alpha/gamma*y[n-1]
	vz := z[0] + alpha/gamma*z[n-1]
	denom := 1.0 + vz
	if denom == 0 {
		return ErrSingular
	}
	fact := vy / denom
	for i := 0; i < n; i++ {
		x[i] = y[i] - fact*z[i]
	}
	return nil
}

// CyclicSolver repeatedly solves a constant-coefficient periodic
// tridiagonal system (sub on both off-diagonals wrapping around, diag on
// the diagonal) without per-solve allocation. The ADI diffusion sweep
// issues one Solve per grid line, so the correction vector z is
// factored once at construction.
type CyclicSolver struct {
	n      int
	a, bb  []float64 // modified tridiagonal T
	c      []float64
	cp     []float64
	y, z   []float64
	vLast  float64 // alpha/gamma
	zDenom float64 // 1 + v.z
}

func NewCyclicSolver(n int, sub, diag float64) (*CyclicSolver, error) {
	if n < 3 {
		return nil, fmt.Errorf("linalg: cyclic solver needs n >= 3, got %d", n)
	}

	gamma := -diag
	if gamma == 0 {
		gamma = 1.0
	}

	s := &CyclicSolver{
		n:  n,
		a:  make([]float64, n),
		bb: make([]float64, n),
		c:  make([]float64, n),
		cp: make([]float64, n-1),
		y:  make([]float64, n),
		z:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.a[i] = sub
		s.bb[i] = diag
		s.c[i] = sub
	}
	s.bb[0] = diag - gamma
	s.bb[n-1] = diag - sub*sub/gamma
	s.vLast = sub / gamma

	u := make([]float64, n)
	u[0] = gamma
	u[n-1] = sub
	if err := thomas(s.a, s.bb, s.c, u, s.z, s.cp); err != nil {
		return nil, err
	}
	s.zDenom = 1.0 + s.z[0] + s.vLast*s.z[n-1]
	if s.zDenom == 0 {
		return nil, ErrSingular
	}
	return s, nil
}

// Solve solves for the right-hand side d into x. d and x may alias.
func (s *CyclicSolver) Solve(d, x []float64) error {
	if len(d) != s.n || len(x) != s.n {
		return fmt.Errorf("linalg: rhs length %d, want %d", len(d), s.n)
	}
	if err := thomas(s.a, s.bb, s.c, d, s.y, s.cp); err != nil {
		return err
	}
	fact := (s.y[0] + s.vLast*s.y[s.n-1]) / s.zDenom
	for i := 0; i < s.n; i++ {
		x[i] = s.y[i] - fact*s.z[i]
	}
	return nil
}
