package bruss

import (
	"fmt"
	"math"

	"github.com/reactsim/reactsim/internal/grid"
	"github.com/reactsim/reactsim/internal/ode"
)

// Params holds the reaction rate constants A and B, the diffusion
// coefficient Alpha, and the grid spacing Dx used to scale the discrete
// Laplacian. Immutable for the duration of a solve. Negative rates are
// accepted; they are numerically valid even if not physically meaningful.
type Params struct {
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
	Alpha float64 `yaml:"alpha"`
	Dx    float64 `yaml:"dx"`
}

func (p Params) validate() error {
	if p.Dx == 0 || math.IsNaN(p.Dx) || math.IsInf(p.Dx, 0) {
		return fmt.Errorf("bruss: dx must be finite and nonzero, got %v: %w", p.Dx, ode.ErrInvalidParameter)
	}
	for _, v := range []float64{p.A, p.B, p.Alpha} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bruss: parameters must be finite: %w", ode.ErrInvalidParameter)
		}
	}
	return nil
}

// alphaEff is the Laplacian scale alpha/dx^2.
func (p Params) alphaEff() float64 {
	return p.Alpha / (p.Dx * p.Dx)
}

// Evaluator computes the semi-discretized 2D Brusselator right-hand side
//
//	dU/dt = alphaEff*lap(U) + B + U^2 V - (A+1) U + f(x, y, t)
//	dV/dt = alphaEff*lap(V) + A U - U^2 V
//
// on an N x N periodic grid with the 5-point stencil. It is a pure
// function of (u, t): Evaluate writes into the caller-owned du buffer
// and keeps no state between calls.
type Evaluator struct {
	grid    grid.Grid
	params  Params
	forcing Forcing

	// minParallelRows is the row count above which the sweep is split
	// across workers; 0 keeps the sweep serial.
	minParallelRows int
}

// NewEvaluator builds an evaluator for the given grid and parameters.
// A nil forcing disables the source term.
func NewEvaluator(g grid.Grid, p Params, f Forcing) (*Evaluator, error) {
	if g.N < 2 {
		return nil, fmt.Errorf("bruss: grid with %d points per axis: %w", g.N, ode.ErrInvalidParameter)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Evaluator{grid: g, params: p, forcing: f}, nil
}

// SetParallel enables the worker-parallel row sweep once the grid has at
// least minRows rows. Each worker writes a disjoint row range of du, so
// results are bit-identical to the serial sweep.
func (e *Evaluator) SetParallel(minRows int) {
	e.minParallelRows = minRows
}

func (e *Evaluator) Grid() grid.Grid { return e.grid }

func (e *Evaluator) Params() Params { return e.params }

func (e *Evaluator) Dim() int {
	return grid.Components * e.grid.Cells()
}

// Evaluate implements ode.System. Shape and parameter violations are
// reported before any write, leaving du untouched.
func (e *Evaluator) Evaluate(du, u ode.State, t float64) error {
	if err := e.check(du, u); err != nil {
		return err
	}
	e.sweep(du, u, t, true)
	return nil
}

// EvaluateExplicit implements ode.SplitSystem: reaction and forcing only,
// with the diffusion term left to the implicit solver.
func (e *Evaluator) EvaluateExplicit(du, u ode.State, t float64) error {
	if err := e.check(du, u); err != nil {
		return err
	}
	e.sweep(du, u, t, false)
	return nil
}

// StiffOperator implements ode.SplitSystem. Both components diffuse with
// the same effective coefficient.
func (e *Evaluator) StiffOperator() ode.DiffusionOperator {
	a := e.params.alphaEff()
	return ode.DiffusionOperator{
		N:          e.grid.N,
		Components: grid.Components,
		Coeff:      []float64{a, a},
	}
}

func (e *Evaluator) check(du, u ode.State) error {
	want := e.Dim()
	if len(du) != want || len(u) != want {
		return fmt.Errorf("bruss: du has %d entries, u has %d, want %d: %w",
			len(du), len(u), want, ode.ErrShapeMismatch)
	}
	return e.params.validate()
}

func (e *Evaluator) sweep(du, u ode.State, t float64, diffuse bool) {
	n := e.grid.N
	if e.minParallelRows > 0 && n >= e.minParallelRows {
		ode.ParallelFor(n, e.minParallelRows, func(start, end int) {
			e.sweepRows(du, u, t, diffuse, start, end)
		})
		return
	}
	e.sweepRows(du, u, t, diffuse, 0, n)
}

// sweepRows evaluates rows [start, end). Reads only u, writes only the
// matching rows of du; safe to run concurrently on disjoint ranges.
func (e *Evaluator) sweepRows(du, u ode.State, t float64, diffuse bool, start, end int) {
	n := e.grid.N
	alphaEff := 0.0
	if diffuse {
		alphaEff = e.params.alphaEff()
	}
	a, b := e.params.A, e.params.B
	a1 := a + 1.0

	for i := start; i < end; i++ {
		ip1 := grid.Wrap(i+1, n)
		im1 := grid.Wrap(i-1, n)
		x := e.grid.Coord(i)

		for j := 0; j < n; j++ {
			jp1 := grid.Wrap(j+1, n)
			jm1 := grid.Wrap(j-1, n)
			y := e.grid.Coord(j)

			here := grid.Components * (i*n + j)
			uu, vv := u[here], u[here+1]

			var lapU, lapV float64
			if diffuse {
				top := grid.Components * (im1*n + j)
				bottom := grid.Components * (ip1*n + j)
				left := grid.Components * (i*n + jm1)
				right := grid.Components * (i*n + jp1)
				lapU = u[top] + u[bottom] + u[left] + u[right] - 4.0*uu
				lapV = u[top+1] + u[bottom+1] + u[left+1] + u[right+1] - 4.0*vv
			}

			f := 0.0
			if e.forcing != nil {
				f = e.forcing(x, y, t)
			}

			du[here] = alphaEff*lapU + b + uu*uu*vv - a1*uu + f
			du[here+1] = alphaEff*lapV + a*uu - uu*uu*vv
		}
	}
}
