package integrators

import (
	"fmt"

	"github.com/reactsim/reactsim/internal/linalg"
	"github.com/reactsim/reactsim/internal/ode"
)

// IMEX is a first-order split-step method for stiff diffusion: the
// reaction term advances with an explicit Euler substep, then the
// diffusion term advances with an approximately factored backward
// Euler substep, (I - beta Lxx)(I - beta Lyy) u' = u*, one direction
// at a time. Each direction reduces to a constant-coefficient cyclic
// tridiagonal solve per grid line, so the diffusion stability limit
// dt < dx^2/(4 alpha) of the explicit methods does not apply.
//
// Requires the system to implement ode.SplitSystem and a grid with at
// least 3 points per axis (the cyclic solve needs distinct neighbors).
type IMEX struct {
	du, ustar ode.State
	line      []float64

	solvers []*linalg.CyclicSolver
	betas   []float64

	stats ode.Statistics
}

func NewIMEX() *IMEX {
	return &IMEX{}
}

func (m *IMEX) ensureScratch(dim, n, components int) {
	if len(m.du) != dim {
		m.du = make(ode.State, dim)
		m.ustar = make(ode.State, dim)
	}
	if len(m.line) != n {
		m.line = make([]float64, n)
		m.solvers = nil
	}
	if len(m.solvers) != components {
		m.solvers = make([]*linalg.CyclicSolver, components)
		m.betas = make([]float64, components)
	}
}

func (m *IMEX) Step(sys ode.System, x ode.State, t, dt float64) (ode.State, error) {
	split, ok := sys.(ode.SplitSystem)
	if !ok {
		return nil, fmt.Errorf("imex: system does not expose a diffusion split: %w", ode.ErrInvalidParameter)
	}

	op := split.StiffOperator()
	n, nc := op.N, op.Components
	if n < 3 {
		return nil, fmt.Errorf("imex: grid needs at least 3 points per axis, got %d: %w", n, ode.ErrInvalidParameter)
	}
	dim := nc * n * n
	if len(x) != dim || len(op.Coeff) != nc {
		return nil, fmt.Errorf("imex: state length %d for %dx%dx%d operator: %w",
			len(x), n, n, nc, ode.ErrShapeMismatch)
	}

	m.ensureScratch(dim, n, nc)

	// Explicit reaction substep.
	if err := split.EvaluateExplicit(m.du, x, t); err != nil {
		return nil, err
	}
	m.stats.EvaluationCount++
	for i := 0; i < dim; i++ {
		m.ustar[i] = x[i] + dt*m.du[i]
	}

	// Implicit diffusion substep, one tridiagonal sweep per direction:
	// (I - beta Lxx)(I - beta Lyy) u' = u*.
	for c := 0; c < nc; c++ {
		beta := dt * op.Coeff[c]
		if beta == 0 {
			continue
		}
		if m.solvers[c] == nil || m.betas[c] != beta {
			s, err := linalg.NewCyclicSolver(n, -beta, 1+2*beta)
			if err != nil {
				return nil, err
			}
			m.solvers[c], m.betas[c] = s, beta
		}
		solver := m.solvers[c]

		// Lines along i for each fixed j.
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				m.line[i] = m.ustar[nc*(i*n+j)+c]
			}
			if err := solver.Solve(m.line, m.line); err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				m.ustar[nc*(i*n+j)+c] = m.line[i]
			}
		}

		// Lines along j for each fixed i.
		for i := 0; i < n; i++ {
			row := m.ustar[nc*i*n : nc*(i+1)*n]
			for j := 0; j < n; j++ {
				m.line[j] = row[nc*j+c]
			}
			if err := solver.Solve(m.line, m.line); err != nil {
				return nil, err
			}
			for j := 0; j < n; j++ {
				row[nc*j+c] = m.line[j]
			}
		}
	}

	m.stats.StepCount++
	m.stats.LastStepSize = dt

	result := make(ode.State, dim)
	copy(result, m.ustar)
	return result, nil
}

func (m *IMEX) Stats() ode.Statistics { return m.stats }
