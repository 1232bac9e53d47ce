package integrators

import "github.com/reactsim/reactsim/internal/ode"

// Euler is the explicit first-order method. Mostly useful as a
// reference point for accuracy comparisons.
type Euler struct {
	du    ode.State
	stats ode.Statistics
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys ode.System, x ode.State, t, dt float64) (ode.State, error) {
	n := len(x)
	if len(e.du) != n {
		e.du = make(ode.State, n)
	}

	if err := sys.Evaluate(e.du, x, t); err != nil {
		return nil, err
	}
	e.stats.EvaluationCount++

	result := make(ode.State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt*e.du[i]
	}

	e.stats.StepCount++
	e.stats.LastStepSize = dt
	return result, nil
}

func (e *Euler) Stats() ode.Statistics { return e.stats }
