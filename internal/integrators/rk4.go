package integrators

import "github.com/reactsim/reactsim/internal/ode"

// RK4 is the classical fourth-order Runge-Kutta method with fixed step
// size. Stage buffers are allocated once and reused, so a long
// integration performs no per-step allocation beyond the result state.
type RK4 struct {
	k1, k2, k3, k4 ode.State
	scratch        ode.State
	stats          ode.Statistics
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(ode.State, n)
		r.k2 = make(ode.State, n)
		r.k3 = make(ode.State, n)
		r.k4 = make(ode.State, n)
		r.scratch = make(ode.State, n)
	}
}

func (r *RK4) Step(sys ode.System, x ode.State, t, dt float64) (ode.State, error) {
	n := len(x)
	r.ensureScratch(n)

	if err := sys.Evaluate(r.k1, x, t); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	if err := sys.Evaluate(r.k2, r.scratch, t+dt*0.5); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	if err := sys.Evaluate(r.k3, r.scratch, t+dt*0.5); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	if err := sys.Evaluate(r.k4, r.scratch, t+dt); err != nil {
		return nil, err
	}

	result := make(ode.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	r.stats.StepCount++
	r.stats.EvaluationCount += 4
	r.stats.LastStepSize = dt
	return result, nil
}

func (r *RK4) Stats() ode.Statistics { return r.stats }
