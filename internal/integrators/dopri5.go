package integrators

import (
	"fmt"
	"math"

	"github.com/reactsim/reactsim/internal/ode"
)

// Dormand-Prince 5(4) coefficients
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// Dopri5 is the adaptive Dormand-Prince 5(4) embedded Runge-Kutta pair.
// A rejected step is retried with a smaller dt inside StepAdaptive until
// it is accepted or dt falls below MinStep.
type Dopri5 struct {
	safety   float64
	minScale float64
	maxScale float64

	// MinStep aborts the retry loop with ode.ErrStepTooSmall when the
	// step shrinks below it.
	MinStep float64

	k1, k2, k3, k4, k5, k6, k7 ode.State
	scratch, xNew              ode.State
	stats                      ode.Statistics
}

func NewDopri5() *Dopri5 {
	return &Dopri5{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		MinStep:  1e-12,
	}
}

func (d *Dopri5) ensureScratch(n int) {
	if len(d.k1) != n {
		d.k1 = make(ode.State, n)
		d.k2 = make(ode.State, n)
		d.k3 = make(ode.State, n)
		d.k4 = make(ode.State, n)
		d.k5 = make(ode.State, n)
		d.k6 = make(ode.State, n)
		d.k7 = make(ode.State, n)
		d.scratch = make(ode.State, n)
		d.xNew = make(ode.State, n)
	}
}

func (d *Dopri5) Step(sys ode.System, x ode.State, t, dt float64) (ode.State, error) {
	newX, _, err := d.StepAdaptive(sys, x, t, dt, 1e-6)
	return newX, err
}

// StepAdaptive advances one accepted step and returns the new state and
// the suggested size for the next step.
func (d *Dopri5) StepAdaptive(sys ode.System, x ode.State, t, dt, tol float64) (ode.State, float64, error) {
	if tol <= 0 {
		return nil, 0, fmt.Errorf("dopri5: tolerance must be positive, got %g", tol)
	}
	n := len(x)
	d.ensureScratch(n)

	for {
		errRatio, err := d.attempt(sys, x, t, dt, tol)
		if err != nil {
			return nil, 0, err
		}

		if errRatio > 1 {
			d.stats.RejectedCount++
			scale := math.Max(d.minScale, d.safety*math.Pow(errRatio, -0.25))
			dt *= scale
			if dt < d.MinStep {
				return nil, 0, fmt.Errorf("dopri5: dt=%g at t=%g: %w", dt, t, ode.ErrStepTooSmall)
			}
			continue
		}

		var dtNext float64
		if errRatio > 0 {
			scale := math.Min(d.maxScale, d.safety*math.Pow(errRatio, -0.2))
			dtNext = dt * scale
		} else {
			dtNext = dt * d.maxScale
		}

		d.stats.StepCount++
		d.stats.LastStepSize = dt

		result := make(ode.State, n)
		copy(result, d.xNew)
		return result, dtNext, nil
	}
}

// attempt evaluates the seven stages for one trial step and returns the
// scaled error ratio. The candidate state is left in d.xNew.
func (d *Dopri5) attempt(sys ode.System, x ode.State, t, dt, tol float64) (float64, error) {
	n := len(x)

	if err := sys.Evaluate(d.k1, x, t); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*b21*d.k1[i]
	}
	if err := sys.Evaluate(d.k2, d.scratch, t+a2*dt); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b31*d.k1[i]+b32*d.k2[i])
	}
	if err := sys.Evaluate(d.k3, d.scratch, t+a3*dt); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b41*d.k1[i]+b42*d.k2[i]+b43*d.k3[i])
	}
	if err := sys.Evaluate(d.k4, d.scratch, t+a4*dt); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b51*d.k1[i]+b52*d.k2[i]+b53*d.k3[i]+b54*d.k4[i])
	}
	if err := sys.Evaluate(d.k5, d.scratch, t+a5*dt); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b61*d.k1[i]+b62*d.k2[i]+b63*d.k3[i]+b64*d.k4[i]+b65*d.k5[i])
	}
	if err := sys.Evaluate(d.k6, d.scratch, t+dt); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		d.xNew[i] = x[i] + dt*(c1*d.k1[i]+c3*d.k3[i]+c4*d.k4[i]+c5*d.k5[i]+c6*d.k6[i])
	}
	if err := sys.Evaluate(d.k7, d.xNew, t+dt); err != nil {
		return 0, err
	}
	d.stats.EvaluationCount += 7

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*d.k1[i] + dc3*d.k3[i] + dc4*d.k4[i] + dc5*d.k5[i] + dc6*d.k6[i] + dc7*d.k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*d.k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return errMax / tol, nil
}

func (d *Dopri5) Stats() ode.Statistics { return d.stats }
