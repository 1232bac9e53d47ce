package ode

import "math"

// State is a flat vector of field values. For grid-based systems the
// packing convention is owned by the system; integrators treat it as
// an opaque vector.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is a semi-discretized ODE right-hand side du/dt = f(u, t).
//
// Evaluate writes the derivative into du, which is owned by the caller
// and reused across calls. Implementations must fully overwrite du,
// must not retain either slice past the call, and must not mutate u.
type System interface {
	Dim() int
	Evaluate(du, u State, t float64) error
}

// SplitSystem separates a stiff linear diffusion term from the nonstiff
// remainder so that IMEX integrators can treat diffusion implicitly.
type SplitSystem interface {
	System

	// EvaluateExplicit writes only the nonstiff part (reaction, forcing).
	EvaluateExplicit(du, u State, t float64) error

	// StiffOperator describes the implicit diffusion term.
	StiffOperator() DiffusionOperator
}

// DiffusionOperator is a per-component scaled 5-point Laplacian on an
// N x N periodic grid with Components interleaved values per cell.
// Coeff holds the effective diffusion coefficient (alpha/dx^2) per
// component; a zero entry means the component does not diffuse.
type DiffusionOperator struct {
	N          int
	Components int
	Coeff      []float64
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

// StatReporter is implemented by integrators that count their work.
type StatReporter interface {
	Stats() Statistics
}

// Statistics describes the work an integration performed.
type Statistics struct {
	StepCount       int
	RejectedCount   int
	EvaluationCount int
	LastStepSize    float64
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}
