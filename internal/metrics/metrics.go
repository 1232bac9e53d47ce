// Package metrics implements ode.Metric observers over field states:
// total concentration drift, value extrema, and L2 norm.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/reactsim/reactsim/internal/ode"
)

// MassDrift tracks the relative drift of the total concentration
// (the sum over every field value) from its first observation. Pure
// diffusion on the torus conserves it, so drift isolates the reaction
// and forcing contributions plus integrator error.
type MassDrift struct {
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{}
}

func (m *MassDrift) Name() string { return "mass_drift" }

func (m *MassDrift) Observe(x ode.State, t float64) {
	total := floats.Sum(x)
	if m.samples == 0 {
		m.initial = total
	}
	m.current = total
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(total-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

// Total returns the most recently observed total concentration.
func (m *MassDrift) Total() float64 { return m.current }

func (m *MassDrift) Reset() {
	*m = MassDrift{}
}

// Extrema records the smallest and largest field value seen over the
// whole run. Value reports the maximum; Min reports the minimum, which
// going negative flags a nonphysical concentration.
type Extrema struct {
	min, max float64
	samples  int
}

func NewExtrema() *Extrema {
	return &Extrema{}
}

func (e *Extrema) Name() string { return "extrema" }

func (e *Extrema) Observe(x ode.State, t float64) {
	if len(x) == 0 {
		return
	}
	lo, hi := floats.Min(x), floats.Max(x)
	if e.samples == 0 {
		e.min, e.max = lo, hi
	} else {
		e.min = math.Min(e.min, lo)
		e.max = math.Max(e.max, hi)
	}
	e.samples++
}

func (e *Extrema) Value() float64 { return e.max }
func (e *Extrema) Min() float64   { return e.min }

func (e *Extrema) Reset() {
	*e = Extrema{}
}

// L2Norm reports the most recent Euclidean norm of the state.
type L2Norm struct {
	current float64
}

func NewL2Norm() *L2Norm {
	return &L2Norm{}
}

func (n *L2Norm) Name() string { return "l2_norm" }

func (n *L2Norm) Observe(x ode.State, t float64) {
	n.current = floats.Norm(x, 2)
}

func (n *L2Norm) Value() float64 { return n.current }

func (n *L2Norm) Reset() {
	n.current = 0
}
