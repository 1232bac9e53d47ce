package integrators

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/reactsim/reactsim/internal/ode"
)

// harmonic oscillator: u'' = -u, exact solution (cos t, -sin t).
type oscillator struct{}

func (o *oscillator) Dim() int { return 2 }

func (o *oscillator) Evaluate(du, u ode.State, t float64) error {
	if len(du) != 2 || len(u) != 2 {
		return ode.ErrShapeMismatch
	}
	du[0] = u[1]
	du[1] = -u[0]
	return nil
}

type failingSystem struct{}

func (f *failingSystem) Dim() int { return 1 }

func (f *failingSystem) Evaluate(du, u ode.State, t float64) error {
	return ode.ErrInvalidParameter
}

func TestEulerDecay(t *testing.T) {
	g := NewWithT(t)

	integ := NewEuler()
	sys := &oscillator{}

	x := ode.State{1.0, 0.0}
	dt := 0.001
	var err error
	for i := 0; i < 1000; i++ {
		x, err = integ.Step(sys, x, float64(i)*dt, dt)
		g.Expect(err).NotTo(HaveOccurred())
	}

	// First order: loose tolerance.
	g.Expect(x[0]).To(BeNumerically("~", math.Cos(1.0), 1e-2))
	g.Expect(integ.Stats().StepCount).To(Equal(1000))
	g.Expect(integ.Stats().EvaluationCount).To(Equal(1000))
}

func TestRK4Accuracy(t *testing.T) {
	g := NewWithT(t)

	integ := NewRK4()
	sys := &oscillator{}

	x := ode.State{1.0, 0.0}
	dt := 0.01
	steps := 100
	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(sys, x, float64(i)*dt, dt)
		g.Expect(err).NotTo(HaveOccurred())
	}

	tEnd := float64(steps) * dt
	g.Expect(x[0]).To(BeNumerically("~", math.Cos(tEnd), 1e-4))
	g.Expect(x[1]).To(BeNumerically("~", -math.Sin(tEnd), 1e-4))
	g.Expect(integ.Stats().EvaluationCount).To(Equal(4 * steps))
}

func TestRK4PropagatesErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := NewRK4().Step(&failingSystem{}, ode.State{1}, 0, 0.1)
	g.Expect(errors.Is(err, ode.ErrInvalidParameter)).To(BeTrue())
}

func TestDopri5Accuracy(t *testing.T) {
	g := NewWithT(t)

	integ := NewDopri5()
	sys := &oscillator{}

	x := ode.State{1.0, 0.0}
	t0, tEnd := 0.0, 10.0
	dt := 0.1
	var err error
	for t0 < tEnd {
		if t0+dt > tEnd {
			dt = tEnd - t0
		}
		var next float64
		x, next, err = integ.StepAdaptive(sys, x, t0, dt, 1e-9)
		g.Expect(err).NotTo(HaveOccurred())
		t0 += integ.Stats().LastStepSize
		dt = next
	}

	g.Expect(x[0]).To(BeNumerically("~", math.Cos(tEnd), 1e-6))
	g.Expect(x[1]).To(BeNumerically("~", -math.Sin(tEnd), 1e-6))
	g.Expect(integ.Stats().StepCount).To(BeNumerically(">", 0))
}

func TestDopri5ShrinksOversizedSteps(t *testing.T) {
	g := NewWithT(t)

	integ := NewDopri5()
	sys := &oscillator{}

	// A whole period in one requested step has to be rejected and
	// subdivided to meet the tolerance.
	_, next, err := integ.StepAdaptive(sys, ode.State{1, 0}, 0, 2*math.Pi, 1e-10)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(integ.Stats().RejectedCount).To(BeNumerically(">", 0))
	g.Expect(integ.Stats().LastStepSize).To(BeNumerically("<", 2*math.Pi))
	g.Expect(next).To(BeNumerically(">", 0))
}

func TestDopri5RejectsBadTolerance(t *testing.T) {
	g := NewWithT(t)

	_, _, err := NewDopri5().StepAdaptive(&oscillator{}, ode.State{1, 0}, 0, 0.1, 0)
	g.Expect(err).To(HaveOccurred())
}

func TestDopri5PropagatesErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := NewDopri5().Step(&failingSystem{}, ode.State{1}, 0, 0.1)
	g.Expect(errors.Is(err, ode.ErrInvalidParameter)).To(BeTrue())
}
