// Package sim orchestrates time integration of an ode.System: fixed or
// adaptive stepping, snapshot recording, metric collection, and context
// cancellation between steps.
package sim

import (
	"context"
	"fmt"

	"github.com/reactsim/reactsim/internal/ode"
)

type Config struct {
	Dt       float64
	Duration float64

	// Adaptive stepping (requires an ode.AdaptiveIntegrator).
	Adaptive  bool
	Tolerance float64
	MaxDt     float64

	// ValidateState aborts the run when the state picks up NaN or Inf.
	ValidateState bool

	// SnapshotEvery records every k-th state into the result; values
	// below 1 record every step. The initial and final states are
	// always recorded.
	SnapshotEvery int
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-6,
		MaxDt:         0.5,
		ValidateState: true,
		SnapshotEvery: 10,
	}
}

type Result struct {
	Snapshots  []ode.State
	Times      []float64
	Metrics    map[string]float64
	Stats      ode.Statistics
	StepsTaken int
	FinalTime  float64
}

type Simulator struct {
	sys        ode.System
	integrator ode.Integrator
	metrics    []ode.Metric
	observers  []ode.Observer
}

func New(sys ode.System, integrator ode.Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
	}
}

func (s *Simulator) AddMetric(m ode.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o ode.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over cfg.Duration. On failure the partial
// result accumulated so far is returned alongside the error.
func (s *Simulator) Run(ctx context.Context, x0 ode.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.Dim() {
		return nil, fmt.Errorf("sim: initial state has %d entries, system wants %d: %w",
			len(x0), s.sys.Dim(), ode.ErrShapeMismatch)
	}

	every := cfg.SnapshotEvery
	if every < 1 {
		every = 1
	}

	result := &Result{
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.Snapshots = append(result.Snapshots, x.Clone())
	result.Times = append(result.Times, t)

	// Fixed stepping counts steps up front; accumulating t and
	// comparing against Duration picks up an extra step from float
	// drift.
	fixedSteps := -1
	if !cfg.Adaptive {
		fixedSteps = int(cfg.Duration/cfg.Dt + 0.5)
	}

	step := 0
	for {
		if cfg.Adaptive {
			if t >= cfg.Duration {
				break
			}
		} else if step >= fixedSteps {
			break
		}

		select {
		case <-ctx.Done():
			s.finish(result, x, t, step)
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		var (
			newX ode.State
			err  error
		)
		if cfg.Adaptive {
			adaptive := s.integrator.(ode.AdaptiveIntegrator)
			if t+dt > cfg.Duration {
				dt = cfg.Duration - t
			}
			var dtNext float64
			newX, dtNext, err = adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
			if err == nil {
				if st, ok := adaptive.(ode.StatReporter); ok {
					t += st.Stats().LastStepSize
				} else {
					t += dt
				}
				if cfg.MaxDt > 0 && dtNext > cfg.MaxDt {
					dtNext = cfg.MaxDt
				}
				dt = dtNext
			}
		} else {
			newX, err = s.integrator.Step(s.sys, x, t, dt)
			if err == nil {
				t += actualStep(s.integrator, dt)
			}
		}
		if err != nil {
			s.finish(result, x, t, step)
			return result, &ode.StepError{Step: step, Time: t, Wrapped: err}
		}

		if cfg.ValidateState && !newX.IsValid() {
			s.finish(result, x, t, step)
			return result, &ode.StepError{Step: step, Time: t, Wrapped: ode.ErrInvalidState}
		}

		x = newX
		step++

		if step%every == 0 {
			result.Snapshots = append(result.Snapshots, x.Clone())
			result.Times = append(result.Times, t)
		}
	}

	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	s.finish(result, x, t, step)
	return result, nil
}

// finish records the final state (unless just recorded), statistics and
// metric values.
func (s *Simulator) finish(result *Result, x ode.State, t float64, step int) {
	if len(result.Times) == 0 || result.Times[len(result.Times)-1] != t {
		result.Snapshots = append(result.Snapshots, x.Clone())
		result.Times = append(result.Times, t)
	}
	result.StepsTaken = step
	result.FinalTime = t
	if st, ok := s.integrator.(ode.StatReporter); ok {
		result.Stats = st.Stats()
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// actualStep is the size of the step the integrator just took. An
// embedded-pair method asked for a fixed dt may accept a smaller step
// after internal retries; its statistics carry the truth.
func actualStep(integ ode.Integrator, dt float64) float64 {
	if st, ok := integ.(ode.StatReporter); ok {
		if last := st.Stats().LastStepSize; last > 0 {
			return last
		}
	}
	return dt
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Adaptive {
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("sim: tolerance must be positive for adaptive stepping")
		}
		if _, ok := s.integrator.(ode.AdaptiveIntegrator); !ok {
			return fmt.Errorf("sim: integrator does not support adaptive stepping")
		}
	}
	return nil
}

// RunWithCallback integrates without retaining snapshots, invoking the
// callback each step; returning false from the callback stops the run.
// Used by the live TUI.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 ode.State, cfg Config, callback func(x ode.State, t float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	x := x0.Clone()
	t := 0.0
	steps := int(cfg.Duration/cfg.Dt + 0.5)

	for step := 0; step < steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		newX, err := s.integrator.Step(s.sys, x, t, cfg.Dt)
		if err != nil {
			return err
		}
		if cfg.ValidateState && !newX.IsValid() {
			return fmt.Errorf("sim: at t=%.4f: %w", t, ode.ErrInvalidState)
		}
		x = newX
		t += actualStep(s.integrator, cfg.Dt)
	}

	return nil
}
