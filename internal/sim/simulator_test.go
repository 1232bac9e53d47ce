package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/reactsim/reactsim/internal/ode"
)

// decay: x' = -x.
type testSystem struct{}

func (s *testSystem) Dim() int { return 1 }

func (s *testSystem) Evaluate(du, u ode.State, t float64) error {
	du[0] = -u[0]
	return nil
}

type testIntegrator struct {
	stats ode.Statistics
}

func (i *testIntegrator) Step(sys ode.System, x ode.State, t, dt float64) (ode.State, error) {
	du := make(ode.State, len(x))
	if err := sys.Evaluate(du, x, t); err != nil {
		return nil, err
	}
	result := make(ode.State, len(x))
	for k := range x {
		result[k] = x[k] + dt*du[k]
	}
	i.stats.StepCount++
	i.stats.EvaluationCount++
	i.stats.LastStepSize = dt
	return result, nil
}

func (i *testIntegrator) Stats() ode.Statistics { return i.stats }

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "mean" }
func (m *testMetric) Observe(x ode.State, t float64) {
	m.count++
	m.sum += x[0]
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorRun(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})

	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0
	cfg.SnapshotEvery = 1

	result, err := s.Run(context.Background(), ode.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Snapshots) != 11 {
		t.Errorf("expected 11 snapshots, got %d", len(result.Snapshots))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if result.Stats.EvaluationCount != 10 {
		t.Errorf("expected 10 evaluations, got %d", result.Stats.EvaluationCount)
	}

	final := result.Snapshots[len(result.Snapshots)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(final-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, final)
	}
}

func TestSimulatorSnapshotCadence(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})

	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0
	cfg.SnapshotEvery = 4

	result, err := s.Run(context.Background(), ode.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Initial, steps 4 and 8, plus the forced final state.
	if len(result.Snapshots) != 4 {
		t.Errorf("expected 4 snapshots, got %d (times %v)", len(result.Snapshots), result.Times)
	}
	lastT := result.Times[len(result.Times)-1]
	if math.Abs(lastT-1.0) > 1e-9 {
		t.Errorf("final snapshot at t=%f, want 1.0", lastT)
	}
}

// shrinkingIntegrator behaves like an embedded-pair method driven at a
// fixed dt: it accepts a quarter of the step it was asked for and
// reports the accepted size in its statistics.
type shrinkingIntegrator struct {
	testIntegrator
}

func (i *shrinkingIntegrator) Step(sys ode.System, x ode.State, t, dt float64) (ode.State, error) {
	return i.testIntegrator.Step(sys, x, t, dt/4)
}

func TestSimulatorFixedStepTracksAcceptedStep(t *testing.T) {
	s := New(&testSystem{}, &shrinkingIntegrator{})

	cfg := DefaultConfig()
	cfg.Dt = 1.0
	cfg.Duration = 1.0
	cfg.SnapshotEvery = 1

	result, err := s.Run(context.Background(), ode.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// One step was asked at dt=1.0 but only 0.25 was accepted; the
	// recorded times must follow the state, not the request.
	if math.Abs(result.FinalTime-0.25) > 1e-12 {
		t.Errorf("final time = %f, want 0.25", result.FinalTime)
	}
	lastT := result.Times[len(result.Times)-1]
	if math.Abs(lastT-0.25) > 1e-12 {
		t.Errorf("last snapshot time = %f, want 0.25", lastT)
	}
	final := result.Snapshots[len(result.Snapshots)-1][0]
	if math.Abs(final-0.75) > 1e-12 {
		t.Errorf("final state = %f, want 0.75 (one Euler step of 0.25)", final)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, Adaptive: true}},
		{"adaptive without capable integrator", Config{Dt: 0.1, Duration: 1.0, Adaptive: true, Tolerance: 1e-6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), ode.State{1.0}, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorRejectsWrongDimension(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})
	_, err := s.Run(context.Background(), ode.State{1, 2}, DefaultConfig())
	if !errors.Is(err, ode.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, got %v", err)
	}
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})
	metric := &testMetric{}
	s.AddMetric(metric)

	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0

	result, err := s.Run(context.Background(), ode.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["mean"]; !ok {
		t.Error("metric not found in result")
	}
	// Observed before each of the 10 steps plus once at the end.
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestSimulatorContextCancellation(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.Dt = 0.001
	cfg.Duration = 100.0

	result, err := s.Run(ctx, ode.State{1.0}, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("expected partial result on cancellation")
	}
}

type nanSystem struct{}

func (s *nanSystem) Dim() int { return 1 }
func (s *nanSystem) Evaluate(du, u ode.State, t float64) error {
	du[0] = math.NaN()
	return nil
}

func TestSimulatorStateValidation(t *testing.T) {
	s := New(&nanSystem{}, &testIntegrator{})

	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0

	_, err := s.Run(context.Background(), ode.State{1.0}, cfg)
	if !errors.Is(err, ode.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}

	var stepErr *ode.StepError
	if !errors.As(err, &stepErr) {
		t.Error("expected error to carry step context")
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	s := New(&testSystem{}, &testIntegrator{})

	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 10.0

	calls := 0
	err := s.RunWithCallback(context.Background(), ode.State{1.0}, cfg, func(x ode.State, t float64) bool {
		calls++
		return calls < 5
	})
	if err != nil {
		t.Fatalf("callback run failed: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 callback invocations, got %d", calls)
	}
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble(&testSystem{}, func() ode.Integrator { return &testIntegrator{} })

	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0

	initials := []ode.State{{1.0}, {2.0}, {3.0}}
	results, err := e.Run(context.Background(), initials, cfg)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		final := r.Snapshots[len(r.Snapshots)-1][0]
		want := initials[i][0] * math.Exp(-1.0)
		if math.Abs(final-want) > 0.3 {
			t.Errorf("member %d: final %f, want ~%f", i, final, want)
		}
	}
}
