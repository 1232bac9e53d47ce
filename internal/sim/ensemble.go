package sim

import (
	"context"
	"sync"

	"github.com/reactsim/reactsim/internal/ode"
)

// Ensemble runs one simulation per initial state concurrently, for
// sensitivity studies over perturbed initial conditions. Integrators
// carry scratch buffers, so every member gets its own via the factory;
// the system is shared and must be safe for concurrent evaluation
// (bruss.Evaluator is: it only reads its own fields during Evaluate).
type Ensemble struct {
	sys        ode.System
	integrator func() ode.Integrator
}

func NewEnsemble(sys ode.System, integrator func() ode.Integrator) *Ensemble {
	return &Ensemble{sys: sys, integrator: integrator}
}

func (e *Ensemble) Run(ctx context.Context, initials []ode.State, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(initials))
	errs := make([]error, len(initials))

	var wg sync.WaitGroup
	for i := range initials {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			s := New(e.sys, e.integrator())
			results[idx], errs[idx] = s.Run(ctx, initials[idx], cfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
