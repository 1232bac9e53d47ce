package ode

import "errors"

// Domain errors for evaluation and integration.
var (
	// ErrShapeMismatch indicates input and output buffers disagree with the
	// system's dimension.
	ErrShapeMismatch = errors.New("ode: state and derivative shapes disagree with system dimension")

	// ErrInvalidParameter indicates a parameter the evaluator cannot work
	// with, such as zero grid spacing.
	ErrInvalidParameter = errors.New("ode: invalid parameter")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("ode: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive timestep fell below the minimum.
	ErrStepTooSmall = errors.New("ode: adaptive timestep below minimum")

	// ErrUnstable indicates the integration diverged.
	ErrUnstable = errors.New("ode: integration unstable (state diverged)")
)

// StepError wraps an error with the step at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
