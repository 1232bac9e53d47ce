// Package bruss implements the finite-difference semi-discretization of
// the 2D Brusselator reaction-diffusion equations on a periodic grid.
//
// The PDE for the two concentration fields U, V on the unit square is
//
//	dU/dt = alpha lap(U) + B + U^2 V - (A+1) U + f(x, y, t)
//	dV/dt = alpha lap(V) + A U - U^2 V
//
// discretized with the 5-point stencil and torus wraparound, which turns
// it into a 2 N^2 dimensional ODE system served through [Evaluator] to
// the integrators in internal/integrators.
//
// Each cell's derivative depends only on its own value and its four
// periodic neighbors in the input, never on other cells of the output,
// so the sweep is freely parallel across rows (see Evaluator.SetParallel).
package bruss
