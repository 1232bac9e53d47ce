// Package ode provides the core primitives for semi-discretized PDE
// simulation: state vectors, the right-hand-side [System] contract with
// caller-owned output buffers, integrator interfaces, and domain errors.
//
// The buffer convention is the load-bearing part: a System writes its
// derivative into a du slice the caller allocates once and reuses for
// every evaluation, so a time-integration loop performs no per-step
// allocation in the kernel.
//
//	du := make(ode.State, sys.Dim())
//	for each stage {
//	    if err := sys.Evaluate(du, u, t); err != nil { ... }
//	}
//
// For stiff diffusion, systems may additionally implement [SplitSystem]
// to expose their linear diffusion term to IMEX integrators.
package ode
