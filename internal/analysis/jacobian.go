// Package analysis probes a system's right-hand side numerically: dense
// finite-difference Jacobians and a stiffness estimate from their
// spectrum. Dense eigendecomposition is O(dim^3), so this is a
// diagnostic for small grids, not a solver component.
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/reactsim/reactsim/internal/ode"
)

// Jacobian approximates df/du at (u, t) by forward differences with
// relative perturbation eps (default 1e-8 when eps <= 0). One extra
// RHS evaluation per column, all through a pair of reused buffers.
func Jacobian(sys ode.System, u ode.State, t, eps float64) (*mat.Dense, error) {
	n := sys.Dim()
	if len(u) != n {
		return nil, fmt.Errorf("analysis: state has %d entries, system wants %d: %w",
			len(u), n, ode.ErrShapeMismatch)
	}
	if eps <= 0 {
		eps = 1e-8
	}

	f0 := make(ode.State, n)
	if err := sys.Evaluate(f0, u, t); err != nil {
		return nil, err
	}

	fp := make(ode.State, n)
	up := u.Clone()
	jac := mat.NewDense(n, n, nil)

	for j := 0; j < n; j++ {
		h := eps * math.Max(math.Abs(u[j]), 1.0)
		up[j] = u[j] + h
		if err := sys.Evaluate(fp, up, t); err != nil {
			return nil, err
		}
		up[j] = u[j]

		for i := 0; i < n; i++ {
			jac.Set(i, j, (fp[i]-f0[i])/h)
		}
	}

	return jac, nil
}
