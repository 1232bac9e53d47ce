package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/reactsim/reactsim/internal/ode"
)

// StiffnessReport summarizes the Jacobian spectrum at a state.
type StiffnessReport struct {
	// SpectralRadius is the largest eigenvalue magnitude; the explicit
	// stability limit scales as 1/SpectralRadius.
	SpectralRadius float64

	// MaxAbsReal and MinAbsReal bound the magnitudes of the nonzero
	// real parts.
	MaxAbsReal float64
	MinAbsReal float64

	// Ratio is MaxAbsReal/MinAbsReal, the usual stiffness ratio; 1 for
	// a spectrum with a single timescale.
	Ratio float64
}

// Stiffness estimates the stiffness of the system linearized at (u, t).
func Stiffness(sys ode.System, u ode.State, t float64) (StiffnessReport, error) {
	jac, err := Jacobian(sys, u, t, 0)
	if err != nil {
		return StiffnessReport{}, err
	}

	var eig mat.Eigen
	if ok := eig.Factorize(jac, mat.EigenNone); !ok {
		return StiffnessReport{}, fmt.Errorf("analysis: eigendecomposition failed: %w", ode.ErrUnstable)
	}
	values := eig.Values(nil)

	var report StiffnessReport
	for _, v := range values {
		report.SpectralRadius = math.Max(report.SpectralRadius, cmplxAbs(v))
	}

	// Real parts below this are treated as zero (neutral modes).
	cutoff := 1e-9 * math.Max(report.SpectralRadius, 1.0)

	report.MinAbsReal = math.Inf(1)
	for _, v := range values {
		re := math.Abs(real(v))
		if re < cutoff {
			continue
		}
		report.MaxAbsReal = math.Max(report.MaxAbsReal, re)
		report.MinAbsReal = math.Min(report.MinAbsReal, re)
	}

	if math.IsInf(report.MinAbsReal, 1) {
		// Purely neutral/oscillatory spectrum.
		report.MinAbsReal = 0
		report.Ratio = 1
	} else {
		report.Ratio = report.MaxAbsReal / report.MinAbsReal
	}

	return report, nil
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
