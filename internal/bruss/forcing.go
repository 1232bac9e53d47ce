package bruss

// Forcing is a pure, stateless source term f(x, y, t) added to the U
// equation only. It is invoked once per grid cell per evaluation.
type Forcing func(x, y, t float64) float64

// Disk forcing geometry: a circle of radius 0.1 around (0.3, 0.6) that
// switches on at t = 1.1. Both bounds are inclusive.
const (
	diskCenterX   = 0.3
	diskCenterY   = 0.6
	diskRadiusSq  = 0.01
	diskOnset     = 1.1
	diskAmplitude = 5.0
)

// DiskForcing is the reference source term: amplitude 5 inside the disk
// once the onset time has been reached, zero otherwise.
func DiskForcing(x, y, t float64) float64 {
	dx := x - diskCenterX
	dy := y - diskCenterY
	if dx*dx+dy*dy <= diskRadiusSq && t >= diskOnset {
		return diskAmplitude
	}
	return 0.0
}
