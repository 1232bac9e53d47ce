package bruss

import (
	"math"

	"github.com/reactsim/reactsim/internal/grid"
)

// InitialState returns the reference initial condition
//
//	U(x, y) = 22 (y (1-y))^{3/2}
//	V(x, y) = 27 (x (1-x))^{3/2}
//
// on the grid's coordinates in [0, 1).
func InitialState(g grid.Grid) grid.Field {
	f := grid.NewField(g.N)
	for i := 0; i < g.N; i++ {
		x := g.Coord(i)
		for j := 0; j < g.N; j++ {
			y := g.Coord(j)
			f.SetU(i, j, 22.0*math.Pow(y*(1.0-y), 1.5))
			f.SetV(i, j, 27.0*math.Pow(x*(1.0-x), 1.5))
		}
	}
	return f
}
