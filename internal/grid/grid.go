package grid

import "fmt"

// Grid describes a uniform N x N discretization of the unit square with
// periodic (torus) topology. Immutable after construction.
type Grid struct {
	N       int
	Spacing float64
}

func New(n int) (Grid, error) {
	if n < 2 {
		return Grid{}, fmt.Errorf("grid: need at least 2 points per axis, got %d", n)
	}
	return Grid{N: n, Spacing: 1.0 / float64(n)}, nil
}

// MustNew is New for grid sizes known valid at compile time.
func MustNew(n int) Grid {
	g, err := New(n)
	if err != nil {
		panic(err)
	}
	return g
}

// Coord returns the physical coordinate of index i in [0, 1).
func (g Grid) Coord(i int) float64 {
	return float64(i) * g.Spacing
}

// Cells returns the number of grid cells, N*N.
func (g Grid) Cells() int {
	return g.N * g.N
}

// Wrap maps an index onto the periodic axis [0, n): -1 wraps to n-1 and
// n wraps to 0, on both axes independently (the domain is a torus).
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
