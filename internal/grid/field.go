package grid

import (
	"fmt"

	"github.com/reactsim/reactsim/internal/ode"
)

// Components per grid cell: U and V, interleaved. The component order is
// a fixed convention shared by every consumer of a Field.
const Components = 2

// Field is a two-component scalar field on an N x N grid, stored as a
// flat interleaved vector: index (i, j, c) lives at 2*(i*N+j)+c. The
// flat layout is what integrators operate on; Field is the typed view.
type Field struct {
	N    int
	Data ode.State
}

func NewField(n int) Field {
	return Field{N: n, Data: make(ode.State, Components*n*n)}
}

// FieldFrom wraps an existing state vector without copying.
func FieldFrom(n int, data ode.State) (Field, error) {
	if len(data) != Components*n*n {
		return Field{}, fmt.Errorf("grid: state length %d does not match %dx%dx%d field: %w",
			len(data), n, n, Components, ode.ErrShapeMismatch)
	}
	return Field{N: n, Data: data}, nil
}

func (f Field) idx(i, j int) int {
	return Components * (i*f.N + j)
}

func (f Field) U(i, j int) float64 { return f.Data[f.idx(i, j)] }
func (f Field) V(i, j int) float64 { return f.Data[f.idx(i, j)+1] }

func (f Field) SetU(i, j int, v float64) { f.Data[f.idx(i, j)] = v }
func (f Field) SetV(i, j int, v float64) { f.Data[f.idx(i, j)+1] = v }

func (f Field) Len() int {
	return Components * f.N * f.N
}

// Component copies component c (0 = U, 1 = V) into a dense row-major
// N*N slice, allocating dst when nil.
func (f Field) Component(c int, dst []float64) []float64 {
	if dst == nil || len(dst) != f.N*f.N {
		dst = make([]float64, f.N*f.N)
	}
	for k := 0; k < f.N*f.N; k++ {
		dst[k] = f.Data[Components*k+c]
	}
	return dst
}
