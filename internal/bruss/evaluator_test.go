package bruss_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reactsim/reactsim/internal/bruss"
	"github.com/reactsim/reactsim/internal/grid"
	"github.com/reactsim/reactsim/internal/ode"
)

var _ = Describe("Evaluator", func() {
	newEval := func(n int, p bruss.Params, f bruss.Forcing) *bruss.Evaluator {
		g := grid.MustNew(n)
		e, err := bruss.NewEvaluator(g, p, f)
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("construction", func() {
		It("rejects zero grid spacing", func() {
			_, err := bruss.NewEvaluator(grid.MustNew(4), bruss.Params{Dx: 0}, nil)
			Expect(errors.Is(err, ode.ErrInvalidParameter)).To(BeTrue())
		})

		It("accepts negative rate constants", func() {
			_, err := bruss.NewEvaluator(grid.MustNew(4), bruss.Params{A: -1, B: -2, Alpha: 1, Dx: 0.25}, nil)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("shape checking", func() {
		It("rejects mismatched buffers without touching du", func() {
			e := newEval(4, bruss.Params{A: 1, B: 3, Alpha: 1, Dx: 0.25}, nil)

			du := make(ode.State, e.Dim())
			for i := range du {
				du[i] = -99
			}

			err := e.Evaluate(du, make(ode.State, e.Dim()-2), 0)
			Expect(errors.Is(err, ode.ErrShapeMismatch)).To(BeTrue())
			for i := range du {
				Expect(du[i]).To(Equal(-99.0))
			}

			err = e.Evaluate(make(ode.State, e.Dim()+2), make(ode.State, e.Dim()), 0)
			Expect(errors.Is(err, ode.ErrShapeMismatch)).To(BeTrue())
		})
	})

	Describe("flat fields", func() {
		It("sees a zero Laplacian through the periodic wrap", func() {
			// With A = B = 0 and spatially constant U, V the diffusion
			// term must vanish identically on the torus, leaving only
			// the uniform reaction terms.
			e := newEval(5, bruss.Params{A: 0, B: 0, Alpha: 3.7, Dx: 0.2}, nil)

			cu, cv := 1.25, -0.5
			u := make(ode.State, e.Dim())
			for k := 0; k < len(u); k += 2 {
				u[k], u[k+1] = cu, cv
			}
			du := make(ode.State, e.Dim())
			Expect(e.Evaluate(du, u, 0)).To(Succeed())

			wantU := cu*cu*cv - cu // B + U^2 V - (A+1) U
			wantV := -cu * cu * cv // A U - U^2 V
			for k := 0; k < len(du); k += 2 {
				Expect(du[k]).To(Equal(wantU))
				Expect(du[k+1]).To(Equal(wantV))
			}
		})
	})

	Describe("reference scenario", func() {
		It("matches the hand-computed N=4 point source", func() {
			e := newEval(4, bruss.Params{A: 1, B: 3, Alpha: 1, Dx: 0.25}, bruss.DiskForcing)

			u := make(ode.State, e.Dim())
			f, err := grid.FieldFrom(4, u)
			Expect(err).NotTo(HaveOccurred())
			f.SetU(0, 0, 1.0)

			du := make(ode.State, e.Dim())
			Expect(e.Evaluate(du, u, 0)).To(Succeed())

			out, err := grid.FieldFrom(4, du)
			Expect(err).NotTo(HaveOccurred())

			// alphaEff = 1/0.25^2 = 16, lap(U)[0,0] = -4.
			Expect(out.U(0, 0)).To(Equal(-63.0))
			Expect(out.V(0, 0)).To(Equal(1.0))

			// The four periodic neighbors each pick up +1 from the source.
			for _, c := range [][2]int{{1, 0}, {3, 0}, {0, 1}, {0, 3}} {
				Expect(out.U(c[0], c[1])).To(Equal(16.0+3.0), "U at %v", c)
				Expect(out.V(c[0], c[1])).To(Equal(0.0), "V at %v", c)
			}

			// Everywhere else only B survives.
			Expect(out.U(2, 2)).To(Equal(3.0))
			Expect(out.V(2, 2)).To(Equal(0.0))
		})
	})

	Describe("determinism", func() {
		It("is bit-identical across repeated calls", func() {
			e := newEval(8, bruss.Params{A: 3.4, B: 1, Alpha: 0.002, Dx: 0.125}, bruss.DiskForcing)
			u := bruss.InitialState(e.Grid()).Data

			du1 := make(ode.State, e.Dim())
			du2 := make(ode.State, e.Dim())
			Expect(e.Evaluate(du1, u, 2.0)).To(Succeed())
			Expect(e.Evaluate(du2, u, 2.0)).To(Succeed())
			Expect(du2).To(Equal(du1))
		})

		It("is bit-identical between serial and parallel sweeps", func() {
			serial := newEval(16, bruss.Params{A: 3.4, B: 1, Alpha: 0.002, Dx: 1.0 / 16}, bruss.DiskForcing)
			parallel := newEval(16, bruss.Params{A: 3.4, B: 1, Alpha: 0.002, Dx: 1.0 / 16}, bruss.DiskForcing)
			parallel.SetParallel(2)

			u := bruss.InitialState(serial.Grid()).Data
			duS := make(ode.State, serial.Dim())
			duP := make(ode.State, parallel.Dim())
			Expect(serial.Evaluate(duS, u, 1.5)).To(Succeed())
			Expect(parallel.Evaluate(duP, u, 1.5)).To(Succeed())
			Expect(duP).To(Equal(duS))
		})
	})

	Describe("forcing through the kernel", func() {
		It("adds the source to U only, inside the disk, after onset", func() {
			// N = 10 puts a grid point at (0.3, 0.6), the disk center.
			e := newEval(10, bruss.Params{A: 0, B: 0, Alpha: 0, Dx: 0.1}, bruss.DiskForcing)

			u := make(ode.State, e.Dim())
			du := make(ode.State, e.Dim())

			Expect(e.Evaluate(du, u, 1.1)).To(Succeed())
			out, _ := grid.FieldFrom(10, du)
			Expect(out.U(3, 6)).To(Equal(5.0))
			Expect(out.V(3, 6)).To(Equal(0.0))
			Expect(out.U(0, 0)).To(Equal(0.0))

			Expect(e.Evaluate(du, u, 1.099999)).To(Succeed())
			out, _ = grid.FieldFrom(10, du)
			Expect(out.U(3, 6)).To(Equal(0.0))
		})
	})
})

var _ = Describe("DiskForcing", func() {
	It("includes the onset time exactly", func() {
		Expect(bruss.DiskForcing(0.3, 0.6, 1.1)).To(Equal(5.0))
		Expect(bruss.DiskForcing(0.3, 0.6, 1.099999)).To(Equal(0.0))
		Expect(bruss.DiskForcing(0.3, 0.6, 2.0)).To(Equal(5.0))
	})

	It("includes the circle boundary", func() {
		// (0.3, 0.7) sits on the radius-0.1 boundary; the subtraction
		// 0.7 - 0.6 is exact in doubles, so the squared distance lands
		// at or below 0.01.
		Expect(bruss.DiskForcing(0.3, 0.7, 1.1)).To(Equal(5.0))
		Expect(bruss.DiskForcing(0.3, 0.71, 1.1)).To(Equal(0.0))
	})

	It("is zero far from the disk at any time", func() {
		Expect(bruss.DiskForcing(0.9, 0.1, 100.0)).To(Equal(0.0))
	})
})

var _ = Describe("InitialState", func() {
	It("separates U along y and V along x", func() {
		g := grid.MustNew(10)
		f := bruss.InitialState(g)

		// U depends only on y, V only on x.
		for i := 0; i < g.N; i++ {
			for j := 0; j < g.N; j++ {
				Expect(f.U(i, j)).To(Equal(f.U(0, j)))
				Expect(f.V(i, j)).To(Equal(f.V(i, 0)))
			}
		}

		// At y = 0.5: 22 * 0.25^1.5 = 2.75; at x = 0.5: 27 * 0.25^1.5 = 3.375.
		Expect(f.U(0, 5)).To(BeNumerically("~", 2.75, 1e-12))
		Expect(f.V(5, 0)).To(BeNumerically("~", 3.375, 1e-12))
	})
})
