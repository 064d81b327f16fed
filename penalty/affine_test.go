package penalty

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-register/grid"
)

func mustGrid(t *testing.T, coords ...[]float64) *grid.Grid {
	t.Helper()

	g, err := grid.New(coords...)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}

	return g
}

// affineDisp fills u with an affine displacement per component.
func affineDisp(g *grid.Grid, u []float64) {
	dim := g.Dim()
	p := make([]float64, dim)

	for i := 0; i < g.Nodes(); i++ {
		g.Coord(p, i)

		for d := 0; d < dim; d++ {
			v := 0.3 + 0.7*float64(d)
			for a := 0; a < dim; a++ {
				v += (0.1 + 0.05*float64(d*dim+a)) * p[a]
			}

			u[i*dim+d] = v
		}
	}
}

func TestNewAffineResidualNegativeWeight(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2})

	if _, err := NewAffineResidual(g, -1); !errors.Is(err, ErrNegativeWeight) {
		t.Fatalf("negative weight: got %v want ErrNegativeWeight", err)
	}
}

func TestAffineFieldsHaveZeroPenalty(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 3, 4, 7}, []float64{0, 2, 5})

	p, err := NewAffineResidual(g, 10)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	u := make([]float64, g.Nodes()*g.Dim())
	affineDisp(g, u)

	if v := p.Value(u); math.Abs(v) > 1e-18 {
		t.Fatalf("affine field penalty: got %g want 0", v)
	}

	dst := make([]float64, len(u))
	p.Gradient(dst, u)

	for i, d := range dst {
		if math.Abs(d) > 1e-12 {
			t.Fatalf("affine field gradient entry %d: got %g want 0", i, d)
		}
	}
}

func TestNonAffineFieldIsPenalized(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2, 3}, []float64{0, 1, 2, 3})

	p, err := NewAffineResidual(g, 2)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	u := make([]float64, g.Nodes()*g.Dim())
	pt := make([]float64, 2)

	for i := 0; i < g.Nodes(); i++ {
		g.Coord(pt, i)
		u[i*2] = pt[0] * pt[0] // quadratic bulge, not affine
	}

	if v := p.Value(u); v <= 0 {
		t.Fatalf("curved field penalty: got %g want > 0", v)
	}
}

func TestGradientMatchesFiniteDifferences(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2}, []float64{0, 2, 3})

	p, err := NewAffineResidual(g, 3)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	rng := rand.New(rand.NewSource(1))

	u := make([]float64, g.Nodes()*g.Dim())
	for i := range u {
		u[i] = rng.NormFloat64()
	}

	grad := make([]float64, len(u))
	p.Gradient(grad, u)

	const h = 1e-6

	for i := range u {
		u[i] += h
		fp := p.Value(u)
		u[i] -= 2 * h
		fm := p.Value(u)
		u[i] += h

		fd := (fp - fm) / (2 * h)
		if math.Abs(grad[i]-fd) > 1e-5 {
			t.Fatalf("gradient entry %d: got %g finite difference %g", i, grad[i], fd)
		}
	}
}

func TestGradientWithWeightScalesLinearly(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2, 4})

	p, err := NewAffineResidual(g, 1)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	u := []float64{0, 1, 0, 2}

	g1 := make([]float64, len(u))
	g5 := make([]float64, len(u))

	p.GradientWithWeight(g1, u, 1)
	p.GradientWithWeight(g5, u, 5)

	for i := range g1 {
		if math.Abs(g5[i]-5*g1[i]) > 1e-12 {
			t.Fatalf("entry %d: got %g want %g", i, g5[i], 5*g1[i])
		}
	}

	if p.Weight() != 1 {
		t.Fatalf("explicit-weight call mutated evaluator: weight %g", p.Weight())
	}
}

func TestHessianDenseMatchesGradient(t *testing.T) {
	// The penalty is a pure quadratic, so gradient(u) = (2/n)·H·u with
	// H = w·(I−P) per component.
	g := mustGrid(t, []float64{0, 1, 2, 3, 5})

	p, err := NewAffineResidual(g, 4)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	n := g.Nodes()
	h := p.HessianDense()

	rng := rand.New(rand.NewSource(2))

	u := make([]float64, n)
	for i := range u {
		u[i] = rng.NormFloat64()
	}

	grad := make([]float64, n)
	p.Gradient(grad, u)

	for i := 0; i < n; i++ {
		var hu float64
		for j := 0; j < n; j++ {
			hu += h.At(i, j) * u[j]
		}

		want := 2 / float64(n) * hu
		if math.Abs(grad[i]-want) > 1e-10 {
			t.Fatalf("entry %d: gradient %g dense %g", i, grad[i], want)
		}
	}
}

func TestFullBasisPenaltyIsZero(t *testing.T) {
	// Two nodes on one axis: the affine basis {1, x} already spans ℝ², so the
	// residual vanishes for every field.
	g := mustGrid(t, []float64{0, 1})

	p, err := NewAffineResidual(g, 100)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	u := []float64{3, -7}
	if v := p.Value(u); v != 0 {
		t.Fatalf("full-basis penalty: got %g want 0", v)
	}

	dst := []float64{1, 1}
	p.Gradient(dst, u)

	if dst[0] != 0 || dst[1] != 0 {
		t.Fatalf("full-basis gradient: got %v want zeros", dst)
	}
}
