package hessian

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-register/grid"
	"github.com/cwbudde/algo-register/internal/testutil"
	"github.com/cwbudde/algo-register/mismatch"
	"github.com/cwbudde/algo-register/penalty"
)

func mustGrid(t *testing.T, coords ...[]float64) *grid.Grid {
	t.Helper()

	g, err := grid.New(coords...)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}

	return g
}

func mustPenalty(t *testing.T, g *grid.Grid, weight float64) *penalty.AffineResidual {
	t.Helper()

	p, err := penalty.NewAffineResidual(g, weight)
	if err != nil {
		t.Fatalf("NewAffineResidual: %v", err)
	}

	return p
}

// randomFits builds one SPD curvature and one center per node.
func randomFits(g *grid.Grid, rng *rand.Rand) []mismatch.Fit {
	d := g.Dim()

	fits := make([]mismatch.Fit, g.Nodes())
	for i := range fits {
		// A·Aᵀ + I is symmetric positive definite.
		a := mat.NewDense(d, d, nil)
		for r := 0; r < d; r++ {
			for c := 0; c < d; c++ {
				a.Set(r, c, rng.NormFloat64())
			}
		}

		q := mat.NewSymDense(d, nil)
		for r := 0; r < d; r++ {
			for c := r; c < d; c++ {
				var s float64
				for k := 0; k < d; k++ {
					s += a.At(r, k) * a.At(c, k)
				}

				if r == c {
					s++
				}

				q.SetSym(r, c, s)
			}
		}

		c := make([]float64, d)
		for k := range c {
			c[k] = rng.NormFloat64()
		}

		fits[i] = mismatch.Fit{C: c, Q: q}
	}

	return fits
}

func TestQuadraticApplyMatchesDense(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2, 4}, []float64{0, 2, 3})
	rng := rand.New(rand.NewSource(7))

	op, err := NewQuadratic(g, mustPenalty(t, g, 3), randomFits(g, rng), nil)
	if err != nil {
		t.Fatalf("NewQuadratic: %v", err)
	}

	h := op.Dense()

	v := testutil.RandomDisp(42, op.Dim())

	got := make([]float64, op.Dim())
	op.Apply(got, v)

	want := make([]float64, op.Dim())
	for i := 0; i < op.Dim(); i++ {
		for j := 0; j < op.Dim(); j++ {
			want[i] += h.At(i, j) * v[j]
		}
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-4)
}

func TestQuadraticIdentityPriorMatchesNil(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2}, []float64{0, 1, 2})
	rng := rand.New(rand.NewSource(8))

	fits := randomFits(g, rng)
	pen := mustPenalty(t, g, 2)

	plain, err := NewQuadratic(g, pen, fits, nil)
	if err != nil {
		t.Fatalf("NewQuadratic: %v", err)
	}

	// An identity prior must be dropped at construction, giving the exact
	// same operator.
	withPrior, err := NewQuadratic(g, pen, fits, grid.NewField(g))
	if err != nil {
		t.Fatalf("NewQuadratic with identity prior: %v", err)
	}

	v := make([]float64, plain.Dim())
	for i := range v {
		v[i] = rng.NormFloat64()
	}

	a := make([]float64, plain.Dim())
	b := make([]float64, plain.Dim())

	plain.Apply(a, v)
	withPrior.Apply(b, v)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("entry %d: plain %g identity prior %g", i, a[i], b[i])
		}
	}
}

func TestQuadraticStabilizer(t *testing.T) {
	g := mustGrid(t, []float64{0, 1}, []float64{0, 1})

	// All curvatures identity: mean trace = 2.
	q := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	fits := make([]mismatch.Fit, g.Nodes())
	for i := range fits {
		fits[i] = mismatch.Fit{C: []float64{0, 0}, Q: q}
	}

	op, err := NewQuadratic(g, mustPenalty(t, g, 0), fits, nil)
	if err != nil {
		t.Fatalf("NewQuadratic: %v", err)
	}

	want := math.Cbrt(0x1p-52) * 2
	if math.Abs(op.Stabilizer()-want) > 1e-18 {
		t.Fatalf("stabilizer: got %g want %g", op.Stabilizer(), want)
	}

	// All-zero curvatures replace the mean with 1, keeping the operator
	// positive definite.
	zero := mat.NewSymDense(2, nil)
	for i := range fits {
		fits[i] = mismatch.Fit{C: []float64{0, 0}, Q: zero}
	}

	op, err = NewQuadratic(g, mustPenalty(t, g, 0), fits, nil)
	if err != nil {
		t.Fatalf("NewQuadratic: %v", err)
	}

	want = math.Cbrt(0x1p-52)
	if math.Abs(op.Stabilizer()-want) > 1e-18 {
		t.Fatalf("zero-trace stabilizer: got %g want %g", op.Stabilizer(), want)
	}
}

func TestQuadraticZeroWeightIsBlockDiagonal(t *testing.T) {
	g := mustGrid(t, []float64{0, 1, 2})
	rng := rand.New(rand.NewSource(9))

	fits := randomFits(g, rng)

	op, err := NewQuadratic(g, mustPenalty(t, g, 0), fits, nil)
	if err != nil {
		t.Fatalf("NewQuadratic: %v", err)
	}

	v := []float64{1, -2, 0.5}
	got := make([]float64, 3)
	op.Apply(got, v)

	for i := range got {
		want := fits[i].Q.At(0, 0)*v[i] + op.Stabilizer()*v[i]
		if math.Abs(got[i]-want) > 1e-12 {
			t.Fatalf("entry %d: got %g want %g", i, got[i], want)
		}
	}
}
