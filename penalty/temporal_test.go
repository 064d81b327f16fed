package penalty

import (
	"math"
	"testing"
)

func TestTemporalValue(t *testing.T) {
	// Three frames of two values each: differences (1,1) and (2,-1).
	u := []float64{0, 0, 1, 1, 3, 0}

	pen := Temporal{W: 0.5}
	want := 0.5 * (1 + 1 + 4 + 1)

	if v := pen.Value(u, 3); math.Abs(v-want) > 1e-12 {
		t.Fatalf("value: got %g want %g", v, want)
	}

	if v := pen.Value(u[:2], 1); v != 0 {
		t.Fatalf("single frame: got %g want 0", v)
	}

	if v := (Temporal{}).Value(u, 3); v != 0 {
		t.Fatalf("zero weight: got %g want 0", v)
	}
}

func TestTemporalGradientMatchesFiniteDifferences(t *testing.T) {
	u := []float64{0.3, -0.2, 1.1, 0.4, -0.5, 2.0, 0.1, 0.9}
	pen := Temporal{W: 1.5}

	grad := make([]float64, len(u))
	pen.AddGradient(grad, u, 4)

	const h = 1e-6

	for i := range u {
		u[i] += h
		fp := pen.Value(u, 4)
		u[i] -= 2 * h
		fm := pen.Value(u, 4)
		u[i] += h

		fd := (fp - fm) / (2 * h)
		if math.Abs(grad[i]-fd) > 1e-6 {
			t.Fatalf("gradient entry %d: got %g finite difference %g", i, grad[i], fd)
		}
	}
}

func TestTemporalCouplingIsHalfGradient(t *testing.T) {
	// AddCoupling applies w·DᵀD, AddGradient applies 2w·DᵀD.
	u := []float64{1, 4, 2, -1, 0, 3}
	pen := Temporal{W: 2}

	grad := make([]float64, len(u))
	coup := make([]float64, len(u))

	pen.AddGradient(grad, u, 3)
	pen.AddCoupling(coup, u, 3)

	for i := range grad {
		if math.Abs(grad[i]-2*coup[i]) > 1e-12 {
			t.Fatalf("entry %d: gradient %g coupling %g", i, grad[i], coup[i])
		}
	}
}

func TestTemporalCouplingPattern(t *testing.T) {
	// Single scalar per frame, three frames: DᵀD is [[1,-1,0],[-1,2,-1],[0,-1,1]].
	pen := Temporal{W: 1}

	for j := 0; j < 3; j++ {
		e := make([]float64, 3)
		e[j] = 1

		dst := make([]float64, 3)
		pen.AddCoupling(dst, e, 3)

		want := [3][3]float64{
			{1, -1, 0},
			{-1, 2, -1},
			{0, -1, 1},
		}

		for i := 0; i < 3; i++ {
			if math.Abs(dst[i]-want[i][j]) > 1e-12 {
				t.Fatalf("column %d row %d: got %g want %g", j, i, dst[i], want[i][j])
			}
		}
	}
}
