package mismatch

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestOrderSmooth(t *testing.T) {
	if OrderLinear.Smooth() {
		t.Fatal("linear order must not be smooth")
	}

	if !OrderQuadratic.Smooth() || !OrderCubic.Smooth() {
		t.Fatal("quadratic and cubic orders must be smooth")
	}
}

func TestNewQuadSurfaceValidation(t *testing.T) {
	q := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	fit := Fit{C: []float64{0, 0}, Q: q}

	if _, err := NewQuadSurface(fit, 0); !errors.Is(err, ErrMaxShift) {
		t.Fatalf("zero shift bound: got %v want ErrMaxShift", err)
	}

	if _, err := NewQuadSurface(Fit{C: []float64{0, 0}}, 4); !errors.Is(err, ErrNilQ) {
		t.Fatalf("nil Q: got %v want ErrNilQ", err)
	}
}

func TestQuadSurfaceValueAndGradient(t *testing.T) {
	q := mat.NewSymDense(2, []float64{2, 1, 1, 3})
	fit := Fit{C: []float64{1, -1}, Q: q}

	s, err := NewQuadSurface(fit, 5)
	if err != nil {
		t.Fatalf("NewQuadSurface: %v", err)
	}

	if s.MaxShift() != 5 {
		t.Fatalf("MaxShift: got %g want 5", s.MaxShift())
	}

	if s.Order() != OrderQuadratic {
		t.Fatalf("Order: got %v want quadratic", s.Order())
	}

	// Minimum at c.
	if v := s.Value([]float64{1, -1}); v != 0 {
		t.Fatalf("value at minimum: got %g want 0", v)
	}

	// (s−c) = (1, 2): value = 2+2·2+3·4 = 18, gradient = 2·Q·(1,2) = (8, 14).
	shift := []float64{2, 1}

	if v := s.Value(shift); math.Abs(v-18) > 1e-12 {
		t.Fatalf("value: got %g want 18", v)
	}

	grad := make([]float64, 2)
	s.Gradient(grad, shift)

	if math.Abs(grad[0]-8) > 1e-12 || math.Abs(grad[1]-14) > 1e-12 {
		t.Fatalf("gradient: got %v want [8 14]", grad)
	}
}
