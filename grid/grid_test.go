package grid

import (
	"errors"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(); !errors.Is(err, ErrNoAxes) {
		t.Fatalf("no axes: got %v want ErrNoAxes", err)
	}

	if _, err := New([]float64{0, 1}, nil); !errors.Is(err, ErrEmptyAxis) {
		t.Fatalf("empty axis: got %v want ErrEmptyAxis", err)
	}

	if _, err := New([]float64{0, 1, 1}); !errors.Is(err, ErrAxisOrder) {
		t.Fatalf("repeated coordinate: got %v want ErrAxisOrder", err)
	}

	if _, err := New([]float64{0, 2, 1}); !errors.Is(err, ErrAxisOrder) {
		t.Fatalf("descending coordinate: got %v want ErrAxisOrder", err)
	}
}

func TestGridShape(t *testing.T) {
	g, err := New([]float64{0, 1, 2}, []float64{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if g.Dim() != 2 {
		t.Fatalf("Dim: got %d want 2", g.Dim())
	}

	if g.Nodes() != 12 {
		t.Fatalf("Nodes: got %d want 12", g.Nodes())
	}

	shape := g.Shape()
	if len(shape) != 2 || shape[0] != 3 || shape[1] != 4 {
		t.Fatalf("Shape: got %v want [3 4]", shape)
	}
}

func TestRavelUnravelRoundTrip(t *testing.T) {
	g, err := New([]float64{0, 1, 2}, []float64{0, 1}, []float64{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	idx := make([]int, 3)
	for node := 0; node < g.Nodes(); node++ {
		g.Unravel(node, idx)

		if got := g.Ravel(idx); got != node {
			t.Fatalf("round trip at node %d: got %d (idx %v)", node, got, idx)
		}
	}

	// Last axis varies fastest.
	g.Unravel(1, idx)
	if idx[0] != 0 || idx[1] != 0 || idx[2] != 1 {
		t.Fatalf("Unravel(1): got %v want [0 0 1]", idx)
	}
}

func TestCoord(t *testing.T) {
	g, err := New([]float64{0, 5}, []float64{10, 20, 30})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := make([]float64, 2)

	g.Coord(p, 0)
	if p[0] != 0 || p[1] != 10 {
		t.Fatalf("node 0: got %v want [0 10]", p)
	}

	g.Coord(p, 4)
	if p[0] != 5 || p[1] != 20 {
		t.Fatalf("node 4: got %v want [5 20]", p)
	}
}

func TestAxisCopyIsolation(t *testing.T) {
	axis := []float64{0, 1, 2}

	g, err := New(axis)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	axis[1] = 99
	if g.Axis(0)[1] != 1 {
		t.Fatalf("grid shares caller slice: got %v", g.Axis(0))
	}
}
