package mismatch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-register/grid"
)

// Errors returned by fit and surrogate validation.
var (
	ErrFitCount   = errors.New("mismatch: fit count does not match grid nodes")
	ErrFitDim     = errors.New("mismatch: curvature dimension does not match grid")
	ErrFitShape   = errors.New("mismatch: c length does not match Q dimension")
	ErrNilQ       = errors.New("mismatch: curvature matrix is nil")
	ErrMaxShift   = errors.New("mismatch: max shift must be positive")
	ErrTableShape = errors.New("mismatch: table length does not match lag grid")
	ErrTableDim   = errors.New("mismatch: table needs at least one axis and one lag")
	ErrMinEnergy  = errors.New("mismatch: energy threshold must be positive")
	ErrBlockShape = errors.New("mismatch: aperture blocks must be equal-sized rectangles")
)

// Fit is the local quadratic model of one aperture: curvature Q (symmetric
// positive-semidefinite) and the mismatch-minimizing displacement c.
type Fit struct {
	C []float64
	Q *mat.SymDense
}

// Dim returns the shift dimension of the fit.
func (f Fit) Dim() int {
	if f.Q == nil {
		return len(f.C)
	}

	return f.Q.SymmetricDim()
}

// Check validates the fit against a shift dimension.
func (f Fit) Check(dim int) error {
	if f.Q == nil {
		return ErrNilQ
	}

	if f.Q.SymmetricDim() != dim {
		return ErrFitDim
	}

	if len(f.C) != f.Q.SymmetricDim() {
		return ErrFitShape
	}

	return nil
}

// Apply writes Q·v into dst. dst and v must not alias.
func (f Fit) Apply(dst, v []float64) {
	d := f.Q.SymmetricDim()

	for i := 0; i < d; i++ {
		var s float64
		for j := 0; j < d; j++ {
			s += f.Q.At(i, j) * v[j]
		}

		dst[i] = s
	}
}

// Trace returns the trace of the curvature matrix.
func (f Fit) Trace() float64 {
	var t float64
	for i := 0; i < f.Q.SymmetricDim(); i++ {
		t += f.Q.At(i, i)
	}

	return t
}

// CheckFits validates a per-node fit slice against a grid: one fit per node,
// every curvature of grid dimension, every c matching its Q. This is the
// configuration check run before any numeric work.
func CheckFits(g *grid.Grid, fits []Fit) error {
	if len(fits) != g.Nodes() {
		return fmt.Errorf("%w: %d fits for %d nodes", ErrFitCount, len(fits), g.Nodes())
	}

	for i, f := range fits {
		if err := f.Check(g.Dim()); err != nil {
			return fmt.Errorf("%w (node %d)", err, i)
		}
	}

	return nil
}
