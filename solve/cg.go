package solve

import (
	"errors"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by the solvers on invalid configuration.
var (
	ErrDimension = errors.New("solve: vector length does not match problem dimension")
	ErrBounds    = errors.New("solve: lower bound exceeds upper bound")
	ErrNilFunc   = errors.New("solve: objective and gradient callbacks must be non-nil")
)

// Operator is the matrix-free contract of a symmetric positive-definite
// linear operator: its dimension and its action on a vector.
type Operator interface {
	Dim() int
	// Apply computes dst = H·v. dst and v have length Dim() and do not alias.
	Apply(dst, v []float64)
}

// CG solves op·x = b by conjugate gradient iteration, starting from x0
// (zeros when nil). It stops when the residual norm falls below tol times
// the right-hand-side norm, or after maxIter iterations. The returned flag
// reports convergence; the last iterate is returned either way.
func CG(op Operator, b, x0 []float64, tol float64, maxIter int) ([]float64, bool, error) {
	n := op.Dim()
	if len(b) != n || (x0 != nil && len(x0) != n) {
		return nil, false, ErrDimension
	}

	x := make([]float64, n)
	if x0 != nil {
		copy(x, x0)
	}

	bnorm := math.Sqrt(vecmath.DotProduct(b, b))
	if bnorm == 0 {
		return x, true, nil
	}

	r := make([]float64, n)
	op.Apply(r, x)

	for i := range r {
		r[i] = b[i] - r[i]
	}

	p := append([]float64(nil), r...)
	ap := make([]float64, n)

	rr := vecmath.DotProduct(r, r)
	threshold := tol * bnorm

	for iter := 0; iter < maxIter; iter++ {
		if math.Sqrt(rr) <= threshold {
			return x, true, nil
		}

		op.Apply(ap, p)

		pap := vecmath.DotProduct(p, ap)
		if pap <= 0 {
			// Operator is not positive definite along p; no further
			// progress is possible.
			return x, false, nil
		}

		alpha := rr / pap

		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}

		rrNew := vecmath.DotProduct(r, r)
		beta := rrNew / rr
		rr = rrNew

		for i := range p {
			p[i] = r[i] + beta*p[i]
		}
	}

	return x, math.Sqrt(rr) <= threshold, nil
}
