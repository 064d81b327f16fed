package hessian

import (
	"gonum.org/v1/gonum/mat"
)

// denseRegularizer is implemented by penalty evaluators that can assemble
// their per-node curvature matrix explicitly.
type denseRegularizer interface {
	HessianDense() *mat.SymDense
}

// Dense assembles the operator as an explicit symmetric matrix from the same
// inputs the matrix-free Apply uses: the penalty's dense curvature expanded
// over displacement components, the Q_i blocks on the diagonal, and the
// stabilizer. Intended for diagnostics and small-problem reference solves;
// cost is O(Dim()²). Operators with a prior deformation fall back to
// column-by-column application.
func (q *Quadratic) Dense() *mat.SymDense {
	h := mat.NewSymDense(q.dim, nil)

	dr, ok := q.pen.(denseRegularizer)
	if !ok || q.prior != nil {
		q.denseByColumns(h)
		return h
	}

	n := q.g.Nodes()
	d := q.g.Dim()

	reg := dr.HessianDense()

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m := reg.At(i, j)
			if m == 0 && i != j {
				continue
			}

			for k := 0; k < d; k++ {
				h.SetSym(i*d+k, j*d+k, m)
			}
		}
	}

	for i := 0; i < n; i++ {
		fit := q.fits[i]

		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				v := h.At(i*d+a, i*d+b) + fit.Q.At(a, b)
				if a == b {
					v += q.fac
				}

				h.SetSym(i*d+a, i*d+b, v)
			}
		}
	}

	return h
}

// denseByColumns fills h by applying the operator to every standard basis
// vector.
func (q *Quadratic) denseByColumns(h *mat.SymDense) {
	e := make([]float64, q.dim)
	col := make([]float64, q.dim)

	for j := 0; j < q.dim; j++ {
		e[j] = 1
		q.Apply(col, e)
		e[j] = 0

		for i := j; i < q.dim; i++ {
			h.SetSym(i, j, col[i])
		}
	}
}

// Dense assembles the coupled operator as an explicit symmetric matrix:
// per-frame dense blocks on the block diagonal plus the λt-weighted
// tridiagonal temporal coupling.
func (t *Temporal) Dense() *mat.SymDense {
	h := mat.NewSymDense(t.dim, nil)

	for k, f := range t.frames {
		block := f.Dense()
		off := k * t.spatial

		for i := 0; i < t.spatial; i++ {
			for j := i; j < t.spatial; j++ {
				h.SetSym(off+i, off+j, block.At(i, j))
			}
		}
	}

	lt := t.coupling.W
	if lt == 0 || len(t.frames) < 2 {
		return h
	}

	last := len(t.frames) - 1

	for k := 0; k <= last; k++ {
		w := 2.0
		if k == 0 || k == last {
			w = 1
		}

		off := k * t.spatial

		for i := 0; i < t.spatial; i++ {
			h.SetSym(off+i, off+i, h.At(off+i, off+i)+lt*w)

			if k < last {
				h.SetSym(off+i, off+t.spatial+i, h.At(off+i, off+t.spatial+i)-lt)
			}
		}
	}

	return h
}
