package grid

import (
	"sort"
)

// locate finds the lower index of the cell containing x along axis, and the
// fractional position inside that cell. Points outside the axis range use the
// boundary cell, so interpolation extrapolates linearly beyond the grid.
// Axes with a single coordinate report cell 0 with zero fraction.
func locate(axis []float64, x float64) (int, float64) {
	n := len(axis)
	if n == 1 {
		return 0, 0
	}

	i := sort.SearchFloat64s(axis, x) - 1
	if i < 0 {
		i = 0
	}

	if i > n-2 {
		i = n - 2
	}

	return i, (x - axis[i]) / (axis[i+1] - axis[i])
}

// Interp evaluates the field at an arbitrary point p by multilinear
// interpolation and writes the result into dst (length Dim()). If jac is
// non-nil it receives the spatial Jacobian ∂u_d/∂x_a at p, row-major with
// length Dim()*Dim(). Both outputs are valid slightly outside the grid via
// linear extrapolation from the boundary cells.
func (f *Field) Interp(dst, jac, p []float64) {
	g := f.g
	dim := g.Dim()

	lo := make([]int, dim)
	t := make([]float64, dim)
	invH := make([]float64, dim)
	idx := make([]int, dim)

	for a := 0; a < dim; a++ {
		axis := g.coords[a]
		lo[a], t[a] = locate(axis, p[a])

		if len(axis) > 1 {
			invH[a] = 1 / (axis[lo[a]+1] - axis[lo[a]])
		}
	}

	for d := 0; d < dim; d++ {
		dst[d] = 0
	}

	if jac != nil {
		for k := range jac[:dim*dim] {
			jac[k] = 0
		}
	}

	corners := 1 << dim
	for c := 0; c < corners; c++ {
		w := 1.0

		for a := 0; a < dim; a++ {
			hi := lo[a] + 1
			if hi > len(g.coords[a])-1 {
				hi = len(g.coords[a]) - 1
			}

			if c&(1<<a) != 0 {
				idx[a] = hi
				w *= t[a]
			} else {
				idx[a] = lo[a]
				w *= 1 - t[a]
			}
		}

		node := g.Ravel(idx)
		v := f.disp[node*dim : (node+1)*dim]

		for d := 0; d < dim; d++ {
			dst[d] += w * v[d]
		}

		if jac == nil {
			continue
		}

		for a := 0; a < dim; a++ {
			dw := invH[a]
			if c&(1<<a) == 0 {
				dw = -dw
			}

			for b := 0; b < dim; b++ {
				if b == a {
					continue
				}

				if c&(1<<b) != 0 {
					dw *= t[b]
				} else {
					dw *= 1 - t[b]
				}
			}

			for d := 0; d < dim; d++ {
				jac[d*dim+a] += dw * v[d]
			}
		}
	}
}
