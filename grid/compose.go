package grid

// Composition is the result of applying a prior deformation on top of a
// correction field. It carries both the composed displacements and the
// per-node Jacobian data needed to chain objective gradients from the
// composed field back to the correction.
type Composition struct {
	// Disp is the composed displacement, node-major, length Nodes()*Dim().
	Disp []float64
	// Jac holds one Dim()×Dim() row-major Jacobian per node:
	// ∂(composed displacement at node i)/∂(correction at node i).
	Jac []float64

	dim int
}

// Compose applies the prior deformation after the correction u. At a node
// with coordinates x the composed displacement is
//
//	u∘(x) = u(x) + uOld(x + u(x))
//
// with Jacobian I + ∇uOld(x + u(x)) with respect to u(x). uOld is evaluated
// off-grid by multilinear interpolation.
func Compose(prior *Field, u []float64) (*Composition, error) {
	g := prior.g
	dim := g.Dim()
	n := g.Nodes()

	if len(u) != n*dim {
		return nil, ErrShape
	}

	comp := &Composition{
		Disp: make([]float64, n*dim),
		Jac:  make([]float64, n*dim*dim),
		dim:  dim,
	}

	x := make([]float64, dim)
	p := make([]float64, dim)
	uOld := make([]float64, dim)
	jac := make([]float64, dim*dim)

	for i := 0; i < n; i++ {
		g.Coord(x, i)

		ui := u[i*dim : (i+1)*dim]
		for d := 0; d < dim; d++ {
			p[d] = x[d] + ui[d]
		}

		prior.Interp(uOld, jac, p)

		ci := comp.Disp[i*dim : (i+1)*dim]
		ji := comp.Jac[i*dim*dim : (i+1)*dim*dim]

		for d := 0; d < dim; d++ {
			ci[d] = ui[d] + uOld[d]

			for a := 0; a < dim; a++ {
				ji[d*dim+a] = jac[d*dim+a]
				if d == a {
					ji[d*dim+a]++
				}
			}
		}
	}

	return comp, nil
}

// ChainGradient pulls a gradient g on the composed field back to the
// correction: dst_i = Jac_iᵀ · g_i. dst and g are node-major and may alias.
func (c *Composition) ChainGradient(dst, g []float64) {
	dim := c.dim
	n := len(c.Disp) / dim

	tmp := make([]float64, dim)

	for i := 0; i < n; i++ {
		gi := g[i*dim : (i+1)*dim]
		ji := c.Jac[i*dim*dim : (i+1)*dim*dim]

		for a := 0; a < dim; a++ {
			var s float64
			for d := 0; d < dim; d++ {
				s += ji[d*dim+a] * gi[d]
			}

			tmp[a] = s
		}

		copy(dst[i*dim:(i+1)*dim], tmp)
	}
}
