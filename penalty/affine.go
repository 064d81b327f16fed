package penalty

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-register/grid"
)

// Errors returned by penalty constructors and evaluations.
var (
	ErrNegativeWeight = errors.New("penalty: weight must be non-negative")
	ErrShape          = errors.New("penalty: displacement length does not match grid")
)

// Evaluator is the regularization contract consumed by the Hessian operators
// and the refinement optimizers.
type Evaluator interface {
	// Weight returns the regularization weight the evaluator was built with.
	Weight() float64
	// Value returns the penalty of a node-major displacement slice.
	Value(u []float64) float64
	// Gradient writes the penalty gradient at u into dst.
	Gradient(dst, u []float64)
	// GradientWithWeight writes the gradient evaluated as if the evaluator
	// had been built with the given weight. It never mutates the evaluator,
	// so concurrent calls are safe.
	GradientWithWeight(dst, u []float64, weight float64)
}

// AffineResidual is the affine-residual smoothness penalty over a grid.
// The zero value is not usable; construct with NewAffineResidual.
type AffineResidual struct {
	g      *grid.Grid
	weight float64

	basis *mat.Dense // n×k affine basis: constant column plus varying axes
	qr    *mat.QR
	k     int
	full  bool // basis spans all of ℝⁿ; penalty is identically zero
}

// NewAffineResidual builds the penalty for a grid with the given
// non-negative weight. The affine basis uses one constant column plus one
// column per axis with more than one node; degenerate axes contribute no
// basis direction.
func NewAffineResidual(g *grid.Grid, weight float64) (*AffineResidual, error) {
	if weight < 0 {
		return nil, ErrNegativeWeight
	}

	n := g.Nodes()
	dim := g.Dim()

	varying := make([]int, 0, dim)
	for d := 0; d < dim; d++ {
		if len(g.Axis(d)) > 1 {
			varying = append(varying, d)
		}
	}

	k := 1 + len(varying)

	p := &AffineResidual{g: g, weight: weight, k: k}
	if k >= n {
		p.full = true
		return p, nil
	}

	basis := mat.NewDense(n, k, nil)
	x := make([]float64, dim)

	for i := 0; i < n; i++ {
		g.Coord(x, i)
		basis.Set(i, 0, 1)

		for j, d := range varying {
			basis.Set(i, j+1, x[d])
		}
	}

	var qr mat.QR
	qr.Factorize(basis)

	p.basis = basis
	p.qr = &qr

	return p, nil
}

// Weight returns the construction weight.
func (p *AffineResidual) Weight() float64 { return p.weight }

// Value returns (w/n)·Σ_d ‖(I−P)u_d‖². Panics if len(u) does not match the
// grid.
func (p *AffineResidual) Value(u []float64) float64 {
	p.checkLen(u)

	if p.full || p.weight == 0 {
		return 0
	}

	n := p.g.Nodes()
	dim := p.g.Dim()
	comp := make([]float64, n)
	res := make([]float64, n)

	var sum float64

	for d := 0; d < dim; d++ {
		p.component(comp, u, d)
		p.residual(res, comp)

		for _, r := range res {
			sum += r * r
		}
	}

	return p.weight / float64(n) * sum
}

// Gradient writes (2w/n)·(I−P)u into dst.
func (p *AffineResidual) Gradient(dst, u []float64) {
	p.GradientWithWeight(dst, u, p.weight)
}

// GradientWithWeight writes (2W/n)·(I−P)u into dst for an explicit weight W,
// leaving the evaluator untouched.
func (p *AffineResidual) GradientWithWeight(dst, u []float64, weight float64) {
	p.checkLen(u)
	p.checkLen(dst)

	if p.full || weight == 0 {
		for i := range dst {
			dst[i] = 0
		}

		return
	}

	n := p.g.Nodes()
	dim := p.g.Dim()
	scale := 2 * weight / float64(n)

	comp := make([]float64, n)
	res := make([]float64, n)

	for d := 0; d < dim; d++ {
		p.component(comp, u, d)
		p.residual(res, comp)

		for i := 0; i < n; i++ {
			dst[i*dim+d] = scale * res[i]
		}
	}
}

// HessianDense returns the dense n×n per-node curvature matrix w·(I−P), the
// second-order action behind GradientWithWeight at the construction weight.
// Intended for diagnostics and small-problem reference assembly.
func (p *AffineResidual) HessianDense() *mat.SymDense {
	n := p.g.Nodes()
	h := mat.NewSymDense(n, nil)

	if p.full || p.weight == 0 {
		return h
	}

	e := make([]float64, n)
	res := make([]float64, n)

	for j := 0; j < n; j++ {
		e[j] = 1
		p.residual(res, e)
		e[j] = 0

		for i := j; i < n; i++ {
			h.SetSym(i, j, p.weight*res[i])
		}
	}

	return h
}

// component extracts displacement component d of a node-major slice.
func (p *AffineResidual) component(dst, u []float64, d int) {
	dim := p.g.Dim()
	for i := range dst {
		dst[i] = u[i*dim+d]
	}
}

// residual computes (I−P)v for one per-node component v: subtract the
// least-squares affine fit from v.
func (p *AffineResidual) residual(dst, v []float64) {
	n := len(v)

	rhs := mat.NewDense(n, 1, nil)
	for i, vi := range v {
		rhs.Set(i, 0, vi)
	}

	var coef mat.Dense
	if err := p.qr.SolveTo(&coef, false, rhs); err != nil {
		// The basis has full column rank by construction; a singular solve
		// cannot happen for a valid grid.
		panic("penalty: affine basis solve failed: " + err.Error())
	}

	var fit mat.Dense
	fit.Mul(p.basis, &coef)

	for i := 0; i < n; i++ {
		dst[i] = v[i] - fit.At(i, 0)
	}
}

func (p *AffineResidual) checkLen(u []float64) {
	if len(u) != p.g.Nodes()*p.g.Dim() {
		panic("penalty: displacement length does not match grid")
	}
}
