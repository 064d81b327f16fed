package hessian

import (
	"math"

	"github.com/cwbudde/algo-register/grid"
	"github.com/cwbudde/algo-register/mismatch"
	"github.com/cwbudde/algo-register/penalty"
)

// Quadratic is the matrix-free spatial Hessian operator: regularization
// curvature plus block-diagonal local curvatures plus a stabilizer.
// Construct with NewQuadratic; Apply panics on a dimension mismatch, which
// is a configuration error and is rejected before any arithmetic.
type Quadratic struct {
	g     *grid.Grid
	pen   penalty.Evaluator
	fits  []mismatch.Fit
	prior *grid.Field

	fac float64
	dim int
}

// NewQuadratic builds the operator for one frame. prior is the optional
// fixed deformation ϕ_old the correction composes with; a nil or identity
// prior disables composition. The fits are validated against the grid before
// any numeric work.
func NewQuadratic(g *grid.Grid, pen penalty.Evaluator, fits []mismatch.Fit, prior *grid.Field) (*Quadratic, error) {
	if err := mismatch.CheckFits(g, fits); err != nil {
		return nil, err
	}

	if prior != nil && prior.IsIdentity() {
		prior = nil
	}

	q := &Quadratic{
		g:     g,
		pen:   pen,
		fits:  fits,
		prior: prior,
		dim:   g.Nodes() * g.Dim(),
	}

	// Stabilizer: cbrt(machine epsilon) times the mean curvature trace. The
	// mean term is replaced by 1 when the trace sum is exactly zero, so the
	// operator never degenerates when the weight and all Q_i vanish together.
	var traceSum float64
	for _, f := range fits {
		traceSum += f.Trace()
	}

	mean := traceSum / float64(g.Nodes())
	if traceSum == 0 {
		mean = 1
	}

	q.fac = math.Cbrt(machEps) * mean

	return q, nil
}

// machEps is the double-precision machine epsilon.
const machEps = 0x1p-52

// Dim returns the flattened unknown count: spatial dimension × node count.
func (q *Quadratic) Dim() int { return q.dim }

// Stabilizer returns the diagonal stabilizer fac.
func (q *Quadratic) Stabilizer() float64 { return q.fac }

// Apply computes H·v into dst without forming a matrix. dst and v must both
// have length Dim() and must not alias.
func (q *Quadratic) Apply(dst, v []float64) {
	if len(v) != q.dim || len(dst) != q.dim {
		panic("hessian: vector length does not match operator dimension")
	}

	// Regularization curvature: gradient of the penalty at the weight
	// rescaled by nodeCount/2, which cancels the 2/n normalization of the
	// evaluator and yields the pure second-order action w·(I−P)v. With a
	// prior deformation the penalty is taken on the composition and the
	// gradient chained back through the composition Jacobians.
	w := q.pen.Weight() * float64(q.g.Nodes()) / 2

	if q.prior == nil {
		q.pen.GradientWithWeight(dst, v, w)
	} else {
		comp, err := grid.Compose(q.prior, v)
		if err != nil {
			panic("hessian: " + err.Error())
		}

		q.pen.GradientWithWeight(dst, comp.Disp, w)
		comp.ChainGradient(dst, dst)
	}

	// Local curvature blocks and stabilizer.
	d := q.g.Dim()
	qv := make([]float64, d)

	for i, f := range q.fits {
		vi := v[i*d : (i+1)*d]
		f.Apply(qv, vi)

		di := dst[i*d : (i+1)*d]
		for k := 0; k < d; k++ {
			di[k] += qv[k] + q.fac*vi[k]
		}
	}
}
