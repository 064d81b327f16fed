package refine

import (
	"errors"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-register/grid"
	"github.com/cwbudde/algo-register/hessian"
	"github.com/cwbudde/algo-register/mismatch"
	"github.com/cwbudde/algo-register/penalty"
	"github.com/cwbudde/algo-register/solve"
)

// Errors returned by the optimization core on invalid configuration.
var (
	ErrNilPenalty      = errors.New("refine: penalty evaluator must be non-nil")
	ErrNoFrames        = errors.New("refine: sequence needs at least one frame")
	ErrNegativeLambda  = errors.New("refine: temporal weight must be non-negative")
	ErrSurrogates      = errors.New("refine: surrogate count does not match grid nodes")
	ErrNilSurrogate    = errors.New("refine: surrogate must be non-nil")
	ErrFrameSurrogates = errors.New("refine: surrogate frame count does not match sequence")
)

// InitialField computes the globally optimal displacement field of the
// quadratic model Σ(u_i−c_i)ᵀQ_i(u_i−c_i) + λ·Reg(u). At λ=0 the solution
// is u_i = c_i in closed form; otherwise the right-hand side Q_i·c_i is
// solved against the matrix-free Hessian operator by conjugate gradient,
// capped at the operator dimension. The flag reports convergence.
func InitialField(g *grid.Grid, fits []mismatch.Fit, pen penalty.Evaluator, opts ...Option) (*grid.Field, bool, error) {
	if pen == nil {
		return nil, false, ErrNilPenalty
	}

	if err := mismatch.CheckFits(g, fits); err != nil {
		return nil, false, err
	}

	if pen.Weight() == 0 {
		return closedForm(g, fits), true, nil
	}

	op, err := hessian.NewQuadratic(g, pen, fits, nil)
	if err != nil {
		return nil, false, err
	}

	b := rightHandSide(g, fits)
	if vecmath.MaxAbs(b) == 0 {
		// A zero right-hand side has the zero field as exact solution;
		// solving it iteratively is a known instability, so short-circuit.
		return grid.NewField(g), true, nil
	}

	cfg := ApplyOptions(opts...)

	x, converged, err := solveCG(op, b, cfg.CGTol)
	if err != nil {
		return nil, false, err
	}

	f, err := grid.NewFieldFrom(g, x)
	if err != nil {
		return nil, false, err
	}

	return f, converged, nil
}

// InitialSequence is the sequence variant: per-frame quadratic models plus
// the λt-weighted temporal roughness coupling.
func InitialSequence(g *grid.Grid, fits [][]mismatch.Fit, pen penalty.Evaluator, lambdaT float64, opts ...Option) (*grid.Sequence, bool, error) {
	if pen == nil {
		return nil, false, ErrNilPenalty
	}

	if len(fits) == 0 {
		return nil, false, ErrNoFrames
	}

	if lambdaT < 0 {
		return nil, false, ErrNegativeLambda
	}

	for _, frame := range fits {
		if err := mismatch.CheckFits(g, frame); err != nil {
			return nil, false, err
		}
	}

	frames := len(fits)
	fl := g.Nodes() * g.Dim()

	if pen.Weight() == 0 && lambdaT == 0 {
		seq, err := grid.NewSequence(g, frames)
		if err != nil {
			return nil, false, err
		}

		for t, frame := range fits {
			copy(seq.Disp()[t*fl:(t+1)*fl], closedForm(g, frame).Disp())
		}

		return seq, true, nil
	}

	ops := make([]*hessian.Quadratic, frames)
	for t, frame := range fits {
		op, err := hessian.NewQuadratic(g, pen, frame, nil)
		if err != nil {
			return nil, false, err
		}

		ops[t] = op
	}

	op, err := hessian.NewTemporal(ops, lambdaT)
	if err != nil {
		return nil, false, err
	}

	b := make([]float64, op.Dim())
	for t, frame := range fits {
		copy(b[t*fl:(t+1)*fl], rightHandSide(g, frame))
	}

	if vecmath.MaxAbs(b) == 0 {
		seq, err := grid.NewSequence(g, frames)
		return seq, true, err
	}

	cfg := ApplyOptions(opts...)

	x, converged, err := solveCG(op, b, cfg.CGTol)
	if err != nil {
		return nil, false, err
	}

	seq, err := grid.NewSequenceFrom(g, frames, x)
	if err != nil {
		return nil, false, err
	}

	return seq, converged, nil
}

// closedForm returns the λ=0 solution u_i = c_i.
func closedForm(g *grid.Grid, fits []mismatch.Fit) *grid.Field {
	f := grid.NewField(g)
	d := g.Dim()

	for i, fit := range fits {
		copy(f.Disp()[i*d:(i+1)*d], fit.C)
	}

	return f
}

// rightHandSide stacks Q_i·c_i over all nodes.
func rightHandSide(g *grid.Grid, fits []mismatch.Fit) []float64 {
	d := g.Dim()
	b := make([]float64, g.Nodes()*d)

	for i, fit := range fits {
		fit.Apply(b[i*d:(i+1)*d], fit.C)
	}

	return b
}

// solveCG runs the matrix-free conjugate gradient capped at the operator
// dimension.
func solveCG(op solve.Operator, b []float64, tol float64) ([]float64, bool, error) {
	return solve.CG(op, b, nil, tol, op.Dim())
}
