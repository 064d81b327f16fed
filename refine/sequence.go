package refine

import (
	"github.com/cwbudde/algo-register/grid"
	"github.com/cwbudde/algo-register/mismatch"
	"github.com/cwbudde/algo-register/penalty"
	"github.com/cwbudde/algo-register/solve"
)

// Sequence refines a deformation sequence in place against per-frame
// mismatch surrogates, adding a λt-weighted temporal roughness term over
// consecutive frames. The objective is smooth regardless of the surrogates'
// order, so the bound-constrained quasi-Newton solver always runs; a
// piecewise-linear surface simply contributes its interpolated gradient.
func Sequence(seq *grid.Sequence, pen penalty.Evaluator, surr [][]mismatch.Surrogate, lambdaT float64, opts ...Option) (Result, error) {
	if pen == nil {
		return Result{}, ErrNilPenalty
	}

	if lambdaT < 0 {
		return Result{}, ErrNegativeLambda
	}

	g := seq.Grid()
	frames := seq.Frames()

	if len(surr) != frames {
		return Result{}, ErrFrameSurrogates
	}

	for _, frame := range surr {
		if err := checkSurrogates(g, frame); err != nil {
			return Result{}, err
		}
	}

	cfg := ApplyOptions(opts...)

	n := g.Nodes()
	dim := g.Dim()
	fl := n * dim

	coupling := penalty.Temporal{W: lambdaT}

	value := func(u []float64) float64 {
		v := coupling.Value(u, frames)

		s := make([]float64, dim)

		for t := 0; t < frames; t++ {
			ut := u[t*fl : (t+1)*fl]
			v += pen.Value(ut)

			for i := 0; i < n; i++ {
				copy(s, ut[i*dim:(i+1)*dim])
				v += surr[t][i].Value(s)
			}
		}

		return v
	}

	gradient := func(dst, u []float64) {
		s := make([]float64, dim)
		gs := make([]float64, dim)

		for t := 0; t < frames; t++ {
			ut := u[t*fl : (t+1)*fl]
			dt := dst[t*fl : (t+1)*fl]

			pen.Gradient(dt, ut)

			for i := 0; i < n; i++ {
				copy(s, ut[i*dim:(i+1)*dim])
				surr[t][i].Gradient(gs, s)

				di := dt[i*dim : (i+1)*dim]
				for d := 0; d < dim; d++ {
					di[d] += gs[d]
				}
			}
		}

		coupling.AddGradient(dst, u, frames)
	}

	lower := make([]float64, frames*fl)
	upper := make([]float64, frames*fl)

	for t, frame := range surr {
		lo, hi := bounds(frame, dim)
		copy(lower[t*fl:(t+1)*fl], lo)
		copy(upper[t*fl:(t+1)*fl], hi)
	}

	start := value(seq.Disp())

	res, err := solve.MinimizeBox(
		solve.Problem{Func: value, Grad: gradient},
		seq.Disp(), lower, upper,
		solve.BoxConfig{
			GradTol: cfg.GradTol,
			StepTol: cfg.StepTol,
			MaxIter: cfg.MaxIter,
			Memory:  cfg.Memory,
		},
	)
	if err != nil {
		return Result{}, err
	}

	copy(seq.Disp(), res.X)

	return Result{Start: start, Final: res.F, Status: res.Status, Iterations: res.Iterations}, nil
}
