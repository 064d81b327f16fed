package refine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-register/grid"
	"github.com/cwbudde/algo-register/mismatch"
	"github.com/cwbudde/algo-register/penalty"
	"github.com/cwbudde/algo-register/solve"
)

// Result reports a refinement run. Start and Final are the penalty before
// and after; a caller that observes Final >= Start decides how to retry —
// the optimizer never retries on its own, to keep the primitive composable.
type Result struct {
	Start      float64
	Final      float64
	Status     solve.Status
	Iterations int
}

// boundMargin is the half-pixel safety margin subtracted from each
// aperture's maximum shift.
const boundMargin = 0.5

// Field refines a displacement field against its per-node mismatch
// surrogates, mutating phi in place. prior is the optional fixed deformation
// the correction composes with. The regime follows the surrogates'
// interpolation order: if every surface has a continuous gradient the
// bound-constrained quasi-Newton solver runs; otherwise subgradient descent
// with a strict-decrease accept/reject step.
func Field(phi *grid.Field, prior *grid.Field, pen penalty.Evaluator, surr []mismatch.Surrogate, opts ...Option) (Result, error) {
	if pen == nil {
		return Result{}, ErrNilPenalty
	}

	g := phi.Grid()

	if err := checkSurrogates(g, surr); err != nil {
		return Result{}, err
	}

	if prior != nil && prior.IsIdentity() {
		prior = nil
	}

	cfg := ApplyOptions(opts...)

	n := g.Nodes()
	dim := g.Dim()

	lower, upper := bounds(surr, dim)

	value := func(u []float64) float64 {
		v := penaltyValue(pen, prior, u)

		s := make([]float64, dim)
		for i := 0; i < n; i++ {
			copy(s, u[i*dim:(i+1)*dim])
			v += surr[i].Value(s)
		}

		return v
	}

	gradient := func(dst, u []float64) {
		penaltyGradient(pen, prior, dst, u)

		s := make([]float64, dim)
		gs := make([]float64, dim)

		for i := 0; i < n; i++ {
			copy(s, u[i*dim:(i+1)*dim])
			surr[i].Gradient(gs, s)

			di := dst[i*dim : (i+1)*dim]
			for d := 0; d < dim; d++ {
				di[d] += gs[d]
			}
		}
	}

	start := value(phi.Disp())

	smooth := true
	for _, s := range surr {
		if !s.Order().Smooth() {
			smooth = false
			break
		}
	}

	if smooth {
		res, err := solve.MinimizeBox(
			solve.Problem{Func: value, Grad: gradient},
			phi.Disp(), lower, upper,
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

		copy(phi.Disp(), res.X)

		return Result{Start: start, Final: res.F, Status: res.Status, Iterations: res.Iterations}, nil
	}

	return subgradient(phi.Disp(), value, gradient, lower, upper, start, cfg), nil
}

// subgradient runs the non-smooth accept/reject descent: a trial step of
// cfg.Step pixels along the normalized subgradient, clamped to the box, is
// accepted only on strict decrease; any other outcome stops the loop. The
// safety cap is reported as an iteration-limit status.
func subgradient(u []float64, value func([]float64) float64, gradient func(dst, u []float64), lower, upper []float64, start float64, cfg Config) Result {
	res := Result{Start: start, Final: start}

	g := make([]float64, len(u))
	trial := make([]float64, len(u))

	f := start

	for it := 0; it < cfg.SubgradCap; it++ {
		gradient(g, u)

		var maxG float64

		finite := true
		for _, gi := range g {
			if math.IsNaN(gi) || math.IsInf(gi, 0) {
				finite = false
				break
			}

			if a := math.Abs(gi); a > maxG {
				maxG = a
			}
		}

		if !finite {
			res.Status = solve.StatusStalled
			res.Final = f

			return res
		}

		if maxG == 0 {
			res.Status = solve.StatusLocallyOptimal
			res.Final = f

			return res
		}

		scale := cfg.Step / maxG
		for i := range u {
			trial[i] = clampTo(u[i]-scale*g[i], lower[i], upper[i])
		}

		ft := value(trial)
		if !(ft < f) {
			res.Status = solve.StatusLocallyOptimal
			res.Final = f

			return res
		}

		copy(u, trial)
		f = ft
		res.Iterations = it + 1
	}

	res.Status = solve.StatusIterationLimit
	res.Final = f

	return res
}

// penaltyValue evaluates the regularization, composing with the prior
// deformation when one is present.
func penaltyValue(pen penalty.Evaluator, prior *grid.Field, u []float64) float64 {
	if prior == nil {
		return pen.Value(u)
	}

	comp, err := grid.Compose(prior, u)
	if err != nil {
		panic("refine: " + err.Error())
	}

	return pen.Value(comp.Disp)
}

// penaltyGradient writes the regularization gradient, chained through the
// prior composition when one is present.
func penaltyGradient(pen penalty.Evaluator, prior *grid.Field, dst, u []float64) {
	if prior == nil {
		pen.Gradient(dst, u)
		return
	}

	comp, err := grid.Compose(prior, u)
	if err != nil {
		panic("refine: " + err.Error())
	}

	pen.Gradient(dst, comp.Disp)
	comp.ChainGradient(dst, dst)
}

// bounds builds the per-variable box: each aperture's maximum shift minus
// the half-pixel safety margin, floored at zero.
func bounds(surr []mismatch.Surrogate, dim int) (lower, upper []float64) {
	lower = make([]float64, len(surr)*dim)
	upper = make([]float64, len(surr)*dim)

	for i, s := range surr {
		b := s.MaxShift() - boundMargin
		if b < 0 {
			b = 0
		}

		for d := 0; d < dim; d++ {
			lower[i*dim+d] = -b
			upper[i*dim+d] = b
		}
	}

	return lower, upper
}

func checkSurrogates(g *grid.Grid, surr []mismatch.Surrogate) error {
	if len(surr) != g.Nodes() {
		return fmt.Errorf("%w: %d surrogates for %d nodes", ErrSurrogates, len(surr), g.Nodes())
	}

	for i, s := range surr {
		if s == nil {
			return fmt.Errorf("%w (node %d)", ErrNilSurrogate, i)
		}
	}

	return nil
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
