package solve

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Status reports how an optimization run terminated.
type Status int

const (
	// StatusLocallyOptimal means the first-order or step tolerance was met.
	StatusLocallyOptimal Status = iota
	// StatusIterationLimit means the iteration cap was reached first.
	StatusIterationLimit
	// StatusStalled means no improving step could be found.
	StatusStalled
)

func (s Status) String() string {
	switch s {
	case StatusLocallyOptimal:
		return "locally optimal"
	case StatusIterationLimit:
		return "iteration limit"
	case StatusStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Problem is an objective with gradient.
type Problem struct {
	// Func returns the objective at x.
	Func func(x []float64) float64
	// Grad writes the gradient at x into dst.
	Grad func(dst, x []float64)
}

// BoxConfig configures MinimizeBox. Zero fields take defaults.
type BoxConfig struct {
	// GradTol is the infinity-norm tolerance on the projected gradient
	// (default 1e-8).
	GradTol float64
	// StepTol is the infinity-norm tolerance on the accepted step
	// (default 1e-12).
	StepTol float64
	// MaxIter caps the number of major iterations (default 200).
	MaxIter int
	// Memory is the number of stored quasi-Newton correction pairs
	// (default 8).
	Memory int
}

// DefaultBoxConfig returns the default solver configuration.
func DefaultBoxConfig() BoxConfig {
	return BoxConfig{
		GradTol: 1e-8,
		StepTol: 1e-12,
		MaxIter: 200,
		Memory:  8,
	}
}

// BoxResult is the outcome of a bound-constrained minimization.
type BoxResult struct {
	X           []float64
	F           float64
	Status      Status
	Iterations  int
	Evaluations int
}

const (
	armijoSlope   = 1e-4
	maxBacktracks = 40
)

// MinimizeBox minimizes p subject to lower ≤ x ≤ upper, starting from x0
// (clamped into the box). Directions come from a limited-memory BFGS model;
// steps follow the gradient-projection path with a backtracking Armijo
// search, as in L-BFGS-B. The best iterate is always returned, with the
// termination status describing how the run ended.
func MinimizeBox(p Problem, x0, lower, upper []float64, cfg BoxConfig) (BoxResult, error) {
	n := len(x0)

	if p.Func == nil || p.Grad == nil {
		return BoxResult{}, ErrNilFunc
	}

	if len(lower) != n || len(upper) != n {
		return BoxResult{}, ErrDimension
	}

	for i := 0; i < n; i++ {
		if lower[i] > upper[i] {
			return BoxResult{}, ErrBounds
		}
	}

	def := DefaultBoxConfig()
	if cfg.GradTol <= 0 {
		cfg.GradTol = def.GradTol
	}

	if cfg.StepTol <= 0 {
		cfg.StepTol = def.StepTol
	}

	if cfg.MaxIter <= 0 {
		cfg.MaxIter = def.MaxIter
	}

	if cfg.Memory <= 0 {
		cfg.Memory = def.Memory
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = clamp(x0[i], lower[i], upper[i])
	}

	g := make([]float64, n)
	gNew := make([]float64, n)
	d := make([]float64, n)
	trial := make([]float64, n)

	f := p.Func(x)
	p.Grad(g, x)
	evals := 1

	hist := newLBFGSHistory(n, cfg.Memory)

	res := BoxResult{X: x, F: f}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		res.Iterations = iter
		res.Evaluations = evals

		// Projected gradient: x − proj(x − g). Zero within tolerance means
		// first-order stationarity on the box.
		var maxPG float64

		for i := 0; i < n; i++ {
			pg := x[i] - clamp(x[i]-g[i], lower[i], upper[i])
			if a := math.Abs(pg); a > maxPG {
				maxPG = a
			}
		}

		if maxPG <= cfg.GradTol {
			res.F = f
			return res, nil
		}

		hist.direction(d, g)
		if vecmath.DotProduct(d, g) >= 0 {
			// Model direction is not a descent direction; restart from
			// steepest descent.
			hist.reset()

			for i := range d {
				d[i] = -g[i]
			}
		}

		// Backtracking Armijo search along the projected path.
		alpha := 1.0
		accepted := false

		var ft, dirDeriv float64

		for ls := 0; ls < maxBacktracks; ls++ {
			dirDeriv = 0

			for i := 0; i < n; i++ {
				trial[i] = clamp(x[i]+alpha*d[i], lower[i], upper[i])
				dirDeriv += g[i] * (trial[i] - x[i])
			}

			if dirDeriv >= 0 {
				alpha *= 0.5
				continue
			}

			ft = p.Func(trial)
			evals++

			if ft <= f+armijoSlope*dirDeriv {
				accepted = true
				break
			}

			alpha *= 0.5
		}

		if !accepted {
			res.F = f
			res.Status = StatusStalled
			res.Evaluations = evals

			return res, nil
		}

		p.Grad(gNew, trial)

		var stepMax float64

		for i := 0; i < n; i++ {
			if a := math.Abs(trial[i] - x[i]); a > stepMax {
				stepMax = a
			}
		}

		hist.push(x, trial, g, gNew)

		copy(x, trial)
		copy(g, gNew)
		f = ft

		if stepMax <= cfg.StepTol {
			res.F = f
			res.Iterations = iter + 1
			res.Evaluations = evals

			return res, nil
		}
	}

	res.F = f
	res.Status = StatusIterationLimit
	res.Iterations = cfg.MaxIter
	res.Evaluations = evals

	return res, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// lbfgsHistory stores the last Memory correction pairs and produces
// quasi-Newton directions by the standard two-loop recursion.
type lbfgsHistory struct {
	s     [][]float64
	y     [][]float64
	rho   []float64
	alpha []float64

	n      int
	stored int
	head   int
}

func newLBFGSHistory(n, memory int) *lbfgsHistory {
	h := &lbfgsHistory{
		s:     make([][]float64, memory),
		y:     make([][]float64, memory),
		rho:   make([]float64, memory),
		alpha: make([]float64, memory),
		n:     n,
	}

	for i := 0; i < memory; i++ {
		h.s[i] = make([]float64, n)
		h.y[i] = make([]float64, n)
	}

	return h
}

func (h *lbfgsHistory) reset() {
	h.stored = 0
	h.head = 0
}

// push records the correction pair (xNew−x, gNew−g), skipping pairs with
// non-positive curvature, which would break the BFGS update.
func (h *lbfgsHistory) push(x, xNew, g, gNew []float64) {
	s := h.s[h.head]
	y := h.y[h.head]

	var sy, ss, yy float64

	for i := 0; i < h.n; i++ {
		s[i] = xNew[i] - x[i]
		y[i] = gNew[i] - g[i]
		sy += s[i] * y[i]
		ss += s[i] * s[i]
		yy += y[i] * y[i]
	}

	if sy <= 1e-10*math.Sqrt(ss*yy) {
		return
	}

	h.rho[h.head] = 1 / sy
	h.head = (h.head + 1) % len(h.s)

	if h.stored < len(h.s) {
		h.stored++
	}
}

// direction writes d = −H·g using the two-loop recursion, falling back to
// steepest descent with an empty history.
func (h *lbfgsHistory) direction(d, g []float64) {
	copy(d, g)

	if h.stored == 0 {
		for i := range d {
			d[i] = -d[i]
		}

		return
	}

	m := len(h.s)

	for k := 0; k < h.stored; k++ {
		idx := (h.head - 1 - k + m*2) % m
		a := h.rho[idx] * vecmath.DotProduct(h.s[idx], d)
		h.alpha[idx] = a

		for i := 0; i < h.n; i++ {
			d[i] -= a * h.y[idx][i]
		}
	}

	newest := (h.head - 1 + m) % m
	gamma := 1 / (h.rho[newest] * vecmath.DotProduct(h.y[newest], h.y[newest]))
	vecmath.ScaleBlockInPlace(d, gamma)

	for k := h.stored - 1; k >= 0; k-- {
		idx := (h.head - 1 - k + m*2) % m
		beta := h.rho[idx] * vecmath.DotProduct(h.y[idx], d)

		for i := 0; i < h.n; i++ {
			d[i] += (h.alpha[idx] - beta) * h.s[idx][i]
		}
	}

	for i := range d {
		d[i] = -d[i]
	}
}
