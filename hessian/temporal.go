package hessian

import (
	"errors"

	"github.com/cwbudde/algo-register/penalty"
)

// Errors returned by operator construction.
var (
	ErrNoFrames       = errors.New("hessian: temporal operator needs at least one frame")
	ErrFrameDim       = errors.New("hessian: frame operators must share one dimension")
	ErrNegativeLambda = errors.New("hessian: temporal weight must be non-negative")
)

// Temporal couples a stack of per-frame Quadratic operators along the time
// axis:
//
//	H·v = [base_t · v_t]_t + λt · (DᵀD) v
//
// where DᵀD is the second-difference coupling with free (Neumann) ends:
// diagonal weight 1 at the two temporal endpoints, 2 at interior time
// points, and −1 between temporally adjacent frames.
type Temporal struct {
	frames   []*Quadratic
	coupling penalty.Temporal

	spatial int
	dim     int
}

// NewTemporal wraps one Quadratic operator per time point with the temporal
// coupling weight λt.
func NewTemporal(frames []*Quadratic, lambdaT float64) (*Temporal, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	if lambdaT < 0 {
		return nil, ErrNegativeLambda
	}

	spatial := frames[0].Dim()
	for _, f := range frames[1:] {
		if f.Dim() != spatial {
			return nil, ErrFrameDim
		}
	}

	return &Temporal{
		frames:   frames,
		coupling: penalty.Temporal{W: lambdaT},
		spatial:  spatial,
		dim:      spatial * len(frames),
	}, nil
}

// Dim returns the flattened unknown count across all time points.
func (t *Temporal) Dim() int { return t.dim }

// Frames returns the number of time points.
func (t *Temporal) Frames() int { return len(t.frames) }

// Apply computes the coupled Hessian–vector product. dst and v must both
// have length Dim() and must not alias.
func (t *Temporal) Apply(dst, v []float64) {
	if len(v) != t.dim || len(dst) != t.dim {
		panic("hessian: vector length does not match operator dimension")
	}

	for k, f := range t.frames {
		f.Apply(dst[k*t.spatial:(k+1)*t.spatial], v[k*t.spatial:(k+1)*t.spatial])
	}

	t.coupling.AddCoupling(dst, v, len(t.frames))
}
