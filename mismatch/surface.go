package mismatch

// Order tags the interpolation order of a mismatch surrogate. It drives the
// refinement regime: smooth orders allow gradient-based bound-constrained
// minimization, linear interpolation requires subgradient descent.
type Order int

const (
	// OrderLinear marks piecewise-multilinear interpolation: the surface is
	// continuous but its gradient is only defined almost everywhere.
	OrderLinear Order = iota + 1
	// OrderQuadratic marks surfaces with a continuous gradient.
	OrderQuadratic
	// OrderCubic marks cubic interpolation (also smooth).
	OrderCubic
)

// Smooth reports whether the order provides a continuous gradient.
func (o Order) Smooth() bool { return o >= OrderQuadratic }

func (o Order) String() string {
	switch o {
	case OrderLinear:
		return "linear"
	case OrderQuadratic:
		return "quadratic"
	case OrderCubic:
		return "cubic"
	default:
		return "unknown"
	}
}

// Surrogate is an interpolatable per-aperture mismatch surface.
type Surrogate interface {
	// Value returns the mismatch at a shift. It may return +Inf where the
	// underlying data are insufficient.
	Value(shift []float64) float64
	// Gradient writes the (sub)gradient at a shift into dst.
	Gradient(dst, shift []float64)
	// MaxShift returns the per-aperture maximum shift bound in pixels.
	MaxShift() float64
	// Order returns the interpolation order tag.
	Order() Order
}

// QuadSurface is the smooth surrogate induced by a local quadratic fit:
//
//	Value(s)    = (s−c)ᵀ Q (s−c)
//	Gradient(s) = 2 Q (s−c)
type QuadSurface struct {
	fit      Fit
	maxShift float64
}

// NewQuadSurface wraps a fit as a smooth surrogate with the given maximum
// shift bound.
func NewQuadSurface(fit Fit, maxShift float64) (*QuadSurface, error) {
	if err := fit.Check(fit.Dim()); err != nil {
		return nil, err
	}

	if maxShift <= 0 {
		return nil, ErrMaxShift
	}

	return &QuadSurface{fit: fit, maxShift: maxShift}, nil
}

// Value returns (s−c)ᵀQ(s−c).
func (q *QuadSurface) Value(shift []float64) float64 {
	d := q.fit.Dim()
	diff := make([]float64, d)
	qd := make([]float64, d)

	for i := 0; i < d; i++ {
		diff[i] = shift[i] - q.fit.C[i]
	}

	q.fit.Apply(qd, diff)

	var s float64
	for i := 0; i < d; i++ {
		s += diff[i] * qd[i]
	}

	return s
}

// Gradient writes 2Q(s−c) into dst.
func (q *QuadSurface) Gradient(dst, shift []float64) {
	d := q.fit.Dim()
	diff := make([]float64, d)

	for i := 0; i < d; i++ {
		diff[i] = shift[i] - q.fit.C[i]
	}

	q.fit.Apply(dst, diff)

	for i := 0; i < d; i++ {
		dst[i] *= 2
	}
}

// MaxShift returns the shift bound.
func (q *QuadSurface) MaxShift() float64 { return q.maxShift }

// Order returns OrderQuadratic.
func (q *QuadSurface) Order() Order { return OrderQuadratic }
