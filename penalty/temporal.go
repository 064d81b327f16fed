package penalty

// Temporal is the second-difference roughness penalty coupling a deformation
// sequence across time:
//
//	Value(u) = w · Σ_t ‖u_{t+1} − u_t‖²
//
// for frames u_0 … u_{T−1} stored frame-major in one flat slice. Its Hessian
// is the tridiagonal coupling used by the temporal operator: diagonal weight
// 1 at the two sequence ends, 2 at interior time points, and −1 between
// adjacent frames (free boundary, so a constant temporal offset is free).
type Temporal struct {
	// W is the temporal weight λt (non-negative).
	W float64
}

// Value returns the roughness of a sequence with the given frame count.
// len(u) must be a multiple of frames; a single frame has zero roughness.
func (t Temporal) Value(u []float64, frames int) float64 {
	if frames < 2 || t.W == 0 {
		return 0
	}

	fl := len(u) / frames

	var sum float64

	for k := 0; k < frames-1; k++ {
		a := u[k*fl : (k+1)*fl]
		b := u[(k+1)*fl : (k+2)*fl]

		for i := range a {
			d := b[i] - a[i]
			sum += d * d
		}
	}

	return t.W * sum
}

// AddGradient accumulates the roughness gradient 2w·(DᵀD)u into dst.
func (t Temporal) AddGradient(dst, u []float64, frames int) {
	if frames < 2 || t.W == 0 {
		return
	}

	fl := len(u) / frames

	for k := 0; k < frames-1; k++ {
		a := u[k*fl : (k+1)*fl]
		b := u[(k+1)*fl : (k+2)*fl]

		ga := dst[k*fl : (k+1)*fl]
		gb := dst[(k+1)*fl : (k+2)*fl]

		for i := range a {
			d := 2 * t.W * (b[i] - a[i])
			ga[i] -= d
			gb[i] += d
		}
	}
}

// AddCoupling accumulates w·(DᵀD)v into dst. This is the second-order action
// used by the temporal Hessian operator (no factor 2; the quadratic system is
// assembled with the same half-scaling as the data term).
func (t Temporal) AddCoupling(dst, v []float64, frames int) {
	if frames < 2 || t.W == 0 {
		return
	}

	fl := len(v) / frames

	for k := 0; k < frames-1; k++ {
		a := v[k*fl : (k+1)*fl]
		b := v[(k+1)*fl : (k+2)*fl]

		ga := dst[k*fl : (k+1)*fl]
		gb := dst[(k+1)*fl : (k+2)*fl]

		for i := range a {
			d := t.W * (b[i] - a[i])
			ga[i] -= d
			gb[i] += d
		}
	}
}
