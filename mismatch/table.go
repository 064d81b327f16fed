package mismatch

import (
	"math"
)

// TableSurface is a mismatch surface tabulated on a symmetric integer lag
// grid with one-pixel spacing: lags −half…+half per axis. The mismatch is
// the ratio of two multilinearly interpolated tables,
//
//	Value(s) = num(s) / den(s)
//
// and returns +Inf where the interpolated denominator falls below the energy
// threshold, so insufficient data never produce NaN. Interpolation is
// linear, hence Order() is OrderLinear and the gradient is defined only
// almost everywhere.
type TableSurface struct {
	dim  int
	half int
	size int // nodes per axis: 2*half+1

	num []float64
	den []float64

	minEnergy float64
}

// NewTableSurface builds a surface over a dim-dimensional lag grid. num and
// den must both have (2*half+1)^dim entries, ordered row-major with the last
// axis varying fastest.
func NewTableSurface(dim, half int, num, den []float64, minEnergy float64) (*TableSurface, error) {
	if dim < 1 || half < 1 {
		return nil, ErrTableDim
	}

	if minEnergy <= 0 {
		return nil, ErrMinEnergy
	}

	size := 2*half + 1

	want := 1
	for d := 0; d < dim; d++ {
		want *= size
	}

	if len(num) != want || len(den) != want {
		return nil, ErrTableShape
	}

	return &TableSurface{
		dim:       dim,
		half:      half,
		size:      size,
		num:       num,
		den:       den,
		minEnergy: minEnergy,
	}, nil
}

// Value returns the interpolated ratio at a shift, or +Inf when the
// interpolated denominator is below the energy threshold.
func (s *TableSurface) Value(shift []float64) float64 {
	num, den, _, _ := s.interp(shift, false)
	if den < s.minEnergy {
		return math.Inf(1)
	}

	return num / den
}

// Gradient writes the almost-everywhere gradient of num/den at a shift into
// dst, by the quotient rule on the interpolated tables. Where the
// denominator is degenerate the gradient entries are NaN.
func (s *TableSurface) Gradient(dst, shift []float64) {
	num, den, gn, gd := s.interp(shift, true)

	if den < s.minEnergy {
		for d := 0; d < s.dim; d++ {
			dst[d] = math.NaN()
		}

		return
	}

	for d := 0; d < s.dim; d++ {
		dst[d] = (gn[d]*den - num*gd[d]) / (den * den)
	}
}

// MaxShift returns the lag half-width in pixels.
func (s *TableSurface) MaxShift() float64 { return float64(s.half) }

// Order returns OrderLinear.
func (s *TableSurface) Order() Order { return OrderLinear }

// interp evaluates both tables (and, when withGrad is set, their gradients)
// at a shift, clamping to the lag range.
func (s *TableSurface) interp(shift []float64, withGrad bool) (num, den float64, gn, gd []float64) {
	dim := s.dim

	lo := make([]int, dim)
	t := make([]float64, dim)
	idx := make([]int, dim)

	for a := 0; a < dim; a++ {
		p := shift[a] + float64(s.half)

		i := int(math.Floor(p))
		if i < 0 {
			i = 0
		}

		if i > s.size-2 {
			i = s.size - 2
		}

		lo[a] = i
		t[a] = p - float64(i)
	}

	if withGrad {
		gn = make([]float64, dim)
		gd = make([]float64, dim)
	}

	corners := 1 << dim
	for c := 0; c < corners; c++ {
		w := 1.0

		for a := 0; a < dim; a++ {
			if c&(1<<a) != 0 {
				idx[a] = lo[a] + 1
				w *= t[a]
			} else {
				idx[a] = lo[a]
				w *= 1 - t[a]
			}
		}

		flat := 0
		for a := 0; a < dim; a++ {
			flat = flat*s.size + idx[a]
		}

		num += w * s.num[flat]
		den += w * s.den[flat]

		if !withGrad {
			continue
		}

		for a := 0; a < dim; a++ {
			dw := 1.0
			if c&(1<<a) == 0 {
				dw = -1
			}

			for b := 0; b < dim; b++ {
				if b == a {
					continue
				}

				if c&(1<<b) != 0 {
					dw *= t[b]
				} else {
					dw *= 1 - t[b]
				}
			}

			gn[a] += dw * s.num[flat]
			gd[a] += dw * s.den[flat]
		}
	}

	return num, den, gn, gd
}
