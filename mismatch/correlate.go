package mismatch

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// CorrelateBlocks fabricates a TableSurface for one aperture pair by FFT
// cross-correlation of two equal-sized sample blocks. The tabulated mismatch
// is the energy-normalized sum of squared differences at each integer lag
// within ±half pixels per axis:
//
//	num(s) = E_fixed + E_moving − 2·Σ moving(y,x)·fixed(y+s_y, x+s_x)
//	den(s) = E_fixed + E_moving
//
// so shifts where the blocks agree score near zero and the denominator
// threshold guards near-silent apertures (+Inf, never NaN).
func CorrelateBlocks(fixed, moving [][]float64, half int, minEnergy float64) (*TableSurface, error) {
	rows := len(fixed)
	if rows == 0 || len(moving) != rows {
		return nil, ErrBlockShape
	}

	cols := len(fixed[0])
	if cols == 0 {
		return nil, ErrBlockShape
	}

	for y := 0; y < rows; y++ {
		if len(fixed[y]) != cols || len(moving[y]) != cols {
			return nil, ErrBlockShape
		}
	}

	if half < 1 {
		return nil, ErrTableDim
	}

	if minEnergy <= 0 {
		return nil, ErrMinEnergy
	}

	pr := nextPowerOf2(rows + 2*half)
	pc := nextPowerOf2(cols + 2*half)

	a := make([]complex128, pr*pc)
	b := make([]complex128, pr*pc)

	var ef, em float64

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			f := fixed[y][x]
			m := moving[y][x]

			ef += f * f
			em += m * m

			a[y*pc+x] = complex(f, 0)
			b[y*pc+x] = complex(m, 0)
		}
	}

	rowPlan, err := algofft.NewPlan64(pc)
	if err != nil {
		return nil, fmt.Errorf("mismatch: row FFT plan: %w", err)
	}

	colPlan, err := algofft.NewPlan64(pr)
	if err != nil {
		return nil, fmt.Errorf("mismatch: column FFT plan: %w", err)
	}

	if err := fft2(rowPlan, colPlan, a, pr, pc, false); err != nil {
		return nil, err
	}

	if err := fft2(rowPlan, colPlan, b, pr, pc, false); err != nil {
		return nil, err
	}

	// Correlation theorem: IFFT(A·conj(B)) holds the circular correlation
	// c(s) = Σ moving(p)·fixed(p+s) at index s mod padded size.
	for i := range a {
		re := real(a[i])*real(b[i]) + imag(a[i])*imag(b[i])
		im := imag(a[i])*real(b[i]) - real(a[i])*imag(b[i])
		a[i] = complex(re, im)
	}

	if err := fft2(rowPlan, colPlan, a, pr, pc, true); err != nil {
		return nil, err
	}

	size := 2*half + 1
	num := make([]float64, size*size)
	den := make([]float64, size*size)

	total := ef + em

	for iy := 0; iy < size; iy++ {
		ly := (iy - half + pr) % pr

		for ix := 0; ix < size; ix++ {
			lx := (ix - half + pc) % pc

			num[iy*size+ix] = total - 2*real(a[ly*pc+lx])
			den[iy*size+ix] = total
		}
	}

	return NewTableSurface(2, half, num, den, minEnergy)
}

// fft2 applies a separable 2-D transform in place: rows first, then columns.
func fft2(rowPlan, colPlan *algofft.Plan[complex128], data []complex128, rows, cols int, inverse bool) error {
	transform := rowPlan.Forward
	if inverse {
		transform = rowPlan.Inverse
	}

	for y := 0; y < rows; y++ {
		row := data[y*cols : (y+1)*cols]
		if err := transform(row, row); err != nil {
			return fmt.Errorf("mismatch: row FFT: %w", err)
		}
	}

	transform = colPlan.Forward
	if inverse {
		transform = colPlan.Inverse
	}

	col := make([]complex128, rows)

	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			col[y] = data[y*cols+x]
		}

		if err := transform(col, col); err != nil {
			return fmt.Errorf("mismatch: column FFT: %w", err)
		}

		for y := 0; y < rows; y++ {
			data[y*cols+x] = col[y]
		}
	}

	return nil
}

// nextPowerOf2 returns the smallest power of two >= n.
func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
