package grid

import (
	"errors"
	"fmt"
)

// Errors returned by grid construction and field wrapping.
var (
	ErrNoAxes    = errors.New("grid: need at least one coordinate axis")
	ErrEmptyAxis = errors.New("grid: coordinate axis is empty")
	ErrAxisOrder = errors.New("grid: axis coordinates must be strictly ascending")
	ErrShape     = errors.New("grid: displacement length does not match grid")
	ErrFrames    = errors.New("grid: sequence needs at least one frame")
)

// Grid is a fixed rectilinear node grid, defined by one strictly ascending
// coordinate sequence per spatial axis. The node count is the product of the
// per-axis lengths.
type Grid struct {
	coords [][]float64
	shape  []int
	nodes  int
}

// New creates a grid from per-axis coordinate sequences.
func New(coords ...[]float64) (*Grid, error) {
	if len(coords) == 0 {
		return nil, ErrNoAxes
	}

	g := &Grid{
		coords: make([][]float64, len(coords)),
		shape:  make([]int, len(coords)),
		nodes:  1,
	}

	for d, axis := range coords {
		if len(axis) == 0 {
			return nil, fmt.Errorf("%w (axis %d)", ErrEmptyAxis, d)
		}

		for i := 1; i < len(axis); i++ {
			if axis[i] <= axis[i-1] {
				return nil, fmt.Errorf("%w (axis %d, index %d)", ErrAxisOrder, d, i)
			}
		}

		g.coords[d] = append([]float64(nil), axis...)
		g.shape[d] = len(axis)
		g.nodes *= len(axis)
	}

	return g, nil
}

// Dim returns the number of spatial axes.
func (g *Grid) Dim() int { return len(g.coords) }

// Nodes returns the total node count.
func (g *Grid) Nodes() int { return g.nodes }

// Shape returns the per-axis node counts.
func (g *Grid) Shape() []int {
	return append([]int(nil), g.shape...)
}

// Axis returns the coordinate sequence of axis d.
func (g *Grid) Axis(d int) []float64 { return g.coords[d] }

// Unravel converts a flat node index into per-axis indices (row-major,
// last axis fastest). dst must have length Dim().
func (g *Grid) Unravel(node int, dst []int) {
	for d := len(g.shape) - 1; d >= 0; d-- {
		dst[d] = node % g.shape[d]
		node /= g.shape[d]
	}
}

// Ravel converts per-axis indices into a flat node index.
func (g *Grid) Ravel(idx []int) int {
	node := 0
	for d, i := range idx {
		node = node*g.shape[d] + i
	}

	return node
}

// Coord writes the spatial coordinates of a node into dst, which must have
// length Dim().
func (g *Grid) Coord(dst []float64, node int) {
	for d := len(g.shape) - 1; d >= 0; d-- {
		dst[d] = g.coords[d][node%g.shape[d]]
		node /= g.shape[d]
	}
}
