package grid

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

// Field is a displacement field over a grid: one displacement vector per
// node, stored node-major in a flat slice of length Nodes()*Dim().
type Field struct {
	g    *Grid
	disp []float64
}

// NewField creates a zero (identity) displacement field.
func NewField(g *Grid) *Field {
	return &Field{g: g, disp: make([]float64, g.Nodes()*g.Dim())}
}

// NewFieldFrom wraps an existing flat displacement slice. The slice is not
// copied; refinement mutates it in place.
func NewFieldFrom(g *Grid, disp []float64) (*Field, error) {
	if len(disp) != g.Nodes()*g.Dim() {
		return nil, ErrShape
	}

	return &Field{g: g, disp: disp}, nil
}

// Grid returns the underlying grid.
func (f *Field) Grid() *Grid { return f.g }

// Disp returns the backing displacement slice (node-major).
func (f *Field) Disp() []float64 { return f.disp }

// At returns the displacement vector of node i as a subslice.
func (f *Field) At(i int) []float64 {
	d := f.g.Dim()
	return f.disp[i*d : (i+1)*d]
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	return &Field{g: f.g, disp: append([]float64(nil), f.disp...)}
}

// MaxAbs returns the largest absolute displacement component.
func (f *Field) MaxAbs() float64 {
	return vecmath.MaxAbs(f.disp)
}

// IsIdentity reports whether every displacement is exactly zero.
func (f *Field) IsIdentity() bool {
	for _, v := range f.disp {
		if v != 0 {
			return false
		}
	}

	return true
}

// Sequence is a time-indexed stack of displacement fields over one grid.
// Frame t occupies disp[t*Nodes()*Dim() : (t+1)*Nodes()*Dim()].
type Sequence struct {
	g      *Grid
	frames int
	disp   []float64
}

// NewSequence creates a zero displacement sequence with the given number of
// time points.
func NewSequence(g *Grid, frames int) (*Sequence, error) {
	if frames < 1 {
		return nil, ErrFrames
	}

	return &Sequence{g: g, frames: frames, disp: make([]float64, frames*g.Nodes()*g.Dim())}, nil
}

// NewSequenceFrom wraps an existing flat slice (frame-major, node-major
// within a frame). The slice is not copied.
func NewSequenceFrom(g *Grid, frames int, disp []float64) (*Sequence, error) {
	if frames < 1 {
		return nil, ErrFrames
	}

	if len(disp) != frames*g.Nodes()*g.Dim() {
		return nil, ErrShape
	}

	return &Sequence{g: g, frames: frames, disp: disp}, nil
}

// Grid returns the underlying grid.
func (s *Sequence) Grid() *Grid { return s.g }

// Frames returns the number of time points.
func (s *Sequence) Frames() int { return s.frames }

// Disp returns the backing slice for all frames.
func (s *Sequence) Disp() []float64 { return s.disp }

// Frame returns a Field view of time point t, sharing backing storage.
func (s *Sequence) Frame(t int) *Field {
	fl := s.g.Nodes() * s.g.Dim()
	return &Field{g: s.g, disp: s.disp[t*fl : (t+1)*fl]}
}

// Clone returns a deep copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	return &Sequence{g: s.g, frames: s.frames, disp: append([]float64(nil), s.disp...)}
}
