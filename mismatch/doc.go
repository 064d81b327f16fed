// Package mismatch provides the per-aperture mismatch data consumed by the
// deformation optimization core.
//
// A [Fit] is the local quadratic model of one aperture's mismatch-vs-shift
// curve near its minimum: a symmetric positive-semidefinite curvature Q and
// the mismatch-minimizing displacement c, approximating the true mismatch as
//
//	m(u) ≈ (u−c)ᵀ Q (u−c)
//
// A [Surrogate] is an interpolatable mismatch surface with a declared
// maximum-shift bound and an interpolation [Order] tag. The order determines
// which refinement regime applies: quadratic or higher interpolation has a
// continuous gradient and allows smooth bound-constrained minimization, while
// linear interpolation yields a gradient defined only almost everywhere and
// requires subgradient descent.
//
// Two surrogates are provided: [QuadSurface], the smooth surface of a local
// quadratic fit, and [TableSurface], a tabulated numerator/denominator ratio
// surface with linear interpolation. [CorrelateBlocks] fabricates a
// TableSurface from a pair of aperture sample blocks by FFT
// cross-correlation, playing the upstream mismatch producer role.
package mismatch
