// Package grid provides the spatial data model for dense registration:
// rectilinear node grids, per-node displacement fields, time sequences of
// fields, multilinear interpolation with gradients, and composition of a
// correction field with a prior deformation.
//
// Displacements are stored node-major in flat float64 slices: the vector of
// node i occupies disp[i*dim : (i+1)*dim]. Node indices are row-major over
// the grid shape with the last axis varying fastest.
//
// Composition follows the warp convention ϕ(x) = x + u(x). Applying a prior
// deformation after a correction u gives the composed displacement
//
//	u∘(x) = u(x) + uOld(x + u(x))
//
// together with the per-node Jacobian ∂u∘/∂u = I + ∇uOld(x + u(x)) needed to
// chain gradients back to the correction. See [Compose] and [Composition].
package grid
