// Package penalty provides the regularization evaluators consumed by the
// deformation optimization core.
//
// [AffineResidual] encodes the smoothness prior used for spatial
// regularization: it penalizes only the part of a displacement field that
// cannot be explained by a globally affine deformation. For a grid with n
// nodes and weight w,
//
//	Value(u)    = (w/n) · Σ_d ‖(I−P) u_d‖²
//	Gradient(u) = (2w/n) · (I−P) u
//
// where P is the orthogonal projection of each displacement component onto
// the affine basis {1, x₁, …, x_D}. Any globally affine field (including
// rigid rotations and constant shifts) has zero penalty and zero gradient.
//
// [Temporal] is the second-difference roughness penalty coupling a
// deformation sequence across time points.
//
// Evaluators expose GradientWithWeight so operator code can evaluate the
// gradient at a rescaled weight without mutating shared state; Weight itself
// is fixed at construction.
package penalty
