// Package hessian provides matrix-free linear operators for the combined
// regularization + local-quadratic-data curvature of a registration problem.
//
// [Quadratic] represents, without ever materializing a matrix, the operator
//
//	H·v = R''(v) + blockdiag(Q_i)·v + fac·v
//
// where R'' is the second-order action of the regularization penalty at a
// rescaled weight, Q_i are the per-node local curvature matrices, and fac is
// a numerical stabilizer that keeps the operator positive definite when the
// regularization weight and all curvatures vanish together. [Temporal] wraps
// a stack of per-frame Quadratic operators with the λt-weighted tridiagonal
// second-difference coupling along the time axis.
//
// Both operators satisfy the [solve.Operator] contract (Dim + Apply) used by
// the matrix-free conjugate gradient solver, and can assemble themselves
// densely for diagnostics and small-problem reference solves.
package hessian
