// Package solve provides the two numeric solvers the registration core
// depends on, behind deliberately narrow contracts so compliant libraries
// can be substituted without touching the core.
//
// [CG] is a matrix-free conjugate gradient iteration for symmetric
// positive-definite systems: it sees the system only through the
// [Operator] interface (a dimension and a Hessian–vector product).
//
// [MinimizeBox] is a bound-constrained quasi-Newton minimizer: limited-memory
// BFGS directions with gradient projection onto the box and a backtracking
// Armijo search along the projected path. It accepts an objective callback,
// a gradient callback, per-variable bounds and a starting point, and returns
// the optimized point together with a termination [Status]. A result that is
// not locally optimal is a warning, not a failure; the best iterate is
// always returned.
package solve
