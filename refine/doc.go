// Package refine is the deformation-field optimization core: it seeds a
// displacement field with the globally optimal solution of a quadratic
// model, then refines it against the true mismatch surfaces.
//
// [InitialField] and [InitialSequence] minimize
//
//	Σ_i (u_i−c_i)ᵀ Q_i (u_i−c_i) + λ·Regularization(u) [+ λt·Temporal(u)]
//
// exactly: in closed form (u_i = c_i) when the weights vanish, otherwise by
// matrix-free conjugate gradient on the corresponding Hessian operator,
// capped at the operator dimension. An identically zero right-hand side
// short-circuits to the zero field.
//
// [Field] refines a single frame against its mismatch surrogates, choosing
// the optimization strategy from the surrogates' interpolation order: smooth
// surfaces go to the bound-constrained quasi-Newton solver, piecewise-linear
// surfaces to subgradient descent with a strict-decrease accept/reject step.
// [Sequence] refines a deformation sequence with an additional temporal
// roughness term and always uses the smooth path.
//
// Refinement mutates the field in place and reports both the starting and
// the achieved penalty; comparing the two to detect non-improvement is the
// caller's obligation. Non-convergence of the underlying solvers is reported
// through the result status, never raised as an error.
package refine
