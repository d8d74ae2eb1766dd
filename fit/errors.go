package fit

import "fmt"

// ConvergenceError reports that the solver did not reach its tolerance within
// the iteration or time budget. The caller may retry with a relaxed tolerance,
// a larger budget or looser regularization.
type ConvergenceError struct {
	Solver     string
	Iterations int
	// Change is the last relative objective change (coordinate solver) or the
	// gradient norm (lbfgs) when the solver stopped.
	Change    float64
	Tolerance float64
	Reason    string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("fit: %s solver did not converge after %d iterations (change %.3g, tolerance %.3g): %s",
		e.Solver, e.Iterations, e.Change, e.Tolerance, e.Reason)
}
