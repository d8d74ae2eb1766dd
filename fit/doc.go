// Package fit estimates trend and seasonality parameters for a decomposition.
//
// Changepoint locations are fixed before fitting, which keeps the problem
// linear in the trend parameters and in the Fourier coefficients. The fitter
// minimises squared error plus an L1 penalty on changepoint rate deltas, so
// most changepoints end up with no effect.
//
// # Solvers
//
//   - coordinate: exact coordinate descent with soft-thresholding (default)
//   - lbfgs: gonum's L-BFGS on a smoothed objective
//
// # Basic Usage
//
//	d, _ := decompose.New(decompose.DefaultConfig())
//	fitter := fit.New(fit.DefaultConfig())
//	model, err := fitter.Fit(prepared, d)
//	var cerr *fit.ConvergenceError
//	if errors.As(err, &cerr) {
//	    // retry with a larger budget or looser tolerance
//	}
//
//	summary := fit.Summarize(model, prepared)
//	fmt.Printf("AIC: %.2f, active changepoints: %d\n", summary.AIC, summary.ActiveChangepoints)
package fit
