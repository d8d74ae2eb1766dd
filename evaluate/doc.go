// Package evaluate scores forecasts against observed sales.
//
// The headline number is the mean absolute error between the first window
// in-sample forecast points and the first window observations. With
// window 0 all history points are compared. This measures fit, not
// out-of-sample accuracy; use Split and Holdout for the latter:
//
//	train, test, _ := evaluate.Split(series, 6)
//	// fit and forecast on train with a horizon of test.Len() periods
//	res, err := evaluate.Holdout(fc, test)
//	var dm *evaluate.DimensionMismatchError
//	if errors.As(err, &dm) {
//	    // horizon shorter than the held-out tail
//	}
package evaluate
