// Package tune selects decomposition hyperparameters for a sales series.
//
// Candidates are drawn from a grid over changepoint count, regularization
// strength, combination mode and seasonality order. Each candidate is fitted
// and scored either by the mean absolute error on a held-out tail (default)
// or by an information criterion on the full series.
//
// # Basic Usage
//
//	config := tune.DefaultConfig()
//	config.Frequency = timeseries.MonthStart
//	result, err := tune.Search(ctx, series, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("best: %d changepoints, lambda %g, %s (MAE %.2f, %d models, %d failed)\n",
//	    result.Best.Changepoints, result.Best.Regularization, result.Best.Mode,
//	    result.Score, result.ModelsEvaluated, result.Failed)
//
// # Search Strategy
//
// With Stepwise set the search starts at the grid point closest to Base and
// moves to the best neighbouring candidate until no neighbour improves the
// score. Otherwise every grid point is fitted.
//
// Candidates that fail to converge or are invalid for the data (for example
// multiplicative mode on a series whose trend falls through zero) are skipped and counted in
// Result.Failed.
package tune
