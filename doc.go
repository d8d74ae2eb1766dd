// Package salesforecast forecasts regularly sampled sales series.
//
// A series is decomposed into a piecewise-linear trend with changepoints and
// a Fourier yearly seasonality, combined additively or multiplicatively. The
// decomposition is fitted to the history with an L1 penalty on trend rate
// changes, projected forward on the series' calendar grid with uncertainty
// bounds, and scored with the mean absolute error.
//
// # Quick Start
//
//	series, _ := timeseries.LoadCSV("sales.csv", nil)
//	res, err := pipeline.New(pipeline.DefaultOptions()).Run(ctx, series)
//	if err != nil {
//		var verr *preprocess.ValidationError
//		if errors.As(err, &verr) { ... }
//	}
//	for _, p := range res.Forecast.Future() {
//		fmt.Println(p.Timestamp, p.Value, p.Lower, p.Upper)
//	}
//
// The stages can also be driven one by one:
//
//	prepared, _ := preprocess.Prepare(series, preprocess.DefaultOptions())
//	d, _ := decompose.New(decompose.DefaultConfig())
//	model, _ := fit.New(fit.DefaultConfig()).Fit(prepared, d)
//	fc, _ := forecast.New(forecast.DefaultConfig()).Forecast(model,
//		forecast.Horizon{Periods: 6, Frequency: timeseries.MonthStart})
//	ev, _ := evaluate.Evaluate(fc, prepared.Original, 0)
//
// # Packages
//
//   - timeseries: series, calendar frequencies and CSV helpers
//   - preprocess: validation, ordering, gap handling and transforms
//   - decompose: trend and seasonality model definition
//   - fit: coordinate descent and L-BFGS fitting
//   - forecast: horizon grids, predictions and intervals
//   - evaluate: MAE and friends, hold-out splits, residual diagnostics
//   - stats: autocorrelation, portmanteau tests, classical decomposition
//   - tune: hyperparameter search
//   - pipeline: the stages wired together with logging and metrics
//   - config: YAML configuration with defaults and environment overrides
//   - server: HTTP API
//
// # References
//
//   - Taylor, S.J., & Letham, B. (2018). Forecasting at Scale. The American Statistician
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
package salesforecast
