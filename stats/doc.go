// Package stats provides the residual diagnostics and series profiling used to
// judge a sales forecast.
//
// # Autocorrelation
//
//	acf := stats.ACF(residuals, 12)
//	res := stats.ACFWithConfidence(residuals, 12)
//	significant := stats.SignificantLags(res.Values, res.ConfBounds)
//
// # Residual Diagnostics
//
// A well specified decomposition leaves residuals close to white noise:
//
//	lb := stats.LjungBox(residuals, 12, nParams)
//	if lb.PValue < 0.05 {
//	    // structure left in the residuals
//	}
//	bp := stats.BoxPierce(residuals, 12, nParams)
//	dw := stats.DurbinWatson(residuals)
//
// # Seasonal Strength
//
// Classical decomposition with a centred moving average gives a model-free
// measure of how much of the variation is seasonal:
//
//	d := stats.Classical(values, 12, true)
//	trendStrength, seasonalStrength := d.Strength()
package stats
