// Package forecast projects a fitted decomposition onto a future time grid.
//
// The grid is the model's history followed by Periods steps of the given
// Frequency after the last history timestamp:
//
//	fc, err := forecast.New(forecast.DefaultConfig()).Forecast(model, forecast.Horizon{
//	    Periods:   6,
//	    Frequency: timeseries.MonthStart,
//	})
//	for _, p := range fc.Future() {
//	    fmt.Printf("%s %.0f [%.0f, %.0f]\n", p.Timestamp.Format("2006-01"), p.Value, p.Lower, p.Upper)
//	}
//
// Values, bounds and trend are reported in the original domain: the model's
// transform is inverted on every point. Horizons much longer than the history
// are allowed but carry an ExtrapolationWarning.
package forecast
