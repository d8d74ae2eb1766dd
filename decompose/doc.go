// Package decompose defines a piecewise-linear trend with Fourier seasonality.
//
// A series is modelled as
//
//	y(t) = T(t) + S(t)        (additive)
//	y(t) = T(t) * (1 + S(t))  (multiplicative)
//
// T is continuous and piecewise linear, with growth-rate changes allowed at a
// fixed set of changepoints. S is a finite Fourier series over a single period
// (a year by default).
//
// A Decomposer carries the configuration; its combination mode cannot change
// after New. NewModel lays the decomposition out over a history (time and value
// scaling, changepoint placement) and the fit package fills in Params.
//
//	d, err := decompose.New(decompose.Config{
//	    Mode:             decompose.Multiplicative,
//	    Changepoints:     10,
//	    ChangepointRange: 0.8,
//	    Regularization:   0.001,
//	    SeasonalityOrder: 1,
//	    PeriodDays:       decompose.YearDays,
//	})
package decompose
