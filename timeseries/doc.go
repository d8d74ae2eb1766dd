// Package timeseries provides time series data structures and utilities.
//
// A Series holds parallel Timestamps and Values slices. Observations are
// (timestamp, value) pairs; a Series can be built from either form.
//
// # Creating a Series
//
//	series, err := timeseries.NewRegular(start, timeseries.MonthStart, values)
//
//	series := timeseries.FromObservations([]timeseries.Observation{
//	    {Timestamp: jan, Value: 120},
//	    {Timestamp: feb, Value: 131},
//	})
//
// # Frequencies
//
// The cadence of a series is always supplied by the caller. Frequency.Step
// extends it from any timestamp:
//
//	next := timeseries.MonthStart.Step(last, 1)
//	grid := timeseries.MonthStart.Grid(last, 6) // six months after last
//
// # Loading from CSV
//
// The default options read the "Date" and "Sales" columns of a sales export.
// Missing cells become NaN and are left for the preprocessor to handle:
//
//	series, err := timeseries.LoadCSV("sales.csv", nil)
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "Revenue"
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
package timeseries
