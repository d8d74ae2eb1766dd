package evaluate

import (
	"fmt"

	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/stats"
	"github.com/sartorproj/salesforecast/timeseries"
)

// diagnosticLags is the largest lag tested on residuals.
const diagnosticLags = 12

// Result is the outcome of scoring a forecast.
type Result struct {
	MAE float64
	// Window is the number of compared points.
	Window int
	// InSample is true when the points compared were part of the fitted history.
	InSample    bool
	Metrics     *ErrorMetrics
	Diagnostics *Diagnostics
}

// Diagnostics describes the residuals (actual - predicted) of an evaluation.
// Fields are nil when there are too few residuals for the test.
type Diagnostics struct {
	LjungBox        *stats.LjungBoxResult
	BoxPierce       *stats.BoxPierceResult
	DurbinWatson    *stats.DurbinWatsonResult
	SignificantLags []int
}

// Evaluate compares the first window in-sample points of fc with the first
// window values of actual, matched by timestamp. A window of 0 compares every
// in-sample point and requires actual to have exactly as many values.
func Evaluate(fc *forecast.Forecast, actual *timeseries.Series, window int) (*Result, error) {
	if fc == nil || actual == nil {
		return nil, &DimensionMismatchError{Stage: "evaluate", Window: window, Reason: "missing forecast or actual series"}
	}
	inSample := fc.InSample()
	mismatch := func(reason string) error {
		return &DimensionMismatchError{
			Stage:     "evaluate",
			Window:    window,
			Predicted: len(inSample),
			Actual:    actual.Len(),
			Reason:    reason,
		}
	}
	if window < 0 {
		return nil, mismatch("window must not be negative")
	}
	if window == 0 {
		if len(inSample) != actual.Len() {
			return nil, mismatch("in-sample points and actual values differ in length")
		}
		window = len(inSample)
	}
	if window == 0 || window > len(inSample) || window > actual.Len() {
		return nil, mismatch("window exceeds available points")
	}

	predicted := make([]float64, window)
	for i := range predicted {
		if !inSample[i].Timestamp.Equal(actual.Timestamps[i]) {
			return nil, mismatch(fmt.Sprintf("forecast timestamp %s does not match actual %s",
				timeseries.FormatTimestamp(inSample[i].Timestamp), timeseries.FormatTimestamp(actual.Timestamps[i])))
		}
		predicted[i] = inSample[i].Value
	}
	return score(predicted, actual.Values[:window], true)
}

// Holdout compares the future points of fc with the held-out series test,
// matching them by timestamp order. The forecast must cover every test
// timestamp.
func Holdout(fc *forecast.Forecast, test *timeseries.Series) (*Result, error) {
	if fc == nil || test == nil || test.Len() == 0 {
		return nil, &DimensionMismatchError{Stage: "holdout", Reason: "missing forecast or empty test series"}
	}
	future := fc.Future()
	if len(future) < test.Len() {
		return nil, &DimensionMismatchError{
			Stage:     "holdout",
			Window:    test.Len(),
			Predicted: len(future),
			Actual:    test.Len(),
			Reason:    "forecast horizon shorter than the held-out series",
		}
	}

	predicted := make([]float64, test.Len())
	for i := range predicted {
		if !future[i].Timestamp.Equal(test.Timestamps[i]) {
			return nil, &DimensionMismatchError{
				Stage:     "holdout",
				Window:    test.Len(),
				Predicted: len(future),
				Actual:    test.Len(),
				Reason: fmt.Sprintf("forecast timestamp %s does not match held-out %s",
					timeseries.FormatTimestamp(future[i].Timestamp), timeseries.FormatTimestamp(test.Timestamps[i])),
			}
		}
		predicted[i] = future[i].Value
	}
	return score(predicted, test.Values, false)
}

// Split returns the series without its last holdout observations and the
// held-out tail. The training part keeps at least two observations.
func Split(series *timeseries.Series, holdout int) (train, test *timeseries.Series, err error) {
	if series == nil {
		return nil, nil, &DimensionMismatchError{Stage: "split", Window: holdout, Reason: "series is nil"}
	}
	n := series.Len()
	if holdout < 1 || n-holdout < 2 {
		return nil, nil, &DimensionMismatchError{
			Stage:  "split",
			Window: holdout,
			Actual: n,
			Reason: "holdout must leave at least two training observations",
		}
	}
	return series.Slice(0, n-holdout), series.Slice(n-holdout, n), nil
}

func score(predicted, actual []float64, inSample bool) (*Result, error) {
	m, err := Metrics(predicted, actual)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, len(actual))
	for i := range actual {
		residuals[i] = actual[i] - predicted[i]
	}

	return &Result{
		MAE:         m.MAE,
		Window:      len(actual),
		InSample:    inSample,
		Metrics:     m,
		Diagnostics: Diagnose(residuals),
	}, nil
}

// Diagnose runs the residual diagnostics.
func Diagnose(residuals []float64) *Diagnostics {
	d := &Diagnostics{
		LjungBox:     stats.LjungBox(residuals, diagnosticLags, 0),
		BoxPierce:    stats.BoxPierce(residuals, diagnosticLags, 0),
		DurbinWatson: stats.DurbinWatson(residuals),
	}
	if acf := stats.ACFWithConfidence(residuals, diagnosticLags); acf != nil {
		d.SignificantLags = stats.SignificantLags(acf.Values, acf.ConfBounds)
	}
	return d
}
