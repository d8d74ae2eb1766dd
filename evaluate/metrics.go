package evaluate

import (
	"math"
)

// ErrorMetrics contains forecast accuracy metrics.
type ErrorMetrics struct {
	// MAE - Mean Absolute Error
	MAE float64

	// MSE - Mean Squared Error
	MSE float64

	// RMSE - Root Mean Squared Error
	RMSE float64

	// MAPE - Mean Absolute Percentage Error, in percent
	MAPE float64

	// SMAPE - Symmetric Mean Absolute Percentage Error, in percent
	SMAPE float64
}

// MAE is the mean absolute difference between predicted and actual.
func MAE(predicted, actual []float64) (float64, error) {
	m, err := Metrics(predicted, actual)
	if err != nil {
		return 0, err
	}
	return m.MAE, nil
}

// Metrics computes all accuracy metrics. MAPE and SMAPE skip points where the
// actual value is zero and are zero when every actual value is zero.
func Metrics(predicted, actual []float64) (*ErrorMetrics, error) {
	if len(predicted) == 0 || len(actual) == 0 {
		return nil, &DimensionMismatchError{
			Stage:     "evaluate",
			Predicted: len(predicted),
			Actual:    len(actual),
			Reason:    "empty input",
		}
	}
	if len(predicted) != len(actual) {
		return nil, &DimensionMismatchError{
			Stage:     "evaluate",
			Predicted: len(predicted),
			Actual:    len(actual),
			Reason:    "predicted and actual differ in length",
		}
	}

	var sumAbs, sumSq, sumAPE, sumSAPE float64
	validCount := 0
	for i, a := range actual {
		r := a - predicted[i]
		absR := math.Abs(r)
		sumAbs += absR
		sumSq += r * r

		if a != 0 {
			sumAPE += absR / math.Abs(a)
			sumSAPE += absR / (math.Abs(a) + math.Abs(predicted[i]))
			validCount++
		}
	}

	n := float64(len(actual))
	m := &ErrorMetrics{
		MAE:  sumAbs / n,
		MSE:  sumSq / n,
		RMSE: math.Sqrt(sumSq / n),
	}
	if validCount > 0 {
		m.MAPE = sumAPE / float64(validCount) * 100
		m.SMAPE = sumSAPE / float64(validCount) * 200
	}
	return m, nil
}
