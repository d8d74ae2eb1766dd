package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sartorproj/salesforecast/evaluate"
	"github.com/sartorproj/salesforecast/fit"
	"github.com/sartorproj/salesforecast/preprocess"
)

// Stage names.
const (
	StagePreprocess = "preprocess"
	StageTune       = "tune"
	StageFit        = "fit"
	StageForecast   = "forecast"
	StageEvaluate   = "evaluate"
)

// StageError wraps the error that stopped a run with the stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Kind classifies err for metrics and API responses.
func Kind(err error) string {
	var (
		verr *preprocess.ValidationError
		cerr *fit.ConvergenceError
		derr *evaluate.DimensionMismatchError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &cerr):
		return "convergence"
	case errors.As(err, &derr):
		return "dimension"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "internal"
}
