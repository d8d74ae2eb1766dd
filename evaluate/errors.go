package evaluate

import "fmt"

// DimensionMismatchError reports that predictions and observations cannot be
// aligned for the requested window.
type DimensionMismatchError struct {
	Stage     string
	Window    int
	Predicted int
	Actual    int
	Reason    string
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %s (window %d, %d predicted, %d actual)",
		e.Stage, e.Reason, e.Window, e.Predicted, e.Actual)
}
