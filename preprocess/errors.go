package preprocess

import (
	"fmt"
	"time"
)

// ValidationError reports malformed or insufficient input. It is raised before
// any fitting is attempted and names the offending observation when there is one.
type ValidationError struct {
	Stage     string
	Index     int // -1 when the error is not tied to one observation
	Timestamp time.Time
	Value     float64
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	}
	ts := "zero time"
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s: observation %d (%s, %g): %s", e.Stage, e.Index, ts, e.Value, e.Reason)
}

func invalid(reason string, args ...any) *ValidationError {
	return &ValidationError{Stage: "preprocess", Index: -1, Reason: fmt.Sprintf(reason, args...)}
}
