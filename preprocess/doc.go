// Package preprocess validates and transforms raw sales series.
//
// Prepare is a pure function: it sorts the observations by timestamp, drops or
// rejects NaN gaps, rejects duplicate timestamps and values outside the
// transform's domain, and applies the configured Transform. The result is
// tagged with the Transform so later stages can invert it.
//
//	prepared, err := preprocess.Prepare(series, preprocess.Options{
//	    Transform:   preprocess.Log{},
//	    DropMissing: true,
//	})
//	var verr *preprocess.ValidationError
//	if errors.As(err, &verr) {
//	    log.Printf("bad input at %d: %s", verr.Index, verr.Reason)
//	}
package preprocess
