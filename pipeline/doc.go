// Package pipeline runs the full sales forecasting flow: preprocess, optional
// hyperparameter search, fit, forecast and evaluate.
//
//	p := pipeline.New(pipeline.DefaultOptions(), pipeline.WithLogger(log))
//	res, err := p.Run(ctx, series)
//	var se *pipeline.StageError
//	if errors.As(err, &se) {
//	    // se.Stage names the failing step; errors.As also reaches the
//	    // typed error underneath (ValidationError, ConvergenceError, ...)
//	}
//
// A Pipeline holds no per-run state and may be shared between goroutines.
package pipeline
