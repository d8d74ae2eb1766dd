package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/evaluate"
	"github.com/sartorproj/salesforecast/fit"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/preprocess"
	"github.com/sartorproj/salesforecast/stats"
	"github.com/sartorproj/salesforecast/timeseries"
	"github.com/sartorproj/salesforecast/tune"
)

// Pipeline runs forecasts with fixed options.
type Pipeline struct {
	opts Options
	log  *logger.Logger
	rec  Recorder
}

// New creates a pipeline.
func New(opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		opts: opts,
		log:  logger.Nop(),
		rec:  nopRecorder{},
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Options returns the pipeline options.
func (p *Pipeline) Options() Options { return p.opts }

// Profile summarises the observed history (original domain, gaps dropped).
type Profile struct {
	Observations int
	Dropped      int
	Total        float64
	Mean         float64
	Min          float64
	Max          float64
	// TrendStrength and SeasonalStrength come from a classical decomposition
	// over one year of periods; both are 0 when the history is shorter than
	// two years.
	TrendStrength    float64
	SeasonalStrength float64
}

// Result is everything a successful run produces.
type Result struct {
	Forecast   *forecast.Forecast
	Evaluation *evaluate.Result
	Model      *decompose.Model
	Summary    *fit.Summary
	Profile    Profile
	// Tuning is set when a hyperparameter search ran.
	Tuning  *tune.Result
	Elapsed time.Duration
}

// run carries the state of a single Run call.
type run struct {
	*Pipeline
	ctx     context.Context
	log     *logger.Logger
	started time.Time
}

// Run executes every stage on series. On failure it returns a *StageError and
// no partial result.
func (p *Pipeline) Run(ctx context.Context, series *timeseries.Series) (*Result, error) {
	r := &run{Pipeline: p, ctx: ctx, started: time.Now()}
	r.log = p.log
	if series != nil && series.Name != "" {
		r.log = p.log.With(logger.String("series", series.Name))
	}

	res, err := r.execute(series)
	if err != nil {
		var se *StageError
		stage := "unknown"
		if errors.As(err, &se) {
			stage = se.Stage
		}
		kind := Kind(err)
		p.rec.RecordError(stage, kind)
		p.rec.RecordRun("failure")
		r.log.Error("forecast run failed",
			logger.String("stage", stage),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return nil, err
	}

	res.Elapsed = time.Since(r.started)
	p.rec.RecordRun("success")
	p.rec.RecordMAE(res.Evaluation.MAE, res.Evaluation.InSample)
	r.log.Info("forecast run finished",
		logger.Int("observations", res.Profile.Observations),
		logger.Int("periods", len(res.Forecast.Future())),
		logger.Float64("mae", res.Evaluation.MAE),
		logger.Bool("in_sample", res.Evaluation.InSample),
		logger.String("mode", string(res.Model.Mode())),
		logger.Int("active_changepoints", res.Summary.ActiveChangepoints),
		logger.Duration("elapsed_ms", res.Elapsed),
	)
	for _, w := range res.Forecast.Warnings {
		r.log.Warn("forecast extrapolates", logger.String("warning", w.String()), logger.Float64("ratio", w.Ratio))
	}
	return res, nil
}

func (r *run) execute(series *timeseries.Series) (*Result, error) {
	opts := r.opts

	var prepared *preprocess.Prepared
	err := r.stage(StagePreprocess, func() (err error) {
		prepared, err = preprocess.Prepare(series, opts.Preprocess)
		return err
	})
	if err != nil {
		return nil, err
	}
	if prepared.Dropped > 0 {
		r.log.Warn("dropped missing observations", logger.Int("dropped", prepared.Dropped))
	}

	res := &Result{Profile: profile(prepared, opts)}

	decomposition := opts.Decompose
	if opts.Tune != nil {
		err := r.stage(StageTune, func() error {
			tc := *opts.Tune
			tc.Frequency = opts.Horizon.Frequency
			tc.Preprocess = opts.Preprocess
			tc.Base = opts.Decompose
			tc.Fit = r.fitConfig()
			tc.Logger = r.log
			if len(tc.SeasonalityOrders) == 0 {
				tc.SeasonalityOrders = []int{opts.Decompose.SeasonalityOrder}
			}

			tr, err := tune.Search(r.ctx, series, &tc)
			if err != nil {
				return err
			}
			res.Tuning = tr
			decomposition = tr.Best
			r.log.Info("tuning selected configuration",
				tune.Fields(tr.Best,
					logger.Float64("score", tr.Score),
					logger.String("criterion", string(tr.Criterion)),
					logger.Int("evaluated", tr.ModelsEvaluated),
					logger.Int("failed", tr.Failed))...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	d, err := decompose.New(decomposition)
	if err != nil {
		return nil, &StageError{Stage: StageFit, Err: err}
	}

	if opts.Holdout > 0 {
		if res.Evaluation, err = r.holdout(prepared, d); err != nil {
			return nil, err
		}
	}

	err = r.stage(StageFit, func() (err error) {
		res.Model, err = fit.New(r.fitConfig()).Fit(prepared, d)
		if err != nil {
			return err
		}
		res.Summary = fit.Summarize(res.Model, prepared)
		r.rec.RecordFit(res.Model.Solver, res.Model.Iterations)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// in-sample points are always computed so the fit can be scored
	fcConfig := opts.Forecast
	fcConfig.IncludeHistory = true
	err = r.stage(StageForecast, func() (err error) {
		res.Forecast, err = forecast.New(fcConfig).Forecast(res.Model, opts.Horizon)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.Evaluation == nil {
		err = r.stage(StageEvaluate, func() (err error) {
			res.Evaluation, err = evaluate.Evaluate(res.Forecast, prepared.Original, opts.Window)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if !opts.Forecast.IncludeHistory {
		res.Forecast.Points = res.Forecast.Future()
	}
	return res, nil
}

// holdout fits on all but the tail and scores the forecast of the tail.
func (r *run) holdout(prepared *preprocess.Prepared, d *decompose.Decomposer) (*evaluate.Result, error) {
	var result *evaluate.Result
	err := r.stage(StageEvaluate, func() error {
		train, test, err := evaluate.Split(prepared.Original, r.opts.Holdout)
		if err != nil {
			return err
		}
		trainPrepared, err := preprocess.Prepare(train, r.opts.Preprocess)
		if err != nil {
			return err
		}
		model, err := fit.New(r.fitConfig()).Fit(trainPrepared, d)
		if err != nil {
			return err
		}
		fc, err := forecast.New(forecast.Config{}).Forecast(model, forecast.Horizon{
			Periods:   test.Len(),
			Frequency: r.opts.Horizon.Frequency,
		})
		if err != nil {
			return err
		}
		result, err = evaluate.Holdout(fc, test)
		return err
	})
	return result, err
}

// stage runs fn after checking the context, timing it and wrapping its error.
func (r *run) stage(name string, fn func() error) error {
	if err := r.ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.rec.RecordStage(name, elapsed)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	r.log.Debug("stage finished", logger.String("stage", name), logger.Duration("elapsed_ms", elapsed))
	return nil
}

// fitConfig clamps the fit time budget to the context deadline.
func (r *run) fitConfig() fit.Config {
	cfg := r.opts.Fit
	if deadline, ok := r.ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			remaining = time.Nanosecond
		}
		if cfg.TimeBudget == 0 || cfg.TimeBudget > remaining {
			cfg.TimeBudget = remaining
		}
	}
	return cfg
}

func profile(prepared *preprocess.Prepared, opts Options) Profile {
	s := prepared.Original
	p := Profile{
		Observations: s.Len(),
		Dropped:      prepared.Dropped,
		Total:        s.Sum(),
		Mean:         s.Mean(),
		Min:          s.Min(),
		Max:          s.Max(),
	}

	multiplicative := opts.Decompose.Mode == decompose.Multiplicative && p.Min > 0
	if d := stats.Classical(s.Values, opts.Horizon.Frequency.PeriodsPerYear(), multiplicative); d != nil {
		p.TrendStrength, p.SeasonalStrength = d.Strength()
		if math.IsNaN(p.TrendStrength) || math.IsNaN(p.SeasonalStrength) {
			p.TrendStrength, p.SeasonalStrength = 0, 0
		}
	}
	return p
}
