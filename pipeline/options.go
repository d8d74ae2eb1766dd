package pipeline

import (
	"fmt"
	"time"

	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/fit"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/preprocess"
	"github.com/sartorproj/salesforecast/timeseries"
	"github.com/sartorproj/salesforecast/tune"
)

// Options configures every stage of a run.
type Options struct {
	Preprocess preprocess.Options
	Decompose  decompose.Config
	Fit        fit.Config
	Forecast   forecast.Config
	Horizon    forecast.Horizon

	// Window limits the in-sample evaluation to the first Window points; 0 uses all.
	Window int
	// Holdout > 0 scores a fit on all but the last Holdout observations against
	// them instead of scoring in-sample. The returned forecast is still fitted
	// on the full history.
	Holdout int

	// Tune enables a hyperparameter search before fitting; nil disables it.
	Tune *tune.Config
}

// DefaultOptions returns the sales dashboard setup: log transform,
// multiplicative yearly seasonality and six monthly periods ahead.
func DefaultOptions() Options {
	return Options{
		Preprocess: preprocess.DefaultOptions(),
		Decompose:  decompose.DefaultConfig(),
		Fit:        fit.DefaultConfig(),
		Forecast:   forecast.DefaultConfig(),
		Horizon:    forecast.Horizon{Periods: 6, Frequency: timeseries.MonthStart},
	}
}

// Recorder receives run metrics.
type Recorder interface {
	RecordRun(result string)
	RecordError(stage, kind string)
	RecordStage(stage string, d time.Duration)
	RecordFit(solver string, iterations int)
	RecordMAE(mae float64, inSample bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(string)                  {}
func (nopRecorder) RecordError(string, string)        {}
func (nopRecorder) RecordStage(string, time.Duration) {}
func (nopRecorder) RecordFit(string, int)             {}
func (nopRecorder) RecordMAE(float64, bool)           {}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.rec = r
		}
	}
}

// OptionsFromConfig maps the file configuration onto pipeline options.
func OptionsFromConfig(c *config.Config) (Options, error) {
	tr, err := preprocess.ParseTransform(c.Preprocess.Transform)
	if err != nil {
		return Options{}, err
	}
	mode, err := decompose.ParseMode(c.Model.Mode)
	if err != nil {
		return Options{}, err
	}
	freq, err := timeseries.ParseFrequency(c.Forecast.Frequency)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Preprocess: preprocess.Options{Transform: tr, DropMissing: c.Preprocess.DropMissing},
		Decompose: decompose.Config{
			Mode:                  mode,
			Changepoints:          c.Model.Changepoints,
			ChangepointRange:      c.Model.ChangepointRange,
			Regularization:        c.Model.Regularization,
			SeasonalityOrder:      c.Model.SeasonalityOrder,
			PeriodDays:            c.Model.PeriodDays,
			SeasonalityPriorScale: c.Model.SeasonalityPriorScale,
		},
		Fit: fit.Config{
			Solver:        c.Fit.Solver,
			MaxIterations: c.Fit.MaxIterations,
			Tolerance:     c.Fit.Tolerance,
			TimeBudget:    c.Fit.TimeBudget,
		},
		Forecast: forecast.Config{
			IncludeHistory:  c.Forecast.IncludeHistory,
			IntervalWidth:   c.Forecast.IntervalWidth,
			MaxHorizonRatio: c.Forecast.MaxHorizonRatio,
		},
		Horizon: forecast.Horizon{Periods: c.Forecast.Periods, Frequency: freq},
		Window:  c.Evaluation.Window,
		Holdout: c.Evaluation.Holdout,
	}

	if c.Tune.Enabled {
		criterion, err := tune.ParseCriterion(c.Tune.Criterion)
		if err != nil {
			return Options{}, err
		}
		modes := make([]decompose.Mode, 0, len(c.Tune.Modes))
		for _, m := range c.Tune.Modes {
			mode, err := decompose.ParseMode(m)
			if err != nil {
				return Options{}, fmt.Errorf("tune: %w", err)
			}
			modes = append(modes, mode)
		}
		opts.Tune = &tune.Config{
			Changepoints:      append([]int(nil), c.Tune.Changepoints...),
			Regularizations:   append([]float64(nil), c.Tune.Regularizations...),
			Modes:             modes,
			SeasonalityOrders: []int{c.Model.SeasonalityOrder},
			Criterion:         criterion,
			Holdout:           c.Tune.Holdout,
			Stepwise:          c.Tune.Stepwise,
		}
	}
	return opts, nil
}
