package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/internal/metrics"
	"github.com/sartorproj/salesforecast/pipeline"
	"github.com/sartorproj/salesforecast/timeseries"
)

// app runs the configured pipeline against the configured CSV.
type app struct {
	cfg  *config.Config
	opts pipeline.Options
	log  *logger.Logger
	rec  *metrics.Recorder
}

func newApp(cfg *config.Config, l *logger.Logger, rec *metrics.Recorder) (*app, error) {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	return &app{cfg: cfg, opts: opts, log: l, rec: rec}, nil
}

func (a *app) pipeline() *pipeline.Pipeline {
	opts := []pipeline.Option{pipeline.WithLogger(a.log)}
	if a.rec != nil {
		opts = append(opts, pipeline.WithRecorder(a.rec))
	}
	return pipeline.New(a.opts, opts...)
}

func (a *app) load() (*timeseries.Series, error) {
	if a.cfg.Data.Path == "" {
		return nil, fmt.Errorf("no data file configured")
	}
	s, err := timeseries.LoadCSV(a.cfg.Data.Path, &timeseries.CSVOptions{
		DateColumn:  a.cfg.Data.DateColumn,
		ValueColumn: a.cfg.Data.ValueColumn,
		DateFormats: a.cfg.Data.DateFormats,
		Delimiter:   ',',
		SkipInvalid: a.cfg.Data.SkipInvalid,
	})
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = a.cfg.Data.ValueColumn
	}
	return s, nil
}

// forecastOnce loads, forecasts and writes the result to the configured
// output, or to stdout when none is set.
func (a *app) forecastOnce(ctx context.Context, stdout io.Writer) error {
	s, err := a.load()
	if err != nil {
		return err
	}
	res, err := a.pipeline().Run(ctx, s)
	if err != nil {
		return err
	}

	if a.cfg.Schedule.Output == "" {
		return forecast.WriteCSV(stdout, res.Forecast)
	}
	return writeFile(a.cfg.Schedule.Output, res.Forecast)
}

// writeFile replaces path atomically so readers never see a partial forecast.
func writeFile(path string, fc *forecast.Forecast) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".forecast-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := forecast.WriteCSV(tmp, fc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// schedule returns a stopped cron that runs forecastOnce on spec. Runs never
// overlap; a run still going when the next fires is skipped.
func (a *app) schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	cl := cronLogger{log: a.log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	_, err := c.AddFunc(spec, func() {
		if err := a.forecastOnce(ctx, io.Discard); err != nil {
			a.log.Error("scheduled forecast failed", logger.Error(err))
			return
		}
		a.log.Info("scheduled forecast written", logger.String("output", a.cfg.Schedule.Output))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return c, nil
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(keysAndValues []interface{}) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, logger.Any(key, keysAndValues[i+1]))
	}
	return out
}
