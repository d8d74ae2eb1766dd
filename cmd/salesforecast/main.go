// Command salesforecast forecasts a sales CSV once, on a cron schedule, or
// behind an HTTP API.
//
//	salesforecast -config forecast.yaml -data sales.csv -out forecast.csv
//	salesforecast -config forecast.yaml -schedule "@daily"
//	salesforecast -config forecast.yaml -serve
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/internal/metrics"
	"github.com/sartorproj/salesforecast/server"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults apply when empty)")
	dataPath := flag.String("data", "", "sales CSV, overrides data.path")
	outPath := flag.String("out", "", "forecast CSV destination, stdout when empty")
	serve := flag.Bool("serve", false, "serve the HTTP API")
	schedule := flag.String("schedule", "", "cron spec for repeated runs, overrides schedule.spec")
	flag.Parse()

	if err := run(*configPath, *dataPath, *outPath, *schedule, *serve); err != nil {
		fmt.Fprintf(os.Stderr, "salesforecast: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataPath, outPath, schedule string, serve bool) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	if schedule != "" {
		cfg.Schedule.Spec = schedule
	}
	if outPath != "" {
		cfg.Schedule.Output = outPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	once := !serve && cfg.Schedule.Spec == ""
	logOutput := cfg.Log.Output
	if once && cfg.Schedule.Output == "" && (logOutput == "" || logOutput == "stdout") {
		// the forecast itself goes to stdout
		logOutput = "stderr"
	}
	l, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOutput})
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}

	l.Info("configuration loaded",
		logger.String("config", configPath),
		logger.String("data", cfg.Data.Path),
		logger.String("mode", cfg.Model.Mode),
		logger.String("transform", cfg.Preprocess.Transform),
		logger.Int("periods", cfg.Forecast.Periods),
		logger.String("frequency", cfg.Forecast.Frequency),
		logger.Bool("tune", cfg.Tune.Enabled),
		logger.Strings("tune_modes", cfg.Tune.Modes),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	a, err := newApp(cfg, l, rec)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		return a.forecastOnce(ctx, os.Stdout)
	}

	if cfg.Schedule.Spec != "" {
		sched, err := a.schedule(ctx, cfg.Schedule.Spec)
		if err != nil {
			return err
		}
		sched.Start()
		l.Info("scheduled forecasts", logger.String("spec", cfg.Schedule.Spec), logger.String("data", cfg.Data.Path))
		defer func() {
			<-sched.Stop().Done()
			l.Info("scheduler stopped")
		}()
	}

	if serve {
		srv := server.New(server.ConfigFrom(cfg), a.opts, server.WithLogger(l), server.WithMetrics(rec, reg))
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				l.Error("http shutdown error", logger.Error(err))
			}
		}()
	}

	<-ctx.Done()
	l.Info("shutdown signal received")
	return nil
}
