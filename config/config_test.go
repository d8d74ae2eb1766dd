package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"log level", c.Log.Level, "info"},
		{"date column", c.Data.DateColumn, "Date"},
		{"value column", c.Data.ValueColumn, "Sales"},
		{"transform", c.Preprocess.Transform, "log"},
		{"drop missing", c.Preprocess.DropMissing, true},
		{"mode", c.Model.Mode, "multiplicative"},
		{"changepoints", c.Model.Changepoints, 25},
		{"changepoint range", c.Model.ChangepointRange, 0.8},
		{"seasonality order", c.Model.SeasonalityOrder, 3},
		{"solver", c.Fit.Solver, "coordinate"},
		{"time budget", c.Fit.TimeBudget, 30 * time.Second},
		{"periods", c.Forecast.Periods, 6},
		{"frequency", c.Forecast.Frequency, "MS"},
		{"include history", c.Forecast.IncludeHistory, true},
		{"tune criterion", c.Tune.Criterion, "mae"},
		{"tune changepoints", len(c.Tune.Changepoints), 4},
		{"tune modes", len(c.Tune.Modes), 2},
		{"server port", c.Server.Port, 8080},
		{"metrics path", c.Metrics.Path, "/metrics"},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, tt.got)
		}
	}

	if err := c.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
model:
  mode: additive
  changepoints: 0
forecast:
  periods: 12
  frequency: W
  include_history: false
tune:
  modes: [additive]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if c.Model.Mode != "additive" {
		t.Errorf("Expected additive mode, got %s", c.Model.Mode)
	}
	if c.Model.Changepoints != 0 {
		t.Errorf("Expected an explicit 0 to survive defaults, got %d", c.Model.Changepoints)
	}
	if c.Forecast.IncludeHistory {
		t.Error("Expected include_history false to survive defaults")
	}
	if c.Forecast.Periods != 12 || c.Forecast.Frequency != "W" {
		t.Errorf("Unexpected forecast section %+v", c.Forecast)
	}
	if len(c.Tune.Modes) != 1 {
		t.Errorf("Expected the YAML list to replace the default, got %v", c.Tune.Modes)
	}
	if c.Model.ChangepointRange != 0.8 {
		t.Errorf("Expected untouched default range 0.8, got %f", c.Model.ChangepointRange)
	}
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse of empty document failed: %v", err)
	}
	if c.Model.Changepoints != 25 {
		t.Errorf("Expected defaults for an empty document, got %d changepoints", c.Model.Changepoints)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown mode", "model:\n  mode: exponential\n"},
		{"range above one", "model:\n  changepoint_range: 1.5\n"},
		{"negative regularization", "model:\n  regularization: -1\n"},
		{"unknown solver", "fit:\n  solver: newton\n"},
		{"zero periods", "forecast:\n  periods: 0\n"},
		{"unknown frequency", "forecast:\n  frequency: fortnightly\n"},
		{"interval width one", "forecast:\n  interval_width: 1\n"},
		{"bad tune mode", "tune:\n  modes: [both]\n"},
		{"empty tune grid", "tune:\n  changepoints: []\n"},
		{"unknown key", "model:\n  growth: logistic\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"schedule without output", "schedule:\n  spec: \"@daily\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Expected error")
			} else {
				t.Logf("error: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data:\n  path: sales.csv\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Data.Path != "sales.csv" {
		t.Errorf("Expected data path sales.csv, got %s", c.Data.Path)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SALESFORECAST_MODE":         "additive",
		"SALESFORECAST_PERIODS":      "9",
		"SALESFORECAST_CHANGEPOINTS": "4",
		"SALESFORECAST_TIME_BUDGET":  "5s",
		"SALESFORECAST_TUNE":         "true",
		"SALESFORECAST_SCHEDULE":     "@hourly",
		"SALESFORECAST_LOG_LEVEL":    " ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c := Default()
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if c.Model.Mode != "additive" || c.Forecast.Periods != 9 || c.Model.Changepoints != 4 {
		t.Errorf("Overrides not applied: mode=%s periods=%d changepoints=%d",
			c.Model.Mode, c.Forecast.Periods, c.Model.Changepoints)
	}
	if c.Fit.TimeBudget != 5*time.Second || !c.Tune.Enabled || c.Schedule.Spec != "@hourly" {
		t.Errorf("Overrides not applied: budget=%s tune=%v schedule=%s",
			c.Fit.TimeBudget, c.Tune.Enabled, c.Schedule.Spec)
	}
	if c.Log.Level != "info" {
		t.Errorf("Blank override must be ignored, got level %q", c.Log.Level)
	}

	env["SALESFORECAST_PERIODS"] = "six"
	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("Expected error for non-numeric override")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SALESFORECAST_SERVER_PORT", "9090")
	c, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", c.Server.Port)
	}

	t.Setenv("SALESFORECAST_MODE", "exponential")
	if _, err := LoadWithEnv(""); err == nil {
		t.Error("Expected validation error after invalid override")
	}
}
