// Package config loads the salesforecast configuration from YAML with
// defaults, validation and environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/salesforecast/timeseries"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SALESFORECAST_"

type Config struct {
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout" validate:"required"`
	} `yaml:"log"`

	Data struct {
		Path        string   `yaml:"path"`
		DateColumn  string   `yaml:"date_column" default:"Date" validate:"required"`
		ValueColumn string   `yaml:"value_column" default:"Sales" validate:"required"`
		DateFormats []string `yaml:"date_formats"`
		SkipInvalid bool     `yaml:"skip_invalid"`
	} `yaml:"data"`

	Preprocess struct {
		Transform   string `yaml:"transform" default:"log" validate:"oneof=identity log"`
		DropMissing bool   `yaml:"drop_missing" default:"true"`
	} `yaml:"preprocess"`

	Model struct {
		Mode                  string  `yaml:"mode" default:"multiplicative" validate:"oneof=additive multiplicative"`
		Changepoints          int     `yaml:"changepoints" default:"25" validate:"gte=0"`
		ChangepointRange      float64 `yaml:"changepoint_range" default:"0.8" validate:"gt=0,lte=1"`
		Regularization        float64 `yaml:"regularization" default:"0.001" validate:"gte=0"`
		SeasonalityOrder      int     `yaml:"seasonality_order" default:"3" validate:"gte=0,lte=20"`
		PeriodDays            float64 `yaml:"period_days" default:"365.25" validate:"gt=0"`
		SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" default:"10" validate:"gte=0"`
	} `yaml:"model"`

	Fit struct {
		Solver        string        `yaml:"solver" default:"coordinate" validate:"oneof=coordinate lbfgs"`
		MaxIterations int           `yaml:"max_iterations" default:"50000" validate:"gt=0"`
		Tolerance     float64       `yaml:"tolerance" default:"1e-9" validate:"gt=0"`
		TimeBudget    time.Duration `yaml:"time_budget" default:"30s" validate:"gte=0"`
	} `yaml:"fit"`

	Forecast struct {
		Periods         int     `yaml:"periods" default:"6" validate:"gte=1"`
		Frequency       string  `yaml:"frequency" default:"MS" validate:"frequency"`
		IncludeHistory  bool    `yaml:"include_history" default:"true"`
		IntervalWidth   float64 `yaml:"interval_width" default:"0.8" validate:"gte=0,lt=1"`
		MaxHorizonRatio float64 `yaml:"max_horizon_ratio" default:"1" validate:"gte=0"`
	} `yaml:"forecast"`

	Evaluation struct {
		Window  int `yaml:"window" validate:"gte=0"`
		Holdout int `yaml:"holdout" validate:"gte=0"`
	} `yaml:"evaluation"`

	Tune struct {
		Enabled         bool      `yaml:"enabled"`
		Criterion       string    `yaml:"criterion" default:"mae" validate:"oneof=mae aic bic"`
		Stepwise        bool      `yaml:"stepwise" default:"true"`
		Holdout         int       `yaml:"holdout" validate:"gte=0"`
		Changepoints    []int     `yaml:"changepoints" default:"[0,5,10,25]" validate:"min=1,dive,gte=0"`
		Regularizations []float64 `yaml:"regularizations" default:"[0.0001,0.001,0.01,0.1]" validate:"min=1,dive,gte=0"`
		Modes           []string  `yaml:"modes" default:"[\"multiplicative\",\"additive\"]" validate:"min=1,dive,oneof=additive multiplicative"`
	} `yaml:"tune"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"30s"`
		MaxObservations int           `yaml:"max_observations" default:"10000" validate:"gt=0"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
	} `yaml:"metrics"`

	Schedule struct {
		// Spec is a cron expression or descriptor such as "@daily".
		Spec   string `yaml:"spec"`
		Output string `yaml:"output" validate:"required_with=Spec"`
	} `yaml:"schedule"`
}

var validate = NewValidator()

// NewValidator returns a validator that also understands the "frequency" tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		_, err := timeseries.ParseFrequency(fl.Field().String())
		return err == nil
	})
	return v
}

// Default returns the configuration with every default applied.
func Default() *Config {
	c := &Config{}
	defaults.MustSet(c)
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML (or the defaults when path is empty) and
// overrides it with SALESFORECAST_* environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = Load(path); err != nil {
			return nil, err
		}
	}

	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := get("DATA_PATH"); ok {
		c.Data.Path = v
	}
	if v, ok := get("TRANSFORM"); ok {
		c.Preprocess.Transform = v
	}
	if v, ok := get("MODE"); ok {
		c.Model.Mode = v
	}
	if v, ok := get("SOLVER"); ok {
		c.Fit.Solver = v
	}
	if v, ok := get("FREQUENCY"); ok {
		c.Forecast.Frequency = v
	}
	if v, ok := get("SCHEDULE"); ok {
		c.Schedule.Spec = v
	}
	if v, ok := get("OUTPUT"); ok {
		c.Schedule.Output = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CHANGEPOINTS", &c.Model.Changepoints},
		{"PERIODS", &c.Forecast.Periods},
		{"HOLDOUT", &c.Evaluation.Holdout},
		{"SERVER_PORT", &c.Server.Port},
	}
	for _, e := range ints {
		v, ok := get(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, e.name, err)
		}
		*e.dst = n
	}

	if v, ok := get("TIME_BUDGET"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIME_BUDGET: %w", EnvPrefix, err)
		}
		c.Fit.TimeBudget = d
	}
	if v, ok := get("TUNE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sTUNE: %w", EnvPrefix, err)
		}
		c.Tune.Enabled = b
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", e.Namespace(), e.Tag(), e.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
