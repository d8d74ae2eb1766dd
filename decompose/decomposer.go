// Package decompose defines the trend + seasonality model shared by the fitter
// and the forecaster.
package decompose

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sartorproj/salesforecast/preprocess"
)

// Mode selects how trend and seasonality combine.
type Mode string

const (
	// Additive models y = T + S.
	Additive Mode = "additive"
	// Multiplicative models y = T * (1 + S). It requires T > 0.
	Multiplicative Mode = "multiplicative"
)

// ParseMode parses "additive" or "multiplicative" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Additive:
		return Additive, nil
	case Multiplicative:
		return Multiplicative, nil
	}
	return "", fmt.Errorf("unknown combination mode %q", s)
}

// Config holds the decomposition settings.
type Config struct {
	Mode Mode
	// Changepoints is the requested number of trend changepoints. It is capped
	// by the number of history points inside ChangepointRange.
	Changepoints int
	// ChangepointRange is the leading fraction of history eligible for changepoints.
	ChangepointRange float64
	// Regularization is the L1 strength on changepoint rate deltas.
	Regularization float64
	// SeasonalityOrder is the number of Fourier harmonics (0 disables seasonality).
	SeasonalityOrder int
	// PeriodDays is the seasonal period length in days.
	PeriodDays float64
	// SeasonalityPriorScale bounds the Fourier coefficients through a ridge
	// penalty of 1/(2 n scale^2). Zero disables the ridge.
	SeasonalityPriorScale float64
}

// YearDays is the mean length of a year in days.
const YearDays = 365.25

// DefaultConfig returns the default decomposition configuration.
func DefaultConfig() Config {
	return Config{
		Mode:                  Multiplicative,
		Changepoints:          25,
		ChangepointRange:      0.8,
		Regularization:        0.001,
		SeasonalityOrder:      3,
		PeriodDays:            YearDays,
		SeasonalityPriorScale: 10,
	}
}

// Decomposer is the configured model definition. The combination mode and the
// other settings are fixed at construction.
type Decomposer struct {
	cfg Config
}

// New validates cfg and returns a Decomposer.
func New(cfg Config) (*Decomposer, error) {
	if cfg.Mode != Additive && cfg.Mode != Multiplicative {
		return nil, fmt.Errorf("unknown combination mode %q", cfg.Mode)
	}
	if cfg.Changepoints < 0 {
		return nil, errors.New("changepoints must be non-negative")
	}
	if cfg.ChangepointRange <= 0 || cfg.ChangepointRange > 1 {
		return nil, errors.New("changepoint range must be in (0, 1]")
	}
	if cfg.Regularization < 0 || math.IsNaN(cfg.Regularization) {
		return nil, errors.New("regularization must be non-negative")
	}
	if cfg.SeasonalityOrder < 0 {
		return nil, errors.New("seasonality order must be non-negative")
	}
	if cfg.SeasonalityOrder > 0 && !(cfg.PeriodDays > 0) {
		return nil, errors.New("seasonal period must be positive")
	}
	if cfg.SeasonalityPriorScale < 0 {
		return nil, errors.New("seasonality prior scale must be non-negative")
	}
	return &Decomposer{cfg: cfg}, nil
}

// Mode returns the combination mode.
func (d *Decomposer) Mode() Mode { return d.cfg.Mode }

// Config returns a copy of the configuration.
func (d *Decomposer) Config() Config { return d.cfg }

// PlaceChangepoints returns changepoint timestamps spread over the first
// ChangepointRange fraction of history. The first history point is never a
// changepoint and the result is strictly increasing.
//
// Eligible indices are taken in a fixed refinement order (the end of the
// range, then halves, quarters, eighths and so on), so the changepoints for
// count k are always a subset of those for count k+1.
func (d *Decomposer) PlaceChangepoints(history []time.Time) []time.Time {
	span := int(math.Floor(float64(len(history)) * d.cfg.ChangepointRange))
	count := min(d.cfg.Changepoints, span-1)
	if count <= 0 {
		return nil
	}

	idx := refinementOrder(span - 1)[:count]
	sort.Ints(idx)
	out := make([]time.Time, count)
	for i, j := range idx {
		out[i] = history[j]
	}
	return out
}

// refinementOrder lists every index in 1..last exactly once. Level L visits
// the odd multiples of last/2^L, rounded, skipping indices already taken; once
// 2^L reaches last every index has been visited.
func refinementOrder(last int) []int {
	out := make([]int, 0, last)
	seen := make([]bool, last+1)
	seen[0] = true
	for denom := 1; len(out) < last; denom *= 2 {
		for k := 1; k <= denom; k += 2 {
			j := int(math.Round(float64(last) * float64(k) / float64(denom)))
			if !seen[j] {
				seen[j] = true
				out = append(out, j)
			}
		}
	}
	return out
}

// NewModel lays out an unfitted model over history. values are the transformed
// observations; they only set the value scale.
func (d *Decomposer) NewModel(history []time.Time, values []float64, tr preprocess.Transform) (*Model, error) {
	if len(history) < 2 {
		return nil, errors.New("model needs at least two history points")
	}
	start, end := history[0], history[len(history)-1]
	if !end.After(start) {
		return nil, errors.New("history must span a positive duration")
	}
	if tr == nil {
		tr = preprocess.Identity{}
	}

	scale := 0.0
	for _, v := range values {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		scale = 1
	}

	m := &Model{
		decomposer: d,
		transform:  tr,
		history:    append([]time.Time(nil), history...),
		start:      start,
		span:       end.Sub(start).Seconds(),
		yScale:     scale,
	}
	m.changepoints = d.PlaceChangepoints(history)
	m.cpScaled = make([]float64, len(m.changepoints))
	for i, c := range m.changepoints {
		m.cpScaled[i] = m.ScaleTime(c)
	}
	m.Params = Params{
		Deltas: make([]float64, len(m.changepoints)),
		Beta:   make([]float64, 2*d.cfg.SeasonalityOrder),
	}
	return m, nil
}
