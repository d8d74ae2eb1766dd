package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/timeseries"
)

// Horizon describes how far and at which cadence to forecast.
type Horizon struct {
	Periods   int
	Frequency timeseries.Frequency
}

// Config controls the forecast grid and the uncertainty bounds.
type Config struct {
	IncludeHistory  bool    // Prepend in-sample points for every history timestamp
	IntervalWidth   float64 // Coverage of the bounds in [0, 1); 0 disables them
	MaxHorizonRatio float64 // Horizon/history span ratio that triggers a warning; <= 0 disables
}

// DefaultConfig returns history included, 80% intervals and a warning once the
// horizon is longer than the history.
func DefaultConfig() Config {
	return Config{
		IncludeHistory:  true,
		IntervalWidth:   0.8,
		MaxHorizonRatio: 1.0,
	}
}

// Point is one forecasted timestamp.
type Point struct {
	Timestamp time.Time
	Value     float64
	Lower     float64
	Upper     float64
	// Trend is the trend alone, inverted to the original domain.
	Trend float64
	// Seasonal is the seasonal component in the transformed domain: an offset in
	// additive mode, a relative factor in multiplicative mode.
	Seasonal float64
	InSample bool
}

// ExtrapolationWarning flags a horizon that reaches far beyond the history.
// It is advisory and never returned as an error.
type ExtrapolationWarning struct {
	HorizonSpan time.Duration
	HistorySpan time.Duration
	Ratio       float64
}

func (w ExtrapolationWarning) String() string {
	return fmt.Sprintf("horizon of %s is %.2fx the history span of %s; forecasts extrapolate the last trend",
		w.HorizonSpan, w.Ratio, w.HistorySpan)
}

// Forecast is the result of projecting a model.
type Forecast struct {
	Points     []Point
	Warnings   []ExtrapolationWarning
	Transform  string
	HistoryLen int
}

// InSample returns the points at history timestamps.
func (f *Forecast) InSample() []Point {
	var out []Point
	for _, p := range f.Points {
		if p.InSample {
			out = append(out, p)
		}
	}
	return out
}

// Future returns the points after the last history timestamp.
func (f *Forecast) Future() []Point {
	var out []Point
	for _, p := range f.Points {
		if !p.InSample {
			out = append(out, p)
		}
	}
	return out
}

// Values returns the point forecasts in order.
func (f *Forecast) Values() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Value
	}
	return out
}

// Forecaster evaluates fitted models. It only reads the model.
type Forecaster struct {
	config Config
}

// New creates a forecaster.
func New(config Config) *Forecaster {
	return &Forecaster{config: config}
}

// Config returns the forecaster configuration.
func (f *Forecaster) Config() Config { return f.config }

// Forecast evaluates model on its history (when configured) and on the
// horizon grid. A multiplicative model whose trend turns non-positive on the
// grid fails with a *preprocess.ValidationError.
func (f *Forecaster) Forecast(model *decompose.Model, h Horizon) (*Forecast, error) {
	if model == nil {
		return nil, errors.New("forecast: model is nil")
	}
	if h.Periods < 1 {
		return nil, fmt.Errorf("forecast: periods must be at least 1, got %d", h.Periods)
	}
	if !h.Frequency.Valid() {
		return nil, fmt.Errorf("forecast: unknown frequency %q", h.Frequency)
	}
	if f.config.IntervalWidth < 0 || f.config.IntervalWidth >= 1 || math.IsNaN(f.config.IntervalWidth) {
		return nil, fmt.Errorf("forecast: interval width must be in [0, 1), got %v", f.config.IntervalWidth)
	}

	history := model.History()
	last := history[len(history)-1]
	future := h.Frequency.Grid(last, h.Periods)
	if err := model.CheckTrend("forecast", future); err != nil {
		return nil, err
	}

	out := &Forecast{
		Transform:  model.Transform().Name(),
		HistoryLen: len(history),
	}
	if f.config.IncludeHistory {
		out.Points = make([]Point, 0, len(history)+len(future))
		for _, t := range history {
			out.Points = append(out.Points, f.point(model, t, true))
		}
	}
	for _, t := range future {
		out.Points = append(out.Points, f.point(model, t, false))
	}

	if w, ok := f.extrapolation(history, future); ok {
		out.Warnings = append(out.Warnings, w)
	}
	return out, nil
}

func (f *Forecaster) point(model *decompose.Model, t time.Time, inSample bool) Point {
	tr := model.Transform()
	c := model.Components(t)
	p := Point{
		Timestamp: t,
		Value:     tr.Inverse(c.Value),
		Trend:     tr.Inverse(c.Trend),
		Seasonal:  c.Seasonal,
		InSample:  inSample,
	}
	p.Lower, p.Upper = p.Value, p.Value

	if f.config.IntervalWidth > 0 {
		sd := stdDev(model, t, c)
		z := distuv.UnitNormal.Quantile(0.5 + f.config.IntervalWidth/2)
		p.Lower = tr.Inverse(c.Value - z*sd)
		p.Upper = tr.Inverse(c.Value + z*sd)
	}
	return p
}

// stdDev is the predictive standard deviation at t in the transformed domain.
// Beyond the history the trend variance grows as (2/3) * rate * b^2 * h^3,
// the variance of a trend whose slope changes at the historical changepoint
// rate by Laplace-distributed amounts of mean magnitude b.
func stdDev(model *decompose.Model, t time.Time, c decompose.Components) float64 {
	variance := model.Sigma * model.Sigma

	h := model.ScaleTime(t) - 1
	if h > 0 {
		b := model.MeanAbsDelta()
		trendVar := 2.0 / 3.0 * model.ChangepointRate() * b * b * h * h * h
		if model.Mode() == decompose.Multiplicative {
			trendVar *= (1 + c.Seasonal) * (1 + c.Seasonal)
		}
		variance += trendVar
	}
	return math.Sqrt(variance) * model.Scale()
}

func (f *Forecaster) extrapolation(history, future []time.Time) (ExtrapolationWarning, bool) {
	if f.config.MaxHorizonRatio <= 0 || len(future) == 0 {
		return ExtrapolationWarning{}, false
	}
	last := history[len(history)-1]
	w := ExtrapolationWarning{
		HorizonSpan: future[len(future)-1].Sub(last),
		HistorySpan: last.Sub(history[0]),
	}
	w.Ratio = w.HorizonSpan.Seconds() / w.HistorySpan.Seconds()
	return w, w.Ratio > f.config.MaxHorizonRatio
}
