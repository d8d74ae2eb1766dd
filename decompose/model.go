package decompose

import (
	"math"
	"time"

	"github.com/sartorproj/salesforecast/preprocess"
)

// Params are the fitted parameters in scaled units.
//
// The trend on scaled time tau (0 at the first and 1 at the last history point) is
//
//	T(tau) = M + K*tau + sum_j Deltas[j] * max(0, tau - c_j)
//
// so each delta changes the growth rate after its changepoint without a jump
// in value. Beta holds sin/cos coefficients per harmonic: Beta[2i], Beta[2i+1].
type Params struct {
	K      float64
	M      float64
	Deltas []float64
	Beta   []float64
}

// Model is a decomposition laid out over a history. It is produced by the fitter
// and read by the forecaster.
type Model struct {
	Params Params

	// Sigma is the residual standard deviation in scaled units.
	Sigma float64
	// Solver, Iterations and Objective describe the fit that produced Params.
	Solver     string
	Iterations int
	Objective  float64

	decomposer   *Decomposer
	transform    preprocess.Transform
	history      []time.Time
	start        time.Time
	span         float64
	yScale       float64
	changepoints []time.Time
	cpScaled     []float64
}

// Components is the model evaluated at one timestamp, in the transformed domain.
type Components struct {
	Trend float64
	// Seasonal is an absolute offset in additive mode and a relative factor
	// (value = trend * (1 + seasonal)) in multiplicative mode.
	Seasonal float64
	Value    float64
}

// Mode returns the combination mode, fixed when the decomposer was built.
func (m *Model) Mode() Mode { return m.decomposer.cfg.Mode }

// Config returns the decomposition configuration.
func (m *Model) Config() Config { return m.decomposer.cfg }

// Transform returns the value transform the model was fitted under.
func (m *Model) Transform() preprocess.Transform { return m.transform }

// History returns a copy of the history timestamps.
func (m *Model) History() []time.Time { return append([]time.Time(nil), m.history...) }

// Changepoints returns a copy of the changepoint timestamps.
func (m *Model) Changepoints() []time.Time { return append([]time.Time(nil), m.changepoints...) }

// Scale returns the value scale (max |y| over history).
func (m *Model) Scale() float64 { return m.yScale }

// ScaleTime maps t onto scaled time.
func (m *Model) ScaleTime(t time.Time) float64 {
	return t.Sub(m.start).Seconds() / m.span
}

// NumTrendParams is 2 (offset and base rate) plus one per changepoint.
func (m *Model) NumTrendParams() int { return 2 + len(m.changepoints) }

// NumSeasonalParams is two per harmonic.
func (m *Model) NumSeasonalParams() int { return 2 * m.decomposer.cfg.SeasonalityOrder }

// NumParams is the total parameter count.
func (m *Model) NumParams() int { return m.NumTrendParams() + m.NumSeasonalParams() }

// TrendFeatures writes the trend design row for scaled time tau into dst,
// which must have NumTrendParams elements: [1, tau, (tau-c_1)+, ...].
func (m *Model) TrendFeatures(tau float64, dst []float64) {
	dst[0] = 1
	dst[1] = tau
	for j, c := range m.cpScaled {
		dst[2+j] = math.Max(0, tau-c)
	}
}

// SeasonalFeatures writes the Fourier row for t into dst, which must have
// NumSeasonalParams elements.
func (m *Model) SeasonalFeatures(t time.Time, dst []float64) {
	order := m.decomposer.cfg.SeasonalityOrder
	if order == 0 {
		return
	}
	days := float64(t.Unix())/86400 + float64(t.Nanosecond())/86400e9
	w := 2 * math.Pi * days / m.decomposer.cfg.PeriodDays
	for i := 0; i < order; i++ {
		x := float64(i+1) * w
		dst[2*i] = math.Sin(x)
		dst[2*i+1] = math.Cos(x)
	}
}

// Vector flattens the parameters as [M, K, Deltas..., Beta...], matching the
// concatenation of TrendFeatures and SeasonalFeatures.
func (m *Model) Vector() []float64 {
	x := make([]float64, 0, m.NumParams())
	x = append(x, m.Params.M, m.Params.K)
	x = append(x, m.Params.Deltas...)
	x = append(x, m.Params.Beta...)
	return x
}

// SetVector is the inverse of Vector.
func (m *Model) SetVector(x []float64) {
	m.Params.M = x[0]
	m.Params.K = x[1]
	nt := m.NumTrendParams()
	m.Params.Deltas = append(m.Params.Deltas[:0], x[2:nt]...)
	m.Params.Beta = append(m.Params.Beta[:0], x[nt:]...)
}

// scaledTrend evaluates the trend at scaled time tau.
func (m *Model) scaledTrend(tau float64) float64 {
	trend := m.Params.M + m.Params.K*tau
	for j, c := range m.cpScaled {
		if tau > c {
			trend += m.Params.Deltas[j] * (tau - c)
		}
	}
	return trend
}

// scaledSeasonal evaluates the Fourier series at t.
func (m *Model) scaledSeasonal(t time.Time) float64 {
	order := m.decomposer.cfg.SeasonalityOrder
	if order == 0 {
		return 0
	}
	row := make([]float64, 2*order)
	m.SeasonalFeatures(t, row)
	s := 0.0
	for i, f := range row {
		s += m.Params.Beta[i] * f
	}
	return s
}

// Combine joins scaled trend and seasonal values according to the mode.
func (m *Model) Combine(trend, seasonal float64) float64 {
	if m.Mode() == Multiplicative {
		return trend * (1 + seasonal)
	}
	return trend + seasonal
}

// Components evaluates the model at t in the transformed domain.
func (m *Model) Components(t time.Time) Components {
	trend := m.scaledTrend(m.ScaleTime(t))
	seasonal := m.scaledSeasonal(t)
	c := Components{
		Trend: trend * m.yScale,
		Value: m.Combine(trend, seasonal) * m.yScale,
	}
	if m.Mode() == Multiplicative {
		c.Seasonal = seasonal
	} else {
		c.Seasonal = seasonal * m.yScale
	}
	return c
}

// Trend evaluates the trend at t in the transformed domain.
func (m *Model) Trend(t time.Time) float64 { return m.Components(t).Trend }

// Seasonal evaluates the seasonal component at t (see Components).
func (m *Model) Seasonal(t time.Time) float64 { return m.Components(t).Seasonal }

// Predict evaluates trend combined with seasonality at t in the transformed domain.
func (m *Model) Predict(t time.Time) float64 { return m.Components(t).Value }

// CheckTrend returns a *preprocess.ValidationError naming the first timestamp
// in ts where a multiplicative trend, inverted to the original domain, is not
// positive. Additive models always pass.
func (m *Model) CheckTrend(stage string, ts []time.Time) error {
	if m.Mode() != Multiplicative {
		return nil
	}
	for i, t := range ts {
		trend := m.transform.Inverse(m.Trend(t))
		if trend > 0 {
			continue
		}
		return &preprocess.ValidationError{
			Stage:     stage,
			Index:     i,
			Timestamp: t,
			Value:     trend,
			Reason:    "multiplicative mode needs a positive trend",
		}
	}
	return nil
}

// ActiveChangepoints returns the changepoints whose |delta| exceeds eps.
func (m *Model) ActiveChangepoints(eps float64) []time.Time {
	var out []time.Time
	for j, d := range m.Params.Deltas {
		if math.Abs(d) > eps {
			out = append(out, m.changepoints[j])
		}
	}
	return out
}

// ChangepointRate is the number of changepoints per unit of scaled time inside
// the changepoint range. It is zero when there are no changepoints.
func (m *Model) ChangepointRate() float64 {
	if len(m.changepoints) == 0 {
		return 0
	}
	return float64(len(m.changepoints)) / m.decomposer.cfg.ChangepointRange
}

// MeanAbsDelta is the average magnitude of the changepoint rate deltas.
func (m *Model) MeanAbsDelta() float64 {
	if len(m.Params.Deltas) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range m.Params.Deltas {
		sum += math.Abs(d)
	}
	return sum / float64(len(m.Params.Deltas))
}
