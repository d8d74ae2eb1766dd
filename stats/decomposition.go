package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Decomposition is a classical moving-average decomposition of a regularly
// sampled series. Trend is NaN for the first and last period/2 points.
type Decomposition struct {
	Trend          []float64
	Seasonal       []float64
	Residual       []float64
	Period         int
	Multiplicative bool
}

// Classical decomposes values with a centred moving average trend and
// per-phase seasonal means. Multiplicative decomposition needs positive values.
// It returns nil when values cover fewer than two full periods.
func Classical(values []float64, period int, multiplicative bool) *Decomposition {
	n := len(values)
	if period < 2 || n < 2*period {
		return nil
	}

	trend := movingAverage(values, period)

	detrended := make([]float64, n)
	for i := range values {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case multiplicative:
			detrended[i] = values[i] / trend[i]
		default:
			detrended[i] = values[i] - trend[i]
		}
	}

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		if !math.IsNaN(v) {
			pattern[i%period] += v
			counts[i%period]++
		}
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	// normalise so the seasonal effect sums to zero (additive) or averages one
	mean := stat.Mean(pattern, nil)
	for i := range pattern {
		if multiplicative {
			pattern[i] /= mean
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := range values {
		seasonal[i] = pattern[i%period]
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case multiplicative:
			residual[i] = values[i] / (trend[i] * seasonal[i])
		default:
			residual[i] = values[i] - trend[i] - seasonal[i]
		}
	}

	return &Decomposition{
		Trend:          trend,
		Seasonal:       seasonal,
		Residual:       residual,
		Period:         period,
		Multiplicative: multiplicative,
	}
}

// movingAverage is a centred moving average of width period (2xperiod for
// even periods).
func movingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5 * (values[i-half] + values[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}

// Strength returns trend and seasonal strength in [0, 1]:
//
//	F_T = max(0, 1 - Var(R) / Var(T + R))
//	F_S = max(0, 1 - Var(R) / Var(S + R))
//
// computed on the points where the trend is defined. Multiplicative
// decompositions are measured on the log scale.
func (d *Decomposition) Strength() (trend, seasonal float64) {
	var r, tr, sr []float64
	for i := range d.Trend {
		if math.IsNaN(d.Trend[i]) || math.IsNaN(d.Residual[i]) {
			continue
		}
		t, s, e := d.Trend[i], d.Seasonal[i], d.Residual[i]
		if d.Multiplicative {
			t, s, e = math.Log(t), math.Log(s), math.Log(e)
		}
		r = append(r, e)
		tr = append(tr, t+e)
		sr = append(sr, s+e)
	}
	if len(r) < 2 {
		return 0, 0
	}

	vr := stat.Variance(r, nil)
	return strength(vr, stat.Variance(tr, nil)), strength(vr, stat.Variance(sr, nil))
}

func strength(residualVar, combinedVar float64) float64 {
	if combinedVar <= 0 {
		return 0
	}
	return math.Max(0, 1-residualVar/combinedVar)
}
