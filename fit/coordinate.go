package fit

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/salesforecast/decompose"
)

// objectiveFloor bounds the denominator of the relative objective change so an
// exact fit does not chase rounding noise.
const objectiveFloor = 1e-12

// coordinateDescent minimises the objective one parameter at a time.
//
// Every coordinate is linear in the model once the others are fixed, including
// in multiplicative mode where a trend column is scaled by (1 + S) and a
// Fourier column by T. Each step is therefore an exact one-dimensional
// minimisation (soft-thresholding for deltas, ridge for Fourier terms) and the
// objective never increases.
func (f *Fitter) coordinateDescent(p *problem, x0 []float64, model *decompose.Model) ([]float64, error) {
	x := append([]float64(nil), x0...)
	nt := len(p.trend)
	n := float64(p.n)
	mult := p.mode == decompose.Multiplicative

	trend, season := p.components(x)
	resid := make([]float64, p.n)
	for i := range resid {
		resid[i] = p.y[i] - p.combine(trend[i], season[i])
	}

	col := make([]float64, p.n)
	scale := make([]float64, p.n)
	started := time.Now()
	prev := p.objective(x)
	change := math.Inf(1)

	for sweep := 1; sweep <= f.config.MaxIterations; sweep++ {
		// trend block
		if mult {
			for i := range scale {
				scale[i] = 1 + season[i]
			}
		}
		for j := 0; j < nt; j++ {
			if mult {
				floats.MulTo(col, p.trend[j], scale)
			} else {
				copy(col, p.trend[j])
			}
			norm := floats.Dot(col, col) / n
			if norm == 0 {
				continue
			}
			rho := floats.Dot(col, resid)/n + norm*x[j]

			var next float64
			if j >= 2 {
				next = softThreshold(rho, p.lambda) / norm
			} else {
				next = rho / norm
			}
			if delta := next - x[j]; delta != 0 {
				floats.AddScaled(trend, delta, p.trend[j])
				floats.AddScaled(resid, -delta, col)
				x[j] = next
			}
		}

		// seasonal block
		for b, fourier := range p.season {
			if mult {
				floats.MulTo(col, fourier, trend)
			} else {
				copy(col, fourier)
			}
			norm := floats.Dot(col, col) / n
			if norm+p.ridge == 0 {
				continue
			}
			k := nt + b
			next := (floats.Dot(col, resid)/n + norm*x[k]) / (norm + p.ridge)
			if delta := next - x[k]; delta != 0 {
				floats.AddScaled(season, delta, fourier)
				floats.AddScaled(resid, -delta, col)
				x[k] = next
			}
		}

		obj := floats.Dot(resid, resid)/(2*n) + p.penalty(x)
		change = (prev - obj) / math.Max(math.Abs(prev), objectiveFloor)
		prev = obj
		model.Iterations = sweep

		if math.IsNaN(obj) || math.IsInf(obj, 0) {
			return nil, &ConvergenceError{
				Solver:     Coordinate,
				Iterations: sweep,
				Change:     change,
				Tolerance:  f.config.Tolerance,
				Reason:     "objective is not finite",
			}
		}
		if math.Abs(change) <= f.config.Tolerance {
			return x, nil
		}
		if f.config.TimeBudget > 0 && time.Since(started) > f.config.TimeBudget {
			return nil, &ConvergenceError{
				Solver:     Coordinate,
				Iterations: sweep,
				Change:     change,
				Tolerance:  f.config.Tolerance,
				Reason:     "time budget of " + f.config.TimeBudget.String() + " exhausted",
			}
		}
	}

	return nil, &ConvergenceError{
		Solver:     Coordinate,
		Iterations: f.config.MaxIterations,
		Change:     change,
		Tolerance:  f.config.Tolerance,
		Reason:     "iteration budget exhausted",
	}
}

func softThreshold(v, lambda float64) float64 {
	switch {
	case v > lambda:
		return v - lambda
	case v < -lambda:
		return v + lambda
	}
	return 0
}
