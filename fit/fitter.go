// Package fit estimates decomposition parameters from a prepared series.
package fit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/preprocess"
)

// Solver names.
const (
	Coordinate = "coordinate"
	LBFGS      = "lbfgs"
)

// Config holds solver settings.
type Config struct {
	Solver        string        // "coordinate" (default) or "lbfgs"
	MaxIterations int           // Sweeps (coordinate) or major iterations (lbfgs)
	Tolerance     float64       // Relative objective change that counts as converged
	TimeBudget    time.Duration // Zero means no time limit
}

// DefaultConfig returns the default fitter configuration.
func DefaultConfig() Config {
	return Config{
		Solver:        Coordinate,
		MaxIterations: 50000,
		Tolerance:     1e-9,
	}
}

// Fitter estimates decomposition parameters. It holds no state between fits.
type Fitter struct {
	config Config
}

// New creates a fitter. Zero fields of config take their defaults.
func New(config Config) *Fitter {
	def := DefaultConfig()
	if config.Solver == "" {
		config.Solver = def.Solver
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = def.MaxIterations
	}
	if config.Tolerance <= 0 {
		config.Tolerance = def.Tolerance
	}
	return &Fitter{config: config}
}

// Config returns the effective configuration.
func (f *Fitter) Config() Config { return f.config }

// problem is the scaled least-squares problem shared by both solvers.
type problem struct {
	mode   decompose.Mode
	n      int
	y      []float64   // scaled observations
	trend  [][]float64 // trend design, column-major
	season [][]float64 // Fourier design, column-major
	lambda float64     // L1 on deltas
	ridge  float64     // L2 on Fourier coefficients
}

// Fit estimates a model for prepared under the decomposer's configuration.
//
// The objective is
//
//	(1/2n) * sum (y - yhat)^2 + lambda * sum |delta_j| + (ridge/2) * sum beta^2
//
// on values scaled by max |y|. A *ConvergenceError is returned when the
// tolerance is not met within the budget; no partially fitted model is returned.
// A multiplicative model whose trend is not positive over the history fails with
// a *preprocess.ValidationError.
func (f *Fitter) Fit(prepared *preprocess.Prepared, d *decompose.Decomposer) (*decompose.Model, error) {
	if prepared == nil || prepared.Series == nil {
		return nil, &preprocess.ValidationError{Stage: "fit", Index: -1, Reason: "no prepared series"}
	}
	if d == nil {
		return nil, errors.New("fit: decomposer is nil")
	}
	series := prepared.Series
	if series.Len() < preprocess.MinObservations {
		return nil, &preprocess.ValidationError{
			Stage:  "fit",
			Index:  -1,
			Reason: fmt.Sprintf("need at least %d observations, got %d", preprocess.MinObservations, series.Len()),
		}
	}

	model, err := d.NewModel(series.Timestamps, series.Values, prepared.Transform)
	if err != nil {
		return nil, &preprocess.ValidationError{Stage: "fit", Index: -1, Reason: err.Error()}
	}

	p := buildProblem(model, series.Timestamps, series.Values)
	x0 := initialGuess(model, p)

	var x []float64
	switch f.config.Solver {
	case Coordinate:
		x, err = f.coordinateDescent(p, x0, model)
	case LBFGS:
		x, err = f.lbfgs(p, x0, model)
	default:
		return nil, fmt.Errorf("fit: unknown solver %q", f.config.Solver)
	}
	if err != nil {
		return nil, err
	}

	model.SetVector(x)
	if err := model.CheckTrend("fit", series.Timestamps); err != nil {
		return nil, err
	}
	model.Solver = f.config.Solver
	model.Objective = p.objective(x)
	model.Sigma = math.Sqrt(p.sse(x) / float64(p.n))
	return model, nil
}

func buildProblem(model *decompose.Model, ts []time.Time, values []float64) *problem {
	n := len(values)
	nt, ns := model.NumTrendParams(), model.NumSeasonalParams()
	cfg := model.Config()

	p := &problem{
		mode:   model.Mode(),
		n:      n,
		y:      make([]float64, n),
		trend:  makeColumns(nt, n),
		season: makeColumns(ns, n),
		lambda: cfg.Regularization,
	}
	if cfg.SeasonalityPriorScale > 0 {
		p.ridge = 1 / (float64(n) * cfg.SeasonalityPriorScale * cfg.SeasonalityPriorScale)
	}

	trow := make([]float64, nt)
	srow := make([]float64, ns)
	for i, t := range ts {
		p.y[i] = values[i] / model.Scale()
		model.TrendFeatures(model.ScaleTime(t), trow)
		model.SeasonalFeatures(t, srow)
		for j, v := range trow {
			p.trend[j][i] = v
		}
		for j, v := range srow {
			p.season[j][i] = v
		}
	}
	return p
}

func makeColumns(k, n int) [][]float64 {
	cols := make([][]float64, k)
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	return cols
}

// warmStartRidge keeps the warm-start normal equations positive definite.
const warmStartRidge = 1e-10

// initialGuess solves the unpenalised least-squares problem on the trend
// columns, plus the Fourier columns in additive mode. A straight line through
// the first and last observation is used when the system is singular.
func initialGuess(model *decompose.Model, p *problem) []float64 {
	x := make([]float64, model.NumParams())
	x[0] = p.y[0]
	x[1] = p.y[p.n-1] - p.y[0]

	cols := p.trend
	if p.mode == decompose.Additive {
		cols = append(append([][]float64(nil), p.trend...), p.season...)
	}
	k := len(cols)
	gram := mat.NewSymDense(k, nil)
	rhs := mat.NewVecDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			v := floats.Dot(cols[a], cols[b]) / float64(p.n)
			if a == b {
				v += warmStartRidge
				if a >= len(p.trend) {
					v += p.ridge
				}
			}
			gram.SetSym(a, b, v)
		}
		rhs.SetVec(a, floats.Dot(cols[a], p.y)/float64(p.n))
	}

	var chol mat.Cholesky
	if !chol.Factorize(gram) {
		return x
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return x
	}
	for j := 0; j < k; j++ {
		x[j] = sol.AtVec(j)
	}
	return x
}

// components returns scaled trend and seasonal values for parameter vector x.
func (p *problem) components(x []float64) (trend, season []float64) {
	nt := len(p.trend)
	trend = make([]float64, p.n)
	season = make([]float64, p.n)
	for j, col := range p.trend {
		if x[j] == 0 {
			continue
		}
		for i, v := range col {
			trend[i] += x[j] * v
		}
	}
	for b, col := range p.season {
		if x[nt+b] == 0 {
			continue
		}
		for i, v := range col {
			season[i] += x[nt+b] * v
		}
	}
	return trend, season
}

func (p *problem) combine(trend, season float64) float64 {
	if p.mode == decompose.Multiplicative {
		return trend * (1 + season)
	}
	return trend + season
}

// residuals returns y - yhat.
func (p *problem) residuals(x []float64) []float64 {
	trend, season := p.components(x)
	r := make([]float64, p.n)
	for i := range r {
		r[i] = p.y[i] - p.combine(trend[i], season[i])
	}
	return r
}

func (p *problem) sse(x []float64) float64 {
	s := 0.0
	for _, r := range p.residuals(x) {
		s += r * r
	}
	return s
}

func (p *problem) penalty(x []float64) float64 {
	nt := len(p.trend)
	pen := 0.0
	for j := 2; j < nt; j++ {
		pen += p.lambda * math.Abs(x[j])
	}
	for b := nt; b < len(x); b++ {
		pen += 0.5 * p.ridge * x[b] * x[b]
	}
	return pen
}

func (p *problem) objective(x []float64) float64 {
	return p.sse(x)/(2*float64(p.n)) + p.penalty(x)
}
