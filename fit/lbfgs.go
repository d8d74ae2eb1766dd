package fit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/salesforecast/decompose"
)

// smoothing replaces |delta| by sqrt(delta^2 + smoothing^2) so the objective is
// differentiable for L-BFGS.
const smoothing = 1e-4

// gradientAccept is the largest gradient norm tolerated when the line search
// stops without making progress.
const gradientAccept = 1e-4

// lbfgs minimises a smoothed objective with gonum's L-BFGS.
func (f *Fitter) lbfgs(p *problem, x0 []float64, model *decompose.Model) ([]float64, error) {
	nt := len(p.trend)
	n := float64(p.n)
	mult := p.mode == decompose.Multiplicative

	smoothPenalty := func(x []float64) float64 {
		pen := 0.0
		for j := 2; j < nt; j++ {
			pen += p.lambda * math.Sqrt(x[j]*x[j]+smoothing*smoothing)
		}
		for b := nt; b < len(x); b++ {
			pen += 0.5 * p.ridge * x[b] * x[b]
		}
		return pen
	}

	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			r := p.residuals(x)
			return floats.Dot(r, r)/(2*n) + smoothPenalty(x)
		},
		Grad: func(grad, x []float64) {
			trend, season := p.components(x)
			r := make([]float64, p.n)
			for i := range r {
				r[i] = p.y[i] - p.combine(trend[i], season[i])
			}
			col := make([]float64, p.n)
			for j, c := range p.trend {
				if mult {
					for i := range col {
						col[i] = c[i] * (1 + season[i])
					}
				} else {
					copy(col, c)
				}
				grad[j] = -floats.Dot(col, r) / n
				if j >= 2 {
					grad[j] += p.lambda * x[j] / math.Sqrt(x[j]*x[j]+smoothing*smoothing)
				}
			}
			for b, c := range p.season {
				if mult {
					floats.MulTo(col, c, trend)
				} else {
					copy(col, c)
				}
				grad[nt+b] = -floats.Dot(col, r)/n + p.ridge*x[nt+b]
			}
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-10,
		MajorIterations:   f.config.MaxIterations,
		Runtime:           f.config.TimeBudget,
		Converger: &optimize.FunctionConverge{
			Relative:   f.config.Tolerance,
			Iterations: 20,
		},
	}

	result, err := optimize.Minimize(prob, append([]float64(nil), x0...), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, &ConvergenceError{Solver: LBFGS, Tolerance: f.config.Tolerance, Reason: errString(err, "no result")}
	}
	model.Iterations = result.Stats.MajorIterations

	gradNorm := math.Inf(1)
	if result.Gradient != nil {
		gradNorm = floats.Norm(result.Gradient, math.Inf(1))
	}
	fail := func(reason string) error {
		return &ConvergenceError{
			Solver:     LBFGS,
			Iterations: result.Stats.MajorIterations,
			Change:     gradNorm,
			Tolerance:  f.config.Tolerance,
			Reason:     reason,
		}
	}

	switch result.Status {
	case optimize.IterationLimit:
		return nil, fail("iteration budget exhausted")
	case optimize.RuntimeLimit:
		return nil, fail("time budget of " + f.config.TimeBudget.String() + " exhausted")
	case optimize.FunctionEvaluationLimit, optimize.GradientEvaluationLimit:
		return nil, fail("evaluation budget exhausted")
	}
	if err != nil && gradNorm > gradientAccept {
		return nil, fail(err.Error())
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, fail("objective is not finite")
	}

	x := result.X
	// snap smoothed deltas that sit inside the smoothing band to exact zero
	for j := 2; j < nt; j++ {
		if math.Abs(x[j]) < smoothing {
			x[j] = 0
		}
	}
	return x, nil
}

func errString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
