package fit

import (
	"math"

	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/preprocess"
)

// activeEps is the magnitude below which a parameter counts as switched off.
const activeEps = 1e-8

// Summary describes the quality of a fitted model on its training data.
type Summary struct {
	Solver             string
	Iterations         int
	Objective          float64
	SSE                float64 // Sum of squared residuals, transformed domain
	Sigma              float64 // Residual standard deviation, transformed domain
	LogLik             float64
	AIC                float64
	AICc               float64 // Corrected AIC for small sample sizes
	BIC                float64
	NObs               int
	NParams            int // Parameters with non-zero values
	ActiveChangepoints int
}

// Residuals returns observed minus fitted values in the transformed domain.
func Residuals(model *decompose.Model, prepared *preprocess.Prepared) []float64 {
	s := prepared.Series
	out := make([]float64, s.Len())
	for i, t := range s.Timestamps {
		out[i] = s.Values[i] - model.Predict(t)
	}
	return out
}

// Summarize computes goodness-of-fit statistics for model on prepared.
func Summarize(model *decompose.Model, prepared *preprocess.Prepared) *Summary {
	resid := Residuals(model, prepared)
	n := len(resid)

	sse := 0.0
	for _, r := range resid {
		sse += r * r
	}

	k := 0
	for _, v := range model.Vector() {
		if math.Abs(v) > activeEps {
			k++
		}
	}

	s := &Summary{
		Solver:             model.Solver,
		Iterations:         model.Iterations,
		Objective:          model.Objective,
		SSE:                sse,
		NObs:               n,
		NParams:            k,
		ActiveChangepoints: len(model.ActiveChangepoints(activeEps)),
	}
	if n == 0 {
		return s
	}

	variance := sse / float64(n)
	s.Sigma = math.Sqrt(variance)

	// Gaussian log-likelihood at the ML variance estimate
	if variance > 0 {
		s.LogLik = -float64(n) / 2 * (math.Log(2*math.Pi*variance) + 1)
	} else {
		s.LogLik = math.Inf(1)
	}

	kf, nf := float64(k), float64(n)
	s.AIC = -2*s.LogLik + 2*kf
	if nf-kf-1 > 0 {
		s.AICc = s.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		s.AICc = math.Inf(1)
	}
	s.BIC = -2*s.LogLik + kf*math.Log(nf)
	return s
}
