package server

import (
	"github.com/sartorproj/salesforecast/pipeline"
	"github.com/sartorproj/salesforecast/timeseries"
	"github.com/sartorproj/salesforecast/tune"
)

// PointResponse is one forecast row.
type PointResponse struct {
	Timestamp string `json:"ds"`
	Value     number `json:"yhat"`
	Lower     number `json:"yhat_lower"`
	Upper     number `json:"yhat_upper"`
	Trend     number `json:"trend"`
	InSample  bool   `json:"in_sample"`
}

// EvaluationResponse reports how well the model matched the actuals.
type EvaluationResponse struct {
	MAE      number `json:"mae"`
	Window   int    `json:"window"`
	InSample bool   `json:"in_sample"`
	MSE      number `json:"mse"`
	RMSE     number `json:"rmse"`
	MAPE     number `json:"mape"`
	SMAPE    number `json:"smape"`
	// LjungBoxP is absent when there are too few residuals to test.
	LjungBoxP  *number `json:"ljung_box_p,omitempty"`
	BoxPierceP *number `json:"box_pierce_p,omitempty"`
}

// FitResponse summarises the fitted model.
type FitResponse struct {
	Mode               string   `json:"mode"`
	Transform          string   `json:"transform"`
	Solver             string   `json:"solver"`
	Iterations         int      `json:"iterations"`
	AIC                number   `json:"aic"`
	BIC                number   `json:"bic"`
	ActiveChangepoints []string `json:"active_changepoints"`
}

// ProfileResponse carries the dashboard figures of the history.
type ProfileResponse struct {
	Observations     int    `json:"observations"`
	Dropped          int    `json:"dropped"`
	Total            number `json:"total"`
	Mean             number `json:"mean"`
	Min              number `json:"min"`
	Max              number `json:"max"`
	TrendStrength    number `json:"trend_strength"`
	SeasonalStrength number `json:"seasonal_strength"`
}

// TuningResponse describes the configuration chosen by a search.
type TuningResponse struct {
	Criterion        string  `json:"criterion"`
	Score            number  `json:"score"`
	Evaluated        int     `json:"evaluated"`
	Failed           int     `json:"failed"`
	Mode             string  `json:"mode"`
	Changepoints     int     `json:"changepoints"`
	Regularization   float64 `json:"regularization"`
	SeasonalityOrder int     `json:"seasonality_order"`
}

// ForecastResponse is the data of a successful forecast request.
type ForecastResponse struct {
	Name       string             `json:"name"`
	Points     []PointResponse    `json:"points"`
	Warnings   []string           `json:"warnings,omitempty"`
	Evaluation EvaluationResponse `json:"evaluation"`
	Fit        FitResponse        `json:"fit"`
	Profile    ProfileResponse    `json:"profile"`
	Tuning     *TuningResponse    `json:"tuning,omitempty"`
	ElapsedMS  int64              `json:"elapsed_ms"`
}

func newForecastResponse(name string, res *pipeline.Result) *ForecastResponse {
	out := &ForecastResponse{
		Name:      name,
		Points:    make([]PointResponse, len(res.Forecast.Points)),
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
	for i, p := range res.Forecast.Points {
		out.Points[i] = PointResponse{
			Timestamp: timeseries.FormatTimestamp(p.Timestamp),
			Value:     number(p.Value),
			Lower:     number(p.Lower),
			Upper:     number(p.Upper),
			Trend:     number(p.Trend),
			InSample:  p.InSample,
		}
	}
	for _, w := range res.Forecast.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}

	ev := res.Evaluation
	out.Evaluation = EvaluationResponse{MAE: number(ev.MAE), Window: ev.Window, InSample: ev.InSample}
	if m := ev.Metrics; m != nil {
		out.Evaluation.MSE = number(m.MSE)
		out.Evaluation.RMSE = number(m.RMSE)
		out.Evaluation.MAPE = number(m.MAPE)
		out.Evaluation.SMAPE = number(m.SMAPE)
	}
	if d := ev.Diagnostics; d != nil {
		if d.LjungBox != nil {
			p := number(d.LjungBox.PValue)
			out.Evaluation.LjungBoxP = &p
		}
		if d.BoxPierce != nil {
			p := number(d.BoxPierce.PValue)
			out.Evaluation.BoxPierceP = &p
		}
	}

	active := res.Model.ActiveChangepoints(activeDelta)
	out.Fit = FitResponse{
		Mode:               string(res.Model.Mode()),
		Transform:          res.Model.Transform().Name(),
		Solver:             res.Summary.Solver,
		Iterations:         res.Summary.Iterations,
		AIC:                number(res.Summary.AIC),
		BIC:                number(res.Summary.BIC),
		ActiveChangepoints: make([]string, len(active)),
	}
	for i, t := range active {
		out.Fit.ActiveChangepoints[i] = timeseries.FormatTimestamp(t)
	}

	p := res.Profile
	out.Profile = ProfileResponse{
		Observations:     p.Observations,
		Dropped:          p.Dropped,
		Total:            number(p.Total),
		Mean:             number(p.Mean),
		Min:              number(p.Min),
		Max:              number(p.Max),
		TrendStrength:    number(p.TrendStrength),
		SeasonalStrength: number(p.SeasonalStrength),
	}

	if res.Tuning != nil {
		out.Tuning = newTuningResponse(res.Tuning)
	}
	return out
}

func newTuningResponse(r *tune.Result) *TuningResponse {
	return &TuningResponse{
		Criterion:        string(r.Criterion),
		Score:            number(r.Score),
		Evaluated:        r.ModelsEvaluated,
		Failed:           r.Failed,
		Mode:             string(r.Best.Mode),
		Changepoints:     r.Best.Changepoints,
		Regularization:   r.Best.Regularization,
		SeasonalityOrder: r.Best.SeasonalityOrder,
	}
}
