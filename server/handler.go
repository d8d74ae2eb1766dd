package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/pipeline"
	"github.com/sartorproj/salesforecast/preprocess"
	"github.com/sartorproj/salesforecast/timeseries"
	"github.com/sartorproj/salesforecast/tune"
)

// activeDelta is the smallest rate change reported as an active changepoint.
const activeDelta = 1e-8

// Observation is one posted data point. A null or missing y is a gap.
type Observation struct {
	Timestamp string   `json:"ds" validate:"required"`
	Value     *float64 `json:"y"`
}

// ForecastRequest is the body of POST /api/v1/forecast. Zero or absent
// options inherit the server defaults.
type ForecastRequest struct {
	Name         string        `json:"name" default:"Sales"`
	Observations []Observation `json:"observations" validate:"required,min=2,dive"`

	Periods          int      `json:"periods" validate:"gte=0,lte=1000"`
	Frequency        string   `json:"frequency" validate:"omitempty,frequency"`
	Transform        string   `json:"transform" validate:"omitempty,oneof=identity log"`
	Mode             string   `json:"mode" validate:"omitempty,oneof=additive multiplicative"`
	Solver           string   `json:"solver" validate:"omitempty,oneof=coordinate lbfgs"`
	Changepoints     *int     `json:"changepoints" validate:"omitempty,gte=0,lte=100"`
	Regularization   *float64 `json:"regularization" validate:"omitempty,gte=0"`
	SeasonalityOrder *int     `json:"seasonality_order" validate:"omitempty,gte=0,lte=20"`
	IntervalWidth    *float64 `json:"interval_width" validate:"omitempty,gte=0,lt=1"`
	IncludeHistory   *bool    `json:"include_history"`
	Holdout          int      `json:"holdout" validate:"gte=0"`
	Tune             bool     `json:"tune"`
}

// Series converts the observations, reporting every unparseable timestamp.
func (r *ForecastRequest) Series() (*timeseries.Series, []ErrorDetail) {
	s := &timeseries.Series{
		Name:       r.Name,
		Timestamps: make([]time.Time, 0, len(r.Observations)),
		Values:     make([]float64, 0, len(r.Observations)),
	}
	var details []ErrorDetail
	for i, o := range r.Observations {
		ts, err := timeseries.ParseTimestamp(o.Timestamp)
		if err != nil {
			details = append(details, ErrorDetail{
				Code:    "ERR_TIMESTAMP",
				Field:   fmt.Sprintf("observations[%d].ds", i),
				Message: err.Error(),
			})
			continue
		}
		v := math.NaN()
		if o.Value != nil {
			v = *o.Value
		}
		s.Timestamps = append(s.Timestamps, ts)
		s.Values = append(s.Values, v)
	}
	return s, details
}

// Options layers the request overrides on base.
func (r *ForecastRequest) Options(base pipeline.Options) (pipeline.Options, error) {
	opts := base
	if r.Periods > 0 {
		opts.Horizon.Periods = r.Periods
	}
	if r.Frequency != "" {
		freq, err := timeseries.ParseFrequency(r.Frequency)
		if err != nil {
			return opts, err
		}
		opts.Horizon.Frequency = freq
	}
	if r.Transform != "" {
		tr, err := preprocess.ParseTransform(r.Transform)
		if err != nil {
			return opts, err
		}
		opts.Preprocess.Transform = tr
	}
	if r.Mode != "" {
		mode, err := decompose.ParseMode(r.Mode)
		if err != nil {
			return opts, err
		}
		opts.Decompose.Mode = mode
	}
	if r.Solver != "" {
		opts.Fit.Solver = r.Solver
	}
	if r.Changepoints != nil {
		opts.Decompose.Changepoints = *r.Changepoints
	}
	if r.Regularization != nil {
		opts.Decompose.Regularization = *r.Regularization
	}
	if r.SeasonalityOrder != nil {
		opts.Decompose.SeasonalityOrder = *r.SeasonalityOrder
	}
	if r.IntervalWidth != nil {
		opts.Forecast.IntervalWidth = *r.IntervalWidth
	}
	if r.IncludeHistory != nil {
		opts.Forecast.IncludeHistory = *r.IncludeHistory
	}
	if r.Holdout > 0 {
		opts.Holdout = r.Holdout
	}
	if r.Tune && opts.Tune == nil {
		opts.Tune = tune.DefaultConfig()
		opts.Tune.SeasonalityOrders = []int{opts.Decompose.SeasonalityOrder}
	}
	return opts, nil
}

func (s *Server) health(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) forecast(c echo.Context) error {
	req := &ForecastRequest{}
	if details := s.readAndValidate(c, req); details != nil {
		return errorResponse(c, http.StatusBadRequest, details...)
	}
	if limit := s.config.MaxObservations; limit > 0 && len(req.Observations) > limit {
		return errorResponse(c, http.StatusRequestEntityTooLarge, ErrorDetail{
			Code:    "ERR_TOO_MANY_OBSERVATIONS",
			Field:   "observations",
			Message: fmt.Sprintf("at most %d observations are accepted", limit),
			Params:  map[string]interface{}{"max": limit},
		})
	}

	series, details := req.Series()
	if details != nil {
		return errorResponse(c, http.StatusBadRequest, details...)
	}
	opts, err := req.Options(s.options)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, ErrorDetail{Code: "ERR_OPTIONS", Message: err.Error()})
	}

	ctx := c.Request().Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	popts := []pipeline.Option{pipeline.WithLogger(s.log)}
	if s.rec != nil {
		popts = append(popts, pipeline.WithRecorder(s.rec))
	}
	res, err := pipeline.New(opts, popts...).Run(ctx, series)
	if err != nil {
		return s.pipelineError(c, err)
	}
	return respond(c, http.StatusOK, newForecastResponse(series.Name, res))
}

// readAndValidate binds the body, applies defaults and validates req.
func (s *Server) readAndValidate(c echo.Context, req interface{}) []ErrorDetail {
	if err := c.Bind(req); err != nil {
		return validationDetails(err)
	}
	if err := defaults.Set(req); err != nil {
		return validationDetails(err)
	}
	if err := s.validate.StructCtx(c.Request().Context(), req); err != nil {
		return validationDetails(err)
	}
	return nil
}

func validationDetails(err error) []ErrorDetail {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ErrorDetail{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Namespace(),
				Message: fieldMessage(fe),
			})
		}
		return details
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ErrorDetail{{Code: "ERR_BIND", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ErrorDetail{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "frequency":
		return fmt.Sprintf("%s must be one of H, D, W, MS, ME, QS, YS", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
