package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/pipeline"
)

// APIResponse is the envelope of every response.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorDetail describes one problem with a request.
type ErrorDetail struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// number marshals non-finite values as null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func errorResponse(c echo.Context, status int, details ...ErrorDetail) error {
	return respond(c, status, details)
}

// statusFor maps a pipeline error kind onto an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "validation", "dimension":
		return http.StatusBadRequest
	case "convergence":
		return http.StatusUnprocessableEntity
	case "deadline":
		return http.StatusGatewayTimeout
	case "canceled":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// pipelineError writes the response for a failed run.
func (s *Server) pipelineError(c echo.Context, err error) error {
	kind := pipeline.Kind(err)
	status := statusFor(kind)

	detail := ErrorDetail{Code: "ERR_" + strings.ToUpper(kind), Message: err.Error()}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		detail.Params = map[string]interface{}{"stage": se.Stage}
	}
	if status == http.StatusInternalServerError {
		s.log.Error("forecast request failed", logger.Error(err))
		detail.Message = "Something went wrong"
	}
	return errorResponse(c, status, detail)
}

// handleError renders errors that reached echo, such as unknown routes.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := ErrorDetail{Code: "ERR_INTERNAL", Message: "Something went wrong"}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = ErrorDetail{Code: "ERR_HTTP", Message: http.StatusText(status)}
		if msg, ok := he.Message.(string); ok {
			detail.Message = msg
		}
	} else {
		s.log.Error("unhandled error", logger.String("route", c.Path()), logger.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = errorResponse(c, status, detail)
	}
	if err != nil {
		s.log.Error("write error response", logger.Error(err))
	}
}
