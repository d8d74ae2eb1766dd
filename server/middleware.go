package server

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sartorproj/salesforecast/internal/logger"
)

// slowRequest is the latency above which successful requests log a warning.
const slowRequest = 5 * time.Second

// recover turns a panic in a handler into a 500 response.
func (s *Server) recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					s.log.Error("panic recovered",
						logger.String("route", c.Path()),
						logger.Error(perr),
						logger.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %w", perr)
				}
			}()
			return next(c)
		}
	}
}

// requestLogging logs each request and records its metrics under the route
// template rather than the raw URL.
func (s *Server) requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			latency := time.Since(start)
			if s.rec != nil {
				s.rec.RecordHTTP(route, req.Method, status, latency)
			}

			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", route),
				logger.String("remote", c.RealIP()),
				logger.Int("status", status),
				logger.Duration("duration_ms", latency),
				logger.Int("bytes", int(c.Response().Size)),
			}
			switch {
			case status >= 500:
				s.log.Error("http request failed", fields...)
			case latency >= slowRequest:
				s.log.Warn("http request slow", fields...)
			default:
				s.log.Debug("http request", fields...)
			}
			return err
		}
	}
}
