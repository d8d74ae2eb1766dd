// Package server exposes the forecasting pipeline over HTTP with echo.
//
// Routes:
//
//	POST /api/v1/forecast  run the pipeline on posted observations
//	GET  /healthz          liveness probe
//	GET  /metrics          Prometheus metrics, when a gatherer is configured
//
// Every request runs an independent pipeline. Options omitted from a request
// fall back to the options the server was created with.
package server
