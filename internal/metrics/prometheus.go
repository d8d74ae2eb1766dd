package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salesforecast"

// Recorder records pipeline and HTTP metrics with Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	fitIterations *prometheus.HistogramVec
	lastMAE       *prometheus.GaugeVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a recorder whose collectors are registered with reg.
// A nil reg uses the default Prometheus registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of forecast runs by result (success/failure)",
			},
			[]string{"result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed runs by stage and error type",
			},
			[]string{"stage", "type"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		fitIterations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_iterations",
				Help:      "Solver iterations used per fit",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"solver"},
		),
		lastMAE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_mae",
				Help:      "Mean absolute error of the most recent evaluation",
			},
			[]string{"in_sample"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// RecordRun records a finished run; result is "success" or "failure".
func (r *Recorder) RecordRun(result string) {
	r.runsTotal.WithLabelValues(result).Inc()
}

// RecordError records a failed stage.
func (r *Recorder) RecordError(stage, kind string) {
	r.errorsTotal.WithLabelValues(stage, kind).Inc()
}

// RecordStage records how long a pipeline stage took.
func (r *Recorder) RecordStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordFit records the iterations a solver needed.
func (r *Recorder) RecordFit(solver string, iterations int) {
	r.fitIterations.WithLabelValues(solver).Observe(float64(iterations))
}

// RecordMAE records the latest evaluation error.
func (r *Recorder) RecordMAE(mae float64, inSample bool) {
	r.lastMAE.WithLabelValues(strconv.FormatBool(inSample)).Set(mae)
}

// RecordHTTP records a served request.
func (r *Recorder) RecordHTTP(route, method string, status int, d time.Duration) {
	r.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
