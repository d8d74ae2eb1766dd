package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_RecordRun(t *testing.T) {
	recorder := New(prometheus.NewRegistry())

	recorder.RecordRun("success")
	recorder.RecordRun("success")
	recorder.RecordRun("failure")

	if count := testutil.ToFloat64(recorder.runsTotal.WithLabelValues("success")); count != 2.0 {
		t.Errorf("Expected 2 successful runs, got %f", count)
	}
	if count := testutil.ToFloat64(recorder.runsTotal.WithLabelValues("failure")); count != 1.0 {
		t.Errorf("Expected 1 failed run, got %f", count)
	}
}

func TestRecorder_RecordError(t *testing.T) {
	recorder := New(prometheus.NewRegistry())

	recorder.RecordError("fit", "convergence")
	recorder.RecordError("fit", "convergence")
	recorder.RecordError("preprocess", "validation")

	if count := testutil.ToFloat64(recorder.errorsTotal.WithLabelValues("fit", "convergence")); count != 2.0 {
		t.Errorf("Expected 2 convergence errors, got %f", count)
	}
}

func TestRecorder_RecordMAE(t *testing.T) {
	recorder := New(prometheus.NewRegistry())

	recorder.RecordMAE(12.5, true)
	recorder.RecordMAE(10.0, true)
	recorder.RecordMAE(30.0, false)

	if v := testutil.ToFloat64(recorder.lastMAE.WithLabelValues("true")); v != 10.0 {
		t.Errorf("Expected last in-sample MAE 10, got %f", v)
	}
	if v := testutil.ToFloat64(recorder.lastMAE.WithLabelValues("false")); v != 30.0 {
		t.Errorf("Expected last hold-out MAE 30, got %f", v)
	}
}

func TestRecorder_Histograms(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := New(registry)

	recorder.RecordStage("fit", 150*time.Millisecond)
	recorder.RecordStage("forecast", 2*time.Millisecond)
	recorder.RecordFit("coordinate", 420)
	recorder.RecordHTTP("/api/v1/forecast", "POST", 200, 30*time.Millisecond)

	if n := testutil.CollectAndCount(recorder.stageDuration); n != 2 {
		t.Errorf("Expected 2 stage series, got %d", n)
	}

	expected := `
# HELP salesforecast_http_requests_total Total number of HTTP requests
# TYPE salesforecast_http_requests_total counter
salesforecast_http_requests_total{method="POST",route="/api/v1/forecast",status="200"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "salesforecast_http_requests_total"); err != nil {
		t.Errorf("Unexpected metrics output: %v", err)
	}
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	// Two recorders on different registries must not collide.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
