package preprocess

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sartorproj/salesforecast/timeseries"
)

func ts(month int) time.Time {
	return time.Date(2024, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func TestTransformRoundTrip(t *testing.T) {
	values := []float64{1e-9, 0.5, 1, math.E, 42, 12345.678, 1e12}

	for _, tr := range []Transform{Identity{}, Log{}} {
		for _, v := range values {
			got := tr.Inverse(tr.Apply(v))
			if math.Abs(got-v) > 1e-12*math.Max(1, v) {
				t.Errorf("%s: inverse(apply(%g)) = %g", tr.Name(), v, got)
			}
		}
	}
}

func TestParseTransform(t *testing.T) {
	tests := []struct {
		in   string
		name string
		ok   bool
	}{
		{"", "identity", true},
		{"identity", "identity", true},
		{"LOG", "log", true},
		{"logarithmic", "log", true},
		{"boxcox", "", false},
	}

	for _, tt := range tests {
		tr, err := ParseTransform(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseTransform(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && tr.Name() != tt.name {
			t.Errorf("ParseTransform(%q) = %s, want %s", tt.in, tr.Name(), tt.name)
		}
	}
}

func TestPrepareSortsAndTransforms(t *testing.T) {
	raw := &timeseries.Series{
		Timestamps: []time.Time{ts(3), ts(1), ts(2)},
		Values:     []float64{30, 10, 20},
		Name:       "Sales",
	}

	prepared, err := Prepare(raw, Options{Transform: Log{}})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	for i, want := range []float64{10, 20, 30} {
		if !prepared.Series.Timestamps[i].Equal(ts(i + 1)) {
			t.Errorf("Index %d: expected %v, got %v", i, ts(i+1), prepared.Series.Timestamps[i])
		}
		if math.Abs(prepared.Series.Values[i]-math.Log(want)) > 1e-12 {
			t.Errorf("Index %d: expected log(%f), got %f", i, want, prepared.Series.Values[i])
		}
		if prepared.Original.Values[i] != want {
			t.Errorf("Index %d: expected original %f, got %f", i, want, prepared.Original.Values[i])
		}
	}

	if prepared.Transform.Name() != "log" {
		t.Errorf("Expected log transform tag, got %s", prepared.Transform.Name())
	}

	// input untouched
	if raw.Values[0] != 30 || !raw.Timestamps[0].Equal(ts(3)) {
		t.Error("Prepare modified its input")
	}
}

func TestPrepareNonPositiveValue(t *testing.T) {
	raw := &timeseries.Series{
		Timestamps: []time.Time{ts(1), ts(2), ts(3)},
		Values:     []float64{10, 0, 30},
	}

	_, err := Prepare(raw, Options{Transform: Log{}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError with log transform, got %v", err)
	}
	if verr.Index != 1 || verr.Value != 0 {
		t.Errorf("Expected offending observation 1 with value 0, got %d/%g", verr.Index, verr.Value)
	}
	t.Logf("error: %v", err)

	if _, err := Prepare(raw, Options{Transform: Identity{}}); err != nil {
		t.Errorf("Expected identity transform to accept zero, got %v", err)
	}
}

func TestPrepareRejects(t *testing.T) {
	tests := []struct {
		name   string
		series *timeseries.Series
		opts   Options
	}{
		{"nil series", nil, Options{}},
		{"single observation", &timeseries.Series{Timestamps: []time.Time{ts(1)}, Values: []float64{1}}, Options{}},
		{"length mismatch", &timeseries.Series{Timestamps: []time.Time{ts(1)}, Values: []float64{1, 2}}, Options{}},
		{"duplicate timestamps", &timeseries.Series{Timestamps: []time.Time{ts(1), ts(2), ts(1)}, Values: []float64{1, 2, 3}}, Options{}},
		{"zero timestamp", &timeseries.Series{Timestamps: []time.Time{ts(1), {}}, Values: []float64{1, 2}}, Options{}},
		{"infinite value", &timeseries.Series{Timestamps: []time.Time{ts(1), ts(2)}, Values: []float64{1, math.Inf(1)}}, Options{}},
		{"gap not allowed", &timeseries.Series{Timestamps: []time.Time{ts(1), ts(2), ts(3)}, Values: []float64{1, math.NaN(), 3}}, Options{}},
		{"only one left after gaps", &timeseries.Series{Timestamps: []time.Time{ts(1), ts(2)}, Values: []float64{1, math.NaN()}}, Options{DropMissing: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.series, tt.opts)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Stage != "preprocess" {
				t.Errorf("Expected stage preprocess, got %s", verr.Stage)
			}
		})
	}
}

func TestPrepareDropsGaps(t *testing.T) {
	raw := &timeseries.Series{
		Timestamps: []time.Time{ts(1), ts(2), ts(3), ts(4)},
		Values:     []float64{10, math.NaN(), 30, 40},
	}

	prepared, err := Prepare(raw, DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if prepared.Series.Len() != 3 {
		t.Errorf("Expected 3 observations, got %d", prepared.Series.Len())
	}
	if prepared.Dropped != 1 {
		t.Errorf("Expected 1 dropped gap, got %d", prepared.Dropped)
	}
}
