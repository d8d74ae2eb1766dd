package decompose

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sartorproj/salesforecast/preprocess"
)

func monthlyHistory(n int) []time.Time {
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = time.Date(2022, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)
	}
	return ts
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "exotic" }},
		{"negative changepoints", func(c *Config) { c.Changepoints = -1 }},
		{"zero range", func(c *Config) { c.ChangepointRange = 0 }},
		{"range above one", func(c *Config) { c.ChangepointRange = 1.5 }},
		{"negative regularization", func(c *Config) { c.Regularization = -0.1 }},
		{"negative order", func(c *Config) { c.SeasonalityOrder = -2 }},
		{"zero period", func(c *Config) { c.PeriodDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}

	if _, err := New(DefaultConfig()); err != nil {
		t.Errorf("Default config rejected: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Multiplicative"); err != nil || m != Multiplicative {
		t.Errorf("Expected multiplicative, got %v (%v)", m, err)
	}
	if m, err := ParseMode("additive"); err != nil || m != Additive {
		t.Errorf("Expected additive, got %v (%v)", m, err)
	}
	if _, err := ParseMode("both"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestModeFixedAtConstruction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Additive
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cfg.Mode = Multiplicative
	if d.Mode() != Additive {
		t.Error("Decomposer mode changed after construction")
	}

	got := d.Config()
	got.Mode = Multiplicative
	if d.Mode() != Additive {
		t.Error("Mutating the returned config changed the decomposer")
	}
}

func TestPlaceChangepoints(t *testing.T) {
	history := monthlyHistory(24)

	cfg := DefaultConfig()
	d, _ := New(cfg)
	cps := d.PlaceChangepoints(history)

	// 24 points, 80% range -> 19 eligible, capped at 18 changepoints
	if len(cps) != 18 {
		t.Fatalf("Expected 18 changepoints, got %d", len(cps))
	}
	if !cps[0].After(history[0]) {
		t.Error("First history point must not be a changepoint")
	}
	for i := 1; i < len(cps); i++ {
		if !cps[i].After(cps[i-1]) {
			t.Errorf("Changepoints not strictly increasing at %d", i)
		}
	}
	limit := history[int(math.Floor(0.8*24))]
	if cps[len(cps)-1].After(limit) {
		t.Errorf("Changepoint %v outside the changepoint range", cps[len(cps)-1])
	}

	cfg.Changepoints = 3
	d, _ = New(cfg)
	cps = d.PlaceChangepoints(history)
	if len(cps) != 3 {
		t.Fatalf("Expected 3 changepoints, got %d", len(cps))
	}
	t.Logf("changepoints: %v", cps)

	cfg.Changepoints = 0
	d, _ = New(cfg)
	if cps := d.PlaceChangepoints(history); len(cps) != 0 {
		t.Errorf("Expected no changepoints, got %d", len(cps))
	}

	cfg.Changepoints = 25
	d, _ = New(cfg)
	if cps := d.PlaceChangepoints(history[:2]); len(cps) != 0 {
		t.Errorf("Expected no changepoints for two points, got %d", len(cps))
	}
}

func TestChangepointsAreNested(t *testing.T) {
	for _, n := range []int{10, 24, 48, 61} {
		history := monthlyHistory(n)
		var prev []time.Time
		for count := 0; count <= n; count++ {
			cfg := DefaultConfig()
			cfg.Changepoints = count
			d, _ := New(cfg)
			cps := d.PlaceChangepoints(history)

			have := make(map[time.Time]bool, len(cps))
			for _, c := range cps {
				have[c] = true
			}
			for _, c := range prev {
				if !have[c] {
					t.Errorf("n=%d: changepoint %v for %d changepoints missing from %d", n, c, len(prev), count)
				}
			}
			if len(cps) < len(prev) {
				t.Errorf("n=%d: %d changepoints after %d", n, len(cps), len(prev))
			}
			prev = cps
		}
		if want := int(math.Floor(float64(n)*0.8)) - 1; len(prev) != want {
			t.Errorf("n=%d: expected every eligible index used, got %d of %d", n, len(prev), want)
		}
	}
}

func TestRefinementOrder(t *testing.T) {
	got := refinementOrder(8)
	want := []int{8, 4, 2, 6, 1, 3, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestTrendIsContinuous(t *testing.T) {
	history := monthlyHistory(36)
	cfg := DefaultConfig()
	cfg.Changepoints = 4
	cfg.SeasonalityOrder = 0
	d, _ := New(cfg)

	m, err := d.NewModel(history, make([]float64, len(history)), nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	m.Params.M = 0.2
	m.Params.K = 0.5
	for j := range m.Params.Deltas {
		m.Params.Deltas[j] = float64(j+1) * 0.7 * math.Pow(-1, float64(j))
	}

	for _, c := range m.Changepoints() {
		before := m.Trend(c.Add(-time.Second))
		after := m.Trend(c.Add(time.Second))
		if math.Abs(after-before) > 1e-5 {
			t.Errorf("Trend jumps at changepoint %v: %f -> %f", c, before, after)
		}
	}
}

func TestFeaturesMatchPredict(t *testing.T) {
	history := monthlyHistory(30)
	values := make([]float64, len(history))
	for i := range values {
		values[i] = 10 + float64(i)
	}

	cfg := DefaultConfig()
	cfg.Mode = Additive
	cfg.Changepoints = 5
	cfg.SeasonalityOrder = 2
	d, _ := New(cfg)
	m, err := d.NewModel(history, values, preprocess.Identity{})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	x := make([]float64, m.NumParams())
	for i := range x {
		x[i] = 0.01 * float64(i+1)
	}
	m.SetVector(x)

	back := m.Vector()
	for i := range x {
		if back[i] != x[i] {
			t.Fatalf("Vector round trip mismatch at %d", i)
		}
	}

	trow := make([]float64, m.NumTrendParams())
	srow := make([]float64, m.NumSeasonalParams())
	for _, ts := range history {
		m.TrendFeatures(m.ScaleTime(ts), trow)
		m.SeasonalFeatures(ts, srow)
		sum := 0.0
		for j, v := range trow {
			sum += x[j] * v
		}
		for j, v := range srow {
			sum += x[len(trow)+j] * v
		}
		if got := m.Predict(ts); math.Abs(got-sum*m.Scale()) > 1e-9 {
			t.Errorf("Predict(%v) = %f, design row gives %f", ts, got, sum*m.Scale())
		}
	}
}

func TestMultiplicativeCombination(t *testing.T) {
	history := monthlyHistory(12)
	cfg := DefaultConfig()
	cfg.Changepoints = 0
	cfg.SeasonalityOrder = 1
	d, _ := New(cfg)

	m, _ := d.NewModel(history, []float64{2}, nil)
	m.Params.M = 1
	m.Params.Beta[0] = 0.1

	for _, ts := range history {
		c := m.Components(ts)
		if math.Abs(c.Value-c.Trend*(1+c.Seasonal)) > 1e-12 {
			t.Errorf("Multiplicative value %f != trend %f * (1 + %f)", c.Value, c.Trend, c.Seasonal)
		}
	}
	if m.Mode() != Multiplicative {
		t.Errorf("Expected multiplicative mode, got %s", m.Mode())
	}
}

func TestNewModelErrors(t *testing.T) {
	d, _ := New(DefaultConfig())
	if _, err := d.NewModel(monthlyHistory(1), []float64{1}, nil); err == nil {
		t.Error("Expected error for a single history point")
	}
	same := []time.Time{monthlyHistory(1)[0], monthlyHistory(1)[0]}
	if _, err := d.NewModel(same, []float64{1, 2}, nil); err == nil {
		t.Error("Expected error for zero-length history span")
	}
}

func TestCheckTrend(t *testing.T) {
	history := monthlyHistory(12)
	cfg := DefaultConfig()
	cfg.Changepoints = 0
	cfg.SeasonalityOrder = 1

	tests := []struct {
		name  string
		mode  Mode
		tr    preprocess.Transform
		index int // -1 when the trend passes
	}{
		{"multiplicative identity", Multiplicative, preprocess.Identity{}, 6},
		{"multiplicative log", Multiplicative, preprocess.Log{}, -1},
		{"additive identity", Additive, preprocess.Identity{}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.Mode = tt.mode
			d, _ := New(c)
			m, _ := d.NewModel(history, []float64{2}, tt.tr)
			// trend falls from 1 at the first point to -1 at the last
			m.Params.M = 0.5
			m.Params.K = -1

			err := m.CheckTrend("fit", history)
			if tt.index < 0 {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var ve *preprocess.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Index != tt.index || !ve.Timestamp.Equal(history[tt.index]) {
				t.Errorf("Expected first non-positive trend at %d, got %d (%v)", tt.index, ve.Index, ve.Timestamp)
			}
			if ve.Value > 0 {
				t.Errorf("Expected a non-positive trend value, got %f", ve.Value)
			}
		})
	}
}
