package timeseries

import (
	"math"
	"testing"
	"time"
)

func monthly(values ...float64) *Series {
	s, _ := NewRegular(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), MonthStart, values)
	return s
}

func TestNewWithTimestamps(t *testing.T) {
	ts := []time.Time{time.Now(), time.Now().Add(time.Hour)}

	if _, err := NewWithTimestamps(ts, []float64{1}); err == nil {
		t.Error("Expected error for mismatched lengths")
	}

	s, err := NewWithTimestamps(ts, []float64{1, 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Expected length 2, got %d", s.Len())
	}
}

func TestNewRegular(t *testing.T) {
	s := monthly(1, 2, 3)

	expected := []time.Time{
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range s.Timestamps {
		if !ts.Equal(expected[i]) {
			t.Errorf("Expected %v at index %d, got %v", expected[i], i, ts)
		}
	}

	if _, err := NewRegular(time.Now(), Frequency("fortnightly"), []float64{1}); err == nil {
		t.Error("Expected error for unknown frequency")
	}
}

func TestObservationsRoundTrip(t *testing.T) {
	s := monthly(10, 20, 30)
	back := FromObservations(s.Observations())

	for i := range s.Values {
		if back.Values[i] != s.Values[i] || !back.Timestamps[i].Equal(s.Timestamps[i]) {
			t.Errorf("Observation %d changed: got (%v, %f)", i, back.Timestamps[i], back.Values[i])
		}
	}
}

func TestSummaryStatistics(t *testing.T) {
	s := monthly(4, 8, 6, 2)

	if s.Sum() != 20 {
		t.Errorf("Expected sum 20, got %f", s.Sum())
	}
	if math.Abs(s.Mean()-5) > 1e-10 {
		t.Errorf("Expected mean 5, got %f", s.Mean())
	}
	if s.Min() != 2 {
		t.Errorf("Expected min 2, got %f", s.Min())
	}
	if s.Max() != 8 {
		t.Errorf("Expected max 8, got %f", s.Max())
	}

	empty := &Series{}
	if !math.IsNaN(empty.Min()) || !math.IsNaN(empty.Max()) {
		t.Error("Expected NaN min/max for empty series")
	}
	if empty.Mean() != 0 {
		t.Errorf("Expected mean 0 for empty series, got %f", empty.Mean())
	}
}

func TestFirstLastSpan(t *testing.T) {
	s := monthly(1, 2, 3)

	if !s.First().Equal(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected first timestamp %v", s.First())
	}
	if !s.Last().Equal(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected last timestamp %v", s.Last())
	}
	if s.Span() != 59*24*time.Hour {
		t.Errorf("Expected span of 59 days, got %v", s.Span())
	}
}

func TestSlice(t *testing.T) {
	s := monthly(1, 2, 3, 4, 5)
	sliced := s.Slice(1, 4)

	expected := []float64{2, 3, 4}
	if len(sliced.Values) != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), len(sliced.Values))
	}

	for i, v := range sliced.Values {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
	if !sliced.Timestamps[0].Equal(s.Timestamps[1]) {
		t.Errorf("Slice timestamps not aligned: %v", sliced.Timestamps[0])
	}

	if s.Slice(4, 2).Len() != 0 {
		t.Error("Expected empty slice for start >= end")
	}
}

func TestCopy(t *testing.T) {
	s := monthly(1, 2, 3)
	copied := s.Copy()

	s.Values[0] = 100
	s.Timestamps[0] = time.Time{}

	if copied.Values[0] != 1 {
		t.Errorf("Copy was modified when original changed")
	}
	if copied.Timestamps[0].IsZero() {
		t.Errorf("Copy timestamps were modified when original changed")
	}
}
