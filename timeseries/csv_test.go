package timeseries

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestLoadCSVFromReader(t *testing.T) {
	csvData := `Date,Region,Sales
2024-01-01,EU,100
2024-02-01,EU,"1,250"
2024-03-01,EU,102`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("Expected 3 observations, got %d", series.Len())
	}

	expected := []float64{100, 1250, 102}
	for i, v := range expected {
		if series.Values[i] != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, series.Values[i])
		}
	}
	if !series.Timestamps[1].Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected timestamp %v", series.Timestamps[1])
	}
	if series.Name != "Sales" {
		t.Errorf("Expected series name Sales, got %q", series.Name)
	}
}

func TestLoadCSVMissingValuesBecomeNaN(t *testing.T) {
	csvData := `Date,Sales
2024-01-01,100
2024-02-01,NA
2024-03-01,
2024-04-01,103`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 4 {
		t.Fatalf("Expected 4 observations, got %d", series.Len())
	}
	if !math.IsNaN(series.Values[1]) || !math.IsNaN(series.Values[2]) {
		t.Errorf("Expected NaN gaps, got %v", series.Values)
	}
}

func TestLoadCSVCustomColumns(t *testing.T) {
	csvData := `month;revenue
2024-01;10
2024-02;11`

	opts := &CSVOptions{DateColumn: "month", ValueColumn: "revenue", Delimiter: ';'}
	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if series.Len() != 2 || series.Values[1] != 11 {
		t.Errorf("Unexpected series %v", series.Values)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts *CSVOptions
	}{
		{"missing date column", "Day,Sales\n2024-01-01,1", nil},
		{"missing value column", "Date,Units\n2024-01-01,1", nil},
		{"bad date", "Date,Sales\nyesterday,1", nil},
		{"bad value", "Date,Sales\n2024-01-01,lots", nil},
		{"header only", "Date,Sales\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCSVFromReader(strings.NewReader(tt.data), tt.opts); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadCSVSkipInvalid(t *testing.T) {
	csvData := `Date,Sales
2024-01-01,100
yesterday,5
2024-03-01,lots
2024-04-01,103`

	opts := DefaultCSVOptions()
	opts.SkipInvalid = true
	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if series.Len() != 2 {
		t.Errorf("Expected 2 observations after skipping, got %d", series.Len())
	}
}

func TestWriteCSV(t *testing.T) {
	s, _ := NewRegular(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), MonthStart, []float64{1.5, 2})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	expected := "Date,Sales\n2024-01-01,1.5\n2024-02-01,2\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}

	back, err := LoadCSVFromReader(&buf, nil)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if back.Len() != 2 {
		t.Errorf("Expected 2 rows after reload, got %d", back.Len())
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-01", " 2024-03-01T00:00:00Z", "2024/03/01", "03/01/2024", "2024-03"} {
		got, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %s, expected %s", s, got, want)
		}
	}
	if _, err := ParseTimestamp("March 2024"); err == nil {
		t.Error("Expected error for unknown layout")
	}
}
