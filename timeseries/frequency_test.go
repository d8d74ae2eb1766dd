package timeseries

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthStartGrid(t *testing.T) {
	grid := MonthStart.Grid(date(2024, time.December, 1), 6)

	expected := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.February, 1),
		date(2025, time.March, 1),
		date(2025, time.April, 1),
		date(2025, time.May, 1),
		date(2025, time.June, 1),
	}
	if len(grid) != len(expected) {
		t.Fatalf("Expected %d timestamps, got %d", len(expected), len(grid))
	}
	for i := range expected {
		if !grid[i].Equal(expected[i]) {
			t.Errorf("Step %d: expected %v, got %v", i+1, expected[i], grid[i])
		}
	}
}

func TestFrequencyStep(t *testing.T) {
	tests := []struct {
		name     string
		freq     Frequency
		from     time.Time
		n        int
		expected time.Time
	}{
		{"hourly", Hourly, date(2024, time.March, 1), 5, date(2024, time.March, 1).Add(5 * time.Hour)},
		{"daily", Daily, date(2024, time.February, 28), 2, date(2024, time.March, 1)},
		{"weekly", Weekly, date(2024, time.January, 1), 2, date(2024, time.January, 15)},
		{"month start mid month", MonthStart, date(2024, time.January, 15), 1, date(2024, time.February, 1)},
		{"month end anchored", MonthEnd, date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"month end mid month", MonthEnd, date(2024, time.January, 10), 1, date(2024, time.January, 31)},
		{"quarter start", QuarterStart, date(2024, time.May, 20), 1, date(2024, time.July, 1)},
		{"quarter wraps year", QuarterStart, date(2024, time.October, 1), 2, date(2025, time.April, 1)},
		{"year start", YearStart, date(2024, time.June, 1), 1, date(2025, time.January, 1)},
		{"zero step", MonthStart, date(2024, time.June, 9), 0, date(2024, time.June, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.freq.Step(tt.from, tt.n)
			if !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	for _, in := range []string{"MS", "ms", "monthly", " D ", "W", "YS", "QS", "ME", "H"} {
		f, err := ParseFrequency(in)
		if err != nil {
			t.Errorf("ParseFrequency(%q) failed: %v", in, err)
			continue
		}
		if !f.Valid() {
			t.Errorf("ParseFrequency(%q) returned invalid frequency %q", in, f)
		}
	}

	if _, err := ParseFrequency("every other tuesday"); err == nil {
		t.Error("Expected error for unknown frequency")
	}
}
