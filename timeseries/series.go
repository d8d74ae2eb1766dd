// Package timeseries provides the sales series data structures shared by every stage.
package timeseries

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Observation is a single (timestamp, value) pair.
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// Series represents a time series with timestamps and values.
// Insertion order is chronological order once the series has been preprocessed.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// NewRegular creates a series whose timestamps start at start and advance by freq.
func NewRegular(start time.Time, freq Frequency, values []float64) (*Series, error) {
	if !freq.Valid() {
		return nil, errors.New("unknown frequency " + string(freq))
	}
	timestamps := make([]time.Time, len(values))
	for i := range values {
		timestamps[i] = freq.Step(start, i)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// FromObservations creates a series from observation pairs, keeping their order.
func FromObservations(obs []Observation) *Series {
	s := &Series{
		Timestamps: make([]time.Time, len(obs)),
		Values:     make([]float64, len(obs)),
	}
	for i, o := range obs {
		s.Timestamps[i] = o.Timestamp
		s.Values[i] = o.Value
	}
	return s
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Observations returns the series as observation pairs.
func (s *Series) Observations() []Observation {
	n := min(len(s.Timestamps), len(s.Values))
	obs := make([]Observation, n)
	for i := 0; i < n; i++ {
		obs[i] = Observation{Timestamp: s.Timestamps[i], Value: s.Values[i]}
	}
	return obs
}

// Sum returns the total of all values.
func (s *Series) Sum() float64 {
	return floats.Sum(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// First returns the earliest timestamp, assuming the series is sorted.
func (s *Series) First() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// Last returns the latest timestamp, assuming the series is sorted.
func (s *Series) Last() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// Span returns the duration between the first and last timestamp.
func (s *Series) Span() time.Duration {
	return s.Last().Sub(s.First())
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}
