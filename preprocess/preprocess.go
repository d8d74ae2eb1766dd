// Package preprocess validates a raw sales series and turns it into a
// fitting-ready representation.
package preprocess

import (
	"math"
	"sort"
	"time"

	"github.com/sartorproj/salesforecast/timeseries"
)

// MinObservations is the smallest series that can be fitted.
const MinObservations = 2

// Options configures Prepare.
type Options struct {
	Transform Transform // nil means Identity
	// DropMissing removes NaN values (gaps) instead of rejecting them.
	DropMissing bool
}

// DefaultOptions returns the options used by the sales dashboard: log transform,
// gaps dropped.
func DefaultOptions() Options {
	return Options{Transform: Log{}, DropMissing: true}
}

// Prepared is a validated, sorted and transformed series.
type Prepared struct {
	// Series holds transformed values in ascending timestamp order.
	Series *timeseries.Series
	// Original holds the same observations untransformed.
	Original  *timeseries.Series
	Transform Transform
	// Dropped counts NaN gaps removed from the input.
	Dropped int
}

// Prepare validates series and returns a sorted, transformed copy. The input is
// never modified. Duplicate timestamps are rejected rather than merged.
func Prepare(series *timeseries.Series, opts Options) (*Prepared, error) {
	if series == nil {
		return nil, invalid("series is nil")
	}
	if len(series.Timestamps) != len(series.Values) {
		return nil, invalid("%d timestamps but %d values", len(series.Timestamps), len(series.Values))
	}
	tr := opts.Transform
	if tr == nil {
		tr = Identity{}
	}

	type point struct {
		idx int
		ts  time.Time
		v   float64
	}
	points := make([]point, 0, series.Len())
	dropped := 0

	for i, v := range series.Values {
		ts := series.Timestamps[i]
		if ts.IsZero() {
			return nil, &ValidationError{Stage: "preprocess", Index: i, Value: v, Reason: "timestamp is not set"}
		}
		if math.IsNaN(v) {
			if opts.DropMissing {
				dropped++
				continue
			}
			return nil, &ValidationError{Stage: "preprocess", Index: i, Timestamp: ts, Value: v, Reason: "missing value"}
		}
		if math.IsInf(v, 0) || !tr.InDomain(v) {
			return nil, &ValidationError{
				Stage:     "preprocess",
				Index:     i,
				Timestamp: ts,
				Value:     v,
				Reason:    "value outside domain of " + tr.Name() + " transform",
			}
		}
		points = append(points, point{idx: i, ts: ts, v: v})
	}

	if len(points) < MinObservations {
		return nil, invalid("need at least %d observations, got %d", MinObservations, len(points))
	}

	sort.SliceStable(points, func(a, b int) bool {
		return points[a].ts.Before(points[b].ts)
	})

	n := len(points)
	out := &Prepared{
		Series: &timeseries.Series{
			Timestamps: make([]time.Time, n),
			Values:     make([]float64, n),
			Name:       series.Name,
		},
		Original: &timeseries.Series{
			Timestamps: make([]time.Time, n),
			Values:     make([]float64, n),
			Name:       series.Name,
		},
		Transform: tr,
		Dropped:   dropped,
	}

	for i, p := range points {
		if i > 0 && p.ts.Equal(points[i-1].ts) {
			return nil, &ValidationError{
				Stage:     "preprocess",
				Index:     p.idx,
				Timestamp: p.ts,
				Value:     p.v,
				Reason:    "duplicate timestamp",
			}
		}
		out.Series.Timestamps[i] = p.ts
		out.Series.Values[i] = tr.Apply(p.v)
		out.Original.Timestamps[i] = p.ts
		out.Original.Values[i] = p.v
	}

	return out, nil
}
