package preprocess

import (
	"fmt"
	"math"
	"strings"
)

// Transform is a reversible scalar mapping applied to every value before fitting
// and inverted on every forecasted value before reporting.
type Transform interface {
	// Name identifies the transform in configs and logs.
	Name() string
	Apply(v float64) float64
	Inverse(v float64) float64
	// InDomain reports whether v can be transformed.
	InDomain(v float64) bool
}

// Identity leaves values unchanged.
type Identity struct{}

func (Identity) Name() string              { return "identity" }
func (Identity) Apply(v float64) float64   { return v }
func (Identity) Inverse(v float64) float64 { return v }
func (Identity) InDomain(v float64) bool   { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Log is the natural logarithm. Its domain is the strictly positive reals.
type Log struct{}

func (Log) Name() string              { return "log" }
func (Log) Apply(v float64) float64   { return math.Log(v) }
func (Log) Inverse(v float64) float64 { return math.Exp(v) }
func (Log) InDomain(v float64) bool   { return v > 0 && !math.IsInf(v, 1) }

// ParseTransform returns the transform registered under name.
// An empty name selects Identity.
func ParseTransform(name string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "identity", "none":
		return Identity{}, nil
	case "log", "logarithmic", "ln":
		return Log{}, nil
	}
	return nil, fmt.Errorf("unknown transform %q", name)
}
