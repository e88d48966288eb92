package chart

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultMinAmplitude = -170.0 // dB
	defaultMaxAmplitude = -50.0  // dB
)

// Bounds represents the amplitude range used for color scaling
type Bounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Range returns the width of the bounds
func (b Bounds) Range() float64 {
	return b.Max - b.Min
}

func defaultBounds() Bounds {
	return Bounds{
		Min:  defaultMinAmplitude,
		Max:  defaultMaxAmplitude,
		Mean: (defaultMinAmplitude + defaultMaxAmplitude) / 2,
	}
}

// BoundsOf returns the exact extremes and mean of values. Empty input yields
// the default amplitude range.
func BoundsOf(values []float64) Bounds {
	if len(values) == 0 {
		return defaultBounds()
	}

	return Bounds{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}
}

// PercentileBounds clips the range to the given lower and upper quantiles,
// which keeps a few outliers from washing out a color scale.
func PercentileBounds(values []float64, lower, upper float64) Bounds {
	if len(values) == 0 {
		return defaultBounds()
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Bounds{
		Min:  stat.Quantile(lower, stat.Empirical, sorted, nil),
		Max:  stat.Quantile(upper, stat.Empirical, sorted, nil),
		Mean: stat.Mean(sorted, nil),
	}
}

// WithMinimumRange widens the bounds around their center so that they span
// at least r.
func (b Bounds) WithMinimumRange(r float64) Bounds {
	if b.Range() >= r {
		return b
	}

	center := (b.Max + b.Min) / 2
	b.Min = center - r/2
	b.Max = center + r/2
	return b
}
