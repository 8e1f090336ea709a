package engine

import (
	"math"
)

// percentilePrecision rounds inputs to two decimals before comparison so
// floating-point noise cannot create spurious rank differences.
const percentilePrecision = 100

// Percentiles computes each value's percentile rank within the field,
// aligned to input order. Nil entries are dropped from the field before
// ranking and reported as 0 in the output; callers exclude those players
// upstream, the zero just keeps the slice aligned.
//
// A value's percentile is the share of other field values strictly below it:
// count(less) / (n - 1). A singleton field ranks its one value at 0.5.
// Percentiles are invariant under any positive affine transform of the
// field, since only ordering matters.
func Percentiles(values []*float64) []float64 {
	field := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			field = append(field, roundCents(*v))
		}
	}

	out := make([]float64, len(values))
	if len(field) == 0 {
		return out
	}

	for i, v := range values {
		if v == nil {
			continue
		}
		out[i] = percentileOf(roundCents(*v), field)
	}
	return out
}

// PercentileOf ranks a single value against a field of raw values, with the
// same rounding and singleton handling as Percentiles.
func PercentileOf(value float64, field []float64) float64 {
	rounded := make([]float64, len(field))
	for i, v := range field {
		rounded[i] = roundCents(v)
	}
	return percentileOf(roundCents(value), rounded)
}

func percentileOf(v float64, field []float64) float64 {
	if len(field) == 1 {
		return 0.5
	}
	less := 0
	for _, f := range field {
		if f < v {
			less++
		}
	}
	return float64(less) / float64(len(field)-1)
}

func roundCents(v float64) float64 {
	return math.Round(v*percentilePrecision) / percentilePrecision
}
