package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentiles(t *testing.T) {
	t.Run("simple field", func(t *testing.T) {
		got := Percentiles([]*float64{float(1.0), float(2.0), float(3.0)})
		assert.Equal(t, []float64{0, 0.5, 1}, got)
	})

	t.Run("singleton field ranks at half", func(t *testing.T) {
		got := Percentiles([]*float64{float(2.3)})
		assert.Equal(t, []float64{0.5}, got)
	})

	t.Run("nil entries dropped but aligned", func(t *testing.T) {
		got := Percentiles([]*float64{float(1.0), nil, float(3.0)})
		require.Len(t, got, 3)
		assert.Equal(t, 0.0, got[0])
		assert.Equal(t, 0.0, got[1]) // placeholder for the dropped entry
		assert.Equal(t, 1.0, got[2])
	})

	t.Run("empty field", func(t *testing.T) {
		assert.Empty(t, Percentiles(nil))
		assert.Equal(t, []float64{0, 0}, Percentiles([]*float64{nil, nil}))
	})

	t.Run("ties share a rank", func(t *testing.T) {
		got := Percentiles([]*float64{float(1.0), float(1.0), float(2.0)})
		assert.Equal(t, got[0], got[1])
		assert.Greater(t, got[2], got[0])
	})

	t.Run("float noise below two decimals does not split ranks", func(t *testing.T) {
		got := Percentiles([]*float64{float(1.2000001), float(1.2000004)})
		assert.Equal(t, got[0], got[1])
	})
}

// Percentile ranks only depend on ordering, so any positive affine transform
// of the field leaves them unchanged.
func TestPercentilesAffineInvariant(t *testing.T) {
	base := []float64{-1.4, 0.2, 0.9, 2.7, 3.3}

	transform := func(scale, shift float64) []*float64 {
		out := make([]*float64, len(base))
		for i, v := range base {
			out[i] = float(v*scale + shift)
		}
		return out
	}

	original := Percentiles(transform(1, 0))
	scaled := Percentiles(transform(10, 0))
	shifted := Percentiles(transform(1, 100))
	both := Percentiles(transform(3, -7))

	assert.Equal(t, original, scaled)
	assert.Equal(t, original, shifted)
	assert.Equal(t, original, both)
}

func TestPercentileOf(t *testing.T) {
	field := []float64{0.1, 0.5, 0.9}
	assert.Equal(t, 0.0, PercentileOf(0.1, field))
	assert.Equal(t, 0.5, PercentileOf(0.5, field))
	assert.Equal(t, 1.0, PercentileOf(0.9, field))
	assert.Equal(t, 0.5, PercentileOf(42, []float64{42}))
}
