package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMeanHour checks that hour averaging wraps at midnight instead of
// pulling towards noon.
func TestMeanHour(t *testing.T) {
	tests := []struct {
		name  string
		hours []int
		want  float64
	}{
		{"empty", nil, 0},
		{"single hour", []int{9}, 9},
		{"plain average", []int{9, 11}, 10},
		{"identical hours", []int{14, 14, 14}, 14},
		{"wraps forward over midnight", []int{23, 3}, 1},
		{"wraps backward over midnight", []int{20, 2}, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanHour(tt.hours)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

// TestMeanResultantLength checks the concentration measure R.
func TestMeanResultantLength(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, MeanResultantLength(nil, nil))
	})

	t.Run("identical angles are fully concentrated", func(t *testing.T) {
		angles := []float64{1.2, 1.2, 1.2}
		assert.InDelta(t, 1.0, MeanResultantLength(angles, nil), 0.001)
	})

	t.Run("opposite angles cancel", func(t *testing.T) {
		angles := []float64{0, math.Pi}
		assert.InDelta(t, 0.0, MeanResultantLength(angles, nil), 0.001)
	})

	t.Run("weights shift the balance", func(t *testing.T) {
		angles := []float64{0, math.Pi}
		weights := []float64{3, 1}
		assert.InDelta(t, 0.5, MeanResultantLength(angles, weights), 0.001)
	})
}
