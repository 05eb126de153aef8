package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{
			name:     "empty slice",
			values:   []float64{},
			expected: 0,
		},
		{
			name:     "single value",
			values:   []float64{5.0},
			expected: 5.0,
		},
		{
			name:     "multiple values",
			values:   []float64{1.0, 2.0, 3.0, 4.0, 5.0},
			expected: 3.0,
		},
		{
			name:     "mixed signs",
			values:   []float64{-10.0, 0.0, 10.0},
			expected: 0.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, calculateMean(tc.values), 1e-9)
		})
	}
}

func TestCalculateStdDev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{
			name:     "fewer than two values",
			values:   []float64{42.0},
			expected: 0,
		},
		{
			name:     "identical values",
			values:   []float64{3.0, 3.0, 3.0},
			expected: 0,
		},
		{
			name:     "known sample",
			values:   []float64{2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0},
			expected: 2.13809, // sample stddev
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, calculateStdDev(tc.values), 1e-4)
		})
	}
}

func TestCalculateCorrelation(t *testing.T) {
	tests := []struct {
		name     string
		x        []float64
		y        []float64
		expected float64
	}{
		{
			name:     "perfect positive",
			x:        []float64{1, 2, 3, 4},
			y:        []float64{2, 4, 6, 8},
			expected: 1,
		},
		{
			name:     "perfect negative",
			x:        []float64{1, 2, 3, 4},
			y:        []float64{8, 6, 4, 2},
			expected: -1,
		},
		{
			name:     "constant y has no correlation",
			x:        []float64{1, 2, 3, 4},
			y:        []float64{5, 5, 5, 5},
			expected: 0,
		},
		{
			name:     "too few points",
			x:        []float64{1},
			y:        []float64{2},
			expected: 0,
		},
		{
			name:     "mismatched lengths",
			x:        []float64{1, 2, 3},
			y:        []float64{1, 2},
			expected: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			corr := calculateCorrelation(tc.x, tc.y)
			assert.InDelta(t, tc.expected, corr, 1e-9)
			assert.GreaterOrEqual(t, corr, -1.0)
			assert.LessOrEqual(t, corr, 1.0)
		})
	}
}

func TestFitLeastSquares(t *testing.T) {
	t.Run("recovers known line", func(t *testing.T) {
		x := []float64{0, 1, 2, 3, 4}
		y := []float64{1, 3, 5, 7, 9} // y = 1 + 2x
		slope, intercept, ok := fitLeastSquares(x, y)
		assert.True(t, ok)
		assert.InDelta(t, 2.0, slope, 1e-9)
		assert.InDelta(t, 1.0, intercept, 1e-9)
	})

	t.Run("no x variance", func(t *testing.T) {
		_, _, ok := fitLeastSquares([]float64{2, 2, 2}, []float64{1, 2, 3})
		assert.False(t, ok)
	})

	t.Run("too few points", func(t *testing.T) {
		_, _, ok := fitLeastSquares([]float64{1}, []float64{1})
		assert.False(t, ok)
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.001, clamp(-5, 0.001, 1.0))
	assert.Equal(t, 1.0, clamp(7, 0.001, 1.0))
	assert.Equal(t, 0.5, clamp(0.5, 0.001, 1.0))
	assert.False(t, math.IsNaN(clamp(0.3, 0, 1)))
}
