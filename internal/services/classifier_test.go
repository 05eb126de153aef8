package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/competiscan/competiscan-go/internal/models"
)

func TestClassifyDirection(t *testing.T) {
	classifier := NewTrendClassifier(testTrendsConfig())

	tests := []struct {
		name     string
		slope    float64
		expected models.TrendDirection
	}{
		{"strong upward", 0.6, models.DirectionStrongUp},
		{"moderate upward", 0.2, models.DirectionModerateUp},
		{"just above moderate cutoff", 0.11, models.DirectionModerateUp},
		{"at moderate cutoff is stable", 0.1, models.DirectionStable},
		{"flat", 0.0, models.DirectionStable},
		{"at negative cutoff is stable", -0.1, models.DirectionStable},
		{"moderate downward", -0.2, models.DirectionModerateDown},
		{"strong downward", -0.6, models.DirectionStrongDown},
		{"at strong cutoff stays moderate", 0.5, models.DirectionModerateUp},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifier.direction(tc.slope))
		})
	}
}

func TestClassifySignificanceBuckets(t *testing.T) {
	classifier := NewTrendClassifier(testTrendsConfig())

	tests := []struct {
		name     string
		strength float64
		velocity float64
		points   int
		expected models.SignificanceLevel
	}{
		{"everything maxed", 1, 5, 40, models.SignificanceCritical},
		{"strong and fast", 0.9, 0.8, 10, models.SignificanceMajor},
		{"rising weekly counts", 0.986, 0.11, 6, models.SignificanceModerate},
		{"weak and slow", 0.4, 0.1, 5, models.SignificanceMinor},
		{"negligible everywhere", 0.1, 0.01, 3, models.SignificanceNoise},
		{"velocity capped at one", 1, 1000, 40, models.SignificanceCritical},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifier.significance(tc.strength, tc.velocity, tc.points)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestClassifyAcceleration(t *testing.T) {
	classifier := NewTrendClassifier(testTrendsConfig())

	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{
			// Constant slope, second derivative zero.
			name:     "linear series",
			values:   []float64{1, 2, 3, 4, 5},
			expected: 0,
		},
		{
			// Weekly deltas 1/7, 2/7, 3/7 per day; each step adds 1/7 per day.
			name:     "quadratic growth",
			values:   []float64{0, 1, 3, 6},
			expected: 1.0 / 7.0,
		},
		{
			name:     "too few points",
			values:   []float64{1, 5},
			expected: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifier.acceleration(weeklySeries("any", tc.values))
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestClassifyRisingWeeklyCounts(t *testing.T) {
	cfg := testTrendsConfig()
	fitter := NewTrendFitter(cfg)
	classifier := NewTrendClassifier(cfg)

	series := weeklySeries("auto_complete", []float64{1, 2, 2, 3, 4, 5})
	fit := fitter.Fit(series)
	classification := classifier.Classify(fit, series)

	assert.Equal(t, models.DirectionModerateUp, classification.Direction)
	assert.Equal(t, models.SignificanceModerate, classification.Significance)
	assert.Greater(t, classification.Strength, 0.9)
	assert.InDelta(t, 0.0, classification.Acceleration, 0.05)
}
