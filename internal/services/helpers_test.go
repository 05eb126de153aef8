package services

import (
	"time"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
)

// seriesStart is a Monday so weekly buckets align on it exactly.
var seriesStart = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func testTrendsConfig() config.TrendsConfig {
	return config.TrendsConfig{
		MinDataPoints:        5,
		BucketDays:           7,
		PValueCutoff:         0.05,
		StrongSlope:          0.5,
		ModerateSlope:        0.1,
		ZValue:               1.96,
		BreakoutAcceleration: 0.1,
		BreakoutStrength:     0.6,
		TechnologyStrength:   0.3,
	}
}

func testForecastConfig() config.ForecastConfig {
	return config.ForecastConfig{
		FeatureLookbackDays:     180,
		PricingLookbackDays:     365,
		MarketShareLookbackDays: 180,
		TechnologyLookbackDays:  365,
		DefaultHorizonDays:      90,
		SmoothingPeriod:         3,
		EstimatedAccuracy:       0.75,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Trends:   testTrendsConfig(),
		Forecast: testForecastConfig(),
	}
}

// weeklySeries builds a series with one point per week starting at seriesStart.
func weeklySeries(label string, values []float64) models.TimeSeries {
	points := make([]models.TrendPoint, len(values))
	for i, v := range values {
		points[i] = models.TrendPoint{
			Timestamp:  seriesStart.AddDate(0, 0, 7*i),
			Value:      v,
			Confidence: 0.9,
		}
	}
	return models.TimeSeries{Label: label, Points: points}
}

func strptr(s string) *string { return &s }
