package services

import (
	"math"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
)

// Classification carries the qualitative labels and derivatives computed for
// one fitted series.
type Classification struct {
	Direction    models.TrendDirection
	Significance models.SignificanceLevel
	Strength     float64 // |correlation|, capped at 1
	Velocity     float64 // value per day
	Acceleration float64 // value per day^2
}

// TrendClassifier maps fit statistics to direction and significance labels.
type TrendClassifier struct {
	cfg config.TrendsConfig
}

// NewTrendClassifier creates a classifier with the given engine thresholds.
func NewTrendClassifier(cfg config.TrendsConfig) *TrendClassifier {
	return &TrendClassifier{cfg: cfg}
}

// Classify labels one fitted series. Velocity is the fitted slope;
// acceleration comes from finite differences over the raw points.
func (c *TrendClassifier) Classify(fit FitResult, series models.TimeSeries) Classification {
	strength := math.Min(math.Abs(fit.Correlation), 1)
	return Classification{
		Direction:    c.direction(fit.Slope),
		Significance: c.significance(strength, fit.Slope, series.Len()),
		Strength:     strength,
		Velocity:     fit.Slope,
		Acceleration: c.acceleration(series),
	}
}

// direction buckets the slope against fixed thresholds.
func (c *TrendClassifier) direction(slope float64) models.TrendDirection {
	switch {
	case slope > c.cfg.StrongSlope:
		return models.DirectionStrongUp
	case slope > c.cfg.ModerateSlope:
		return models.DirectionModerateUp
	case slope < -c.cfg.StrongSlope:
		return models.DirectionStrongDown
	case slope < -c.cfg.ModerateSlope:
		return models.DirectionModerateDown
	default:
		return models.DirectionStable
	}
}

// significance scores a weighted composite of strength, velocity, and series
// length, then buckets it.
func (c *TrendClassifier) significance(strength float64, velocity float64, points int) models.SignificanceLevel {
	score := 0.4*strength +
		0.4*math.Min(math.Abs(velocity), 1) +
		0.2*math.Min(float64(points)/20, 1)

	switch {
	case score > 0.8:
		return models.SignificanceCritical
	case score > 0.6:
		return models.SignificanceMajor
	case score > 0.4:
		return models.SignificanceModerate
	case score > 0.2:
		return models.SignificanceMinor
	default:
		return models.SignificanceNoise
	}
}

// acceleration estimates the second derivative of value with respect to time
// by differencing the first derivatives at interior points and averaging.
// Series shorter than 3 points have no measurable acceleration.
func (c *TrendClassifier) acceleration(series models.TimeSeries) float64 {
	if series.Len() < 3 {
		return 0
	}

	x := series.DayOffsets()
	y := series.Values()

	firstDerivs := make([]float64, 0, len(x)-1)
	for i := 0; i < len(x)-1; i++ {
		dx := x[i+1] - x[i]
		if dx == 0 {
			continue
		}
		firstDerivs = append(firstDerivs, (y[i+1]-y[i])/dx)
	}
	if len(firstDerivs) < 2 {
		return 0
	}

	secondDerivs := make([]float64, 0, len(firstDerivs)-1)
	for i := 0; i < len(firstDerivs)-1; i++ {
		secondDerivs = append(secondDerivs, firstDerivs[i+1]-firstDerivs[i])
	}

	return calculateMean(secondDerivs)
}
