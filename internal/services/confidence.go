package services

import (
	"math"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
)

// ConfidenceEstimator computes confidence bands around series means and the
// confidence of next-step predictions.
type ConfidenceEstimator struct {
	cfg config.TrendsConfig
}

// NewConfidenceEstimator creates an estimator with the given engine thresholds.
func NewConfidenceEstimator(cfg config.TrendsConfig) *ConfidenceEstimator {
	return &ConfidenceEstimator{cfg: cfg}
}

// Interval returns a symmetric band around the series mean. The standard
// deviation is discounted by the fit's correlation: the stronger the linear
// signal, the tighter the band. One point or fewer yields a zero-width band.
func (e *ConfidenceEstimator) Interval(series models.TimeSeries, fit FitResult) models.ConfidenceInterval {
	values := series.Values()
	mean := calculateMean(values)
	if len(values) <= 1 {
		return models.ConfidenceInterval{Lower: mean, Upper: mean}
	}

	margin := e.cfg.ZValue * calculateStdDev(values) * (1 - math.Abs(fit.Correlation))
	return models.ConfidenceInterval{Lower: mean - margin, Upper: mean + margin}
}

// PredictNextValue extrapolates the fitted line one bucket past the last
// observation.
func (e *ConfidenceEstimator) PredictNextValue(series models.TimeSeries, fit FitResult) float64 {
	offsets := series.DayOffsets()
	if len(offsets) == 0 {
		return fit.Intercept
	}
	next := offsets[len(offsets)-1] + float64(e.cfg.BucketDays)
	return fit.Intercept + fit.Slope*next
}

// PredictionConfidence scores how much to trust the next-step prediction.
func (e *ConfidenceEstimator) PredictionConfidence(fit FitResult, strength float64) float64 {
	return strength * (1 - fit.PValue)
}
