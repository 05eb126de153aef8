package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
)

// ScenarioGenerator derives named forecast variants from a point-estimate
// trajectory and its confidence band. Bull and bear are not independent
// models; they are the band bounds applied to the base trajectory.
type ScenarioGenerator interface {
	Generate(points []models.PredictionPoint, band models.ConfidenceBand) (bull, base, bear models.Scenario)
}

// bandScenarioGenerator shifts the base trajectory by the band's half-widths.
type bandScenarioGenerator struct{}

// NewBandScenarioGenerator returns the band-bound scenario strategy.
func NewBandScenarioGenerator() ScenarioGenerator {
	return bandScenarioGenerator{}
}

func (bandScenarioGenerator) Generate(points []models.PredictionPoint, band models.ConfidenceBand) (models.Scenario, models.Scenario, models.Scenario) {
	mid := (band.Upper + band.Lower) / 2
	up := band.Upper - mid
	down := mid - band.Lower

	shift := func(name, description string, delta float64) models.Scenario {
		shifted := make([]models.PredictionPoint, len(points))
		for i, p := range points {
			shifted[i] = models.PredictionPoint{Timestamp: p.Timestamp, Value: p.Value + delta}
		}
		return models.Scenario{Name: name, Description: description, Points: shifted}
	}

	bull := shift("bull", "trajectory at the upper confidence bound", up)
	base := shift("base", "point-estimate trajectory", 0)
	bear := shift("bear", "trajectory at the lower confidence bound", -down)
	return bull, base, bear
}

// ForecastGenerator combines trend analyses across categories into a
// horizon-bound market forecast.
type ForecastGenerator struct {
	trendsCfg   config.TrendsConfig
	forecastCfg config.ForecastConfig
	estimator   *ConfidenceEstimator
	scenarios   ScenarioGenerator
	logger      *logrus.Logger
}

// NewForecastGenerator creates a generator with the given configuration and
// scenario strategy.
func NewForecastGenerator(trendsCfg config.TrendsConfig, forecastCfg config.ForecastConfig, estimator *ConfidenceEstimator, scenarios ScenarioGenerator, logger *logrus.Logger) *ForecastGenerator {
	return &ForecastGenerator{
		trendsCfg:   trendsCfg,
		forecastCfg: forecastCfg,
		estimator:   estimator,
		scenarios:   scenarios,
		logger:      logger,
	}
}

// Generate builds a forecast from the trends collected per category. A scope
// with no qualifying trends still yields a valid forecast with empty
// prediction series and data quality 0. Prediction timestamps anchor on the
// latest observed point, not the wall clock, so repeated calls over the same
// inputs differ only in GeneratedAt.
func (g *ForecastGenerator) Generate(horizonDays int, trendsByType map[models.TrendType][]models.TrendAnalysis) *models.MarketForecast {
	anchor := latestEnd(trendsByType)

	forecast := &models.MarketForecast{
		ID:                    forecastID(horizonDays, anchor),
		GeneratedAt:           time.Now().UTC(),
		HorizonDays:           horizonDays,
		Predictions:           make(map[models.TrendType][]models.PredictionPoint),
		ConfidenceBands:       make(map[models.TrendType]models.ConfidenceBand),
		EmergingTechnologies:  []string{},
		DecliningTechnologies: []string{},
		PriceMovements:        make(map[string]float64),
		PotentialDisruptions:  []string{},
		MethodsUsed: []string{
			"least_squares_regression",
			"pearson_correlation",
			"sma_smoothing",
			"confidence_band_scenarios",
		},
		EstimatedAccuracy: g.forecastCfg.EstimatedAccuracy,
	}

	types := make([]models.TrendType, 0, len(trendsByType))
	var contributing int
	var correlationSum float64
	for trendType, analyses := range trendsByType {
		if len(analyses) == 0 {
			continue
		}
		types = append(types, trendType)
		for _, a := range analyses {
			correlationSum += math.Abs(a.Correlation)
			contributing++
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	if contributing == 0 {
		g.logger.WithFields(logrus.Fields{"horizon_days": horizonDays}).
			Info("No qualifying trends; returning empty forecast")
		bull, base, bear := g.scenarios.Generate(nil, models.ConfidenceBand{})
		forecast.BullCase, forecast.BaseCase, forecast.BearCase = bull, base, bear
		return forecast
	}

	steps := horizonDays / g.trendsCfg.BucketDays
	if steps < 1 {
		steps = 1
	}

	for _, trendType := range types {
		analyses := trendsByType[trendType]
		forecast.Predictions[trendType] = g.extrapolate(analyses, anchor, steps)
		forecast.ConfidenceBands[trendType] = combineBands(analyses)
	}

	g.classifyTechnologies(forecast, trendsByType[models.TrendTechnologyShift])
	g.projectPriceMovements(forecast, trendsByType[models.TrendPricingEvolution], horizonDays)
	forecast.PotentialDisruptions = g.findDisruptions(trendsByType, types)

	combined := combineSeries(forecast.Predictions, types, steps)
	bull, base, bear := g.scenarios.Generate(combined, averageBand(forecast.ConfidenceBands, types))
	forecast.BullCase, forecast.BaseCase, forecast.BearCase = bull, base, bear

	forecast.DataQuality = correlationSum / float64(contributing)

	g.logger.WithFields(logrus.Fields{
		"horizon_days": horizonDays,
		"categories":   len(types),
		"trends":       contributing,
		"data_quality": forecast.DataQuality,
	}).Info("Generated market forecast")

	return forecast
}

// extrapolate projects each trend forward by its fitted velocity and averages
// the trajectories into one prediction series for the category.
func (g *ForecastGenerator) extrapolate(analyses []models.TrendAnalysis, anchor time.Time, steps int) []models.PredictionPoint {
	points := make([]models.PredictionPoint, 0, steps)
	for step := 1; step <= steps; step++ {
		days := float64(step * g.trendsCfg.BucketDays)
		var sum float64
		for _, a := range analyses {
			sum += g.smoothedLast(a.Points) + a.Velocity*days
		}
		points = append(points, models.PredictionPoint{
			Timestamp: anchor.AddDate(0, 0, step*g.trendsCfg.BucketDays),
			Value:     sum / float64(len(analyses)),
		})
	}
	return points
}

// smoothedLast runs the series values through an SMA and returns the final
// smoothed value, damping single-bucket spikes before extrapolation.
func (g *ForecastGenerator) smoothedLast(points []models.TrendPoint) float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	if len(values) == 0 {
		return 0
	}

	period := g.forecastCfg.SmoothingPeriod
	if period > len(values) {
		period = len(values)
	}
	if period <= 1 {
		return values[len(values)-1]
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
	if len(smoothed) == 0 {
		return values[len(values)-1]
	}
	return smoothed[len(smoothed)-1]
}

// classifyTechnologies splits technology-shift trends into emerging and
// declining labels above the configured strength threshold.
func (g *ForecastGenerator) classifyTechnologies(forecast *models.MarketForecast, technology []models.TrendAnalysis) {
	for _, a := range technology {
		if a.Strength <= g.trendsCfg.TechnologyStrength {
			continue
		}
		switch {
		case a.Direction.IsUpward():
			forecast.EmergingTechnologies = append(forecast.EmergingTechnologies, a.Label)
		case a.Direction.IsDownward():
			forecast.DecliningTechnologies = append(forecast.DecliningTechnologies, a.Label)
		}
	}
	sort.Strings(forecast.EmergingTechnologies)
	sort.Strings(forecast.DecliningTechnologies)
}

// projectPriceMovements converts each pricing trend's velocity into the
// percentage movement expected over the horizon.
func (g *ForecastGenerator) projectPriceMovements(forecast *models.MarketForecast, pricing []models.TrendAnalysis, horizonDays int) {
	for _, a := range pricing {
		forecast.PriceMovements[a.Label] = a.Velocity * float64(horizonDays)
	}
}

// findDisruptions describes critical, sharply accelerating trends.
func (g *ForecastGenerator) findDisruptions(trendsByType map[models.TrendType][]models.TrendAnalysis, types []models.TrendType) []string {
	disruptions := []string{}
	for _, trendType := range types {
		for _, a := range trendsByType[trendType] {
			if a.Significance != models.SignificanceCritical {
				continue
			}
			if math.Abs(a.Acceleration) <= g.trendsCfg.BreakoutAcceleration {
				continue
			}
			disruptions = append(disruptions, fmt.Sprintf("%s: %s trend on %q is accelerating", trendType, a.Direction, a.Label))
		}
	}
	sort.Strings(disruptions)
	return disruptions
}

// combineSeries averages the per-category prediction series step by step into
// the base scenario trajectory.
func combineSeries(predictions map[models.TrendType][]models.PredictionPoint, types []models.TrendType, steps int) []models.PredictionPoint {
	if len(types) == 0 {
		return nil
	}
	combined := make([]models.PredictionPoint, 0, steps)
	for i := 0; i < steps; i++ {
		var sum float64
		var count int
		var ts time.Time
		for _, trendType := range types {
			series := predictions[trendType]
			if i >= len(series) {
				continue
			}
			sum += series[i].Value
			count++
			ts = series[i].Timestamp
		}
		if count == 0 {
			continue
		}
		combined = append(combined, models.PredictionPoint{Timestamp: ts, Value: sum / float64(count)})
	}
	return combined
}

// combineBands averages the contributing trends' confidence intervals.
func combineBands(analyses []models.TrendAnalysis) models.ConfidenceBand {
	if len(analyses) == 0 {
		return models.ConfidenceBand{}
	}
	var lower, upper float64
	for _, a := range analyses {
		lower += a.Interval.Lower
		upper += a.Interval.Upper
	}
	n := float64(len(analyses))
	return models.ConfidenceBand{Lower: lower / n, Upper: upper / n}
}

func averageBand(bands map[models.TrendType]models.ConfidenceBand, types []models.TrendType) models.ConfidenceBand {
	if len(types) == 0 {
		return models.ConfidenceBand{}
	}
	var lower, upper float64
	for _, trendType := range types {
		lower += bands[trendType].Lower
		upper += bands[trendType].Upper
	}
	n := float64(len(types))
	return models.ConfidenceBand{Lower: lower / n, Upper: upper / n}
}

// latestEnd finds the newest observed point across all contributing trends;
// it anchors the prediction timeline.
func latestEnd(trendsByType map[models.TrendType][]models.TrendAnalysis) time.Time {
	var latest time.Time
	for _, analyses := range trendsByType {
		for _, a := range analyses {
			if a.EndDate.After(latest) {
				latest = a.EndDate
			}
		}
	}
	return latest
}

// forecastID derives a stable identity from the request horizon and the data
// anchor, using a name-based UUID so identical inputs produce identical IDs.
func forecastID(horizonDays int, anchor time.Time) string {
	name := fmt.Sprintf("market_forecast|%d|%d", horizonDays, anchor.UTC().Unix())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
