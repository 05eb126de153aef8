package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
	"github.com/competiscan/competiscan-go/internal/utils"
)

// EventFilter narrows which change events an EventSource returns.
type EventFilter struct {
	// Categories restricts to the given change categories when non-empty.
	Categories []models.ChangeCategory
	// Fields restricts to exact field names when non-empty.
	Fields []string
	// FieldPrefix restricts to field names with this prefix when non-empty.
	FieldPrefix string
	// Since excludes events detected before this instant.
	Since time.Time
	// SegmentID restricts to entities in one market segment when set.
	SegmentID *int64
}

// EventSource supplies change event batches from the store. The engine treats
// every returned record as ground truth.
type EventSource interface {
	FetchChangeEvents(ctx context.Context, filter EventFilter) ([]models.ChangeEvent, error)
}

// TrendService is the facade over the trend detection pipeline. Each public
// operation reads one event batch and returns freshly built results; there is
// no shared mutable state, so concurrent callers are safe.
type TrendService struct {
	trendsCfg   config.TrendsConfig
	forecastCfg config.ForecastConfig
	events      EventSource
	aggregator  *EventAggregator
	fitter      *TrendFitter
	classifier  *TrendClassifier
	estimator   *ConfidenceEstimator
	breakouts   *BreakoutDetector
	forecaster  *ForecastGenerator
	logger      *logrus.Logger
}

// NewTrendService wires the pipeline components against one event source.
func NewTrendService(cfg *config.Config, events EventSource, logger *logrus.Logger) *TrendService {
	estimator := NewConfidenceEstimator(cfg.Trends)
	return &TrendService{
		trendsCfg:   cfg.Trends,
		forecastCfg: cfg.Forecast,
		events:      events,
		aggregator:  NewEventAggregator(cfg.Trends),
		fitter:      NewTrendFitter(cfg.Trends),
		classifier:  NewTrendClassifier(cfg.Trends),
		estimator:   estimator,
		breakouts:   NewBreakoutDetector(cfg.Trends),
		forecaster:  NewForecastGenerator(cfg.Trends, cfg.Forecast, estimator, NewBandScenarioGenerator(), logger),
		logger:      logger,
	}
}

// TrackFeatureAdoptionTrends analyzes feature additions and modifications
// over the given window, grouped by extracted feature keyword.
func (s *TrendService) TrackFeatureAdoptionTrends(ctx context.Context, days int) ([]models.TrendAnalysis, error) {
	if days <= 0 {
		return nil, utils.NewValidationErrorf("days must be positive, got %d", days)
	}
	filter := EventFilter{
		Categories: []models.ChangeCategory{models.ChangeAdded, models.ChangeModified},
		Since:      time.Now().UTC().AddDate(0, 0, -days),
	}
	return s.analyze(ctx, models.TrendFeatureAdoption, filter, featureCategorizer, ReduceSum)
}

// TrackPricingEvolution analyzes price changes over the given window, grouped
// by pricing dimension. A nil segment analyzes the whole market.
func (s *TrendService) TrackPricingEvolution(ctx context.Context, segmentID *int64, days int) ([]models.TrendAnalysis, error) {
	if days <= 0 {
		return nil, utils.NewValidationErrorf("days must be positive, got %d", days)
	}
	filter := EventFilter{
		Categories: []models.ChangeCategory{models.ChangePriceChange},
		Since:      time.Now().UTC().AddDate(0, 0, -days),
		SegmentID:  segmentID,
	}
	return s.analyze(ctx, models.TrendPricingEvolution, filter, pricingCategorizer, ReduceMean)
}

// TrackMarketShareShifts analyzes popularity-metric deltas for one market
// segment over the given window, grouped per tracked entity.
func (s *TrendService) TrackMarketShareShifts(ctx context.Context, segmentID int64, days int) ([]models.TrendAnalysis, error) {
	if days <= 0 {
		return nil, utils.NewValidationErrorf("days must be positive, got %d", days)
	}
	fields := make([]string, 0, len(popularityFields))
	for field := range popularityFields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	filter := EventFilter{
		Fields:    fields,
		Since:     time.Now().UTC().AddDate(0, 0, -days),
		SegmentID: &segmentID,
	}
	return s.analyze(ctx, models.TrendMarketShare, filter, marketShareCategorizer, ReduceSum)
}

// DetectTechnologyShifts analyzes integration adoptions over the given
// window, grouped by integration category.
func (s *TrendService) DetectTechnologyShifts(ctx context.Context, days int) ([]models.TrendAnalysis, error) {
	if days <= 0 {
		return nil, utils.NewValidationErrorf("days must be positive, got %d", days)
	}
	filter := EventFilter{
		Categories:  []models.ChangeCategory{models.ChangeAdded, models.ChangeModified},
		FieldPrefix: "integration",
		Since:       time.Now().UTC().AddDate(0, 0, -days),
	}
	return s.analyze(ctx, models.TrendTechnologyShift, filter, technologyCategorizer, ReduceSum)
}

// GenerateMarketForecast collects trends across every category and projects
// them over the horizon. A scope with no qualifying trends still returns a
// valid, empty forecast.
func (s *TrendService) GenerateMarketForecast(ctx context.Context, segmentID *int64, horizonDays int) (*models.MarketForecast, error) {
	if horizonDays <= 0 {
		return nil, utils.NewValidationErrorf("horizon_days must be positive, got %d", horizonDays)
	}

	trendsByType := make(map[models.TrendType][]models.TrendAnalysis)

	features, err := s.TrackFeatureAdoptionTrends(ctx, s.forecastCfg.FeatureLookbackDays)
	if err != nil {
		return nil, err
	}
	trendsByType[models.TrendFeatureAdoption] = features

	pricing, err := s.TrackPricingEvolution(ctx, segmentID, s.forecastCfg.PricingLookbackDays)
	if err != nil {
		return nil, err
	}
	trendsByType[models.TrendPricingEvolution] = pricing

	if segmentID != nil {
		shares, err := s.TrackMarketShareShifts(ctx, *segmentID, s.forecastCfg.MarketShareLookbackDays)
		if err != nil {
			return nil, err
		}
		trendsByType[models.TrendMarketShare] = shares
	}

	technology, err := s.DetectTechnologyShifts(ctx, s.forecastCfg.TechnologyLookbackDays)
	if err != nil {
		return nil, err
	}
	trendsByType[models.TrendTechnologyShift] = technology

	return s.forecaster.Generate(horizonDays, trendsByType), nil
}

// IdentifyTrendBreakouts scans all non-scoped categories for trends that are
// accelerating sharply, at or above the requested minimum significance.
func (s *TrendService) IdentifyTrendBreakouts(ctx context.Context, minSignificance models.SignificanceLevel) ([]models.TrendAnalysis, error) {
	if minSignificance.Rank() < 0 {
		return nil, utils.NewValidationErrorf("unknown significance level %q", minSignificance)
	}

	features, err := s.TrackFeatureAdoptionTrends(ctx, s.forecastCfg.FeatureLookbackDays)
	if err != nil {
		return nil, err
	}
	pricing, err := s.TrackPricingEvolution(ctx, nil, s.forecastCfg.PricingLookbackDays)
	if err != nil {
		return nil, err
	}
	technology, err := s.DetectTechnologyShifts(ctx, s.forecastCfg.TechnologyLookbackDays)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.TrendAnalysis, 0, len(features)+len(pricing)+len(technology))
	candidates = append(candidates, features...)
	candidates = append(candidates, pricing...)
	candidates = append(candidates, technology...)

	return s.breakouts.Detect(candidates, minSignificance), nil
}

// analyze runs the pipeline for one trend type: fetch, aggregate, fit, gate,
// classify. Labels are processed in sorted order so output is deterministic;
// when the context deadline expires mid-batch the analyses computed so far
// are returned rather than failing the sweep.
func (s *TrendService) analyze(ctx context.Context, trendType models.TrendType, filter EventFilter, categorize Categorizer, reduce Reducer) ([]models.TrendAnalysis, error) {
	events, err := s.events.FetchChangeEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch change events: %w", err)
	}

	seriesByLabel := s.aggregator.Aggregate(events, categorize, reduce)

	labels := make([]string, 0, len(seriesByLabel))
	for label := range seriesByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	analyses := make([]models.TrendAnalysis, 0, len(labels))
	for _, label := range labels {
		select {
		case <-ctx.Done():
			s.logger.WithFields(logrus.Fields{
				"trend_type": trendType,
				"analyzed":   len(analyses),
				"pending":    len(labels) - len(analyses),
			}).Warn("Deadline exceeded; returning partial trend results")
			return analyses, nil
		default:
		}

		series := seriesByLabel[label]
		fit := s.fitter.Fit(series)
		if fit.PValue >= s.trendsCfg.PValueCutoff {
			// Not an error: absence signals "not a trend".
			continue
		}
		analyses = append(analyses, s.buildAnalysis(trendType, series, fit))
	}

	s.logger.WithFields(logrus.Fields{
		"trend_type": trendType,
		"events":     len(events),
		"labels":     len(labels),
		"trends":     len(analyses),
	}).Debug("Trend analysis complete")

	return analyses, nil
}

// buildAnalysis assembles the immutable analysis record for one qualifying
// series.
func (s *TrendService) buildAnalysis(trendType models.TrendType, series models.TimeSeries, fit FitResult) models.TrendAnalysis {
	classification := s.classifier.Classify(fit, series)
	interval := s.estimator.Interval(series, fit)

	start := series.Start()
	end := series.End()

	return models.TrendAnalysis{
		ID:                   models.TrendAnalysisID(series.Label, trendType, start),
		Type:                 trendType,
		Label:                series.Label,
		Direction:            classification.Direction,
		Significance:         classification.Significance,
		Strength:             classification.Strength,
		Velocity:             classification.Velocity,
		Acceleration:         classification.Acceleration,
		Correlation:          fit.Correlation,
		PValue:               fit.PValue,
		Interval:             interval,
		StartDate:            start,
		EndDate:              end,
		DurationDays:         end.Sub(start).Hours() / 24,
		Points:               series.Points,
		PredictedNextValue:   s.estimator.PredictNextValue(series, fit),
		PredictionConfidence: s.estimator.PredictionConfidence(fit, classification.Strength),
		Drivers:              describeDrivers(trendType, series.Label, classification),
		Implications:         describeImplications(trendType, classification),
		Recommendations:      describeRecommendations(trendType, classification),
	}
}
