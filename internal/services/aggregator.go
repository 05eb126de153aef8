package services

import (
	"sort"
	"time"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
)

// Categorizer maps a change event to a series label and a contribution value.
// Events it does not recognize are reported with ok=false and skipped.
type Categorizer func(event models.ChangeEvent) (label string, value float64, ok bool)

// Reducer collapses the contributions landing in one bucket into the bucket's
// point value.
type Reducer func(values []float64) float64

// ReduceSum totals the bucket contributions. With a per-event value of 1 this
// yields event counts.
func ReduceSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// ReduceMean averages the bucket contributions, used for ratio-valued series
// such as pricing deltas.
func ReduceMean(values []float64) float64 {
	return calculateMean(values)
}

// EventAggregator groups change events into per-label, per-period time
// series. It is a pure transform: no I/O, no shared state.
type EventAggregator struct {
	cfg config.TrendsConfig
}

// NewEventAggregator creates an aggregator with the given engine thresholds.
func NewEventAggregator(cfg config.TrendsConfig) *EventAggregator {
	return &EventAggregator{cfg: cfg}
}

type bucket struct {
	values      []float64
	confidences []float64
}

// Aggregate buckets events by period start and returns one ordered series per
// label. Non-conforming events are skipped, empty buckets are never created,
// and labels with fewer than MinDataPoints buckets are dropped.
func (a *EventAggregator) Aggregate(events []models.ChangeEvent, categorize Categorizer, reduce Reducer) map[string]models.TimeSeries {
	buckets := make(map[string]map[time.Time]*bucket)

	for _, event := range events {
		if !event.Conforms() {
			continue
		}
		label, value, ok := categorize(event)
		if !ok || label == "" {
			continue
		}

		period := a.periodStart(event.DetectedAt)
		if buckets[label] == nil {
			buckets[label] = make(map[time.Time]*bucket)
		}
		b := buckets[label][period]
		if b == nil {
			b = &bucket{}
			buckets[label][period] = b
		}
		b.values = append(b.values, value)
		b.confidences = append(b.confidences, event.Confidence)
	}

	series := make(map[string]models.TimeSeries, len(buckets))
	for label, periods := range buckets {
		if len(periods) < a.cfg.MinDataPoints {
			continue
		}

		points := make([]models.TrendPoint, 0, len(periods))
		for period, b := range periods {
			points = append(points, models.TrendPoint{
				Timestamp: period,
				Value:     reduce(b.values),
				Metadata: map[string]interface{}{
					"samples": len(b.values),
				},
				Confidence: calculateMean(b.confidences),
			})
		}
		sort.Slice(points, func(i, j int) bool {
			return points[i].Timestamp.Before(points[j].Timestamp)
		})

		series[label] = models.TimeSeries{Label: label, Points: points}
	}

	return series
}

// periodStart truncates a timestamp to the start of its bucket. Weekly
// buckets align on Mondays; other bucket sizes align on the Unix epoch.
func (a *EventAggregator) periodStart(t time.Time) time.Time {
	day := t.UTC().Truncate(24 * time.Hour)
	if a.cfg.BucketDays == 7 {
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	}
	epochDays := int(day.Unix() / 86400)
	aligned := epochDays - epochDays%a.cfg.BucketDays
	return time.Unix(int64(aligned)*86400, 0).UTC()
}
