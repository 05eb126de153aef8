package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TrendType identifies which market dimension a trend was computed over.
type TrendType string

const (
	TrendFeatureAdoption  TrendType = "feature_adoption"
	TrendPricingEvolution TrendType = "pricing_evolution"
	TrendMarketShare      TrendType = "market_share"
	TrendTechnologyShift  TrendType = "technology_shift"
)

// TrendDirection is the qualitative classification of a fitted slope.
type TrendDirection string

const (
	DirectionStrongUp     TrendDirection = "strong_up"
	DirectionModerateUp   TrendDirection = "moderate_up"
	DirectionStable       TrendDirection = "stable"
	DirectionModerateDown TrendDirection = "moderate_down"
	DirectionStrongDown   TrendDirection = "strong_down"
)

// IsUpward reports whether the direction points up.
func (d TrendDirection) IsUpward() bool {
	return d == DirectionStrongUp || d == DirectionModerateUp
}

// IsDownward reports whether the direction points down.
func (d TrendDirection) IsDownward() bool {
	return d == DirectionStrongDown || d == DirectionModerateDown
}

// SignificanceLevel is the qualitative importance of a trend.
type SignificanceLevel string

const (
	SignificanceNoise    SignificanceLevel = "noise"
	SignificanceMinor    SignificanceLevel = "minor"
	SignificanceModerate SignificanceLevel = "moderate"
	SignificanceMajor    SignificanceLevel = "major"
	SignificanceCritical SignificanceLevel = "critical"
)

// Rank orders significance levels so callers can compare against a minimum.
// Unknown levels rank below noise.
func (s SignificanceLevel) Rank() int {
	switch s {
	case SignificanceNoise:
		return 0
	case SignificanceMinor:
		return 1
	case SignificanceModerate:
		return 2
	case SignificanceMajor:
		return 3
	case SignificanceCritical:
		return 4
	}
	return -1
}

// AtLeast reports whether s is at least as significant as min.
func (s SignificanceLevel) AtLeast(min SignificanceLevel) bool {
	return s.Rank() >= min.Rank()
}

// TrendPoint is one observation in a time series: a bucketed value with the
// aggregation confidence for that bucket.
type TrendPoint struct {
	Timestamp  time.Time              `json:"timestamp"`
	Value      float64                `json:"value"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Confidence float64                `json:"confidence"`
}

// TimeSeries is the ordered per-label sequence of points used as regression
// input. Timestamps are non-decreasing by construction.
type TimeSeries struct {
	Label  string       `json:"label"`
	Points []TrendPoint `json:"points"`
}

// Len returns the number of points in the series.
func (ts TimeSeries) Len() int { return len(ts.Points) }

// Start returns the timestamp of the first point, or the zero time for an
// empty series.
func (ts TimeSeries) Start() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[0].Timestamp
}

// End returns the timestamp of the last point, or the zero time for an empty
// series.
func (ts TimeSeries) End() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[len(ts.Points)-1].Timestamp
}

// Values returns the point values in order.
func (ts TimeSeries) Values() []float64 {
	values := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		values[i] = p.Value
	}
	return values
}

// DayOffsets returns each point's offset in days from the first point.
func (ts TimeSeries) DayOffsets() []float64 {
	offsets := make([]float64, len(ts.Points))
	if len(ts.Points) == 0 {
		return offsets
	}
	start := ts.Points[0].Timestamp
	for i, p := range ts.Points {
		offsets[i] = p.Timestamp.Sub(start).Hours() / 24
	}
	return offsets
}

// ConfidenceInterval is a symmetric band around the series mean.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns the band width.
func (ci ConfidenceInterval) Width() float64 { return ci.Upper - ci.Lower }

// TrendAnalysis is the engine's verdict on a single label/trend-type pair.
// Instances are built fresh per invocation and never mutated afterwards.
type TrendAnalysis struct {
	ID                   string             `json:"id"`
	Type                 TrendType          `json:"trend_type"`
	Label                string             `json:"label"`
	Direction            TrendDirection     `json:"direction"`
	Significance         SignificanceLevel  `json:"significance"`
	Strength             float64            `json:"strength"`
	Velocity             float64            `json:"velocity"`     // value per day
	Acceleration         float64            `json:"acceleration"` // value per day^2
	Correlation          float64            `json:"correlation"`
	PValue               float64            `json:"p_value"`
	Interval             ConfidenceInterval `json:"confidence_interval"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`
	DurationDays         float64            `json:"duration_days"`
	Points               []TrendPoint       `json:"points"`
	PredictedNextValue   float64            `json:"predicted_next_value"`
	PredictionConfidence float64            `json:"prediction_confidence"`
	Drivers              []string           `json:"drivers,omitempty"`
	Implications         []string           `json:"implications,omitempty"`
	Recommendations      []string           `json:"recommendations,omitempty"`
}

// TrendAnalysisID derives the deterministic identity of an analysis from its
// label, trend type, and series start. Identical inputs always hash to the
// same ID.
func TrendAnalysisID(label string, trendType TrendType, start time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", label, trendType, start.UTC().Unix())))
	return hex.EncodeToString(sum[:8])
}
