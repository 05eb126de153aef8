package models

import "time"

// PredictionPoint is one forecasted value on the horizon timeline.
type PredictionPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ConfidenceBand bounds a prediction series for one category.
type ConfidenceBand struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Scenario is a named variant of the forecast trajectory.
type Scenario struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Points      []PredictionPoint `json:"points"`
}

// MarketForecast is the horizon-bound projection across all trend categories.
// Built fresh per request; only GeneratedAt varies between identical requests.
type MarketForecast struct {
	ID                    string                        `json:"id"`
	GeneratedAt           time.Time                     `json:"generated_at"`
	HorizonDays           int                           `json:"horizon_days"`
	Predictions           map[TrendType][]PredictionPoint `json:"predictions"`
	ConfidenceBands       map[TrendType]ConfidenceBand  `json:"confidence_bands"`
	EmergingTechnologies  []string                      `json:"emerging_technologies"`
	DecliningTechnologies []string                      `json:"declining_technologies"`
	PriceMovements        map[string]float64            `json:"price_movements"` // label -> predicted % movement
	PotentialDisruptions  []string                      `json:"potential_disruptions"`
	BullCase              Scenario                      `json:"bull_case"`
	BaseCase              Scenario                      `json:"base_case"`
	BearCase              Scenario                      `json:"bear_case"`
	MethodsUsed           []string                      `json:"methods_used"`
	DataQuality           float64                       `json:"data_quality"`
	EstimatedAccuracy     float64                       `json:"estimated_accuracy"`
}
