package services

import (
	"fmt"

	"github.com/competiscan/competiscan-go/internal/models"
)

// The narrative helpers turn classifications into the free-text fields on an
// analysis. Wording is fixed per trend type and direction so identical inputs
// produce identical records.

func describeDrivers(trendType models.TrendType, label string, cls Classification) []string {
	drivers := []string{
		fmt.Sprintf("%s activity on %q moving at %.3f/day", subjectFor(trendType), label, cls.Velocity),
	}
	if cls.Acceleration > 0 {
		drivers = append(drivers, "momentum is building: the rate of change itself is increasing")
	} else if cls.Acceleration < 0 {
		drivers = append(drivers, "momentum is fading: the rate of change is slowing")
	}
	return drivers
}

func describeImplications(trendType models.TrendType, cls Classification) []string {
	var subject string
	switch trendType {
	case models.TrendFeatureAdoption:
		subject = "this capability is becoming table stakes"
	case models.TrendPricingEvolution:
		subject = "pricing pressure is shifting in this dimension"
	case models.TrendMarketShare:
		subject = "competitive positions in this segment are moving"
	case models.TrendTechnologyShift:
		subject = "the integration landscape is reorganizing"
	default:
		subject = "the market is moving"
	}

	switch cls.Direction {
	case models.DirectionStrongUp, models.DirectionModerateUp:
		return []string{fmt.Sprintf("Sustained growth suggests %s", subject)}
	case models.DirectionStrongDown, models.DirectionModerateDown:
		return []string{fmt.Sprintf("Sustained decline suggests %s in reverse", subject)}
	case models.DirectionStable:
		return []string{"No directional pressure detected"}
	default:
		return nil
	}
}

func describeRecommendations(trendType models.TrendType, cls Classification) []string {
	if !cls.Significance.AtLeast(models.SignificanceModerate) {
		return []string{"Monitor; no action warranted at current significance"}
	}

	switch trendType {
	case models.TrendFeatureAdoption:
		if cls.Direction.IsUpward() {
			return []string{"Evaluate roadmap coverage for this capability"}
		}
		return []string{"Deprioritize investment in this capability"}
	case models.TrendPricingEvolution:
		if cls.Direction.IsUpward() {
			return []string{"Review pricing headroom against competitors"}
		}
		return []string{"Expect downward price pressure in this dimension"}
	case models.TrendMarketShare:
		return []string{"Reassess segment positioning against the moving entities"}
	case models.TrendTechnologyShift:
		if cls.Direction.IsUpward() {
			return []string{"Prioritize integration support for this category"}
		}
		return []string{"Plan migration away from this integration category"}
	default:
		return nil
	}
}

func subjectFor(trendType models.TrendType) string {
	switch trendType {
	case models.TrendFeatureAdoption:
		return "feature"
	case models.TrendPricingEvolution:
		return "pricing"
	case models.TrendMarketShare:
		return "popularity"
	case models.TrendTechnologyShift:
		return "integration"
	default:
		return "change"
	}
}
