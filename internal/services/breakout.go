package services

import (
	"math"
	"sort"

	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
)

// BreakoutDetector filters classified trends for the ones that are
// accelerating sharply. Every breakout is a significant trend; most
// significant trends are not breakouts.
type BreakoutDetector struct {
	cfg config.TrendsConfig
}

// NewBreakoutDetector creates a detector with the given engine thresholds.
func NewBreakoutDetector(cfg config.TrendsConfig) *BreakoutDetector {
	return &BreakoutDetector{cfg: cfg}
}

// Detect returns the trends whose acceleration and strength clear the
// breakout thresholds and whose significance is at least major and at least
// the caller's minimum. Results are ordered by |acceleration| descending,
// with the ID as a deterministic tie-break.
func (d *BreakoutDetector) Detect(analyses []models.TrendAnalysis, minSignificance models.SignificanceLevel) []models.TrendAnalysis {
	breakouts := make([]models.TrendAnalysis, 0)
	for _, analysis := range analyses {
		if math.Abs(analysis.Acceleration) <= d.cfg.BreakoutAcceleration {
			continue
		}
		if analysis.Strength <= d.cfg.BreakoutStrength {
			continue
		}
		if !analysis.Significance.AtLeast(models.SignificanceMajor) {
			continue
		}
		if !analysis.Significance.AtLeast(minSignificance) {
			continue
		}
		breakouts = append(breakouts, analysis)
	}

	sort.Slice(breakouts, func(i, j int) bool {
		ai := math.Abs(breakouts[i].Acceleration)
		aj := math.Abs(breakouts[j].Acceleration)
		if ai != aj {
			return ai > aj
		}
		return breakouts[i].ID < breakouts[j].ID
	})

	return breakouts
}
