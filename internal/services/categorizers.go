package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/competiscan/competiscan-go/internal/models"
)

// Words too generic to identify a feature; extraction skips them.
var keywordStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"new": {}, "added": {}, "support": {}, "supports": {}, "now": {},
	"via": {}, "all": {}, "your": {},
}

// extractKeyword reduces free text to a stable label: lowercase, alphanumeric
// tokens only, stopwords dropped, first two significant tokens joined.
func extractKeyword(text string) string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() >= 3 {
			token := current.String()
			if _, skip := keywordStopwords[token]; !skip {
				tokens = append(tokens, token)
			}
		}
		current.Reset()
	}

	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		flush()
		if len(tokens) == 2 {
			break
		}
	}
	flush()

	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return strings.Join(tokens, "_")
}

// featureCategorizer groups feature additions and modifications by extracted
// keyword, one count per event.
func featureCategorizer(event models.ChangeEvent) (string, float64, bool) {
	if event.Category != models.ChangeAdded && event.Category != models.ChangeModified {
		return "", 0, false
	}
	if event.NewValue == nil {
		return "", 0, false
	}
	label := extractKeyword(*event.NewValue)
	if label == "" {
		return "", 0, false
	}
	return label, 1, true
}

// pricingCategorizer groups price changes by pricing dimension (field name)
// and contributes the percentage delta between old and new price. Prices go
// through decimal so money strings parse without float drift.
func pricingCategorizer(event models.ChangeEvent) (string, float64, bool) {
	if event.Category != models.ChangePriceChange {
		return "", 0, false
	}
	if event.OldValue == nil || event.NewValue == nil {
		return "", 0, false
	}

	oldPrice, err := decimal.NewFromString(strings.TrimSpace(*event.OldValue))
	if err != nil || oldPrice.IsZero() {
		return "", 0, false
	}
	newPrice, err := decimal.NewFromString(strings.TrimSpace(*event.NewValue))
	if err != nil {
		return "", 0, false
	}

	label := event.FieldName
	if label == "" {
		label = "price"
	}
	delta := newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100))
	return label, delta.InexactFloat64(), true
}

// technologyCategorizer groups integration adoptions by integration category,
// one count per adoption event.
func technologyCategorizer(event models.ChangeEvent) (string, float64, bool) {
	if !strings.HasPrefix(event.FieldName, "integration") {
		return "", 0, false
	}
	if event.Category != models.ChangeAdded && event.Category != models.ChangeModified {
		return "", 0, false
	}
	if event.NewValue == nil {
		return "", 0, false
	}
	label := extractKeyword(*event.NewValue)
	if label == "" {
		return "", 0, false
	}
	return label, 1, true
}

// Popularity metrics whose deltas feed market-share series.
var popularityFields = map[string]struct{}{
	"stars": {}, "downloads": {}, "weekly_downloads": {}, "popularity": {},
}

// marketShareCategorizer groups popularity-metric deltas per tracked entity.
func marketShareCategorizer(event models.ChangeEvent) (string, float64, bool) {
	if _, ok := popularityFields[event.FieldName]; !ok {
		return "", 0, false
	}
	if event.OldValue == nil || event.NewValue == nil {
		return "", 0, false
	}

	oldVal, err := decimal.NewFromString(strings.TrimSpace(*event.OldValue))
	if err != nil {
		return "", 0, false
	}
	newVal, err := decimal.NewFromString(strings.TrimSpace(*event.NewValue))
	if err != nil {
		return "", 0, false
	}

	label := fmt.Sprintf("entity_%d", event.EntityID)
	return label, newVal.Sub(oldVal).InexactFloat64(), true
}
