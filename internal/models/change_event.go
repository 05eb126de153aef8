package models

import "time"

// ChangeCategory classifies what kind of change the curation pipeline detected.
type ChangeCategory string

const (
	ChangeAdded       ChangeCategory = "added"
	ChangeRemoved     ChangeCategory = "removed"
	ChangeModified    ChangeCategory = "modified"
	ChangeVersionBump ChangeCategory = "version_bump"
	ChangePriceChange ChangeCategory = "price_change"
)

// IsValid reports whether the category is one of the known values.
func (c ChangeCategory) IsValid() bool {
	switch c {
	case ChangeAdded, ChangeRemoved, ChangeModified, ChangeVersionBump, ChangePriceChange:
		return true
	}
	return false
}

// ChangeEvent is a single detected change on a tracked tool, supplied by the
// curation pipeline. Events are treated as ground truth; the engine does not
// validate provenance.
type ChangeEvent struct {
	EntityID   int64          `json:"entity_id"`
	FieldName  string         `json:"field_name"`
	Category   ChangeCategory `json:"change_category"`
	OldValue   *string        `json:"old_value,omitempty"`
	NewValue   *string        `json:"new_value,omitempty"`
	DetectedAt time.Time      `json:"detected_at"`
	Confidence float64        `json:"confidence"`
}

// Conforms reports whether the event carries the fields the aggregator needs.
// Non-conforming events are skipped, never fatal.
func (e ChangeEvent) Conforms() bool {
	return !e.DetectedAt.IsZero() && e.Category.IsValid()
}
