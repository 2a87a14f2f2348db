package store

import (
	"github.com/yourusername/surebet-tool/internal/models"
)

// MergeOutcomes merges a refresh from one source into an event's existing
// outcome set. A non-empty incoming set is the source's authoritative view:
// every outcome previously held for sourceTag is replaced, outcomes from
// other sources are kept untouched. An empty incoming set changes nothing:
// a refresh that returns zero outcomes is "no update", never "outcomes
// cleared".
//
// Outcome order is preserved (survivors first, then incoming in reported
// order) so downstream tie-breaking on first occurrence stays deterministic.
func MergeOutcomes(existing, incoming []models.Outcome, sourceTag string) []models.Outcome {
	if len(incoming) == 0 {
		return existing
	}

	merged := make([]models.Outcome, 0, len(existing)+len(incoming))
	for _, o := range existing {
		if o.Source == sourceTag {
			continue
		}
		merged = append(merged, o)
	}

	for _, o := range incoming {
		o.Source = sourceTag
		merged = append(merged, o)
	}

	return merged
}
