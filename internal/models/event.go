package models

import (
	"time"
)

// Outcome represents a single bookmaker price for one selection of an event.
type Outcome struct {
	Source    string  `db:"source" json:"source"`
	Bookmaker string  `db:"bookmaker" json:"bookmaker" validate:"required"`
	Label     string  `db:"label" json:"label" validate:"required"`
	Odds      float64 `db:"odds" json:"odds" validate:"required,gt=1"`
	Link      string  `db:"link" json:"link"`
}

// Key returns the (source, bookmaker, label) identity of the outcome.
// Outcomes sharing a key replace each other on refresh; outcomes with
// different keys are unioned within an event.
func (o *Outcome) Key() OutcomeKey {
	return OutcomeKey{Source: o.Source, Bookmaker: o.Bookmaker, Label: o.Label}
}

// ImpliedProbability returns 1/odds, the bookmaker's implied probability.
func (o *Outcome) ImpliedProbability() float64 {
	if o.Odds <= 0 {
		return 0
	}
	return 1.0 / o.Odds
}

// OutcomeKey identifies an outcome within an event for merge purposes.
type OutcomeKey struct {
	Source    string
	Bookmaker string
	Label     string
}

// Event represents a canonical betting event with outcomes gathered from
// any number of sources and bookmakers.
type Event struct {
	EventID     string    `db:"event_id" json:"event_id" validate:"required"`
	Sport       string    `db:"sport" json:"sport"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Outcomes    []Outcome `db:"-" json:"outcomes"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DistinctLabels returns the normalized selection labels present in the
// event, in first-occurrence order.
func (e *Event) DistinctLabels() []string {
	seen := make(map[string]bool, len(e.Outcomes))
	labels := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		if !seen[o.Label] {
			seen[o.Label] = true
			labels = append(labels, o.Label)
		}
	}
	return labels
}

// Clone returns a deep copy of the event. Snapshots hand out clones so
// readers never observe in-flight refreshes.
func (e *Event) Clone() Event {
	cp := *e
	cp.Outcomes = make([]Outcome, len(e.Outcomes))
	copy(cp.Outcomes, e.Outcomes)
	return cp
}
