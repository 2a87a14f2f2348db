package repository

import (
	"context"
	"time"

	"github.com/yourusername/surebet-tool/internal/models"
)

// EventRepository persists canonical events and their outcomes. Writes follow
// the same merge rule as the in-memory store: a non-empty refresh replaces the
// refreshing source's outcomes for the event and leaves other sources alone.
type EventRepository interface {
	// UpsertEvent writes the event row and replaces sourceTag's outcomes
	UpsertEvent(ctx context.Context, event *models.Event, sourceTag string, now time.Time) error

	// ListEvents loads all persisted events with outcomes
	ListEvents(ctx context.Context) ([]models.Event, error)

	// DeleteStale removes events not updated since the cutoff
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// SurebetRepository persists the latest detection pass results.
type SurebetRepository interface {
	// ReplaceSnapshot overwrites the stored surebets with the given pass
	ReplaceSnapshot(ctx context.Context, surebets []models.Surebet, detectedAt time.Time) error

	// ListLatest returns the stored surebets ordered by descending profit
	ListLatest(ctx context.Context, limit int) ([]models.Surebet, error)
}
