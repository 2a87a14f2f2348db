package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/surebet-tool/internal/database"
	"github.com/yourusername/surebet-tool/internal/models"
)

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *database.DB
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

// UpsertEvent writes the event row and replaces sourceTag's outcome rows in a
// single transaction. Events carrying no outcomes are ignored.
func (r *PostgresEventRepository) UpsertEvent(ctx context.Context, event *models.Event, sourceTag string, now time.Time) error {
	if event == nil || len(event.Outcomes) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO events (event_id, sport, display_name, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id) DO UPDATE SET
				sport        = CASE WHEN EXCLUDED.sport        <> '' THEN EXCLUDED.sport        ELSE events.sport        END,
				display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE events.display_name END,
				updated_at   = EXCLUDED.updated_at
		`, event.EventID, event.Sport, event.DisplayName, now)
		if err != nil {
			return fmt.Errorf("failed to upsert event: %w", err)
		}

		_, err = tx.Exec(ctx, `DELETE FROM outcomes WHERE event_id = $1 AND source = $2`, event.EventID, sourceTag)
		if err != nil {
			return fmt.Errorf("failed to clear source outcomes: %w", err)
		}

		for _, o := range event.Outcomes {
			_, err = tx.Exec(ctx, `
				INSERT INTO outcomes (id, event_id, source, bookmaker, label, odds, link, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (event_id, source, bookmaker, label) DO UPDATE SET
					odds = EXCLUDED.odds, link = EXCLUDED.link, updated_at = EXCLUDED.updated_at
			`, uuid.New(), event.EventID, sourceTag, o.Bookmaker, o.Label, o.Odds, o.Link, now)
			if err != nil {
				return fmt.Errorf("failed to insert outcome: %w", err)
			}
		}

		return nil
	})
}

// ListEvents loads all persisted events with their outcomes
func (r *PostgresEventRepository) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT e.event_id, e.sport, e.display_name, e.updated_at,
		       o.source, o.bookmaker, o.label, o.odds, o.link
		FROM events e
		JOIN outcomes o ON o.event_id = e.event_id
		ORDER BY e.event_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	var current *models.Event
	for rows.Next() {
		var (
			eventID, sport, displayName string
			updatedAt                   time.Time
			o                           models.Outcome
		)
		if err := rows.Scan(&eventID, &sport, &displayName, &updatedAt,
			&o.Source, &o.Bookmaker, &o.Label, &o.Odds, &o.Link); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if current == nil || current.EventID != eventID {
			events = append(events, models.Event{
				EventID:     eventID,
				Sport:       sport,
				DisplayName: displayName,
				UpdatedAt:   updatedAt,
			})
			current = &events[len(events)-1]
		}
		current.Outcomes = append(current.Outcomes, o)
	}

	return events, rows.Err()
}

// DeleteStale removes events not updated since the cutoff
func (r *PostgresEventRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM events WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale events: %w", err)
	}
	return tag.RowsAffected(), nil
}
