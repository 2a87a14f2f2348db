package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/surebet-tool/internal/database"
	"github.com/yourusername/surebet-tool/internal/models"
)

// PostgresSurebetRepository implements SurebetRepository for PostgreSQL
type PostgresSurebetRepository struct {
	db *database.DB
}

// NewPostgresSurebetRepository creates a new surebet repository
func NewPostgresSurebetRepository(db *database.DB) SurebetRepository {
	return &PostgresSurebetRepository{db: db}
}

// ReplaceSnapshot overwrites the stored surebets with the latest pass. The
// table always reflects exactly one detection pass.
func (r *PostgresSurebetRepository) ReplaceSnapshot(ctx context.Context, surebets []models.Surebet, detectedAt time.Time) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM surebet_snapshots`); err != nil {
			return fmt.Errorf("failed to clear surebet snapshots: %w", err)
		}

		for _, sb := range surebets {
			outcomes, err := json.Marshal(sb.Outcomes)
			if err != nil {
				return fmt.Errorf("failed to marshal outcomes: %w", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO surebet_snapshots (id, event_id, display_name, sport, total_inverse_odds, profit_percentage, outcomes, detected_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, uuid.New(), sb.EventID, sb.DisplayName, sb.Sport, sb.TotalInverseOdds, sb.ProfitPercentage, outcomes, detectedAt)
			if err != nil {
				return fmt.Errorf("failed to insert surebet snapshot: %w", err)
			}
		}

		return nil
	})
}

// ListLatest returns the stored surebets ordered by descending profit
func (r *PostgresSurebetRepository) ListLatest(ctx context.Context, limit int) ([]models.Surebet, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.GetPool().Query(ctx, `
		SELECT event_id, display_name, sport, total_inverse_odds, profit_percentage, outcomes
		FROM surebet_snapshots
		ORDER BY profit_percentage DESC, event_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query surebet snapshots: %w", err)
	}
	defer rows.Close()

	var surebets []models.Surebet
	for rows.Next() {
		var sb models.Surebet
		var outcomes []byte
		if err := rows.Scan(&sb.EventID, &sb.DisplayName, &sb.Sport, &sb.TotalInverseOdds, &sb.ProfitPercentage, &outcomes); err != nil {
			return nil, fmt.Errorf("failed to scan surebet snapshot: %w", err)
		}
		if err := json.Unmarshal(outcomes, &sb.Outcomes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcomes: %w", err)
		}
		surebets = append(surebets, sb)
	}

	return surebets, rows.Err()
}
