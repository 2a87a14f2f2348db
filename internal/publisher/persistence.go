package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/surebet-tool/internal/models"
)

// SurebetWriter persists the surebets of one detection pass. Implemented by
// the postgres repository; kept as an interface so persistence stays an
// external collaborator of the core.
type SurebetWriter interface {
	ReplaceSnapshot(ctx context.Context, surebets []models.Surebet, detectedAt time.Time) error
}

// PersistencePublisher writes each pass to storage as a cache for the
// dashboard. Stored rows are advisory: the in-memory pass is authoritative.
type PersistencePublisher struct {
	writer SurebetWriter
}

// NewPersistencePublisher creates a new persistence publisher
func NewPersistencePublisher(writer SurebetWriter) *PersistencePublisher {
	return &PersistencePublisher{writer: writer}
}

// Name identifies the publisher
func (p *PersistencePublisher) Name() string {
	return "postgres"
}

// Publish replaces the stored surebet snapshot with this pass
func (p *PersistencePublisher) Publish(ctx context.Context, pass Pass) error {
	if err := p.writer.ReplaceSnapshot(ctx, pass.Surebets, pass.DetectedAt); err != nil {
		return fmt.Errorf("failed to persist surebet snapshot: %w", err)
	}
	return nil
}
