// Package publisher forwards detection results to storage and transport.
// Publishers own no business logic: they receive one Pass per detection run
// and move it somewhere else.
package publisher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/metrics"
	"github.com/yourusername/surebet-tool/internal/models"
)

// Pass is the result of one detection pass over a snapshot.
type Pass struct {
	Surebets      []models.Surebet `json:"surebets"`
	EventsScanned int              `json:"events_scanned"`
	DetectedAt    time.Time        `json:"detected_at"`
}

// Publisher forwards a detection pass to one destination.
type Publisher interface {
	// Name identifies the publisher in logs and metrics
	Name() string

	// Publish forwards the pass. Implementations must tolerate being
	// called once per pass with overlapping content.
	Publish(ctx context.Context, pass Pass) error
}

// Notifier fans one detection pass out to all registered publishers. A
// failing publisher is logged and skipped; it never blocks the others.
type Notifier struct {
	publishers []Publisher
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// NewNotifier creates a new notifier
func NewNotifier(logger *logrus.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// SetMetrics enables publish failure accounting
func (n *Notifier) SetMetrics(m *metrics.Metrics) {
	n.metrics = m
}

// Register adds a publisher to the fan-out set
func (n *Notifier) Register(p Publisher) {
	n.publishers = append(n.publishers, p)
}

// Publish forwards the pass to every registered publisher
func (n *Notifier) Publish(ctx context.Context, pass Pass) {
	for _, p := range n.publishers {
		if err := p.Publish(ctx, pass); err != nil {
			if n.metrics != nil {
				n.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
			}
			n.logger.WithError(err).WithFields(logrus.Fields{
				"publisher": p.Name(),
				"surebets":  len(pass.Surebets),
			}).Error("Publisher failed, continuing with remaining publishers")
		}
	}
}
