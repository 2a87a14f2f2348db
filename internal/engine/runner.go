package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/metrics"
	"github.com/yourusername/surebet-tool/internal/publisher"
	"github.com/yourusername/surebet-tool/internal/store"
)

// Runner drives detection passes over the snapshot store. Triggers coalesce:
// if a pass is already running, at most one further pass is queued, and it
// will see the newest snapshot when it runs.
type Runner struct {
	store    *store.EventStore
	notifier *publisher.Notifier
	params   Params
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	trigger  chan struct{}
}

// NewRunner creates a detection runner
func NewRunner(st *store.EventStore, notifier *publisher.Notifier, params Params, m *metrics.Metrics, logger *logrus.Logger) *Runner {
	return &Runner{
		store:    st,
		notifier: notifier,
		params:   params,
		metrics:  m,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a detection pass. Non-blocking; a pending trigger absorbs
// further requests because the queued pass snapshots the store when it runs.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run processes triggers until the context is cancelled
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("Detection runner started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Detection runner stopped")
			return
		case <-r.trigger:
			r.RunPass(ctx)
		}
	}
}

// RunPass executes one detection pass over the current snapshot and hands
// the result to the notifier.
func (r *Runner) RunPass(ctx context.Context) publisher.Pass {
	start := time.Now()
	events := r.store.Snapshot()
	surebets := Detect(events, r.params)
	elapsed := time.Since(start)

	pass := publisher.Pass{
		Surebets:      surebets,
		EventsScanned: len(events),
		DetectedAt:    time.Now().UTC(),
	}

	if r.metrics != nil {
		r.metrics.DetectionPasses.Inc()
		r.metrics.DetectionDuration.Observe(elapsed.Seconds())
		r.metrics.SurebetsDetected.Set(float64(len(surebets)))
		if len(surebets) > 0 {
			r.metrics.BestProfitPct.Set(surebets[0].ProfitPercentage)
		} else {
			r.metrics.BestProfitPct.Set(0)
		}
		r.metrics.StoreEvents.Set(float64(len(events)))
	}

	r.logger.WithFields(logrus.Fields{
		"events_scanned": len(events),
		"surebets":       len(surebets),
		"duration_ms":    elapsed.Milliseconds(),
	}).Info("Detection pass complete")

	r.notifier.Publish(ctx, pass)
	return pass
}
