package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/datasource"
	"github.com/yourusername/surebet-tool/internal/metrics"
	"github.com/yourusername/surebet-tool/internal/models"
	"github.com/yourusername/surebet-tool/internal/store"
	"golang.org/x/sync/errgroup"
)

// DetectionTrigger requests a detection pass after new data lands.
type DetectionTrigger interface {
	Trigger()
}

// EventArchive mirrors the in-memory store in durable storage. Implemented by
// the postgres event repository; writes follow the same per-source
// replacement rule the store applies.
type EventArchive interface {
	UpsertEvent(ctx context.Context, event *models.Event, sourceTag string, now time.Time) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// CycleResult summarizes one ingestion cycle for logging and callers.
type CycleResult struct {
	CycleID        string
	SourcesFetched int
	SourcesFailed  int
	EventsUpserted int
	Rejections     int
	Duration       time.Duration
}

// IngestionService pulls events from all enabled sources, normalizes them
// and commits them to the snapshot store. Sources are fetched concurrently;
// each source's batch is committed only after it has been fetched and
// normalized in full, so a cancelled or failed fetch leaves no partial state.
type IngestionService struct {
	sources    []datasource.Source
	normalizer *OddsNormalizer
	store      *store.EventStore
	detector   DetectionTrigger
	metrics    *metrics.Metrics
	logger     *logrus.Logger

	sourceTimeout time.Duration
	archive       EventArchive
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	sources []datasource.Source,
	normalizer *OddsNormalizer,
	st *store.EventStore,
	detector DetectionTrigger,
	m *metrics.Metrics,
	logger *logrus.Logger,
	sourceTimeout time.Duration,
) *IngestionService {
	return &IngestionService{
		sources:       sources,
		normalizer:    normalizer,
		store:         st,
		detector:      detector,
		metrics:       m,
		logger:        logger,
		sourceTimeout: sourceTimeout,
	}
}

// SetArchive enables durable event persistence. Archive failures are logged
// and never fail a batch; the in-memory store stays authoritative.
func (s *IngestionService) SetArchive(archive EventArchive) {
	s.archive = archive
}

// RunCycle fetches every enabled source once and triggers detection if any
// source delivered data. Per-source failures are logged and counted; they
// never abort the cycle for the other sources.
func (s *IngestionService) RunCycle(ctx context.Context) CycleResult {
	start := time.Now()
	result := CycleResult{CycleID: uuid.New().String()}

	log := s.logger.WithField("cycle_id", result.CycleID)
	log.Debug("Starting ingestion cycle")

	type sourceOutcome struct {
		upserted   int
		rejections int
		failed     bool
	}

	outcomes := make([]sourceOutcome, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		if !src.IsEnabled() {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			upserted, rejections, err := s.ingestSource(gctx, src)
			outcomes[i] = sourceOutcome{upserted: upserted, rejections: rejections, failed: err != nil}
			if err != nil {
				log.WithError(err).WithField("source", src.Name()).Error("Source fetch failed")
				if s.metrics != nil {
					s.metrics.SourceFetchErrors.WithLabelValues(src.Name()).Inc()
				}
			}
			// Errors are absorbed so one source cannot cancel the others
			return nil
		})
	}
	g.Wait()

	for _, o := range outcomes {
		if o.failed {
			result.SourcesFailed++
			continue
		}
		if o.upserted > 0 || o.rejections > 0 {
			result.SourcesFetched++
		}
		result.EventsUpserted += o.upserted
		result.Rejections += o.rejections
	}
	result.Duration = time.Since(start)

	status := "success"
	if result.SourcesFailed > 0 {
		status = "partial"
	}
	if s.metrics != nil {
		s.metrics.IngestionCycles.WithLabelValues(status).Inc()
		s.metrics.StoreEvents.Set(float64(s.store.Len()))
	}

	log.WithFields(logrus.Fields{
		"sources_fetched": result.SourcesFetched,
		"sources_failed":  result.SourcesFailed,
		"events_upserted": result.EventsUpserted,
		"rejections":      result.Rejections,
		"duration_ms":     result.Duration.Milliseconds(),
	}).Info("Ingestion cycle complete")

	if result.EventsUpserted > 0 && s.detector != nil {
		s.detector.Trigger()
	}

	return result
}

// ingestSource fetches and commits one source within its own timeout
func (s *IngestionService) ingestSource(ctx context.Context, src datasource.Source) (int, int, error) {
	fetchCtx := ctx
	if s.sourceTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
	}

	fetchStart := time.Now()
	records, err := src.FetchEvents(fetchCtx)
	if err != nil {
		return 0, 0, err
	}
	if s.metrics != nil {
		s.metrics.IngestionDuration.WithLabelValues(src.Name()).Observe(time.Since(fetchStart).Seconds())
	}

	upserted, rejections := s.IngestBatch(ctx, records, src.Name())
	return upserted, rejections, nil
}

// IngestBatch normalizes and commits a batch of raw records attributed to one
// source tag. It is used both by polled sources and by batches pushed through
// the API. The batch is normalized in full before any upsert, so a cancelled
// context discards the whole batch rather than committing a prefix of it.
func (s *IngestionService) IngestBatch(ctx context.Context, records []datasource.SourceEvent, sourceTag string) (int, int) {
	normalized := make([]normalizedRecord, 0, len(records))
	totalRejections := 0

	for _, record := range records {
		event, rejections := s.normalizer.Normalize(record, sourceTag)
		totalRejections += len(rejections)
		for _, r := range rejections {
			s.logger.WithFields(logrus.Fields{
				"source":    sourceTag,
				"event_id":  r.EventID,
				"bookmaker": r.Bookmaker,
				"label":     r.Label,
			}).Debug(r.Reason)
			if s.metrics != nil {
				s.metrics.OutcomesRejected.WithLabelValues(sourceTag, rejectionReasonClass(r)).Inc()
			}
		}
		if event != nil {
			normalized = append(normalized, normalizedRecord{event: event})
		}
	}

	if ctx.Err() != nil {
		s.logger.WithField("source", sourceTag).Warn("Batch discarded, context cancelled before commit")
		return 0, totalRejections
	}

	now := time.Now().UTC()
	upserted := 0
	for _, n := range normalized {
		if res := s.store.Upsert(n.event, sourceTag, now); res == store.UpsertSkipped {
			continue
		}
		upserted++
		if s.metrics != nil {
			s.metrics.EventsIngested.WithLabelValues(sourceTag).Inc()
			s.metrics.OutcomesIngested.WithLabelValues(sourceTag).Add(float64(len(n.event.Outcomes)))
		}
		if s.archive != nil {
			if err := s.archive.UpsertEvent(ctx, n.event, sourceTag, now); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"source":   sourceTag,
					"event_id": n.event.EventID,
				}).Warn("Failed to archive event")
			}
		}
	}

	return upserted, totalRejections
}

// PruneStale drops events no source has refreshed within the store TTL, from
// both the in-memory store and the archive when one is configured.
func (s *IngestionService) PruneStale(ctx context.Context) int {
	now := time.Now().UTC()
	pruned := s.store.Prune(now)
	if pruned > 0 {
		s.logger.WithField("pruned", pruned).Info("Stale events removed")
		if s.metrics != nil {
			s.metrics.StaleEventsPruned.Add(float64(pruned))
			s.metrics.StoreEvents.Set(float64(s.store.Len()))
		}
		if s.detector != nil {
			s.detector.Trigger()
		}
	}

	if s.archive != nil {
		if deleted, err := s.archive.DeleteStale(ctx, now.Add(-s.store.TTL())); err != nil {
			s.logger.WithError(err).Warn("Failed to prune archived events")
		} else if deleted > 0 {
			s.logger.WithField("deleted", deleted).Debug("Stale archived events removed")
		}
	}

	return pruned
}

type normalizedRecord struct {
	event *models.Event
}

// rejectionReasonClass buckets free-form rejection reasons into stable
// metric label values.
func rejectionReasonClass(r Rejection) string {
	switch {
	case strings.Contains(r.Reason, "event_id"):
		return "missing_event_id"
	case strings.Contains(r.Reason, "bookmaker"):
		return "missing_bookmaker"
	case strings.Contains(r.Reason, "label"):
		return "missing_label"
	case strings.Contains(r.Reason, "odds"):
		return "invalid_odds"
	default:
		return "other"
	}
}
