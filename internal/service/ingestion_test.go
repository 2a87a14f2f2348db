package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/surebet-tool/internal/datasource"
	"github.com/yourusername/surebet-tool/internal/models"
	"github.com/yourusername/surebet-tool/internal/store"
)

type stubSource struct {
	name    string
	enabled bool
	events  []datasource.SourceEvent
	err     error
	calls   int
}

func (s *stubSource) FetchEvents(ctx context.Context) ([]datasource.SourceEvent, error) {
	s.calls++
	return s.events, s.err
}

func (s *stubSource) Name() string    { return s.name }
func (s *stubSource) IsEnabled() bool { return s.enabled }

type stubTrigger struct {
	count int
}

func (t *stubTrigger) Trigger() { t.count++ }

func sourceEvent(id string) datasource.SourceEvent {
	return datasource.SourceEvent{
		EventID:   id,
		FetchedAt: time.Now().UTC(),
		Outcomes: []datasource.SourceOutcome{
			{Bookmaker: "Alpha", Label: "Home", Odds: 2.1},
			{Bookmaker: "Beta", Label: "Away", Odds: 2.1},
		},
	}
}

func newTestIngestion(sources []datasource.Source, trigger *stubTrigger) (*IngestionService, *store.EventStore) {
	st := store.NewEventStore(time.Hour)
	svc := NewIngestionService(sources, NewOddsNormalizer(testLogger()), st, trigger, nil, testLogger(), 5*time.Second)
	return svc, st
}

func TestRunCycleIngestsAllSources(t *testing.T) {
	trigger := &stubTrigger{}
	svc, st := newTestIngestion([]datasource.Source{
		&stubSource{name: "odds_api", enabled: true, events: []datasource.SourceEvent{sourceEvent("ev1"), sourceEvent("ev2")}},
		&stubSource{name: "scraper", enabled: true, events: []datasource.SourceEvent{sourceEvent("ev1")}},
	}, trigger)

	result := svc.RunCycle(context.Background())

	assert.Equal(t, 2, result.SourcesFetched)
	assert.Equal(t, 0, result.SourcesFailed)
	assert.Equal(t, 3, result.EventsUpserted)
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 1, trigger.count)

	// ev1 carries the union of both sources
	event, ok := st.Get("ev1")
	require.True(t, ok)
	assert.Len(t, event.Outcomes, 4)
}

func TestRunCycleSkipsDisabledSources(t *testing.T) {
	disabled := &stubSource{name: "odds_api", enabled: false, events: []datasource.SourceEvent{sourceEvent("ev1")}}
	trigger := &stubTrigger{}
	svc, st := newTestIngestion([]datasource.Source{disabled}, trigger)

	svc.RunCycle(context.Background())

	assert.Equal(t, 0, disabled.calls)
	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 0, trigger.count)
}

func TestRunCycleSourceFailureDoesNotAbortOthers(t *testing.T) {
	trigger := &stubTrigger{}
	svc, st := newTestIngestion([]datasource.Source{
		&stubSource{name: "broken", enabled: true, err: errors.New("boom")},
		&stubSource{name: "working", enabled: true, events: []datasource.SourceEvent{sourceEvent("ev1")}},
	}, trigger)

	result := svc.RunCycle(context.Background())

	assert.Equal(t, 1, result.SourcesFailed)
	assert.Equal(t, 1, result.EventsUpserted)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 1, trigger.count)
}

func TestRunCycleNoDataNoTrigger(t *testing.T) {
	trigger := &stubTrigger{}
	svc, _ := newTestIngestion([]datasource.Source{
		&stubSource{name: "empty", enabled: true},
	}, trigger)

	svc.RunCycle(context.Background())
	assert.Equal(t, 0, trigger.count)
}

func TestIngestBatchDiscardsOnCancelledContext(t *testing.T) {
	svc, st := newTestIngestion(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	upserted, _ := svc.IngestBatch(ctx, []datasource.SourceEvent{sourceEvent("ev1")}, "scraper")
	assert.Equal(t, 0, upserted)
	assert.Equal(t, 0, st.Len())
}

func TestIngestBatchCountsRejections(t *testing.T) {
	svc, st := newTestIngestion(nil, nil)

	batch := []datasource.SourceEvent{
		{
			EventID:   "ev1",
			FetchedAt: time.Now().UTC(),
			Outcomes: []datasource.SourceOutcome{
				{Bookmaker: "Alpha", Label: "Home", Odds: 0.5},
				{Bookmaker: "Beta", Label: "Home", Odds: 2.0},
				{Bookmaker: "Gamma", Label: "Away", Odds: 2.0},
			},
		},
	}

	upserted, rejections := svc.IngestBatch(context.Background(), batch, "scraper")
	assert.Equal(t, 1, upserted)
	assert.Equal(t, 1, rejections)
	assert.Equal(t, 1, st.Len())
}

type stubArchive struct {
	mu         sync.Mutex
	upserts    []string
	cutoffs    []time.Time
	failUpsert bool
}

func (a *stubArchive) UpsertEvent(ctx context.Context, event *models.Event, sourceTag string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failUpsert {
		return errors.New("connection refused")
	}
	a.upserts = append(a.upserts, sourceTag+"/"+event.EventID)
	return nil
}

func (a *stubArchive) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cutoffs = append(a.cutoffs, cutoff)
	return 0, nil
}

func TestIngestBatchArchivesCommittedEvents(t *testing.T) {
	svc, _ := newTestIngestion(nil, nil)
	archive := &stubArchive{}
	svc.SetArchive(archive)

	upserted, _ := svc.IngestBatch(context.Background(), []datasource.SourceEvent{
		sourceEvent("ev1"),
		sourceEvent("ev2"),
	}, "scraper")

	require.Equal(t, 2, upserted)
	assert.ElementsMatch(t, []string{"scraper/ev1", "scraper/ev2"}, archive.upserts)
}

func TestIngestBatchArchiveFailureDoesNotFailBatch(t *testing.T) {
	svc, st := newTestIngestion(nil, nil)
	svc.SetArchive(&stubArchive{failUpsert: true})

	upserted, _ := svc.IngestBatch(context.Background(), []datasource.SourceEvent{sourceEvent("ev1")}, "scraper")

	assert.Equal(t, 1, upserted)
	assert.Equal(t, 1, st.Len())
}

func TestPruneStaleSweepsArchive(t *testing.T) {
	svc, _ := newTestIngestion(nil, nil)
	archive := &stubArchive{}
	svc.SetArchive(archive)

	before := time.Now().UTC()
	svc.PruneStale(context.Background())

	// The archive is swept every prune with a cutoff one TTL in the past
	require.Len(t, archive.cutoffs, 1)
	assert.False(t, archive.cutoffs[0].After(before))
}
