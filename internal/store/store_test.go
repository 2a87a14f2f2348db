package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/surebet-tool/internal/models"
)

func testEvent(id string, outcomes ...models.Outcome) *models.Event {
	return &models.Event{
		EventID:     id,
		Sport:       "Soccer",
		DisplayName: "Team A vs Team B",
		Outcomes:    outcomes,
	}
}

func TestUpsertCreateUpdateSkip(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()

	res := s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", now)
	assert.Equal(t, UpsertCreated, res)

	res = s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.1}), "odds_api", now)
	assert.Equal(t, UpsertUpdated, res)

	res = s.Upsert(testEvent("ev1"), "odds_api", now)
	assert.Equal(t, UpsertSkipped, res)

	res = s.Upsert(nil, "odds_api", now)
	assert.Equal(t, UpsertSkipped, res)

	assert.Equal(t, 1, s.Len())
}

func TestUpsertPerSourceReplacement(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()

	s.Upsert(testEvent("ev1",
		models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0},
		models.Outcome{Bookmaker: "Alpha", Label: "Away", Odds: 1.9},
	), "odds_api", now)
	s.Upsert(testEvent("ev1",
		models.Outcome{Bookmaker: "Beta", Label: "Home", Odds: 2.2},
	), "scraper", now)

	// odds_api refreshes with fewer outcomes: its old set is replaced whole
	s.Upsert(testEvent("ev1",
		models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.05},
	), "odds_api", now)

	event, ok := s.Get("ev1")
	require.True(t, ok)
	require.Len(t, event.Outcomes, 2)

	bySource := make(map[string]int)
	for _, o := range event.Outcomes {
		bySource[o.Source]++
	}
	assert.Equal(t, 1, bySource["odds_api"])
	assert.Equal(t, 1, bySource["scraper"])
}

func TestUpsertEmptyRefreshKeepsLastKnown(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()

	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", now)
	s.Upsert(testEvent("ev1"), "odds_api", now.Add(time.Minute))

	event, ok := s.Get("ev1")
	require.True(t, ok)
	assert.Len(t, event.Outcomes, 1)
}

func TestUpsertKeepsNamesWhenRefreshOmitsThem(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()

	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", now)

	update := &models.Event{
		EventID:  "ev1",
		Outcomes: []models.Outcome{{Bookmaker: "Beta", Label: "Away", Odds: 2.0}},
	}
	s.Upsert(update, "scraper", now)

	event, ok := s.Get("ev1")
	require.True(t, ok)
	assert.Equal(t, "Team A vs Team B", event.DisplayName)
	assert.Equal(t, "Soccer", event.Sport)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewEventStore(time.Hour)
	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", time.Now())

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)

	snapshot[0].Outcomes[0].Odds = 99.0
	snapshot[0].DisplayName = "mutated"

	event, ok := s.Get("ev1")
	require.True(t, ok)
	assert.Equal(t, 2.0, event.Outcomes[0].Odds)
	assert.Equal(t, "Team A vs Team B", event.DisplayName)
}

func TestSnapshotSortedByEventID(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		s.Upsert(testEvent(id, models.Outcome{Bookmaker: "X", Label: "Home", Odds: 2.0}), "odds_api", now)
	}

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "alpha", snapshot[0].EventID)
	assert.Equal(t, "bravo", snapshot[1].EventID)
	assert.Equal(t, "charlie", snapshot[2].EventID)
}

func TestConcurrentUpsertsAndSnapshots(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			source := fmt.Sprintf("source-%d", worker)
			for i := 0; i < 50; i++ {
				s.Upsert(testEvent("shared",
					models.Outcome{Bookmaker: "A", Label: "Home", Odds: 2.0},
					models.Outcome{Bookmaker: "B", Label: "Away", Odds: 2.0},
				), source, now)
			}
		}(w)
	}

	// Readers run concurrently; every snapshot must hold an even number of
	// outcomes for the shared event because each source writes pairs.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			for _, event := range s.Snapshot() {
				if len(event.Outcomes)%2 != 0 {
					t.Errorf("torn snapshot: %d outcomes", len(event.Outcomes))
					return
				}
			}
		}
	}()

	wg.Wait()
	<-done

	event, ok := s.Get("shared")
	require.True(t, ok)
	assert.Len(t, event.Outcomes, 16) // 8 sources x 2 outcomes
}

func TestPruneDropsStaleEvents(t *testing.T) {
	s := NewEventStore(10 * time.Minute)
	base := time.Now()

	s.Upsert(testEvent("fresh", models.Outcome{Bookmaker: "A", Label: "Home", Odds: 2.0}), "odds_api", base.Add(-5*time.Minute))
	s.Upsert(testEvent("stale", models.Outcome{Bookmaker: "A", Label: "Home", Odds: 2.0}), "odds_api", base.Add(-30*time.Minute))

	pruned := s.Prune(base)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("stale")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)
}

func TestPruneRefreshResetsClock(t *testing.T) {
	s := NewEventStore(10 * time.Minute)
	base := time.Now()

	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "A", Label: "Home", Odds: 2.0}), "odds_api", base.Add(-30*time.Minute))
	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "B", Label: "Home", Odds: 2.1}), "scraper", base.Add(-time.Minute))

	assert.Equal(t, 0, s.Prune(base))
	assert.Equal(t, 1, s.Len())
}

func TestUpsertRetriesWhenPruneWinsRace(t *testing.T) {
	s := NewEventStore(time.Hour)
	now := time.Now()

	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", now)

	s.mu.RLock()
	stale := s.events["ev1"]
	s.mu.RUnlock()

	// A concurrent prune can remove the entry after a writer has already
	// looked it up; the writer must not refresh the orphan
	stale.mu.Lock()
	stale.deleted = true
	stale.mu.Unlock()

	res := s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Beta", Label: "Away", Odds: 2.2}), "scraper", now.Add(time.Second))
	assert.Equal(t, UpsertCreated, res)

	s.mu.RLock()
	fresh := s.events["ev1"]
	s.mu.RUnlock()
	require.NotNil(t, fresh)
	assert.NotSame(t, stale, fresh)

	event, ok := s.Get("ev1")
	require.True(t, ok)
	require.Len(t, event.Outcomes, 1)
	assert.Equal(t, "Beta", event.Outcomes[0].Bookmaker)
}

func TestGetAndSnapshotSkipDeletedEntries(t *testing.T) {
	s := NewEventStore(time.Hour)
	s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", time.Now())

	s.mu.RLock()
	e := s.events["ev1"]
	s.mu.RUnlock()
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()

	_, ok := s.Get("ev1")
	assert.False(t, ok)
	assert.Empty(t, s.Snapshot())
}

func TestConcurrentPruneAndUpsert(t *testing.T) {
	// Zero-grace TTL: every prune drops everything refreshed before it
	s := NewEventStore(time.Nanosecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", time.Now())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Prune(time.Now())
		}
	}()
	wg.Wait()

	// A refresh after the last prune must always be visible
	res := s.Upsert(testEvent("ev1", models.Outcome{Bookmaker: "Alpha", Label: "Home", Odds: 2.0}), "odds_api", time.Now())
	assert.NotEqual(t, UpsertSkipped, res)
	_, ok := s.Get("ev1")
	assert.True(t, ok)
}
