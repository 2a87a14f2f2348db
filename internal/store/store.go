// Package store holds the canonical in-memory snapshot of betting events.
// It is the single writer boundary between concurrent ingestion sources and
// the detection engine.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/yourusername/surebet-tool/internal/models"
)

// UpsertResult describes the effect of an upsert operation.
type UpsertResult int

const (
	// UpsertSkipped means the refresh carried no outcomes and was ignored
	UpsertSkipped UpsertResult = iota
	// UpsertCreated means a new event was added to the store
	UpsertCreated
	// UpsertUpdated means an existing event's outcomes were merged
	UpsertUpdated
)

// entry wraps one event with its own mutex so upserts for the same event_id
// are serialized while upserts for different events proceed independently.
type entry struct {
	mu          sync.Mutex
	event       models.Event
	lastRefresh time.Time
	// deleted marks an entry Prune removed from the map. A writer that
	// obtained the entry before the removal must not refresh it: the write
	// would land on an orphan and be lost.
	deleted bool
}

// EventStore is the canonical snapshot store keyed by event identity.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]*entry
	ttl    time.Duration
}

// NewEventStore creates a new event store. Events not refreshed by any
// source within ttl are removed by Prune.
func NewEventStore(ttl time.Duration) *EventStore {
	return &EventStore{
		events: make(map[string]*entry),
		ttl:    ttl,
	}
}

// Upsert merges one source's refresh of an event into the canonical store.
// The merge follows MergeOutcomes semantics: per-source replacement,
// cross-source union, empty refresh ignored.
func (s *EventStore) Upsert(event *models.Event, sourceTag string, now time.Time) UpsertResult {
	if event == nil || len(event.Outcomes) == 0 {
		return UpsertSkipped
	}

	var e *entry
	var created bool
	for {
		e, created = s.entryFor(event.EventID)
		e.mu.Lock()
		if !e.deleted {
			break
		}
		// Lost a race with Prune: the entry is no longer in the map.
		// Drop it and start over with a fresh one.
		e.mu.Unlock()
		s.mu.Lock()
		if s.events[event.EventID] == e {
			delete(s.events, event.EventID)
		}
		s.mu.Unlock()
	}
	defer e.mu.Unlock()

	if created {
		e.event = models.Event{
			EventID:     event.EventID,
			Sport:       event.Sport,
			DisplayName: event.DisplayName,
		}
	} else {
		// Names may be corrected upstream between refreshes
		if event.DisplayName != "" {
			e.event.DisplayName = event.DisplayName
		}
		if event.Sport != "" {
			e.event.Sport = event.Sport
		}
	}

	e.event.Outcomes = MergeOutcomes(e.event.Outcomes, event.Outcomes, sourceTag)
	e.event.UpdatedAt = now
	e.lastRefresh = now

	if created {
		return UpsertCreated
	}
	return UpsertUpdated
}

// entryFor returns the entry for an event id, creating it if needed.
func (s *EventStore) entryFor(eventID string) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.events[eventID]
	s.mu.RUnlock()
	if ok {
		return e, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[eventID]; ok {
		return e, false
	}
	e = &entry{}
	s.events[eventID] = e
	return e, true
}

// Snapshot returns a consistent point-in-time copy of all events, sorted by
// event_id. Each event is deep-copied under its entry lock, so a snapshot
// never mixes outcomes from an in-flight refresh with older ones.
func (s *EventStore) Snapshot() []models.Event {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.events))
	for _, e := range s.events {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	events := make([]models.Event, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			events = append(events, e.event.Clone())
		}
		e.mu.Unlock()
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].EventID < events[j].EventID
	})

	return events
}

// Get returns a deep copy of a single event.
func (s *EventStore) Get(eventID string) (models.Event, bool) {
	s.mu.RLock()
	e, ok := s.events[eventID]
	s.mu.RUnlock()
	if !ok {
		return models.Event{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return models.Event{}, false
	}
	return e.event.Clone(), true
}

// Prune removes events that no source has refreshed within the TTL and
// returns how many were dropped. Until the TTL fires, last-known outcomes
// are kept.
func (s *EventStore) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, e := range s.events {
		e.mu.Lock()
		stale := now.Sub(e.lastRefresh) > s.ttl
		if stale {
			e.deleted = true
		}
		e.mu.Unlock()
		if stale {
			delete(s.events, id)
			pruned++
		}
	}
	return pruned
}

// TTL returns the staleness window applied by Prune.
func (s *EventStore) TTL() time.Duration {
	return s.ttl
}

// Len returns the number of events currently held.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
