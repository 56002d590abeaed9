// Package tracker is the client-side event state engine: the deduplicating
// event store, the category filter, the placement workflow and the session
// that ties them to a push channel.
package tracker

import (
	"fmt"
	"sync"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

// EventStore is the client's append-only collection of known events, in
// first-seen order. At most one event per id is ever stored. It performs no
// validation and no I/O.
type EventStore struct {
	mu       sync.RWMutex
	events   []models.Event
	index    map[string]int
	onChange func()
}

// NewEventStore returns an empty store. onChange, if non-nil, is called after
// every successful insertion, outside the store's lock.
func NewEventStore(onChange func()) *EventStore {
	return &EventStore{
		index:    make(map[string]int),
		onChange: onChange,
	}
}

// AddLocal inserts an event created on this client. It is visible to All as
// soon as AddLocal returns. An id already present is rejected with
// domain.ErrDuplicateEventID and the stored event is kept.
func (s *EventStore) AddLocal(e models.Event) error {
	if !s.insert(e) {
		return fmt.Errorf("add local event %s: %w", e.ID, domain.ErrDuplicateEventID)
	}
	return nil
}

// AddFromChannel inserts an event received from the push channel unless an
// event with the same id is already stored, in which case it does nothing.
// Reports whether the event was inserted.
func (s *EventStore) AddFromChannel(e models.Event) bool {
	return s.insert(e)
}

func (s *EventStore) insert(e models.Event) bool {
	s.mu.Lock()
	if _, ok := s.index[e.ID]; ok {
		s.mu.Unlock()
		return false
	}
	s.index[e.ID] = len(s.events)
	s.events = append(s.events, e)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange()
	}
	return true
}

// All returns a snapshot of every stored event in insertion order.
func (s *EventStore) All() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns the event with the given id.
func (s *EventStore) Get(id string) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Event{}, false
	}
	return s.events[i], true
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
