package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

// recordingPublisher records published events and, when store is set, the
// store size observed at the moment of each publish.
type recordingPublisher struct {
	mu        sync.Mutex
	store     *EventStore
	published []models.Event
	seenLen   []int
}

func (p *recordingPublisher) Publish(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, e)
	if p.store != nil {
		p.seenLen = append(p.seenLen, p.store.Len())
	}
}

func (p *recordingPublisher) Published() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Event(nil), p.published...)
}

func newEvent(id string, t models.EventType) models.Event {
	return models.Event{
		ID:         id,
		Type:       t,
		Latitude:   1,
		Longitude:  2,
		ReportedBy: models.AnonymousReporter,
		ReportedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("evt-%03d", n)
	}
}

func ids(events []models.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
