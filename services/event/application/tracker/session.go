package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
)

// Channel is the push transport as the session sees it. Connect returns a
// sequence of validated inbound events that closes when the transport does;
// it cannot be resumed, only replaced by another Connect. Publish never blocks
// and guarantees nothing about delivery.
type Channel interface {
	Connect(ctx context.Context) (<-chan models.Event, error)
	Publish(e models.Event)
}

// Session is the per-client context object: it creates and owns the event
// store and placement workflow, tracks the selected category and the channel
// connection state, and signals every change on Changes.
//
// Events broadcast while the channel is disconnected are never seen by this
// session; the relay does not replay history.
type Session struct {
	log      logger.Logger
	channel  Channel
	store    *EventStore
	workflow *Workflow

	mu        sync.RWMutex
	category  Category
	connected bool

	changes      chan struct{}
	minBackoff   time.Duration
	maxBackoff   time.Duration
	workflowOpts []WorkflowOption
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithWorkflowOptions passes options through to the session's Workflow.
func WithWorkflowOptions(opts ...WorkflowOption) SessionOption {
	return func(s *Session) { s.workflowOpts = append(s.workflowOpts, opts...) }
}

// WithReconnectBackoff sets the first and the longest wait between connection attempts.
func WithReconnectBackoff(minDelay, maxDelay time.Duration) SessionOption {
	return func(s *Session) {
		s.minBackoff = minDelay
		s.maxBackoff = maxDelay
	}
}

// NewSession creates a session with an empty store, an Idle workflow and the
// unfiltered category selected.
func NewSession(ch Channel, log logger.Logger, opts ...SessionOption) *Session {
	s := &Session{
		log:        log,
		channel:    ch,
		category:   CategoryAll,
		changes:    make(chan struct{}, 1),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = NewEventStore(s.notify)
	wopts := append(s.workflowOpts, WithStateChange(s.notify))
	s.workflow = NewWorkflow(s.store, ch, wopts...)
	return s
}

// Store returns the session's event store.
func (s *Session) Store() *EventStore { return s.store }

// Workflow returns the session's placement workflow.
func (s *Session) Workflow() *Workflow { return s.workflow }

// Changes delivers a signal after any store, category, workflow or connection
// change. Signals coalesce: a receiver that falls behind sees one pending signal.
func (s *Session) Changes() <-chan struct{} { return s.changes }

// SelectCategory changes the filter selection.
func (s *Session) SelectCategory(c Category) {
	s.mu.Lock()
	s.category = c
	s.mu.Unlock()
	s.notify()
}

// Category returns the current filter selection.
func (s *Session) Category() Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

// Visible returns the filtered view of the store at this moment.
func (s *Session) Visible() []models.Event {
	return Select(s.store.All(), s.Category())
}

// Connected reports whether an inbound sequence is currently being consumed.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Run keeps the session attached to the channel until ctx is done: it connects,
// feeds inbound events to the store, and after the sequence ends waits with
// doubling backoff before connecting again. Returns ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	delay := s.minBackoff
	for {
		inbound, err := s.channel.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.WarnContext(ctx, "tracker: connect failed", "error", err, "retry_in", delay)
		} else {
			delay = s.minBackoff
			s.setConnected(true)
			s.log.InfoContext(ctx, "tracker: channel connected")

			received := s.consume(ctx, inbound)

			s.setConnected(false)
			s.log.InfoContext(ctx, "tracker: channel closed", "events_received", received, "events_total", s.store.Len())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, s.maxBackoff)
	}
}

// consume feeds inbound to the store until the sequence closes or ctx is done.
func (s *Session) consume(ctx context.Context, inbound <-chan models.Event) int {
	n := 0
	for {
		var e models.Event
		select {
		case <-ctx.Done():
			return n
		case ev, ok := <-inbound:
			if !ok {
				return n
			}
			e = ev
		}
		n++
		if s.store.AddFromChannel(e) {
			s.log.DebugContext(ctx, "tracker: event received", "event_id", e.ID, "event_type", e.Type)
		} else {
			s.log.DebugContext(ctx, "tracker: duplicate event ignored", "event_id", e.ID)
		}
	}
}

func (s *Session) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
