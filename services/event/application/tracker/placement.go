package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
	domainsvcs "github.com/ghuser/voyagewatch/services/event/domain/services"
)

// State is the placement workflow state.
type State int

const (
	// Idle: placement mode off, map clicks are ignored.
	Idle State = iota
	// Armed: placement mode on, no coordinate chosen yet.
	Armed
	// Positioned: coordinate chosen, draft editable and committable.
	Positioned
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Positioned:
		return "positioned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LocalStore receives committed events. *EventStore implements it.
type LocalStore interface {
	AddLocal(e models.Event) error
}

// Publisher sends committed events outward without waiting for delivery.
type Publisher interface {
	Publish(e models.Event)
}

// Workflow is the placement state machine. It exclusively owns the draft.
type Workflow struct {
	mu       sync.Mutex
	state    State
	draft    models.Draft
	reporter string

	store    LocalStore
	pub      Publisher
	now      func() time.Time
	newID    func() string
	onChange func()

	lastReportedAt time.Time
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithReporter presets reportedBy on every new draft.
func WithReporter(name string) WorkflowOption {
	return func(w *Workflow) { w.reporter = name }
}

// WithClock replaces time.Now as the source of reportedAt.
func WithClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

// WithIDGenerator replaces models.NewEventID.
func WithIDGenerator(newID func() string) WorkflowOption {
	return func(w *Workflow) { w.newID = newID }
}

// WithStateChange registers a callback run after every state or draft change.
func WithStateChange(fn func()) WorkflowOption {
	return func(w *Workflow) { w.onChange = fn }
}

// NewWorkflow returns an Idle workflow committing into store and publishing via pub.
func NewWorkflow(store LocalStore, pub Publisher, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		store: store,
		pub:   pub,
		now:   time.Now,
		newID: models.NewEventID,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.draft = models.NewDraft(w.reporter)
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the draft under construction.
func (w *Workflow) Draft() models.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.draft
	if d.Position != nil {
		p := *d.Position
		d.Position = &p
	}
	return d
}

// Arm turns placement mode on with a fresh draft. Arming while already
// placing discards the current draft.
func (w *Workflow) Arm() {
	w.mu.Lock()
	w.state = Armed
	w.draft = models.NewDraft(w.reporter)
	w.mu.Unlock()
	w.changed()
}

// PlaceAt records a map click as the draft's position. Outside placement mode
// it does nothing and returns false.
func (w *Workflow) PlaceAt(lat, lng float64) bool {
	w.mu.Lock()
	if w.state == Idle {
		w.mu.Unlock()
		return false
	}
	w.draft.Position = &models.Coordinates{Latitude: lat, Longitude: lng}
	w.state = Positioned
	w.mu.Unlock()
	w.changed()
	return true
}

// EditField writes a form value into the draft.
func (w *Workflow) EditField(field models.Field, value string) error {
	w.mu.Lock()
	if w.state == Idle {
		w.mu.Unlock()
		return fmt.Errorf("edit %s: %w", field, domain.ErrNotPlacing)
	}
	err := w.draft.Set(field, value)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.changed()
	return nil
}

// Cancel leaves placement mode and discards the draft.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	w.state = Idle
	w.draft = models.NewDraft(w.reporter)
	w.mu.Unlock()
	w.changed()
}

// CanCommit reports whether Commit is enabled, i.e. a position has been chosen.
func (w *Workflow) CanCommit() bool {
	return w.State() == Positioned
}

// Commit turns the draft into an event: fresh id, reportedAt from the clock
// (never earlier than the previous commit), validation, optimistic insert into
// the store, then publish. On success the workflow returns to Idle. On failure
// nothing is stored or published and the draft is kept for correction.
func (w *Workflow) Commit() (models.Event, error) {
	w.mu.Lock()
	switch w.state {
	case Idle:
		w.mu.Unlock()
		return models.Event{}, fmt.Errorf("commit: %w", domain.ErrNotPlacing)
	case Armed:
		w.mu.Unlock()
		return models.Event{}, &domain.ValidationError{Kind: domain.MissingCoordinates, Field: "latitude"}
	}

	reportedAt := w.now().UTC()
	if reportedAt.Before(w.lastReportedAt) {
		reportedAt = w.lastReportedAt
	}

	e, err := domainsvcs.Validate(w.draft.Candidate(w.newID(), reportedAt))
	if err != nil {
		w.mu.Unlock()
		return models.Event{}, err
	}
	if err := w.store.AddLocal(e); err != nil {
		w.mu.Unlock()
		return models.Event{}, fmt.Errorf("commit: %w", err)
	}
	w.lastReportedAt = reportedAt
	w.state = Idle
	w.draft = models.NewDraft(w.reporter)
	w.mu.Unlock()

	w.pub.Publish(e)
	w.changed()
	return e, nil
}

func (w *Workflow) changed() {
	if w.onChange != nil {
		w.onChange()
	}
}
