package repositories

import (
	"context"

	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

// EventRepository is the relay's persistence interface for reported events.
// The domain layer owns this interface; infrastructure implements it.
type EventRepository interface {
	// Save stores a validated event and announces it on the event bus in the
	// same transaction. Returns domain.ErrEventAlreadyReported if the id exists.
	Save(ctx context.Context, e models.Event) error

	// GetByID returns domain.ErrEventNotFound if no event has the id.
	GetByID(ctx context.Context, id string) (models.Event, error)
}
