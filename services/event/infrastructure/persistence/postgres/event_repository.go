package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/voyagewatch/pkg/database"
	"github.com/ghuser/voyagewatch/pkg/events"
	"github.com/ghuser/voyagewatch/services/event/domain"
	domainevents "github.com/ghuser/voyagewatch/services/event/domain/events"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

const uniqueViolation = "23505"

const insertEvent = `
INSERT INTO reported_events (
    id, event_type, latitude, longitude, description, reported_by, reported_at,
    is_pvp, confidence, alliance_id, server_region, additional_notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const selectEventByID = `
SELECT id, event_type, latitude, longitude, description, reported_by, reported_at,
       is_pvp, confidence, alliance_id, server_region, additional_notes
FROM reported_events
WHERE id = $1`

// EventRepository implements repositories.EventRepository against PostgreSQL.
type EventRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewEventRepository returns an EventRepository on the given pool. When bus is
// non-nil every saved event is published to TopicEventReported.
func NewEventRepository(db *database.Database, bus *events.EventBus) *EventRepository {
	return &EventRepository{db: db, bus: bus}
}

// Save inserts e and publishes it in the same transaction.
// Returns ErrEventAlreadyReported on a primary key violation.
func (r *EventRepository) Save(ctx context.Context, e models.Event) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertEvent,
			e.ID, e.Type.String(), e.Latitude, e.Longitude, e.Description, e.ReportedBy, e.ReportedAt,
			e.IsPvP, e.Confidence, e.AllianceID, e.ServerRegion, e.AdditionalNotes,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("save %s: %w", e.ID, domain.ErrEventAlreadyReported)
			}
			return fmt.Errorf("insert event: %w", err)
		}

		if r.bus != nil {
			if err := r.publishReported(ctx, tx, e); err != nil {
				return fmt.Errorf("publish event reported: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns the stored event with the given id.
func (r *EventRepository) GetByID(ctx context.Context, id string) (models.Event, error) {
	var (
		e       models.Event
		evtType string
	)
	err := r.db.DB().QueryRowContext(ctx, selectEventByID, id).Scan(
		&e.ID, &evtType, &e.Latitude, &e.Longitude, &e.Description, &e.ReportedBy, &e.ReportedAt,
		&e.IsPvP, &e.Confidence, &e.AllianceID, &e.ServerRegion, &e.AdditionalNotes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Event{}, fmt.Errorf("get %s: %w", id, domain.ErrEventNotFound)
		}
		return models.Event{}, fmt.Errorf("query event: %w", err)
	}
	e.Type = models.EventType(evtType)
	e.ReportedAt = e.ReportedAt.UTC()
	return e, nil
}

func (r *EventRepository) publishReported(ctx context.Context, tx *sql.Tx, e models.Event) error {
	payload, err := domainevents.Encode(e)
	if err != nil {
		return err
	}
	msg := events.NewMessage(ctx, payload)
	msg.Metadata.Set("event_id", e.ID)
	msg.Metadata.Set("event_type", e.Type.String())

	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return p.Publish(domainevents.TopicEventReported, msg)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
