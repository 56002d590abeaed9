package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
	domainsvcs "github.com/ghuser/voyagewatch/services/event/domain/services"
)

// TopicEventReported is the Watermill topic published when the relay accepts an event.
// Payloads are EventMessage JSON, the same bytes the relay writes to websocket clients.
const TopicEventReported = "event.reported"

// localDateTime is the zone-less ISO-8601 form some producers emit; it is read as UTC.
const localDateTime = "2006-01-02T15:04:05"

// EventMessage is the wire shape of an event on the push channel, in both directions.
type EventMessage struct {
	ID              *string  `json:"id"`
	EventType       string   `json:"eventType"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Description     string   `json:"description"`
	ReportedBy      string   `json:"reportedBy"`
	ReportedAt      string   `json:"reportedAt"`
	IsPvP           bool     `json:"isPvP"`
	Confidence      int      `json:"confidence,omitempty"`
	AllianceID      string   `json:"allianceId,omitempty"`
	ServerRegion    string   `json:"serverRegion,omitempty"`
	AdditionalNotes string   `json:"additionalNotes,omitempty"`
}

// NewEventMessage converts a validated event to its wire shape.
func NewEventMessage(e models.Event) EventMessage {
	id, lat, lng := e.ID, e.Latitude, e.Longitude
	return EventMessage{
		ID:              &id,
		EventType:       e.Type.String(),
		Latitude:        &lat,
		Longitude:       &lng,
		Description:     e.Description,
		ReportedBy:      e.ReportedBy,
		ReportedAt:      e.ReportedAt.UTC().Format(time.RFC3339Nano),
		IsPvP:           e.IsPvP,
		Confidence:      e.Confidence,
		AllianceID:      e.AllianceID,
		ServerRegion:    e.ServerRegion,
		AdditionalNotes: e.AdditionalNotes,
	}
}

// Event validates the message and returns the event it carries.
func (m EventMessage) Event() (models.Event, error) {
	if m.ID == nil {
		return models.Event{}, fmt.Errorf("%w: missing id", domain.ErrMalformedPayload)
	}
	reportedAt, err := ParseTimestamp(m.ReportedAt)
	if err != nil {
		return models.Event{}, err
	}
	return domainsvcs.Validate(models.Candidate{
		ID:              m.ID,
		Type:            models.EventType(m.EventType),
		Latitude:        m.Latitude,
		Longitude:       m.Longitude,
		Description:     m.Description,
		ReportedBy:      m.ReportedBy,
		ReportedAt:      reportedAt,
		IsPvP:           m.IsPvP,
		Confidence:      m.Confidence,
		AllianceID:      m.AllianceID,
		ServerRegion:    m.ServerRegion,
		AdditionalNotes: m.AdditionalNotes,
	})
}

// Encode serializes an event for publishing.
func Encode(e models.Event) ([]byte, error) {
	data, err := json.Marshal(NewEventMessage(e))
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return data, nil
}

// Decode parses and validates an inbound payload. Failures wrap either
// domain.ErrMalformedPayload or a *domain.ValidationError.
func Decode(payload []byte) (models.Event, error) {
	var m EventMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return models.Event{}, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	return m.Event()
}

// ParseTimestamp reads an ISO-8601 timestamp, with or without a zone offset.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing reportedAt", domain.ErrMalformedPayload)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(localDateTime, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reportedAt %q", domain.ErrMalformedPayload, s)
	}
	return t, nil
}
