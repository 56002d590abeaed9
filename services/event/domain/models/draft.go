package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ghuser/voyagewatch/services/event/domain"
)

// Field names a draft attribute the form can edit. Values match the wire names.
type Field string

const (
	FieldEventType       Field = "eventType"
	FieldDescription     Field = "description"
	FieldReportedBy      Field = "reportedBy"
	FieldIsPvP           Field = "isPvP"
	FieldConfidence      Field = "confidence"
	FieldAllianceID      Field = "allianceId"
	FieldServerRegion    Field = "serverRegion"
	FieldAdditionalNotes Field = "additionalNotes"
)

var draftFields = []Field{
	FieldEventType,
	FieldDescription,
	FieldReportedBy,
	FieldIsPvP,
	FieldConfidence,
	FieldAllianceID,
	FieldServerRegion,
	FieldAdditionalNotes,
}

// Fields returns the editable draft fields in form order.
func Fields() []Field {
	out := make([]Field, len(draftFields))
	copy(out, draftFields)
	return out
}

// ParseField matches s against the editable fields, ignoring case.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	for _, f := range draftFields {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownField, s)
}

// Draft is the mutable event under construction while placing. It has no id
// and is not an Event until it is committed.
type Draft struct {
	EventType       EventType
	Position        *Coordinates
	Description     string
	ReportedBy      string
	IsPvP           bool
	Confidence      int
	AllianceID      string
	ServerRegion    string
	AdditionalNotes string
}

// NewDraft returns a draft with default values and no position.
func NewDraft(reporter string) Draft {
	return Draft{
		EventType:  DefaultEventType(),
		ReportedBy: reporter,
	}
}

// HasPosition reports whether a coordinate has been assigned.
func (d Draft) HasPosition() bool {
	return d.Position != nil
}

// Set writes a form value into the draft. Event type text is stored as given
// and checked on commit; isPvP and confidence must parse or the draft is left
// unchanged.
func (d *Draft) Set(field Field, value string) error {
	switch field {
	case FieldEventType:
		if t, ok := ParseEventType(value); ok {
			d.EventType = t
		} else {
			d.EventType = EventType(strings.TrimSpace(value))
		}
	case FieldDescription:
		d.Description = value
	case FieldReportedBy:
		d.ReportedBy = value
	case FieldIsPvP:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", domain.ErrInvalidFieldValue, field, value)
		}
		d.IsPvP = b
	case FieldConfidence:
		v := strings.TrimSpace(value)
		if v == "" {
			d.Confidence = 0
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", domain.ErrInvalidFieldValue, field, value)
		}
		d.Confidence = n
	case FieldAllianceID:
		d.AllianceID = value
	case FieldServerRegion:
		d.ServerRegion = value
	case FieldAdditionalNotes:
		d.AdditionalNotes = value
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	return nil
}

// Candidate builds validation input from the draft plus the commit-time fields.
func (d Draft) Candidate(id string, reportedAt time.Time) Candidate {
	c := Candidate{
		ID:              &id,
		Type:            d.EventType,
		Description:     d.Description,
		ReportedBy:      d.ReportedBy,
		ReportedAt:      reportedAt,
		IsPvP:           d.IsPvP,
		Confidence:      d.Confidence,
		AllianceID:      d.AllianceID,
		ServerRegion:    d.ServerRegion,
		AdditionalNotes: d.AdditionalNotes,
	}
	if d.Position != nil {
		lat, lng := d.Position.Latitude, d.Position.Longitude
		c.Latitude, c.Longitude = &lat, &lng
	}
	return c
}
