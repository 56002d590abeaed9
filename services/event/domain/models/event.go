package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// AnonymousReporter is the reportedBy value used when the submitter leaves it blank.
const AnonymousReporter = "Anonymous"

// Coordinate bounds, inclusive.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Confidence bounds. Zero means "not rated".
const (
	MinConfidence = 1
	MaxConfidence = 5
)

// Event is the core record of this bounded context: a reported occurrence at a
// map position. Events are never modified after Validate produced them; the
// store and views only ever hand out copies.
type Event struct {
	ID              string
	Type            EventType
	Latitude        float64
	Longitude       float64
	Description     string
	ReportedBy      string
	ReportedAt      time.Time
	IsPvP           bool
	Confidence      int
	AllianceID      string
	ServerRegion    string
	AdditionalNotes string
}

// Coordinates is a map position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Candidate is the unvalidated input to services.Validate. ID and the
// coordinates are pointers so that "absent" differs from the zero value.
type Candidate struct {
	ID              *string
	Type            EventType
	Latitude        *float64
	Longitude       *float64
	Description     string
	ReportedBy      string
	ReportedAt      time.Time
	IsPvP           bool
	Confidence      int
	AllianceID      string
	ServerRegion    string
	AdditionalNotes string
}

// Candidate converts an event back into validation input, e.g. when the relay
// re-checks an event it received from a client.
func (e Event) Candidate() Candidate {
	id, lat, lng := e.ID, e.Latitude, e.Longitude
	return Candidate{
		ID:              &id,
		Type:            e.Type,
		Latitude:        &lat,
		Longitude:       &lng,
		Description:     e.Description,
		ReportedBy:      e.ReportedBy,
		ReportedAt:      e.ReportedAt,
		IsPvP:           e.IsPvP,
		Confidence:      e.Confidence,
		AllianceID:      e.AllianceID,
		ServerRegion:    e.ServerRegion,
		AdditionalNotes: e.AdditionalNotes,
	}
}

// NewEventID returns a fresh ULID string: millisecond timestamp followed by
// monotonic randomness, so ids from one process sort by creation time.
func NewEventID() string {
	return ulid.Make().String()
}
