// Package services contains stateless domain services for the event bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"strings"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

// Validate turns a candidate into an Event or rejects it with a *domain.ValidationError.
//
// Checks run in a fixed order and the first failure wins:
//   - MissingCoordinates: latitude or longitude absent
//   - OutOfRange: a coordinate outside its bounds (NaN included), or confidence
//     neither 0 nor within 1–5
//   - UnknownEventType: type not in the enumeration
//   - EmptyID: id supplied but empty
//
// A blank reportedBy becomes models.AnonymousReporter. If no id is supplied the
// returned event has an empty ID; callers that store events always supply one.
func Validate(c models.Candidate) (models.Event, error) {
	if c.Latitude == nil {
		return models.Event{}, &domain.ValidationError{Kind: domain.MissingCoordinates, Field: "latitude"}
	}
	if c.Longitude == nil {
		return models.Event{}, &domain.ValidationError{Kind: domain.MissingCoordinates, Field: "longitude"}
	}

	lat, lng := *c.Latitude, *c.Longitude
	if !inRange(lat, models.MinLatitude, models.MaxLatitude) {
		return models.Event{}, &domain.ValidationError{Kind: domain.OutOfRange, Field: "latitude"}
	}
	if !inRange(lng, models.MinLongitude, models.MaxLongitude) {
		return models.Event{}, &domain.ValidationError{Kind: domain.OutOfRange, Field: "longitude"}
	}
	if c.Confidence != 0 && (c.Confidence < models.MinConfidence || c.Confidence > models.MaxConfidence) {
		return models.Event{}, &domain.ValidationError{Kind: domain.OutOfRange, Field: "confidence"}
	}

	if !c.Type.Valid() {
		return models.Event{}, &domain.ValidationError{Kind: domain.UnknownEventType, Field: "eventType"}
	}

	var id string
	if c.ID != nil {
		if *c.ID == "" {
			return models.Event{}, &domain.ValidationError{Kind: domain.EmptyID, Field: "id"}
		}
		id = *c.ID
	}

	reportedBy := c.ReportedBy
	if strings.TrimSpace(reportedBy) == "" {
		reportedBy = models.AnonymousReporter
	}

	return models.Event{
		ID:              id,
		Type:            c.Type,
		Latitude:        lat,
		Longitude:       lng,
		Description:     c.Description,
		ReportedBy:      reportedBy,
		ReportedAt:      c.ReportedAt,
		IsPvP:           c.IsPvP,
		Confidence:      c.Confidence,
		AllianceID:      c.AllianceID,
		ServerRegion:    c.ServerRegion,
		AdditionalNotes: c.AdditionalNotes,
	}, nil
}

// inRange is written so that NaN fails.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
