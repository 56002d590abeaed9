package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

func ptr[T any](v T) *T { return &v }

func validCandidate() models.Candidate {
	return models.Candidate{
		ID:          ptr("01J0000000000000000000000A"),
		Type:        models.EventTypeShipwreck,
		Latitude:    ptr(10.0),
		Longitude:   ptr(20.0),
		Description: "Wreck near reef",
		ReportedAt:  time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *models.Candidate)
		wantKind domain.ValidationKind
		wantErr  bool
	}{
		{"valid candidate", func(c *models.Candidate) {}, "", false},
		{"boundary coordinates", func(c *models.Candidate) { c.Latitude, c.Longitude = ptr(-90.0), ptr(180.0) }, "", false},
		{"zero coordinates are present", func(c *models.Candidate) { c.Latitude, c.Longitude = ptr(0.0), ptr(0.0) }, "", false},
		{"no id supplied", func(c *models.Candidate) { c.ID = nil }, "", false},
		{"confidence within range", func(c *models.Candidate) { c.Confidence = 5 }, "", false},
		{"missing latitude", func(c *models.Candidate) { c.Latitude = nil }, domain.MissingCoordinates, true},
		{"missing longitude", func(c *models.Candidate) { c.Longitude = nil }, domain.MissingCoordinates, true},
		{"latitude above range", func(c *models.Candidate) { c.Latitude = ptr(90.0001) }, domain.OutOfRange, true},
		{"longitude below range", func(c *models.Candidate) { c.Longitude = ptr(-180.5) }, domain.OutOfRange, true},
		{"NaN latitude", func(c *models.Candidate) { c.Latitude = ptr(math.NaN()) }, domain.OutOfRange, true},
		{"infinite longitude", func(c *models.Candidate) { c.Longitude = ptr(math.Inf(1)) }, domain.OutOfRange, true},
		{"confidence above range", func(c *models.Candidate) { c.Confidence = 6 }, domain.OutOfRange, true},
		{"negative confidence", func(c *models.Candidate) { c.Confidence = -1 }, domain.OutOfRange, true},
		{"unknown event type", func(c *models.Candidate) { c.Type = "KRAKEN" }, domain.UnknownEventType, true},
		{"empty event type", func(c *models.Candidate) { c.Type = "" }, domain.UnknownEventType, true},
		{"empty id", func(c *models.Candidate) { c.ID = ptr("") }, domain.EmptyID, true},
		{"missing coordinates win over unknown type", func(c *models.Candidate) {
			c.Latitude = nil
			c.Type = "KRAKEN"
		}, domain.MissingCoordinates, true},
		{"out of range wins over unknown type", func(c *models.Candidate) {
			c.Latitude = ptr(100.0)
			c.Type = "KRAKEN"
		}, domain.OutOfRange, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.mutate(&c)
			_, err := Validate(c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !errors.Is(err, domain.ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
			kind, _ := domain.ValidationKindOf(err)
			if kind != tt.wantKind {
				t.Fatalf("expected kind %q, got %q", tt.wantKind, kind)
			}
		})
	}
}

func TestValidate_BuildsEvent(t *testing.T) {
	c := validCandidate()
	c.IsPvP = true
	c.Confidence = 2
	c.AllianceID = "red-sails"

	e, err := Validate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != *c.ID || e.Type != models.EventTypeShipwreck {
		t.Fatalf("unexpected identity: %+v", e)
	}
	if e.Latitude != 10 || e.Longitude != 20 {
		t.Fatalf("unexpected coordinates: %v/%v", e.Latitude, e.Longitude)
	}
	if !e.IsPvP || e.Confidence != 2 || e.AllianceID != "red-sails" || e.Description != "Wreck near reef" {
		t.Fatalf("unexpected attributes: %+v", e)
	}
	if !e.ReportedAt.Equal(c.ReportedAt) {
		t.Fatalf("expected reportedAt %v, got %v", c.ReportedAt, e.ReportedAt)
	}
}

func TestValidate_DefaultsReporter(t *testing.T) {
	for _, in := range []string{"", "   "} {
		c := validCandidate()
		c.ReportedBy = in
		e, err := Validate(c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.ReportedBy != models.AnonymousReporter {
			t.Fatalf("reportedBy %q: expected %q, got %q", in, models.AnonymousReporter, e.ReportedBy)
		}
	}

	c := validCandidate()
	c.ReportedBy = "Anne Bonny"
	e, _ := Validate(c)
	if e.ReportedBy != "Anne Bonny" {
		t.Fatalf("expected reporter to be kept, got %q", e.ReportedBy)
	}
}

func TestValidate_NoIDLeavesEmptyID(t *testing.T) {
	c := validCandidate()
	c.ID = nil
	e, err := Validate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != "" {
		t.Fatalf("expected empty ID, got %q", e.ID)
	}
}
