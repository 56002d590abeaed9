package events_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/events"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

func sampleEvent() models.Event {
	return models.Event{
		ID:          "01JABCDEF0000000000000000Z",
		Type:        models.EventTypePvP,
		Latitude:    10.5,
		Longitude:   -20.25,
		Description: "Two brigs exchanging fire",
		ReportedBy:  "Anne",
		ReportedAt:  time.Date(2025, 1, 15, 12, 0, 0, 123000000, time.UTC),
		IsPvP:       true,
		Confidence:  4,
		AllianceID:  "red-sails",
	}
}

func TestEncodeDecode_PreservesEvent(t *testing.T) {
	original := sampleEvent()

	data, err := events.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := events.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID: got %q, want %q", decoded.ID, original.ID)
	}
	if !decoded.ReportedAt.Equal(original.ReportedAt) {
		t.Errorf("ReportedAt: got %v, want %v", decoded.ReportedAt, original.ReportedAt)
	}
	decoded.ReportedAt = original.ReportedAt
	if decoded != original {
		t.Errorf("decoded event differs:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestEncode_JSONFieldNames(t *testing.T) {
	data, err := events.Encode(sampleEvent())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}

	for _, field := range []string{"id", "eventType", "latitude", "longitude", "description", "reportedBy", "reportedAt", "isPvP", "confidence", "allianceId"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}
	for _, field := range []string{"serverRegion", "additionalNotes"} {
		if _, ok := raw[field]; ok {
			t.Errorf("expected empty optional field %q to be omitted: %s", field, data)
		}
	}
	if raw["reportedAt"] != "2025-01-15T12:00:00.123Z" {
		t.Errorf("unexpected reportedAt: %v", raw["reportedAt"])
	}
}

func TestDecode_AcceptsZonelessTimestamp(t *testing.T) {
	payload := `{"id":"evt-1","eventType":"SHIPWRECK","latitude":1,"longitude":2,"description":"","reportedBy":"","reportedAt":"2024-05-01T10:00:00.5","isPvP":false}`

	e, err := events.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 500000000, time.UTC)
	if !e.ReportedAt.Equal(want) {
		t.Errorf("ReportedAt: got %v, want %v", e.ReportedAt, want)
	}
	if e.ReportedBy != models.AnonymousReporter {
		t.Errorf("ReportedBy: got %q, want %q", e.ReportedBy, models.AnonymousReporter)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		malformed bool
		kind      domain.ValidationKind
	}{
		{"not json", `{bad json`, true, ""},
		{"missing id", `{"eventType":"STORM","latitude":1,"longitude":2,"reportedAt":"2024-05-01T10:00:00Z"}`, true, ""},
		{"missing reportedAt", `{"id":"x","eventType":"STORM","latitude":1,"longitude":2}`, true, ""},
		{"garbage reportedAt", `{"id":"x","eventType":"STORM","latitude":1,"longitude":2,"reportedAt":"yesterday"}`, true, ""},
		{"empty id", `{"id":"","eventType":"STORM","latitude":1,"longitude":2,"reportedAt":"2024-05-01T10:00:00Z"}`, false, domain.EmptyID},
		{"missing latitude", `{"id":"x","eventType":"STORM","longitude":2,"reportedAt":"2024-05-01T10:00:00Z"}`, false, domain.MissingCoordinates},
		{"latitude out of range", `{"id":"x","eventType":"STORM","latitude":91,"longitude":2,"reportedAt":"2024-05-01T10:00:00Z"}`, false, domain.OutOfRange},
		{"unknown type", `{"id":"x","eventType":"KRAKEN","latitude":1,"longitude":2,"reportedAt":"2024-05-01T10:00:00Z"}`, false, domain.UnknownEventType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := events.Decode([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.malformed {
				if !errors.Is(err, domain.ErrMalformedPayload) {
					t.Fatalf("expected ErrMalformedPayload, got %v", err)
				}
				return
			}
			kind, ok := domain.ValidationKindOf(err)
			if !ok || kind != tt.kind {
				t.Fatalf("expected kind %q, got %q (%v)", tt.kind, kind, err)
			}
		})
	}
}

func TestTopicEventReported_Value(t *testing.T) {
	if events.TopicEventReported != "event.reported" {
		t.Errorf("expected %q, got %q", "event.reported", events.TopicEventReported)
	}
}
