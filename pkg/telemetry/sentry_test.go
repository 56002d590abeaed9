package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/getsentry/sentry-go"

	"github.com/ghuser/voyagewatch/pkg/config"
)

func TestScrubEvent_MasksReportText(t *testing.T) {
	e := &sentry.Event{Request: &sentry.Request{
		Method: "POST",
		URL:    "http://relay/api/v1/events",
		Data:   `{"eventType":"SHIPWRECK","latitude":18.47,"description":"Galleon down off the reef","reportedBy":"Anne Bonny","additionalNotes":"Two sloops circling"}`,
	}}

	got := scrubEvent(e, nil)
	if got == nil {
		t.Fatal("event must not be dropped")
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(got.Request.Data), &body); err != nil {
		t.Fatalf("scrubbed body is not JSON: %v", err)
	}
	for _, k := range []string{"description", "reportedBy", "additionalNotes"} {
		if body[k] != filtered {
			t.Errorf("%s: got %v, want %q", k, body[k], filtered)
		}
	}
	if body["eventType"] != "SHIPWRECK" || body["latitude"] != 18.47 {
		t.Errorf("non-sensitive fields changed: %v", body)
	}
}

func TestScrubEvent_NonJSONBody(t *testing.T) {
	e := &sentry.Event{Request: &sentry.Request{Data: "description=Galleon+down&reportedBy=Anne"}}
	if got := scrubEvent(e, nil); got.Request.Data != filtered {
		t.Errorf("got %q, want %q", got.Request.Data, filtered)
	}
}

func TestScrubEvent_NoRequest(t *testing.T) {
	e := &sentry.Event{Message: "bus subscriber stopped"}
	if got := scrubEvent(e, nil); got != e || got.Request != nil {
		t.Errorf("event without request must pass through unchanged: %+v", got)
	}
	if scrubEvent(nil, nil) != nil {
		t.Error("nil event must stay nil")
	}
}

func TestSetupSentry_NoDSN(t *testing.T) {
	if err := SetupSentry(&config.Config{}, "voyagewatch-relay-a"); err != nil {
		t.Fatalf("expected no-op without DSN, got %v", err)
	}
}
