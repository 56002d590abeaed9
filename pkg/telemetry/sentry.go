package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/ghuser/voyagewatch/pkg/config"
)

// filtered replaces free-text event report fields in captured request bodies.
const filtered = "[Filtered]"

// scrubbedFields are the report fields typed by players. Coordinates and
// event type stay visible so crashes can be reproduced.
var scrubbedFields = []string{"description", "reportedBy", "additionalNotes"}

// SetupSentry initializes the Sentry SDK for one relay instance. Every event
// is tagged with the instance's consumer group so reports from replicas can
// be told apart. No-ops if DSN is empty.
func SetupSentry(cfg *config.Config, consumerGroup string) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		TracesSampleRate: 0.2,
		Tags:             map[string]string{"relay.consumer_group": consumerGroup},
		BeforeSend:       scrubEvent,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// scrubEvent masks player-written fields in the captured request body.
// Bodies that are not a JSON object are dropped entirely.
func scrubEvent(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if e == nil || e.Request == nil || e.Request.Data == "" {
		return e
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(e.Request.Data), &body); err != nil {
		e.Request.Data = filtered
		return e
	}
	for _, k := range scrubbedFields {
		if _, ok := body[k]; ok {
			body[k] = filtered
		}
	}
	b, err := json.Marshal(body)
	if err != nil {
		e.Request.Data = filtered
		return e
	}
	e.Request.Data = string(b)
	return e
}

// SentryFlush flushes buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware returns a net/http middleware that reports panics in relay
// handlers. The panic is re-raised for the outer Recovery middleware.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}
