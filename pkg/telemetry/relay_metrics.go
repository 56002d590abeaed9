package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ghuser/voyagewatch/relay"

// Rejection reasons recorded on relay.events.rejected.
const (
	ReasonMalformed = "malformed"
	ReasonInvalid   = "invalid"
	ReasonDuplicate = "duplicate"
	ReasonError     = "error"
)

// RelayMetrics holds the relay's instruments. A nil *RelayMetrics records nothing.
type RelayMetrics struct {
	accepted metric.Int64Counter
	rejected metric.Int64Counter
	clients  metric.Int64UpDownCounter
}

// NewRelayMetrics creates the relay instruments on mp.
func NewRelayMetrics(mp metric.MeterProvider) (*RelayMetrics, error) {
	meter := mp.Meter(meterName)

	accepted, err := meter.Int64Counter("relay.events.accepted",
		metric.WithDescription("Reported events saved and published"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("relay metrics: accepted counter: %w", err)
	}
	rejected, err := meter.Int64Counter("relay.events.rejected",
		metric.WithDescription("Reported events refused, by reason"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("relay metrics: rejected counter: %w", err)
	}
	clients, err := meter.Int64UpDownCounter("relay.clients.connected",
		metric.WithDescription("Open websocket connections"),
		metric.WithUnit("{client}"))
	if err != nil {
		return nil, fmt.Errorf("relay metrics: clients counter: %w", err)
	}

	return &RelayMetrics{accepted: accepted, rejected: rejected, clients: clients}, nil
}

// EventAccepted counts one saved event.
func (m *RelayMetrics) EventAccepted(ctx context.Context) {
	if m == nil {
		return
	}
	m.accepted.Add(ctx, 1)
}

// EventRejected counts one refused event under reason.
func (m *RelayMetrics) EventRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// ClientsChanged adjusts the open connection gauge by delta.
func (m *RelayMetrics) ClientsChanged(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.clients.Add(ctx, delta)
}
