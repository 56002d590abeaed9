// Package events provides a PostgreSQL-backed pub/sub EventBus built on Watermill.
//
// Delivery semantics depend on the consumer group:
//   - Instances sharing a group split the stream: each message is handled by one of them.
//   - An instance with its own group (see InstanceGroup) receives every message. The relay
//     uses this to fan each accepted event out to the websocket clients of every instance.
//
// A new group starts at the beginning of the topic. Subscribers that only care about live
// traffic compare PublishedAt against their own start time.
//
// Handlers should be idempotent. On failure a message is retried with exponential backoff
// and Nacked once retries are exhausted.
//
// OTel context propagation: NewMessage injects the caller's trace context into message
// metadata and Subscribe restores it for the handler.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/voyagewatch/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second
	forwarderTopic  = "_forwarder_queue"
	forwarderGroup  = "forwarder-consumer"

	// MetadataPublishedAt holds the RFC 3339 time NewMessage created the message.
	MetadataPublishedAt = "published_at"
)

// Options configures an EventBus.
type Options struct {
	// ConsumerGroup names the subscriber's offset cursor. Required.
	ConsumerGroup string
	// Forwarder routes every publish through a durable outbox topic that the
	// daemon started by StartForwarder drains into the real topic.
	Forwarder bool
}

// EventBus is a PostgreSQL-backed pub/sub bus over Watermill's SQL transport.
// It borrows its *sql.DB from the caller and never closes it.
type EventBus struct {
	db         *sql.DB
	log        logger.Logger
	wlog       watermill.LoggerAdapter
	opts       Options
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	wg         sync.WaitGroup
}

// InstanceGroup returns a consumer group private to one process of service.
// An empty instance id is replaced by a random one.
func InstanceGroup(service, instance string) string {
	if instance == "" {
		instance = uuid.NewString()
	}
	return service + "-" + instance
}

// NewEventBus creates the publisher and subscriber on db. Schema tables are
// created on first use.
func NewEventBus(db *sql.DB, log logger.Logger, opts Options) (*EventBus, error) {
	if opts.ConsumerGroup == "" {
		return nil, errors.New("events: consumer group is required")
	}
	wlog := &slogAdapter{log: log}

	pub, err := watermillsql.NewPublisher(db, publisherConfig(true), wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}

	sub, err := watermillsql.NewSubscriber(
		db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    opts.ConsumerGroup,
		},
		wlog,
	)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}

	return &EventBus{
		db:         db,
		log:        log,
		wlog:       wlog,
		opts:       opts,
		publisher:  wrapForwarder(pub, opts.Forwarder),
		subscriber: sub,
	}, nil
}

func publisherConfig(initSchema bool) watermillsql.PublisherConfig {
	return watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}
}

func wrapForwarder(pub message.Publisher, enabled bool) message.Publisher {
	if !enabled {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: forwarderTopic})
}

// StartForwarder runs the daemon that moves enveloped messages from the outbox
// topic to their target topics. It returns once the daemon is running. Only
// valid on a bus created with Options.Forwarder, and only once.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	if !q.opts.Forwarder {
		return errors.New("events: forwarder mode is not enabled")
	}
	if q.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	fwdSub, err := watermillsql.NewSubscriber(
		q.db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    forwarderGroup,
		},
		q.wlog,
	)
	if err != nil {
		return fmt.Errorf("events: new forwarder subscriber: %w", err)
	}

	targetPub, err := watermillsql.NewPublisher(q.db, publisherConfig(true), q.wlog)
	if err != nil {
		_ = fwdSub.Close()
		return fmt.Errorf("events: new forwarder target publisher: %w", err)
	}

	fwd, err := forwarder.NewForwarder(fwdSub, targetPub, q.wlog, forwarder.Config{ForwarderTopic: forwarderTopic})
	if err != nil {
		_ = targetPub.Close()
		_ = fwdSub.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	q.fwd = fwd

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.log.InfoContext(ctx, "events: forwarder started")
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: forwarder stopped with error", "error", err)
			return
		}
		q.log.InfoContext(ctx, "events: forwarder stopped")
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// NewMessage wraps payload in a message stamped with a fresh UUID, the current
// time under MetadataPublishedAt and the trace context of ctx.
func NewMessage(ctx context.Context, payload []byte) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}
	return msg
}

// PublishedAt returns the time stamped by NewMessage, if present.
func PublishedAt(msg *message.Message) (time.Time, bool) {
	raw := msg.Metadata.Get(MetadataPublishedAt)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NewTxPublisher returns a Publisher bound to tx, so that a row write and the
// message announcing it commit or roll back together. In forwarder mode the
// messages are enveloped for the forwarder daemon.
func (q *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(tx, publisherConfig(false), q.wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return wrapForwarder(pub, q.opts.Forwarder), nil
}

// Publish sends messages to topic outside any transaction.
func (q *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if err := q.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe delivers messages from topic to handler on a background goroutine,
// with the publisher's trace context restored. A nil return Acks; an error is
// retried with backoff (1s, 2s) and after the last attempt the message is
// Nacked and the error sent on the returned channel, which callers must drain.
// Close waits for in-flight handlers.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, 100)
	propagator := otel.GetTextMapPropagator()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := propagator.Extract(ctx, propagation.MapCarrier(msg.Metadata))

			if err := retryWithBackoff(msgCtx, msg, handler, maxRetries, retryBaseDelay, q.log); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(msgCtx, "events: error channel full, dropping error", "error", err, "topic", topic)
				}
				continue
			}
			msg.Ack()
		}
	}()

	return errCh, nil
}

func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler func(context.Context, *message.Message) error,
	attempts int,
	delay time.Duration,
	log logger.Logger,
) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("events: handler failed after %d attempts: %w", attempts, err)
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Ping checks the bus database connection.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber and the forwarder, waits up to 30s for in-flight
// handlers and closes the publisher. The borrowed *sql.DB stays open.
func (q *EventBus) Close() error {
	if err := q.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if q.fwd != nil {
		if err := q.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := q.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	return nil
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
