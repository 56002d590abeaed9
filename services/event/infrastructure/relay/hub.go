// Package relay is the server end of the tracker's push channel. It accepts
// event reports over websocket and writes every event the bus delivers to all
// connected clients.
package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ghuser/voyagewatch/pkg/events"
	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/pkg/telemetry"
	"github.com/ghuser/voyagewatch/services/event/domain"
	domainevents "github.com/ghuser/voyagewatch/services/event/domain/events"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

const (
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
	pongWait     = pingPeriod + writeTimeout
	maxFrameSize = 64 << 10
	clientBuffer = 64
)

// Acceptor takes validated events reported by clients.
// *services.ReportService implements it.
type Acceptor interface {
	Report(ctx context.Context, e models.Event) error
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks the open websocket connections of one relay instance.
type Hub struct {
	acceptor Acceptor
	log      logger.Logger
	metrics  *telemetry.RelayMetrics
	upgrader websocket.Upgrader
	started  time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics records connection counts and inbound rejections on m.
func WithMetrics(m *telemetry.RelayMetrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithAllowedOrigins restricts the websocket handshake to a comma-separated
// list of origins. "*" allows any origin.
func WithAllowedOrigins(csv string) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = originChecker(csv) }
}

// NewHub returns a hub with no clients. Bus messages published before this
// moment are not broadcast.
func NewHub(acceptor Acceptor, log logger.Logger, opts ...Option) *Hub {
	h := &Hub{
		acceptor: acceptor,
		log:      log,
		started:  time.Now(),
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "relay: websocket upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}
	ctx := r.Context()
	h.register(ctx, c)
	h.log.InfoContext(ctx, "relay: client connected", "client_id", c.id, "remote_addr", r.RemoteAddr)

	go h.writeAll(c)
	h.readAll(ctx, c)

	h.unregister(ctx, c)
	h.log.InfoContext(ctx, "relay: client disconnected", "client_id", c.id)
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues payload for every client and returns how many accepted it.
// A client whose buffer is full is disconnected.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for c := range h.clients {
		select {
		case c.send <- payload:
			n++
		default:
			h.log.WarnContext(ctx, "relay: slow client disconnected", "client_id", c.id)
			h.removeLocked(ctx, c)
		}
	}
	return n
}

// HandleReported is the event bus handler for TopicEventReported. It
// broadcasts the payload unchanged, skipping messages published before the
// hub started.
func (h *Hub) HandleReported(ctx context.Context, msg *message.Message) error {
	eventID := msg.Metadata.Get("event_id")
	if at, ok := events.PublishedAt(msg); ok && at.Before(h.started) {
		h.log.DebugContext(ctx, "relay: skipping event published before start", "event_id", eventID)
		return nil
	}
	n := h.Broadcast(ctx, msg.Payload)
	h.log.DebugContext(ctx, "relay: event broadcast", "event_id", eventID, "clients", n)
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	ctx := context.Background()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(ctx, c)
	}
}

func (h *Hub) register(ctx context.Context, c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientsChanged(ctx, 1)
}

func (h *Hub) unregister(ctx context.Context, c *client) {
	h.mu.Lock()
	h.removeLocked(ctx, c)
	h.mu.Unlock()
}

// removeLocked closes c's send buffer, which makes its writer close the
// connection. Safe to call more than once.
func (h *Hub) removeLocked(ctx context.Context, c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.ClientsChanged(ctx, -1)
}

func (h *Hub) readAll(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		op, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.DebugContext(ctx, "relay: read ended", "client_id", c.id, "error", err)
			}
			return
		}
		if op != websocket.TextMessage {
			continue
		}

		e, err := domainevents.Decode(data)
		if err != nil {
			reason := telemetry.ReasonMalformed
			if errors.Is(err, domain.ErrInvalidEvent) {
				reason = telemetry.ReasonInvalid
			}
			h.metrics.EventRejected(ctx, reason)
			h.log.DebugContext(ctx, "relay: inbound frame dropped", "client_id", c.id, "error", err)
			continue
		}

		if err := h.acceptor.Report(ctx, e); err != nil {
			if errors.Is(err, domain.ErrEventAlreadyReported) {
				h.log.DebugContext(ctx, "relay: duplicate report ignored", "client_id", c.id, "event_id", e.ID)
				continue
			}
			h.log.ErrorContext(ctx, "relay: report failed", "client_id", c.id, "event_id", e.ID, "error", err)
		}
	}
}

func (h *Hub) writeAll(c *client) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	defer c.conn.Close()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-t.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(csv string) func(*http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range strings.Split(csv, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return func(r *http.Request) bool {
		if allowed["*"] {
			return true
		}
		origin := r.Header.Get("Origin")
		// non-browser clients such as cmd/tracker send no Origin
		return origin == "" || allowed[origin]
	}
}
