// Package channel is the tracker's push transport: a websocket connection to
// the relay carrying event JSON in both directions.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/services/event/domain/events"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

const (
	writeTimeout  = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	sendBuffer    = 32
	inboundBuffer = 64
)

var (
	// ErrAlreadyConnected is returned by Connect while a previous connection is still open.
	ErrAlreadyConnected = errors.New("channel already connected")
	// ErrNotConnected is returned by Close when no connection is open.
	ErrNotConnected = errors.New("channel not connected")
)

// Adapter connects to the relay websocket endpoint. One connection is open at
// a time; after its inbound sequence closes, Connect may be called again.
type Adapter struct {
	url    string
	dialer *websocket.Dialer
	log    logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	send chan []byte // nil while disconnected
}

// NewAdapter returns a disconnected adapter for the relay at url (ws:// or wss://).
func NewAdapter(url string, log logger.Logger) *Adapter {
	return &Adapter{url: url, dialer: websocket.DefaultDialer, log: log}
}

// Connected reports whether a connection is currently open.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.send != nil
}

// Connect dials the relay and returns the sequence of inbound events. Frames
// that are not valid event JSON are logged and skipped. The sequence closes
// when the connection fails, the relay closes it, or ctx is done.
func (a *Adapter) Connect(ctx context.Context) (<-chan models.Event, error) {
	if a.Connected() {
		return nil, ErrAlreadyConnected
	}

	wc, _, err := a.dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", a.url, err)
	}

	send := make(chan []byte, sendBuffer)
	a.mu.Lock()
	if a.send != nil {
		a.mu.Unlock()
		_ = wc.Close()
		return nil, ErrAlreadyConnected
	}
	a.conn = wc
	a.send = send
	a.mu.Unlock()

	out := make(chan models.Event, inboundBuffer)
	done := make(chan struct{})

	go a.writeAll(wc, send)
	go a.readAll(ctx, wc, out, send, done)
	go func() {
		select {
		case <-ctx.Done():
			_ = wc.Close()
		case <-done:
		}
	}()

	return out, nil
}

// Publish queues e for sending. It never blocks: while disconnected or when
// the send buffer is full the event is dropped with a warning.
func (a *Adapter) Publish(e models.Event) {
	payload, err := events.Encode(e)
	if err != nil {
		a.log.Error("channel: encode event", "event_id", e.ID, "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.send == nil {
		a.log.Warn("channel: publish dropped, not connected", "event_id", e.ID)
		return
	}
	select {
	case a.send <- payload:
	default:
		a.log.Warn("channel: publish dropped, send buffer full", "event_id", e.ID)
	}
}

// Close ends the open connection with a normal closure. The inbound sequence
// returned by Connect closes shortly after.
func (a *Adapter) Close() error {
	a.mu.Lock()
	wc := a.conn
	a.mu.Unlock()
	if wc == nil {
		return ErrNotConnected
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = wc.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", a.url, err)
	}
	return nil
}

func (a *Adapter) readAll(ctx context.Context, wc *websocket.Conn, out chan<- models.Event, send chan []byte, done chan struct{}) {
	defer func() {
		a.mu.Lock()
		a.conn = nil
		a.send = nil
		close(send)
		a.mu.Unlock()
		close(done)
		close(out)
	}()

	_ = wc.SetReadDeadline(time.Now().Add(pongWait))
	wc.SetPongHandler(func(string) error {
		return wc.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		op, data, err := wc.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.log.WarnContext(ctx, "channel: read failed", "error", err)
			}
			return
		}
		_ = wc.SetReadDeadline(time.Now().Add(pongWait))
		if op != websocket.TextMessage {
			continue
		}
		e, err := events.Decode(data)
		if err != nil {
			a.log.DebugContext(ctx, "channel: inbound frame dropped", "error", err)
			continue
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

func (a *Adapter) writeAll(wc *websocket.Conn, send <-chan []byte) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	defer wc.Close()

	for {
		select {
		case payload, ok := <-send:
			_ = wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = wc.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := wc.WriteMessage(websocket.TextMessage, payload); err != nil {
				a.log.Warn("channel: write failed", "error", err)
				return
			}
		case <-t.C:
			_ = wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
