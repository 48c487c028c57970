package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"dataviews/internal/service"
)

const (
	// subscriberBuffer is how many events a slow subscriber may lag before
	// events are dropped for it.
	subscriberBuffer = 64
	writeTimeout     = 5 * time.Second
)

// Message is one frame on the event feed.
type Message struct {
	Type string `json:"type"` // "state", a service event name, "pong"
	Data any    `json:"data,omitempty"`
}

// ClientMessage is a frame sent by a feed subscriber.
type ClientMessage struct {
	Type string `json:"type"` // "ping"
}

type subscriber struct {
	send   chan Message
	cancel context.CancelFunc
}

// EventHub fans service events out to websocket subscribers. It implements
// service.EventEmitter; Emit never blocks on a subscriber.
type EventHub struct {
	logger *zap.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
	wg   sync.WaitGroup
}

var _ service.EventEmitter = (*EventHub)(nil)

// NewEventHub creates an empty hub.
func NewEventHub(logger *zap.Logger) *EventHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHub{
		logger: logger.Named("events"),
		subs:   make(map[*subscriber]struct{}),
	}
}

// Emit queues an event for every subscriber.
func (h *EventHub) Emit(_ context.Context, event string, data any) {
	msg := Message{Type: event, Data: data}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.send <- msg:
		default:
			h.logger.Warn("subscriber lagging, event dropped", zap.String("event", event))
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Serve upgrades the request to a websocket, sends hello as the first frame
// and streams events until the client goes away or the hub is closed.
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request, hello Message) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sub := &subscriber{send: make(chan Message, subscriberBuffer), cancel: cancel}
	h.add(sub)
	defer h.remove(sub)

	if err := h.write(ctx, conn, hello); err != nil {
		return
	}

	go h.readLoop(ctx, conn, sub)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "")
			return
		case msg := <-sub.send:
			if err := h.write(ctx, conn, msg); err != nil {
				h.logger.Debug("subscriber write failed", zap.Error(err))
				return
			}
		}
	}
}

// readLoop answers pings and cancels the subscriber when the peer closes.
func (h *EventHub) readLoop(ctx context.Context, conn *websocket.Conn, sub *subscriber) {
	defer sub.cancel()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("subscriber closed", zap.Int("status", int(websocket.CloseStatus(err))))
			}
			return
		}
		if msg.Type == "ping" {
			select {
			case sub.send <- Message{Type: "pong"}:
			default:
			}
		}
	}
}

func (h *EventHub) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func (h *EventHub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()
}

func (h *EventHub) remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		h.wg.Done()
	}
	h.mu.Unlock()
}

// Close disconnects every subscriber and waits for their handlers to return.
func (h *EventHub) Close() {
	h.mu.Lock()
	for s := range h.subs {
		s.cancel()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
