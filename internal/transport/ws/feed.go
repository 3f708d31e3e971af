// Package ws streams store change events to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frahmantamala/issue-tracker/internal/core/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
)

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler) (unsubscribe func())
}

// Message is the JSON frame sent for each event.
type Message struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

func NewMessage(e events.Event) Message {
	return Message{
		ID:         e.EventID(),
		Type:       e.EventType(),
		OccurredAt: e.OccurredAt(),
		Data:       e.Payload(),
	}
}

type Feed struct {
	bus      Subscriber
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients int
}

func NewFeed(bus Subscriber, logger *slog.Logger, checkOrigin func(r *http.Request) bool) *Feed {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Feed{
		bus:    bus,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Clients is the number of connected subscribers.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients
}

func (f *Feed) track(delta int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients += delta
	return f.clients
}

// ServeHTTP upgrades the connection and forwards every event until the peer
// goes away or falls sendBuffer frames behind.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := make(chan []byte, sendBuffer)
	var dropOnce sync.Once
	unsubscribe := f.bus.Subscribe(events.AllEvents, func(_ context.Context, e events.Event) error {
		frame, err := json.Marshal(NewMessage(e))
		if err != nil {
			return nil
		}
		select {
		case send <- frame:
		case <-ctx.Done():
		default:
			dropOnce.Do(func() {
				f.logger.Warn("dropping slow websocket client", "remote_addr", r.RemoteAddr)
				cancel()
			})
		}
		return nil
	})
	defer unsubscribe()

	f.logger.Info("websocket client connected", "remote_addr", r.RemoteAddr, "clients", f.track(1))
	defer func() {
		f.logger.Info("websocket client disconnected", "remote_addr", r.RemoteAddr, "clients", f.track(-1))
	}()

	go f.readPump(conn, cancel)
	f.writePump(ctx, conn, send)
}

// readPump discards client frames and keeps the read deadline fresh. It
// cancels the connection when the peer closes.
func (f *Feed) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
				time.Now().Add(writeWait))
			return
		}
	}
}
