// Package events fans file lifecycle events out to WebSocket subscribers.
package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

const (
	TypeUploaded = "file.uploaded"
	TypeUpdated  = "file.updated"
	TypeDeleted  = "file.deleted"
	TypeSynced   = "storage.synced"
)

// Event is pushed to every subscriber whose path filter matches Path.
type Event struct {
	Type   string    `json:"type"`
	FileID string    `json:"file_id,omitempty"`
	Path   string    `json:"path,omitempty"`
	At     time.Time `json:"at"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // auth is enforced before the upgrade
}

type subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	prefix string
}

// Hub tracks live subscribers. The zero value is not usable; use NewHub.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger.With(slog.String("component", "events")),
	}
}

// Broadcast never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Broadcast(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if event.Path != "" && !strings.HasPrefix(event.Path, s.prefix) {
			continue
		}
		select {
		case s.send <- data:
		default:
			h.logger.Warn("subscriber too slow, event dropped", slog.String("type", event.Type))
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeWS upgrades the request and blocks until the client disconnects.
// Only events whose path starts with prefix are delivered.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, prefix string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := &subscriber{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		prefix: prefix,
	}
	h.register(s)

	go h.writePump(s)
	h.readPump(s)
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[s] = struct{}{}
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// readPump only keeps the connection alive; clients do not send commands.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMsgSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
