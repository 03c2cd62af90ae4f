// Package hub fans storefront events out to websocket clients.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-storefront/services"
)

// EventCatalogUpdate is broadcast to every client after an admin change.
const EventCatalogUpdate = "catalog_update"

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many events a client may lag behind before it is dropped.
	sendBuffer = 32
)

var _ services.Notifier = (*Hub)(nil)

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// Hub tracks connections per session. Each connection has its own queue and
// writer goroutine, so a slow client never blocks Notify for the others.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
	log     logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log,
	}
}

// RegisterClient starts delivering the session's events to conn. The events
// returned by initial, if any, are queued first. initial runs under the hub
// lock, so no notification for the session can slip in between the state it
// reads and the registration.
func (h *Hub) RegisterClient(conn *websocket.Conn, sessionID string, initial func() []services.Event) {
	c := &client{conn: conn, sessionID: sessionID, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[conn] = c
	if initial != nil {
		for _, e := range initial() {
			h.enqueueLocked(c, e)
		}
	}
	h.mutex.Unlock()

	go h.writePump(c)
}

func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Notify queues the event for the connections of its session.
func (h *Hub) Notify(e services.Event) {
	h.send(e, func(sessionID string) bool { return sessionID == e.SessionID })
}

// Broadcast queues the event for every connection.
func (h *Hub) Broadcast(e services.Event) {
	h.send(e, func(string) bool { return true })
}

func (h *Hub) send(e services.Event, match func(sessionID string) bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, c := range h.clients {
		if match(c.sessionID) {
			h.enqueueLocked(c, e)
		}
	}
}

func (h *Hub) enqueueLocked(c *client, e services.Event) {
	if h.clients[c.conn] != c {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.log.WithError(err).Error("Error marshaling event")
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.WithField("session_id", c.sessionID).Warn("Dropping slow websocket client")
		h.removeLocked(c.conn)
	}
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).WithField("session_id", c.sessionID).Warn("Dropping websocket client")
			h.UnregisterClient(c.conn)
			return
		}
	}
}

// removeLocked closes the queue, which ends the writer, and the connection.
func (h *Hub) removeLocked(conn *websocket.Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
	conn.Close()
}
