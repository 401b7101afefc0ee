package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"account-service/internal/models"
	"account-service/internal/observability"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many events a subscriber may fall behind before it is dropped.
	sendBuffer = 32
)

type outbound struct {
	eventType string
	payload   []byte
}

type subscriber struct {
	info ConnInfo
	send chan outbound
	done chan struct{}
}

// Hub tracks event subscribers. Each subscriber has its own writer goroutine,
// so Broadcast never waits on a socket.
type Hub struct {
	conns map[*websocket.Conn]*subscriber
	mu    sync.RWMutex
	log   logrus.FieldLogger
}

// NewHub creates an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]*subscriber),
		log:   log,
	}
}

// Add registers a subscriber and starts its writer.
func (h *Hub) Add(conn *websocket.Conn, info ConnInfo) {
	sub := h.add(conn, info)
	go h.writeLoop(conn, sub)
}

func (h *Hub) add(conn *websocket.Conn, info ConnInfo) *subscriber {
	sub := &subscriber{
		info: info,
		send: make(chan outbound, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[conn]; ok {
		close(old.done)
	}
	h.conns[conn] = sub
	return sub
}

// Remove drops a subscriber and stops its writer. Removing an unknown
// connection is a no-op.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.conns[conn]; ok {
		close(sub.done)
		delete(h.conns, conn)
	}
}

// Len reports the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast queues event for every subscriber. A subscriber whose queue is
// full is closed and dropped.
func (h *Hub) Broadcast(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("marshal websocket event")
		return
	}
	msg := outbound{eventType: event.Type, payload: payload}

	h.mu.RLock()
	subs := make(map[*websocket.Conn]*subscriber, len(h.conns))
	for conn, sub := range h.conns {
		subs[conn] = sub
	}
	h.mu.RUnlock()

	for conn, sub := range subs {
		select {
		case sub.send <- msg:
		case <-sub.done:
		default:
			h.log.WithFields(logrus.Fields{
				"conn_id":    sub.info.ConnID,
				"request_id": sub.info.RequestID,
			}).Warn("websocket subscriber too slow, dropping")
			observability.IncWSEvent("ws_overflow")
			h.Remove(conn)
			conn.Close()
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
				h.log.WithFields(logrus.Fields{
					"conn_id":     sub.info.ConnID,
					"request_id":  sub.info.RequestID,
					"duration_ms": time.Since(sub.info.ConnectedAt).Milliseconds(),
				}).WithError(err).Warn("websocket write error")
				observability.IncWSEvent("ws_error")
				h.Remove(conn)
				conn.Close()
				return
			}
			observability.IncWSEvent(msg.eventType)
		}
	}
}
