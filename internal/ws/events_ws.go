package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"account-service/internal/observability"
)

// EventsWebSocketHandler streams domain events to websocket clients.
type EventsWebSocketHandler struct {
	hub *Hub
	log logrus.FieldLogger
}

// NewEventsWebSocketHandler constructs an EventsWebSocketHandler.
func NewEventsWebSocketHandler(hub *Hub, log logrus.FieldLogger) *EventsWebSocketHandler {
	return &EventsWebSocketHandler{hub: hub, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client until it goes away.
func (h *EventsWebSocketHandler) Handle(c *gin.Context) {
	_, span := otel.Tracer("account-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   c.GetString("request_id"),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Add(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	entry := h.log.WithFields(logrus.Fields{
		"conn_id":    info.ConnID,
		"ip":         info.IP,
		"request_id": info.RequestID,
	})
	entry.Info("websocket subscriber connected")

	// clients only listen; reading detects the close
	go func() {
		var closeReason string
		defer func() {
			h.hub.Remove(conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			entry.WithFields(logrus.Fields{
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      closeReason,
			}).Info("websocket subscriber disconnected")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}
