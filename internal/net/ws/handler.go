package ws

import (
	"net/http"

	"github.com/gorilla/websocket"

	"duskfall/server/internal/telemetry"
)

// Handler upgrades observer connections and registers them with the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   telemetry.Logger
}

func NewHandler(hub *Hub, logger telemetry.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("ws: upgrade failed: %v", err)
		}
		return
	}
	session := newSession(conn)
	h.hub.attach(session)
	go session.writeLoop()
	go func() {
		session.readLoop()
		h.hub.detach(session)
	}()
}
