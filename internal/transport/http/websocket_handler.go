package http

import (
	"log/slog"
	"net/http"

	gws "github.com/gorilla/websocket"

	"cricpulse/internal/websocket"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from the same process; cross-origin
	// connections are fine for a local tool.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocketHandler upgrades dashboard connections onto the hub.
type WebSocketHandler struct {
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewWebSocketHandler creates a websocket handler.
func NewWebSocketHandler(hub *websocket.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket_handler")),
	}
}

// Serve handles GET /ws
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}
	websocket.ServeWS(h.hub, conn)
}
