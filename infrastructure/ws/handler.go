// Package ws adapts WebSocket connections to the chat service: one session
// per connection, JSON frames in both directions.
//
// There is deliberately no read limit on inbound frames: message size
// limits are out of scope for the relay.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"chat-relay/services"
)

type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewHandler(log *slog.Logger, chat services.IChatService, bufferSize int) *Handler {
	return &Handler{
		log:        log,
		chat:       chat,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client is served from another origin in the
			// demo setup; authentication happens at join, not upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.log.Debug("Connection established", "remote", r.RemoteAddr)
	newClient(h.log, h.chat, conn, h.bufferSize).run(r.Context())
}
