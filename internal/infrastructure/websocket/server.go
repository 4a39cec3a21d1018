// Package websocket implements the push channel: a hub fanning events out to subscribers and
// the upgrade handler that accepts inbound commands from them.
package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests into subscriber connections.
type Server struct {
	hub      *Hub
	handler  CommandHandler
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates the upgrade handler. Any origin is accepted; the service has no auth.
func NewServer(hub *Hub, handler CommandHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		hub:     hub,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "websocket"),
	}
}

// HandleWebSocket handles WebSocket upgrade requests.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(s.hub, conn, s.handler, s.logger)
	client.start()

	s.logger.Info("subscriber connected", "connection_id", client.id, "remote_addr", r.RemoteAddr)
}
