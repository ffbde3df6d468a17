package handlers

import (
	"net/http"

	"collab-relay/internal/auth"
	"collab-relay/internal/config"
	"collab-relay/internal/relay"
	"collab-relay/internal/services"
	"collab-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	roomService *services.RoomService
	relay       *relay.Relay
	relayCfg    config.RelayConfig
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, roomService *services.RoomService, rly *relay.Relay, relayCfg config.RelayConfig) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		roomService: roomService,
		relay:       rly,
		relayCfg:    relayCfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket runs the connection handshake. The credential is
// verified before the upgrade: a rejected client never gets a tracked
// connection, so nothing downstream can ever reference it.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	identity, err := h.authService.VerifyCredential(tokenStr)
	if err != nil {
		logger.Warn("WebSocket handshake rejected: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	conn := relay.NewConn(h.relay, ws, relay.Identity{
		UserID:   identity.UserID,
		Username: identity.Username,
		Email:    identity.Email,
	}, h.roomService, h.relayCfg)

	h.relay.Track(conn)

	go conn.WritePump()
	go conn.ReadPump()
}
