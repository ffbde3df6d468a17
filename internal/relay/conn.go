package relay

import (
	"context"
	"time"

	"collab-relay/internal/config"
	"collab-relay/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Identity is the authenticated identity bound to a connection. It is
// set once, before the connection is tracked, and never changes.
type Identity struct {
	UserID   int
	Username string
	Email    string
}

// RoomAuthorizer answers whether a user may enter a room. The relay
// itself knows nothing about room ownership or invitations; that lives
// in the persistence layer behind this interface.
type RoomAuthorizer interface {
	CanUserAccessRoom(ctx context.Context, userID, roomID int) (bool, error)
}

// Conn is one live client session. It owns the websocket, a buffered
// send channel drained by WritePump, and the identity attached at
// handshake. Everything else references it only through the relay.
type Conn struct {
	id       string
	identity Identity
	ws       *websocket.Conn
	send     chan []byte
	relay    *Relay
	auth     RoomAuthorizer
	cfg      config.RelayConfig

	// closed guards the send channel; mutated only under relay.mu.
	closed bool
}

func NewConn(r *Relay, ws *websocket.Conn, identity Identity, auth RoomAuthorizer, cfg config.RelayConfig) *Conn {
	if ws != nil {
		ws.SetReadLimit(cfg.MaxMessageSize)
	}
	return &Conn{
		id:       uuid.NewString(),
		identity: identity,
		ws:       ws,
		send:     make(chan []byte, cfg.SendBufferSize),
		relay:    r,
		auth:     auth,
		cfg:      cfg,
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Identity() Identity {
	return c.identity
}

// deliver attempts a non-blocking handoff to the write pump. Called only
// while the relay holds its lock, which is what keeps the closed check
// sound against Disconnect.
func (c *Conn) deliver(payload []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ReadPump drains inbound frames and dispatches them until the transport
// fails or the client goes away. Any exit path runs full membership
// cleanup.
func (c *Conn) ReadPump() {
	defer func() {
		c.relay.Disconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", c.id, err)
			}
			break
		}

		c.dispatch(raw)
	}
}

// WritePump writes relay deliveries and keepalive pings to the socket.
func (c *Conn) WritePump() {
	pingPeriod := c.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error on %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame by kind. Malformed frames mutate no
// state; the sender gets a protocol error event, peers see nothing.
func (c *Conn) dispatch(raw []byte) {
	ev, err := decodeClientEvent(raw)
	if err != nil {
		logger.Warn("Dropping event from user %d: %v", c.identity.UserID, err)
		c.sendError("malformed event")
		return
	}

	switch ev.Type {
	case EventJoinRoom:
		c.handleJoin(ev.RoomID)

	case EventLeaveRoom:
		c.relay.Leave(c, ev.RoomID)

	case EventSendMessage:
		c.relayEvent(ev.RoomID, &NewMessageEvent{
			Type:      EventNewMessage,
			ID:        ev.MessageID,
			Content:   ev.Content,
			UserID:    c.identity.UserID,
			RoomID:    ev.RoomID,
			CreatedAt: time.Now().Format(time.RFC3339),
		})

	case EventTypingStart:
		c.relayEvent(ev.RoomID, &UserTypingEvent{
			Type:     EventUserTyping,
			UserID:   c.identity.UserID,
			RoomID:   ev.RoomID,
			IsTyping: true,
		})

	case EventTypingStop:
		c.relayEvent(ev.RoomID, &UserTypingEvent{
			Type:     EventUserTyping,
			UserID:   c.identity.UserID,
			RoomID:   ev.RoomID,
			IsTyping: false,
		})

	case EventFileUploaded:
		c.relayEvent(ev.RoomID, &FileNotificationEvent{
			Type:     EventFileNotification,
			FileName: ev.FileName,
			Version:  ev.Version,
			UserID:   c.identity.UserID,
			RoomID:   ev.RoomID,
		})
	}
}

// handleJoin checks room authorization against the persistence layer
// before the relay accepts the membership edge.
func (c *Conn) handleJoin(roomID int) {
	allowed, err := c.auth.CanUserAccessRoom(context.Background(), c.identity.UserID, roomID)
	if err != nil {
		logger.Error("Room access check failed for user %d, room %d: %v", c.identity.UserID, roomID, err)
		c.sendError("room unavailable")
		return
	}
	if !allowed {
		logger.Warn("User %d denied access to room %d", c.identity.UserID, roomID)
		c.sendError("not authorized for this room")
		return
	}

	c.relay.Join(c, roomID)
}

func (c *Conn) relayEvent(roomID int, ev interface{}) {
	payload, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Error marshaling event for user %d: %v", c.identity.UserID, err)
		return
	}

	if err := c.relay.Broadcast(c, roomID, payload); err != nil {
		c.sendError("not a member of this room")
	}
}

// sendError queues a protocol error event for this connection only. Best
// effort: if the buffer is full the error is dropped, not the client.
func (c *Conn) sendError(message string) {
	payload, err := encodeEvent(&ErrorEvent{Type: EventError, Message: message})
	if err != nil {
		return
	}
	c.relay.sendTo(c, payload)
}
