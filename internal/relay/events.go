package relay

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Inbound event kinds.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventSendMessage  = "send-message"
	EventTypingStart  = "typing-start"
	EventTypingStop   = "typing-stop"
	EventFileUploaded = "file-uploaded"
)

// Outbound event kinds.
const (
	EventNewMessage       = "new-message"
	EventUserTyping       = "user-typing"
	EventFileNotification = "file-notification"
	EventError            = "error"
)

// ClientEvent is one decoded inbound frame. Fields beyond Type and
// RoomID are kind-specific; decodeClientEvent enforces which ones are
// required.
type ClientEvent struct {
	Type      string `json:"type"`
	RoomID    int    `json:"roomId"`
	MessageID string `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Version   string `json:"version,omitempty"`
}

type NewMessageEvent struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Content   string `json:"content"`
	UserID    int    `json:"userId"`
	RoomID    int    `json:"roomId"`
	CreatedAt string `json:"createdAt"`
}

type UserTypingEvent struct {
	Type     string `json:"type"`
	UserID   int    `json:"userId"`
	RoomID   int    `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type FileNotificationEvent struct {
	Type     string `json:"type"`
	FileName string `json:"fileName"`
	Version  string `json:"version"`
	UserID   int    `json:"userId"`
	RoomID   int    `json:"roomId"`
}

// ErrorEvent is surfaced only to the connection that caused it; peers
// never see another member's protocol errors.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func decodeClientEvent(raw []byte) (*ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("unparseable event: %w", err)
	}

	switch ev.Type {
	case EventJoinRoom, EventLeaveRoom, EventTypingStart, EventTypingStop:
	case EventSendMessage:
		if ev.Content == "" {
			return nil, fmt.Errorf("%s event missing content", ev.Type)
		}
	case EventFileUploaded:
		if ev.FileName == "" || ev.Version == "" {
			return nil, fmt.Errorf("%s event missing file name or version", ev.Type)
		}
	case "":
		return nil, fmt.Errorf("event missing type")
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}

	if ev.RoomID <= 0 {
		return nil, fmt.Errorf("%s event missing roomId", ev.Type)
	}

	return &ev, nil
}

func encodeEvent(ev interface{}) ([]byte, error) {
	return json.Marshal(ev)
}
