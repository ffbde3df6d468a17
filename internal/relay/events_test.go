package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, ev *ClientEvent)
	}{
		{
			name: "join room",
			raw:  `{"type":"join-room","roomId":3}`,
			check: func(t *testing.T, ev *ClientEvent) {
				assert.Equal(t, EventJoinRoom, ev.Type)
				assert.Equal(t, 3, ev.RoomID)
			},
		},
		{
			name: "send message with id",
			raw:  `{"type":"send-message","roomId":3,"messageId":"abc","content":"hi"}`,
			check: func(t *testing.T, ev *ClientEvent) {
				assert.Equal(t, "abc", ev.MessageID)
				assert.Equal(t, "hi", ev.Content)
			},
		},
		{
			name: "file uploaded",
			raw:  `{"type":"file-uploaded","roomId":3,"fileName":"spec.docx","version":"v2"}`,
			check: func(t *testing.T, ev *ClientEvent) {
				assert.Equal(t, "spec.docx", ev.FileName)
				assert.Equal(t, "v2", ev.Version)
			},
		},
		{name: "typing start", raw: `{"type":"typing-start","roomId":1}`},
		{name: "typing stop", raw: `{"type":"typing-stop","roomId":1}`},
		{name: "invalid json", raw: `not even json`, wantErr: true},
		{name: "no type", raw: `{"roomId":1}`, wantErr: true},
		{name: "unknown type", raw: `{"type":"shrug","roomId":1}`, wantErr: true},
		{name: "zero room", raw: `{"type":"join-room","roomId":0}`, wantErr: true},
		{name: "negative room", raw: `{"type":"join-room","roomId":-4}`, wantErr: true},
		{name: "message without content", raw: `{"type":"send-message","roomId":1}`, wantErr: true},
		{name: "file without name", raw: `{"type":"file-uploaded","roomId":1,"version":"v1"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decodeClientEvent([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestEncodeEventShapes(t *testing.T) {
	payload, err := encodeEvent(&UserTypingEvent{Type: EventUserTyping, UserID: 4, RoomID: 9, IsTyping: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"user-typing","userId":4,"roomId":9,"isTyping":true}`, string(payload))

	payload, err = encodeEvent(&ErrorEvent{Type: EventError, Message: "malformed event"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"malformed event"}`, string(payload))
}
