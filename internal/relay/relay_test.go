package relay

import (
	"context"
	"fmt"
	"testing"

	"collab-relay/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRelayCfg = config.RelayConfig{
	SendBufferSize: 8,
	MaxMessageSize: 64 * 1024,
	WriteWait:      0,
	PongWait:       0,
}

type allowAll struct{}

func (allowAll) CanUserAccessRoom(context.Context, int, int) (bool, error) {
	return true, nil
}

func newTestConn(t *testing.T, r *Relay, userID int) *Conn {
	t.Helper()
	c := NewConn(r, nil, Identity{
		UserID:   userID,
		Username: fmt.Sprintf("user%d", userID),
		Email:    fmt.Sprintf("user%d@example.com", userID),
	}, allowAll{}, testRelayCfg)
	r.Track(c)
	return c
}

// received drains everything currently queued for the connection.
func received(c *Conn) [][]byte {
	var out [][]byte
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestJoinCreatesBidirectionalEdge(t *testing.T) {
	r := New()
	c := newTestConn(t, r, 1)

	r.Join(c, 10)

	assert.True(t, r.InRoom(c, 10))
	assert.Equal(t, []int{10}, r.JoinedRooms(c))
	require.Len(t, r.Members(10), 1)
	assert.Equal(t, 1, r.Members(10)[0].UserID)
}

func TestLeaveRemovesBothSides(t *testing.T) {
	r := New()
	c := newTestConn(t, r, 1)

	r.Join(c, 10)
	r.Leave(c, 10)

	assert.False(t, r.InRoom(c, 10))
	assert.Empty(t, r.JoinedRooms(c))
	assert.Empty(t, r.Members(10))
}

func TestJoinIdempotent(t *testing.T) {
	r := New()
	c := newTestConn(t, r, 1)

	r.Join(c, 10)
	r.Join(c, 10)

	assert.Len(t, r.Members(10), 1)
	assert.Len(t, r.JoinedRooms(c), 1)
}

func TestLeaveIdempotent(t *testing.T) {
	r := New()
	c := newTestConn(t, r, 1)

	// Leaving a room never joined is a no-op.
	r.Leave(c, 10)
	assert.Empty(t, r.JoinedRooms(c))

	r.Join(c, 10)
	r.Leave(c, 10)
	r.Leave(c, 10)
	assert.Empty(t, r.JoinedRooms(c))
	assert.Empty(t, r.Members(10))
}

func TestBroadcastExcludesOrigin(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)
	b := newTestConn(t, r, 2)
	c := newTestConn(t, r, 3)
	for _, conn := range []*Conn{a, b, c} {
		r.Join(conn, 10)
	}

	require.NoError(t, r.Broadcast(a, 10, []byte("hello")))

	assert.Empty(t, received(a), "origin must never receive its own broadcast")
	require.Len(t, received(b), 1)
	require.Len(t, received(c), 1)
}

func TestBroadcastDeliversExactlyOncePerMember(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)
	b := newTestConn(t, r, 2)
	r.Join(a, 10)
	r.Join(b, 10)

	require.NoError(t, r.Broadcast(a, 10, []byte("one")))
	require.NoError(t, r.Broadcast(a, 10, []byte("two")))

	msgs := received(b)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", string(msgs[0]))
	assert.Equal(t, "two", string(msgs[1]))
}

func TestBroadcastRequiresMembership(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)
	b := newTestConn(t, r, 2)
	r.Join(b, 10)

	err := r.Broadcast(a, 10, []byte("intruding"))

	assert.ErrorIs(t, err, ErrNotInRoom)
	assert.Empty(t, received(b))
}

func TestBroadcastToSingleMemberRoom(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)
	r.Join(a, 10)

	require.NoError(t, r.Broadcast(a, 10, []byte("echo?")))
	assert.Empty(t, received(a))
}

func TestDisconnectCleansUpAllRooms(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)
	b := newTestConn(t, r, 2)
	r.Join(a, 10)
	r.Join(a, 20)
	r.Join(b, 10)

	r.Disconnect(a)

	assert.Empty(t, r.JoinedRooms(a))
	assert.Empty(t, r.Members(20))
	require.Len(t, r.Members(10), 1)
	assert.Equal(t, 2, r.Members(10)[0].UserID)

	// The send channel is closed exactly once, even on double disconnect.
	r.Disconnect(a)
	_, open := <-a.send
	assert.False(t, open)
}

func TestBroadcastAfterPeerDisconnect(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)
	b := newTestConn(t, r, 2)
	r.Join(a, 10)
	r.Join(b, 10)

	r.Disconnect(a)
	require.NoError(t, r.Broadcast(b, 10, []byte("anyone there?")))

	// Delivery list for the broadcast no longer includes a.
	assert.Empty(t, received(a))
}

func TestJoinAfterDisconnectDiscarded(t *testing.T) {
	r := New()
	c := newTestConn(t, r, 1)

	r.Disconnect(c)
	r.Join(c, 10)

	assert.False(t, r.InRoom(c, 10))
	assert.Empty(t, r.Members(10))
}

func TestSlowConsumerDropped(t *testing.T) {
	r := New()
	a := newTestConn(t, r, 1)

	cfg := testRelayCfg
	cfg.SendBufferSize = 1
	b := NewConn(r, nil, Identity{UserID: 2, Username: "user2", Email: "user2@example.com"}, allowAll{}, cfg)
	r.Track(b)

	r.Join(a, 10)
	r.Join(b, 10)

	// First broadcast fills b's buffer; the second finds it full and
	// drops b from the relay.
	require.NoError(t, r.Broadcast(a, 10, []byte("one")))
	require.NoError(t, r.Broadcast(a, 10, []byte("two")))

	assert.False(t, r.InRoom(b, 10))
	assert.True(t, r.InRoom(a, 10))
	require.Len(t, r.Members(10), 1)
	assert.Equal(t, 1, r.Members(10)[0].UserID)
}

func TestConcurrentJoinLeaveKeepsTableConsistent(t *testing.T) {
	r := New()
	const conns = 16
	const iterations = 100

	done := make(chan struct{})
	for i := 0; i < conns; i++ {
		c := newTestConn(t, r, i+1)
		go func(c *Conn) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < iterations; j++ {
				r.Join(c, 10)
				r.Broadcast(c, 10, []byte("x"))
				received(c)
				r.Leave(c, 10)
			}
			r.Disconnect(c)
		}(c)
	}
	for i := 0; i < conns; i++ {
		<-done
	}

	assert.Empty(t, r.Members(10))
	assert.Empty(t, r.rooms)
	assert.Empty(t, r.joined)
}
