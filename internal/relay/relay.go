// Package relay is the in-memory, process-local fan-out core: it tracks
// which live connections are in which rooms and delivers events between
// them. It never touches storage; rooms exist here only as keys grouping
// subscribers, and all state is lost on restart.
package relay

import (
	"errors"
	"sync"

	"collab-relay/pkg/logger"
)

// ErrNotInRoom is returned when a connection tries to broadcast into a
// room it has not joined.
var ErrNotInRoom = errors.New("not a member of this room")

// Relay owns the membership table. Both directions of every membership
// edge (room -> conns, conn -> rooms) are mutated together under mu, so
// readers always observe them consistent.
type Relay struct {
	mu     sync.RWMutex
	rooms  map[int]map[*Conn]struct{}
	joined map[*Conn]map[int]struct{}
}

func New() *Relay {
	return &Relay{
		rooms:  make(map[int]map[*Conn]struct{}),
		joined: make(map[*Conn]map[int]struct{}),
	}
}

// Track registers a freshly admitted connection with an empty room set.
// Only tracked connections may join rooms.
func (r *Relay) Track(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.joined[c]; !ok {
		r.joined[c] = make(map[int]struct{})
	}
	logger.Info("Connection %s tracked (user %d)", c.id, c.identity.UserID)
}

// Join adds the connection to the room. Idempotent: joining a room the
// connection is already in changes nothing.
func (r *Relay) Join(c *Conn, roomID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.joined[c]
	if !ok || c.closed {
		// Disconnect already ran; a pending join from a closed
		// connection is discarded.
		return
	}
	if _, ok := joined[roomID]; ok {
		return
	}

	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[*Conn]struct{})
	}
	r.rooms[roomID][c] = struct{}{}
	joined[roomID] = struct{}{}

	logger.Info("User %d joined room %d (%d member(s))", c.identity.UserID, roomID, len(r.rooms[roomID]))
}

// Leave removes the connection from the room. Idempotent: leaving a room
// the connection never joined is a no-op.
func (r *Relay) Leave(c *Conn, roomID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeEdge(c, roomID)
}

// Disconnect tears down a connection: every membership edge it owns is
// removed and its send channel is closed. Safe to call more than once.
func (r *Relay) Disconnect(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disconnectLocked(c)
}

// Broadcast delivers payload to every member of roomID except origin.
// The origin must itself be a member. Members whose send buffer is full
// are dropped from the relay entirely; there are no retries.
func (r *Relay) Broadcast(origin *Conn, roomID int, payload []byte) error {
	var slow []*Conn

	r.mu.RLock()
	if _, ok := r.joined[origin][roomID]; !ok {
		r.mu.RUnlock()
		return ErrNotInRoom
	}
	for member := range r.rooms[roomID] {
		if member == origin {
			continue
		}
		if !member.deliver(payload) {
			slow = append(slow, member)
		}
	}
	r.mu.RUnlock()

	if len(slow) > 0 {
		r.dropSlow(slow)
	}
	return nil
}

// Members returns the identities of the room's current members. Used by
// the HTTP layer to report who is online in a room.
func (r *Relay) Members(roomID int) []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Identity, 0, len(r.rooms[roomID]))
	for c := range r.rooms[roomID] {
		members = append(members, c.identity)
	}
	return members
}

// JoinedRooms returns the rooms the connection is currently in.
func (r *Relay) JoinedRooms(c *Conn) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]int, 0, len(r.joined[c]))
	for roomID := range r.joined[c] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// InRoom reports whether the connection is currently a member of the room.
func (r *Relay) InRoom(c *Conn, roomID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.joined[c][roomID]
	return ok
}

// removeEdge deletes one membership edge from both sides. Caller holds mu.
func (r *Relay) removeEdge(c *Conn, roomID int) {
	joined, ok := r.joined[c]
	if !ok {
		return
	}
	if _, ok := joined[roomID]; !ok {
		return
	}

	delete(joined, roomID)
	delete(r.rooms[roomID], c)
	if len(r.rooms[roomID]) == 0 {
		delete(r.rooms, roomID)
	}

	logger.Info("User %d left room %d", c.identity.UserID, roomID)
}

// disconnectLocked removes every edge owned by c and closes its send
// channel. Caller holds mu.
func (r *Relay) disconnectLocked(c *Conn) {
	joined, ok := r.joined[c]
	if !ok {
		return
	}

	for roomID := range joined {
		delete(r.rooms[roomID], c)
		if len(r.rooms[roomID]) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.joined, c)

	if !c.closed {
		c.closed = true
		close(c.send)
	}

	logger.Info("Connection %s closed (user %d), memberships cleaned up", c.id, c.identity.UserID)
}

// sendTo hands a payload to a single connection under the read lock, so
// it can never race a concurrent Disconnect closing the channel.
func (r *Relay) sendTo(c *Conn, payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c.deliver(payload)
}

// dropSlow removes members that failed delivery. The send channel is
// closed under the write lock, which is what makes deliver's
// closed-check race free.
func (r *Relay) dropSlow(conns []*Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range conns {
		logger.Warn("Dropping connection %s (user %d): send buffer full", c.id, c.identity.UserID)
		r.disconnectLocked(c)
	}
}
