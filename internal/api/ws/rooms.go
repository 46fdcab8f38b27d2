package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Rooms tracks which sessions watch which boards. A room is keyed by board ID
// and exists only while it has members.
type Rooms struct {
	mu      sync.RWMutex
	members map[uuid.UUID]map[*Conn]struct{}
	byConn  map[*Conn]map[uuid.UUID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[uuid.UUID]map[*Conn]struct{}),
		byConn:  make(map[*Conn]map[uuid.UUID]struct{}),
	}
}

// Join adds c to the board's room. Joining twice is a no-op.
func (r *Rooms) Join(c *Conn, boardID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.members[boardID]
	if !ok {
		room = make(map[*Conn]struct{})
		r.members[boardID] = room
	}
	room[c] = struct{}{}

	joined, ok := r.byConn[c]
	if !ok {
		joined = make(map[uuid.UUID]struct{})
		r.byConn[c] = joined
	}
	joined[boardID] = struct{}{}
}

// Leave removes c from the board's room. Leaving a room not joined is a no-op.
func (r *Rooms) Leave(c *Conn, boardID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(c, boardID)
}

func (r *Rooms) leaveLocked(c *Conn, boardID uuid.UUID) {
	if room, ok := r.members[boardID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(r.members, boardID)
		}
	}
	if joined, ok := r.byConn[c]; ok {
		delete(joined, boardID)
		if len(joined) == 0 {
			delete(r.byConn, c)
		}
	}
}

// RemoveAll drops every membership held by c.
func (r *Rooms) RemoveAll(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for boardID := range r.byConn[c] {
		r.leaveLocked(c, boardID)
	}
}

// Members returns a snapshot of the board's room.
func (r *Rooms) Members(boardID uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.members[boardID]
	out := make([]*Conn, 0, len(room))
	for c := range room {
		out = append(out, c)
	}
	return out
}

// Of returns the boards c currently watches.
func (r *Rooms) Of(c *Conn) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(r.byConn[c]))
	for boardID := range r.byConn[c] {
		out = append(out, boardID)
	}
	return out
}
