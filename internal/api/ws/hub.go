package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FeedPublisher mirrors room broadcasts to an external channel.
type FeedPublisher interface {
	PublishBoard(ctx context.Context, boardID uuid.UUID, frame []byte) error
}

// Hub owns the live sessions and their room memberships and delivers frames
// to them. Delivery is in-process only.
type Hub struct {
	rooms *Rooms
	feed  FeedPublisher

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewHub creates a hub. feed may be nil.
func NewHub(feed FeedPublisher) *Hub {
	return &Hub{
		rooms: NewRooms(),
		feed:  feed,
		conns: make(map[*Conn]struct{}),
	}
}

func (h *Hub) Rooms() *Rooms { return h.rooms }

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("session_id", c.ID().String()).Str("user_id", c.userID()).Msg("ws: session registered")
}

// Disconnect releases every room held by c and closes it. Safe to call twice.
func (h *Hub) Disconnect(c *Conn) {
	released := h.rooms.Of(c)
	h.rooms.RemoveAll(c)
	c.Close()

	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()

	log.Debug().Str("session_id", c.ID().String()).Str("user_id", c.userID()).
		Int("rooms_released", len(released)).Msg("ws: session closed")
}

// Shutdown closes every live session with StatusGoingAway. The gates then
// unwind and disconnect them.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.closeWith(websocket.StatusGoingAway, "server shutting down")
	}
	log.Info().Int("sessions", len(conns)).Msg("ws: hub shut down")
}

// Connections returns the number of registered sessions.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) Join(c *Conn, boardID uuid.UUID)  { h.rooms.Join(c, boardID) }
func (h *Hub) Leave(c *Conn, boardID uuid.UUID) { h.rooms.Leave(c, boardID) }

// ToRoom delivers an event to every session in the board's room at the moment
// of the call, then mirrors it to the feed.
func (h *Hub) ToRoom(ctx context.Context, boardID uuid.UUID, event string, data any) error {
	frame, err := encodeFrame(event, data)
	if err != nil {
		return fmt.Errorf("ws.Hub.ToRoom: %w", err)
	}

	for _, c := range h.rooms.Members(boardID) {
		if !c.enqueue(frame) {
			log.Warn().Str("session_id", c.ID().String()).Str("board_id", boardID.String()).
				Str("event", event).Msg("ws: dropped frame for closed or slow session")
		}
	}

	if h.feed != nil {
		if pubErr := h.feed.PublishBoard(ctx, boardID, frame); pubErr != nil {
			log.Warn().Err(pubErr).Str("board_id", boardID.String()).Str("event", event).Msg("ws: feed publish failed")
		}
	}

	return nil
}

// ToConn delivers an event to a single session.
func (h *Hub) ToConn(c *Conn, event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		log.Error().Err(err).Str("session_id", c.ID().String()).Msg("ws: encode frame")
		return
	}
	if !c.enqueue(frame) {
		log.Warn().Str("session_id", c.ID().String()).Str("event", event).Msg("ws: dropped frame for closed or slow session")
	}
}
