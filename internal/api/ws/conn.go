package ws

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gosuda/trellis/internal/domain"
)

// Conn is one client session. The user is fixed at handshake time; a nil user
// marks an unauthenticated session, which may connect but not mutate.
type Conn struct {
	id      uuid.UUID
	user    *domain.User
	send    chan []byte
	limiter *rate.Limiter

	closeOnce   sync.Once
	done        chan struct{}
	closeCode   websocket.StatusCode
	closeReason string
}

// NewConn creates a session with an outbound queue of sendBuffer frames.
// A nil limiter disables inbound rate limiting.
func NewConn(user *domain.User, sendBuffer int, limiter *rate.Limiter) *Conn {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Conn{
		id:      uuid.New(),
		user:    user,
		send:    make(chan []byte, sendBuffer),
		limiter: limiter,
		done:    make(chan struct{}),
	}
}

func (c *Conn) ID() uuid.UUID { return c.id }

// User returns the authenticated user, or nil.
func (c *Conn) User() *domain.User { return c.user }

// Outbound yields frames queued for the socket writer.
func (c *Conn) Outbound() <-chan []byte { return c.send }

// Done is closed once the session is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() {
	c.closeWith(websocket.StatusNormalClosure, "")
}

// closeWith closes the session; the first caller's status is the one sent to
// the peer.
func (c *Conn) closeWith(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

// CloseStatus reports the status the session was closed with. Only meaningful
// after Done is closed.
func (c *Conn) CloseStatus() (websocket.StatusCode, string) {
	<-c.done
	return c.closeCode, c.closeReason
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue queues a frame without blocking. A full queue closes the session so
// one slow reader cannot stall a broadcast.
func (c *Conn) enqueue(frame []byte) bool {
	if c.closed() {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.closeWith(websocket.StatusPolicyViolation, "send queue overflow")
		return false
	}
}

func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

func (c *Conn) userID() string {
	if c.user == nil {
		return ""
	}
	return c.user.ID.String()
}
