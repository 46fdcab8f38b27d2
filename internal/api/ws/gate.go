package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/gosuda/trellis/internal/domain"
)

const (
	readLimit    = 64 << 10
	writeTimeout = 10 * time.Second

	unauthorizedBody = `{"title":"Unauthorized","status":401,"detail":"Authentication error"}`
)

// Verifier resolves a handshake credential to a user.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*domain.User, error)
}

// GateConfig bounds each accepted session.
type GateConfig struct {
	SendBuffer      int
	EventsPerSecond float64
	EventsBurst     int
	// OriginPatterns are passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
}

// Gate authenticates socket handshakes and runs accepted sessions.
type Gate struct {
	verifier Verifier
	hub      *Hub
	router   *Router
	cfg      GateConfig
}

func NewGate(verifier Verifier, hub *Hub, router *Router, cfg GateConfig) *Gate {
	return &Gate{verifier: verifier, hub: hub, router: router, cfg: cfg}
}

// ServeHTTP verifies the credential before upgrading. The credential is read
// from the Authorization header, then from the "token" query parameter.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := r.Header.Get("Authorization")
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}

	user, err := g.verifier.Verify(r.Context(), credential)
	if err != nil {
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws: handshake rejected")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(unauthorizedBody))
		return
	}

	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: g.cfg.OriginPatterns})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer sock.CloseNow()
	sock.SetReadLimit(readLimit)

	var limiter *rate.Limiter
	if g.cfg.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(g.cfg.EventsPerSecond), g.cfg.EventsBurst)
	}

	conn := NewConn(user, g.cfg.SendBuffer, limiter)
	g.hub.Register(conn)
	defer g.hub.Disconnect(conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go g.writeLoop(ctx, sock, conn)
	g.readLoop(ctx, sock, conn)
}

// readLoop handles frames one at a time so a session's events apply in order.
func (g *Gate) readLoop(ctx context.Context, sock *websocket.Conn, conn *Conn) {
	for {
		typ, data, err := sock.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Str("session_id", conn.ID().String()).Msg("ws: read")
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		g.router.Dispatch(ctx, conn, data)
	}
}

func (g *Gate) writeLoop(ctx context.Context, sock *websocket.Conn, conn *Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			if ctx.Err() == nil {
				_ = sock.Close(conn.CloseStatus())
			}
			return
		case frame := <-conn.Outbound():
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := sock.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("session_id", conn.ID().String()).Msg("websocket write")
				conn.Close()
				_ = sock.CloseNow()
				return
			}
		}
	}
}
