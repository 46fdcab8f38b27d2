package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

const msgRateLimited = "rate limit exceeded"

type payload interface {
	Validate() error
}

// route decodes and validates one event's data and runs its handler. A
// returned error is reported to the sender as "<event>.failure".
type route func(ctx context.Context, c *Conn, data json.RawMessage) error

func handle[P payload](fn func(context.Context, *Conn, P)) route {
	return func(ctx context.Context, c *Conn, data json.RawMessage) error {
		var p P
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
		if err := p.Validate(); err != nil {
			return err
		}
		fn(ctx, c, p)
		return nil
	}
}

// Router maps inbound event names to dispatcher handlers.
type Router struct {
	hub    *Hub
	routes map[string]route
}

func NewRouter(hub *Hub, d *Dispatcher) *Router {
	return &Router{
		hub: hub,
		routes: map[string]route{
			EventBoardsJoin:    handle(d.JoinBoard),
			EventBoardsLeave:   handle(d.LeaveBoard),
			EventBoardsUpdate:  handle(d.UpdateBoard),
			EventBoardsDelete:  handle(d.DeleteBoard),
			EventColumnsCreate: handle(d.CreateColumn),
			EventColumnsUpdate: handle(d.UpdateColumn),
			EventColumnsDelete: handle(d.DeleteColumn),
			EventTasksCreate:   handle(d.CreateTask),
			EventTasksUpdate:   handle(d.UpdateTask),
			EventTasksDelete:   handle(d.DeleteTask),
		},
	}
}

// Dispatch handles one raw frame from c. Unknown events and frames that are not
// JSON are dropped. Handler panics are recovered and logged.
func (r *Router) Dispatch(ctx context.Context, c *Conn, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Debug().Err(err).Str("session_id", c.ID().String()).Msg("ws: malformed frame")
		return
	}

	rt, ok := r.routes[frame.Event]
	if !ok {
		log.Debug().Str("session_id", c.ID().String()).Str("event", frame.Event).Msg("ws: unknown event ignored")
		return
	}

	if !c.allow() {
		r.hub.ToConn(c, failureEvent(frame.Event), msgRateLimited)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("session_id", c.ID().String()).
				Str("event", frame.Event).Msg("ws: handler panic")
			r.hub.ToConn(c, failureEvent(frame.Event), "internal error")
		}
	}()

	if err := rt(ctx, c, frame.Data); err != nil {
		log.Debug().Err(err).Str("session_id", c.ID().String()).Str("event", frame.Event).Msg("ws: rejected payload")
		r.hub.ToConn(c, failureEvent(frame.Event), err.Error())
	}
}
