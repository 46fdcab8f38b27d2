package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/trellis/internal/domain"
)

const msgNotAuthorized = "User is not authorized"

// Store is the persistence the dispatcher mutates.
type Store interface {
	Boards() domain.BoardRepository
	Columns() domain.ColumnRepository
	Tasks() domain.TaskRepository
}

// Dispatcher applies board mutations and announces them. Every handler either
// broadcasts "<event>.success" to the board's room (sender included) or sends
// "<event>.failure" to the sender alone.
type Dispatcher struct {
	store Store
	hub   *Hub
}

func NewDispatcher(store Store, hub *Hub) *Dispatcher {
	return &Dispatcher{store: store, hub: hub}
}

func (d *Dispatcher) JoinBoard(_ context.Context, c *Conn, p BoardRef) {
	if !d.authorized(c, EventBoardsJoin) {
		return
	}
	d.hub.Join(c, p.BoardID)
}

// LeaveBoard is allowed for any session.
func (d *Dispatcher) LeaveBoard(_ context.Context, c *Conn, p BoardRef) {
	d.hub.Leave(c, p.BoardID)
}

func (d *Dispatcher) UpdateBoard(ctx context.Context, c *Conn, p BoardUpdatePayload) {
	if !d.authorized(c, EventBoardsUpdate) {
		return
	}

	board, err := d.store.Boards().Update(context.WithoutCancel(ctx), p.BoardID, p.Fields)
	if err != nil {
		d.fail(c, EventBoardsUpdate, "board", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventBoardsUpdate, p.BoardID, board)
}

func (d *Dispatcher) DeleteBoard(ctx context.Context, c *Conn, p BoardRef) {
	if !d.authorized(c, EventBoardsDelete) {
		return
	}

	if err := d.store.Boards().Delete(context.WithoutCancel(ctx), p.BoardID); err != nil {
		d.fail(c, EventBoardsDelete, "board", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventBoardsDelete, p.BoardID, nil)
}

func (d *Dispatcher) CreateColumn(ctx context.Context, c *Conn, p ColumnCreatePayload) {
	if !d.authorized(c, EventColumnsCreate) {
		return
	}

	column := &domain.Column{Title: p.Title, BoardID: p.BoardID, UserID: c.User().ID}
	if err := d.store.Columns().Create(context.WithoutCancel(ctx), column); err != nil {
		d.fail(c, EventColumnsCreate, "board", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventColumnsCreate, p.BoardID, column)
}

func (d *Dispatcher) UpdateColumn(ctx context.Context, c *Conn, p ColumnUpdatePayload) {
	if !d.authorized(c, EventColumnsUpdate) {
		return
	}

	column, err := d.store.Columns().Update(context.WithoutCancel(ctx), p.BoardID, p.ColumnID, p.Fields)
	if err != nil {
		d.fail(c, EventColumnsUpdate, "column", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventColumnsUpdate, p.BoardID, column)
}

func (d *Dispatcher) DeleteColumn(ctx context.Context, c *Conn, p ColumnDeletePayload) {
	if !d.authorized(c, EventColumnsDelete) {
		return
	}

	if err := d.store.Columns().Delete(context.WithoutCancel(ctx), p.BoardID, p.ColumnID); err != nil {
		d.fail(c, EventColumnsDelete, "column", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventColumnsDelete, p.BoardID, p.ColumnID)
}

func (d *Dispatcher) CreateTask(ctx context.Context, c *Conn, p TaskCreatePayload) {
	if !d.authorized(c, EventTasksCreate) {
		return
	}

	task := &domain.Task{
		Title:       p.Title,
		Description: p.Description,
		BoardID:     p.BoardID,
		ColumnID:    p.ColumnID,
		UserID:      c.User().ID,
	}
	if err := d.store.Tasks().Create(context.WithoutCancel(ctx), task); err != nil {
		d.fail(c, EventTasksCreate, "column", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventTasksCreate, p.BoardID, task)
}

func (d *Dispatcher) UpdateTask(ctx context.Context, c *Conn, p TaskUpdatePayload) {
	if !d.authorized(c, EventTasksUpdate) {
		return
	}

	task, err := d.store.Tasks().Update(context.WithoutCancel(ctx), p.BoardID, p.TaskID, p.Fields)
	if err != nil {
		d.fail(c, EventTasksUpdate, "task", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventTasksUpdate, p.BoardID, task)
}

func (d *Dispatcher) DeleteTask(ctx context.Context, c *Conn, p TaskDeletePayload) {
	if !d.authorized(c, EventTasksDelete) {
		return
	}

	if err := d.store.Tasks().Delete(context.WithoutCancel(ctx), p.BoardID, p.TaskID); err != nil {
		d.fail(c, EventTasksDelete, "task", p.BoardID, err)
		return
	}
	d.succeed(ctx, c, EventTasksDelete, p.BoardID, p.TaskID)
}

func (d *Dispatcher) authorized(c *Conn, event string) bool {
	if c.User() != nil {
		return true
	}
	err := fmt.Errorf("ws.Dispatcher: %s: %w", event, domain.ErrUnauthorized)
	log.Debug().Err(err).Str("session_id", c.ID().String()).Msg("ws: unauthenticated mutation")
	d.hub.ToConn(c, failureEvent(event), failureMessage("", err))
	return false
}

func (d *Dispatcher) succeed(ctx context.Context, c *Conn, event string, boardID uuid.UUID, data any) {
	if err := d.hub.ToRoom(context.WithoutCancel(ctx), boardID, successEvent(event), data); err != nil {
		log.Error().Err(err).Str("session_id", c.ID().String()).Str("board_id", boardID.String()).
			Str("event", event).Msg("ws: broadcast failed")
	}
}

// fail reports a persistence error to the sender.
func (d *Dispatcher) fail(c *Conn, event, entity string, boardID uuid.UUID, err error) {
	log.Warn().Err(err).Str("session_id", c.ID().String()).Str("user_id", c.userID()).
		Str("board_id", boardID.String()).Str("event", event).Msg("ws: mutation failed")

	d.hub.ToConn(c, failureEvent(event), failureMessage(entity, err))
}

// failureMessage is the text a client sees for err. Missing rows become
// "<entity> not found"; unknown errors pass their message through.
func failureMessage(entity string, err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return msgNotAuthorized
	case errors.Is(err, domain.ErrNotFound):
		return entity + " not found"
	case errors.Is(err, domain.ErrConflict):
		return entity + " already exists"
	default:
		return err.Error()
	}
}
