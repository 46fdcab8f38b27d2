package ws

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/trellis/internal/domain"
)

// Inbound event names. Replies use the same name with a ".success" or
// ".failure" suffix.
const (
	EventBoardsJoin    = "boards.join"
	EventBoardsLeave   = "boards.leave"
	EventBoardsUpdate  = "boards.update"
	EventBoardsDelete  = "boards.delete"
	EventColumnsCreate = "columns.create"
	EventColumnsUpdate = "columns.update"
	EventColumnsDelete = "columns.delete"
	EventTasksCreate   = "tasks.create"
	EventTasksUpdate   = "tasks.update"
	EventTasksDelete   = "tasks.delete"
)

func successEvent(event string) string { return event + ".success" }
func failureEvent(event string) string { return event + ".failure" }

// InboundFrame is a client message. Data is decoded by the route for Event.
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundFrame is a server message. Data is omitted for events that carry none.
type OutboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	b, err := json.Marshal(OutboundFrame{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("ws.encodeFrame: %s: %w", event, err)
	}
	return b, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}

func requireID(name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return invalid("%s is required", name)
	}
	return nil
}

// BoardRef names a board; used by join, leave, and delete.
type BoardRef struct {
	BoardID uuid.UUID `json:"boardId"`
}

func (p BoardRef) Validate() error { return requireID("boardId", p.BoardID) }

type BoardUpdatePayload struct {
	BoardID uuid.UUID          `json:"boardId"`
	Fields  domain.BoardFields `json:"fields"`
}

func (p BoardUpdatePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	return p.Fields.Validate()
}

type ColumnCreatePayload struct {
	BoardID uuid.UUID `json:"boardId"`
	Title   string    `json:"title"`
}

func (p ColumnCreatePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title is required")
	}
	return nil
}

type ColumnUpdatePayload struct {
	BoardID  uuid.UUID           `json:"boardId"`
	ColumnID uuid.UUID           `json:"columnId"`
	Fields   domain.ColumnFields `json:"fields"`
}

func (p ColumnUpdatePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	if err := requireID("columnId", p.ColumnID); err != nil {
		return err
	}
	return p.Fields.Validate()
}

type ColumnDeletePayload struct {
	BoardID  uuid.UUID `json:"boardId"`
	ColumnID uuid.UUID `json:"columnId"`
}

func (p ColumnDeletePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	return requireID("columnId", p.ColumnID)
}

type TaskCreatePayload struct {
	BoardID     uuid.UUID `json:"boardId"`
	ColumnID    uuid.UUID `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

func (p TaskCreatePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	if err := requireID("columnId", p.ColumnID); err != nil {
		return err
	}
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title is required")
	}
	return nil
}

type TaskUpdatePayload struct {
	BoardID uuid.UUID         `json:"boardId"`
	TaskID  uuid.UUID         `json:"taskId"`
	Fields  domain.TaskFields `json:"fields"`
}

func (p TaskUpdatePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	if err := requireID("taskId", p.TaskID); err != nil {
		return err
	}
	return p.Fields.Validate()
}

type TaskDeletePayload struct {
	BoardID uuid.UUID `json:"boardId"`
	TaskID  uuid.UUID `json:"taskId"`
}

func (p TaskDeletePayload) Validate() error {
	if err := requireID("boardId", p.BoardID); err != nil {
		return err
	}
	return requireID("taskId", p.TaskID)
}
