package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task belongs to exactly one column. BoardID is denormalized from the column so
// the room a task change is broadcast to is known from the row alone.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	BoardID     uuid.UUID `json:"boardId"`
	ColumnID    uuid.UUID `json:"columnId"`
	UserID      uuid.UUID `json:"userId"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskFields is a partial task update. Setting ColumnID moves the task to another
// column of the same board.
type TaskFields struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ColumnID    *uuid.UUID `json:"columnId,omitempty"`
	Position    *int       `json:"position,omitempty"`
}

func (f TaskFields) Validate() error {
	if f.Title == nil && f.Description == nil && f.ColumnID == nil && f.Position == nil {
		return fmt.Errorf("task: %w: no fields to update", ErrInvalidInput)
	}
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return fmt.Errorf("task: %w: title must not be empty", ErrInvalidInput)
	}
	if f.ColumnID != nil && *f.ColumnID == uuid.Nil {
		return fmt.Errorf("task: %w: column id must not be nil", ErrInvalidInput)
	}
	if f.Position != nil && *f.Position < 0 {
		return fmt.Errorf("task: %w: position must be >= 0", ErrInvalidInput)
	}
	return nil
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, boardID, id uuid.UUID, fields TaskFields) (*Task, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
