package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Column struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	BoardID   uuid.UUID `json:"boardId"`
	UserID    uuid.UUID `json:"userId"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ColumnFields is a partial column update. Nil fields are left unchanged.
type ColumnFields struct {
	Title    *string `json:"title,omitempty"`
	Position *int    `json:"position,omitempty"`
}

func (f ColumnFields) Validate() error {
	if f.Title == nil && f.Position == nil {
		return fmt.Errorf("column: %w: no fields to update", ErrInvalidInput)
	}
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return fmt.Errorf("column: %w: title must not be empty", ErrInvalidInput)
	}
	if f.Position != nil && *f.Position < 0 {
		return fmt.Errorf("column: %w: position must be >= 0", ErrInvalidInput)
	}
	return nil
}

// ColumnRepository persists columns. Update and Delete are scoped by board so a
// column can only be changed through the board that owns it.
type ColumnRepository interface {
	Create(ctx context.Context, c *Column) error
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Column, error)
	Update(ctx context.Context, boardID, id uuid.UUID, fields ColumnFields) (*Column, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
