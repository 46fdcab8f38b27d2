package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Board is the root of a realtime room: every connection watching a board joins
// the room keyed by the board's ID.
type Board struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BoardFields is a partial board update. Nil fields are left unchanged.
type BoardFields struct {
	Title *string `json:"title,omitempty"`
}

func (f BoardFields) Validate() error {
	if f.Title == nil {
		return fmt.Errorf("board: %w: no fields to update", ErrInvalidInput)
	}
	if strings.TrimSpace(*f.Title) == "" {
		return fmt.Errorf("board: %w: title must not be empty", ErrInvalidInput)
	}
	return nil
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Board, error)
	Update(ctx context.Context, id uuid.UUID, fields BoardFields) (*Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
