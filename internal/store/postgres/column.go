package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/trellis/internal/domain"
)

type ColumnRepo struct {
	pool *pgxpool.Pool
}

func NewColumnRepo(pool *pgxpool.Pool) *ColumnRepo {
	return &ColumnRepo{pool: pool}
}

const columnColumns = `id, title, board_id, user_id, position, created_at, updated_at`

func scanColumn(row pgx.Row) (*domain.Column, error) {
	var c domain.Column
	if err := row.Scan(&c.ID, &c.Title, &c.BoardID, &c.UserID, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create appends the column after the board's last column.
func (r *ColumnRepo) Create(ctx context.Context, c *domain.Column) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO board_columns (title, board_id, user_id, position)
		 SELECT $1, $2, $3, COALESCE(MAX(position) + 1, 0)
		 FROM board_columns WHERE board_id = $2
		 RETURNING id, position, created_at, updated_at`,
		c.Title, c.BoardID, c.UserID,
	).Scan(&c.ID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("columnRepo.Create: %w", mapWriteErr(err))
	}

	return nil
}

func (r *ColumnRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columnColumns+` FROM board_columns WHERE board_id = $1
		 ORDER BY position, created_at
		 LIMIT 500`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("columnRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	columns := make([]*domain.Column, 0)
	for rows.Next() {
		c, scanErr := scanColumn(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("columnRepo.ListByBoard: scan: %w", scanErr)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columnRepo.ListByBoard: rows: %w", err)
	}

	return columns, nil
}

func (r *ColumnRepo) Update(ctx context.Context, boardID, id uuid.UUID, fields domain.ColumnFields) (*domain.Column, error) {
	c, err := scanColumn(r.pool.QueryRow(ctx,
		`UPDATE board_columns
		 SET title = COALESCE($3, title), position = COALESCE($4, position), updated_at = now()
		 WHERE board_id = $1 AND id = $2
		 RETURNING `+columnColumns,
		boardID, id, fields.Title, fields.Position,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("columnRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("columnRepo.Update: %w", err)
	}

	return c, nil
}

func (r *ColumnRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM board_columns WHERE board_id = $1 AND id = $2`, boardID, id,
	)
	if err != nil {
		return fmt.Errorf("columnRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("columnRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
