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

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

const taskColumns = `id, title, description, board_id, column_id, user_id, position, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.BoardID, &t.ColumnID, &t.UserID,
		&t.Position, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create appends the task to the bottom of its column. The column must belong
// to t.BoardID; otherwise nothing is inserted and ErrNotFound is returned.
func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, description, board_id, column_id, user_id, position)
		 SELECT $1, $2, c.board_id, c.id, $5,
		        COALESCE((SELECT MAX(position) + 1 FROM tasks WHERE column_id = c.id), 0)
		 FROM board_columns c
		 WHERE c.id = $4 AND c.board_id = $3
		 RETURNING id, position, created_at, updated_at`,
		t.Title, t.Description, t.BoardID, t.ColumnID, t.UserID,
	).Scan(&t.ID, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("taskRepo.Create: column: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", mapWriteErr(err))
	}

	return nil
}

func (r *TaskRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE board_id = $1
		 ORDER BY column_id, position, created_at
		 LIMIT 1000`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("taskRepo.ListByBoard: scan: %w", scanErr)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taskRepo.ListByBoard: rows: %w", err)
	}

	return tasks, nil
}

// Update applies the non-nil fields. A move to a column outside the board
// matches no row and reports ErrNotFound.
func (r *TaskRepo) Update(ctx context.Context, boardID, id uuid.UUID, fields domain.TaskFields) (*domain.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		`UPDATE tasks
		 SET title = COALESCE($3, title),
		     description = COALESCE($4, description),
		     column_id = COALESCE($5::uuid, column_id),
		     position = COALESCE($6, position),
		     updated_at = now()
		 WHERE board_id = $1 AND id = $2
		   AND ($5::uuid IS NULL OR EXISTS (
		       SELECT 1 FROM board_columns WHERE id = $5::uuid AND board_id = $1))
		 RETURNING `+taskColumns,
		boardID, id, fields.Title, fields.Description, fields.ColumnID, fields.Position,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Update: %w", err)
	}

	return t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tasks WHERE board_id = $1 AND id = $2`, boardID, id,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
