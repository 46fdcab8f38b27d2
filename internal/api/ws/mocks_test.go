package ws_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/trellis/internal/api/ws"
	"github.com/gosuda/trellis/internal/domain"
)

// ---------------------------------------------------------------------------
// testify mocks for the repositories the dispatcher drives.
// ---------------------------------------------------------------------------

type boardRepoMock struct{ mock.Mock }

var _ domain.BoardRepository = (*boardRepoMock)(nil)

func (m *boardRepoMock) Create(ctx context.Context, b *domain.Board) error {
	return m.Called(ctx, b).Error(0)
}

func (m *boardRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Board), args.Error(1)
}

func (m *boardRepoMock) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Board), args.Error(1)
}

func (m *boardRepoMock) Update(ctx context.Context, id uuid.UUID, fields domain.BoardFields) (*domain.Board, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Board), args.Error(1)
}

func (m *boardRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type columnRepoMock struct{ mock.Mock }

var _ domain.ColumnRepository = (*columnRepoMock)(nil)

func (m *columnRepoMock) Create(ctx context.Context, c *domain.Column) error {
	return m.Called(ctx, c).Error(0)
}

func (m *columnRepoMock) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Column), args.Error(1)
}

func (m *columnRepoMock) Update(ctx context.Context, boardID, id uuid.UUID, fields domain.ColumnFields) (*domain.Column, error) {
	args := m.Called(ctx, boardID, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Column), args.Error(1)
}

func (m *columnRepoMock) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.Called(ctx, boardID, id).Error(0)
}

type taskRepoMock struct{ mock.Mock }

var _ domain.TaskRepository = (*taskRepoMock)(nil)

func (m *taskRepoMock) Create(ctx context.Context, t *domain.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *taskRepoMock) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *taskRepoMock) Update(ctx context.Context, boardID, id uuid.UUID, fields domain.TaskFields) (*domain.Task, error) {
	args := m.Called(ctx, boardID, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *taskRepoMock) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.Called(ctx, boardID, id).Error(0)
}

type storeMock struct {
	boards  *boardRepoMock
	columns *columnRepoMock
	tasks   *taskRepoMock
}

func newStoreMock() *storeMock {
	return &storeMock{boards: &boardRepoMock{}, columns: &columnRepoMock{}, tasks: &taskRepoMock{}}
}

func (s *storeMock) Boards() domain.BoardRepository   { return s.boards }
func (s *storeMock) Columns() domain.ColumnRepository { return s.columns }
func (s *storeMock) Tasks() domain.TaskRepository     { return s.tasks }

func (s *storeMock) assertExpectations(t *testing.T) {
	t.Helper()
	s.boards.AssertExpectations(t)
	s.columns.AssertExpectations(t)
	s.tasks.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// Frame helpers.
// ---------------------------------------------------------------------------

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// drain returns every frame queued on c without blocking.
func drain(t *testing.T, c *ws.Conn) []frame {
	t.Helper()

	var out []frame
	for {
		select {
		case raw := <-c.Outbound():
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func events(frames []frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func dataString(t *testing.T, f frame) string {
	t.Helper()

	var s string
	require.NoError(t, json.Unmarshal(f.Data, &s))
	return s
}

func rawFrame(t *testing.T, event string, data any) []byte {
	t.Helper()

	b, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(t, err)
	return b
}

func testUser(name string) *domain.User {
	return &domain.User{ID: uuid.New(), Email: name + "@example.com", Username: name}
}
