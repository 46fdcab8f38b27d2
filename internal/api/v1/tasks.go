package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/trellis/internal/domain"
)

type ListTasksOutput struct {
	Body []*domain.Task
}

func RegisterTaskRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/boards/{boardId}/tasks",
		Summary:     "List every task on a board",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *BoardPathInput) (*ListTasksOutput, error) {
		tasks, err := store.Tasks().ListByBoard(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks", err)
		}

		return &ListTasksOutput{Body: tasks}, nil
	})
}
