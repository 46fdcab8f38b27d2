package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/trellis/internal/domain"
)

type ListColumnsOutput struct {
	Body []*domain.Column
}

func RegisterColumnRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-columns",
		Method:      http.MethodGet,
		Path:        "/boards/{boardId}/columns",
		Summary:     "List a board's columns in position order",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *BoardPathInput) (*ListColumnsOutput, error) {
		columns, err := store.Columns().ListByBoard(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list columns", err)
		}

		return &ListColumnsOutput{Body: columns}, nil
	})
}
