package items

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	// Create returns (nil, nil) when the store accepted the statement but
	// produced no row.
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id string) (*models.Item, error)
	FindByTodolist(ctx context.Context, todolistID string) ([]*models.Item, error)
	FindLatestByTodolist(ctx context.Context, todolistID string) (*models.Item, error)
	UpdateByID(ctx context.Context, id string, name string, content string) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}
