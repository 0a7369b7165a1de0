package todolists

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, list *models.Todolist) (*models.Todolist, error)
	FindByID(ctx context.Context, id string) (*models.Todolist, error)
	FindByIDWithItems(ctx context.Context, id string) (*models.TodolistWithItems, error)
	LockByID(ctx context.Context, id string) (*models.Todolist, error)
	List(ctx context.Context, userID string) ([]*models.Todolist, error)
	Update(ctx context.Context, id string, name string) error
	Delete(ctx context.Context, id string) error
}
