package users

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDWithTodolist(ctx context.Context, id string) (*models.UserWithTodolist, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetValid(ctx context.Context, id string, valid bool) error
}
