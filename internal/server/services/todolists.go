package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/validation"
)

type TodolistService struct {
	options
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTodolistService(db *sql.DB, m repomanager.RepositoryManager, opts ...Option) *TodolistService {
	return &TodolistService{options: newOptions("todolists", opts), db: db, repomanager: m}
}

// Create gives the user its todo-list. A user owns at most one: the user
// row is locked while the existing relation is checked.
func (s *TodolistService) Create(ctx context.Context, draft models.TodolistDraft) (*models.Todolist, error) {
	if err := validation.Check(s.validator, draft); err != nil {
		return nil, err
	}

	var created *models.Todolist
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		owner, err := s.repomanager.Users(tx).FindByIDWithTodolist(ctx, draft.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return err
		}
		if owner.Todolist != nil {
			return common.ErrUserAlreadyHasTodolist
		}

		created, err = s.repomanager.Todolists(tx).Create(ctx, &models.Todolist{
			ID:     uuid.NewString(),
			Name:   draft.Name,
			UserID: draft.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "todolist created", "todolist_id", created.ID, "user_id", created.UserID)
	return created, nil
}

// Get returns the todo-list together with its items.
func (s *TodolistService) Get(ctx context.Context, id string) (*models.TodolistWithItems, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, common.ErrTodolistNotFound
	}
	list, err := s.repomanager.Todolists(s.db).FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTodolistNotFound
		}
		return nil, err
	}
	return list, nil
}

func (s *TodolistService) List(ctx context.Context, userID string) ([]*models.Todolist, error) {
	return s.repomanager.Todolists(s.db).List(ctx, userID)
}

func (s *TodolistService) Rename(ctx context.Context, id string, name string) (*models.Todolist, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, common.ErrTodolistNotFound
	}

	list, err := s.repomanager.Todolists(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTodolistNotFound
		}
		return nil, err
	}

	if err := validation.Check(s.validator, models.TodolistDraft{Name: name, UserID: list.UserID}); err != nil {
		return nil, err
	}

	if err := s.repomanager.Todolists(s.db).Update(ctx, id, name); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTodolistNotFound
		}
		return nil, err
	}
	list.Name = name
	return list, nil
}

// Delete removes the todo-list and bulk-removes its items in the same
// transaction.
func (s *TodolistService) Delete(ctx context.Context, id string) error {
	if err := uuid.Validate(id); err != nil {
		return common.ErrTodolistNotFound
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		lists := s.repomanager.Todolists(tx)
		if _, err := lists.LockByID(ctx, id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTodolistNotFound
			}
			return err
		}

		repo := s.repomanager.Items(tx)
		current, err := repo.FindByTodolist(ctx, id)
		if err != nil {
			return err
		}
		if _, err := removeItems(ctx, repo, current); err != nil {
			return err
		}

		if err := lists.Delete(ctx, id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTodolistNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "todolist deleted", "todolist_id", id)
	return nil
}

// EnsureOwner fails with ErrTodolistNotFound unless userID owns the
// todo-list, so callers cannot probe other tenants' ids.
func (s *TodolistService) EnsureOwner(ctx context.Context, todolistID, userID string) error {
	if err := uuid.Validate(todolistID); err != nil {
		return common.ErrTodolistNotFound
	}
	list, err := s.repomanager.Todolists(s.db).FindByID(ctx, todolistID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrTodolistNotFound
		}
		return err
	}
	if list.UserID != userID {
		return common.ErrTodolistNotFound
	}
	return nil
}
