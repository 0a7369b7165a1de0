// Package todolists provides the PostgreSQL-backed todo-list store.
package todolists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
)

const ownerConstraint = "todolists_user_id_key"

// PostgresRepository implements todo-list storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the todo-list. The one-list-per-user constraint surfaces
// as common.ErrUserAlreadyHasTodolist.
func (r *PostgresRepository) Create(ctx context.Context, list *models.Todolist) (*models.Todolist, error) {
	query :=
		`INSERT INTO todolists (id, name, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, list.ID, list.Name, list.UserID).Scan(&list.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, ownerConstraint) {
			return nil, common.ErrUserAlreadyHasTodolist
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Todolist, error) {
	query :=
		`SELECT id, name, user_id, created_at FROM todolists
		 WHERE id = $1
		 `
	return r.findOne(ctx, query, id)
}

// LockByID is FindByID with a row lock held until the surrounding
// transaction ends. Item admissions for the same list run one at a time.
func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Todolist, error) {
	query :=
		`SELECT id, name, user_id, created_at FROM todolists
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, id string) (*models.Todolist, error) {
	t := &models.Todolist{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.UserID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// FindByIDWithItems returns the todo-list and its items, newest first.
func (r *PostgresRepository) FindByIDWithItems(ctx context.Context, id string) (*models.TodolistWithItems, error) {
	query :=
		`SELECT t.id, t.name, t.user_id, t.created_at,
		        i.id, i.name, i.content, i.created_at
		 FROM todolists t
		 LEFT JOIN items i ON i.todolist_id = t.id
		 WHERE t.id = $1
		 ORDER BY i.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var res *models.TodolistWithItems
	for rows.Next() {
		t := models.Todolist{}
		var (
			itemID, itemName, itemContent sql.NullString
			itemCreatedAt                 sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.UserID, &t.CreatedAt,
			&itemID, &itemName, &itemContent, &itemCreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if res == nil {
			res = &models.TodolistWithItems{Todolist: &t, Items: []*models.Item{}}
		}
		if itemID.Valid {
			res.Items = append(res.Items, &models.Item{
				ID:         itemID.String,
				Name:       itemName.String,
				Content:    itemContent.String,
				TodolistID: t.ID,
				CreatedAt:  itemCreatedAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if res == nil {
		return nil, common.ErrorNotFound
	}
	return res, nil
}

// List returns the todo-lists owned by userID.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Todolist, error) {
	query :=
		`SELECT id, name, user_id, created_at FROM todolists
		 WHERE user_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Todolist{}
	for rows.Next() {
		var t models.Todolist
		if err := rows.Scan(&t.ID, &t.Name, &t.UserID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, name string) error {
	return r.execOne(ctx, `UPDATE todolists SET name = $2 WHERE id = $1`, id, name)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM todolists WHERE id = $1`, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
