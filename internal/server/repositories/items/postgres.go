// Package items provides the PostgreSQL-backed item store.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
)

// PostgresRepository implements item storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the item and fills CreatedAt. A non-zero item.CreatedAt is
// stored as given, otherwise the database clock is used. An id collision
// inserts nothing and is reported as (nil, nil).
func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`INSERT INTO items (id, name, content, todolist_id, created_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		 ON CONFLICT (id) DO NOTHING
		 RETURNING created_at
		 `

	createdAt := sql.NullTime{Time: item.CreatedAt, Valid: !item.CreatedAt.IsZero()}
	err := r.db.QueryRowContext(ctx, query, item.ID, item.Name, item.Content, item.TodolistID, createdAt).Scan(&item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Item, error) {
	query :=
		`SELECT id, name, content, todolist_id, created_at FROM items
		 WHERE id = $1
		 `

	item := &models.Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.Content, &item.TodolistID, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// FindByTodolist returns all items of the todo-list, newest first.
func (r *PostgresRepository) FindByTodolist(ctx context.Context, todolistID string) ([]*models.Item, error) {
	query :=
		`SELECT id, name, content, todolist_id, created_at FROM items
		 WHERE todolist_id = $1
		 ORDER BY created_at DESC
		 `
	return r.selectItems(ctx, query, todolistID)
}

// FindLatestByTodolist returns the most recently created item of the
// todo-list, or common.ErrorNotFound if it has none.
func (r *PostgresRepository) FindLatestByTodolist(ctx context.Context, todolistID string) (*models.Item, error) {
	query :=
		`SELECT id, name, content, todolist_id, created_at FROM items
		 WHERE todolist_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1
		 `

	result, err := r.selectItems(ctx, query, todolistID)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, common.ErrorNotFound
	}
	return result[0], nil
}

func (r *PostgresRepository) selectItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	result := []*models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Content, &item.TodolistID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateByID overwrites name and content and returns the number of rows changed.
func (r *PostgresRepository) UpdateByID(ctx context.Context, id string, name string, content string) (int64, error) {
	query := `UPDATE items SET name = $2, content = $3 WHERE id = $1`
	return r.exec(ctx, query, id, name, content)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	return r.exec(ctx, `DELETE FROM items WHERE id = $1`, id)
}

// DeleteMany removes every item whose id is in ids with a single statement.
func (r *PostgresRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.exec(ctx, `DELETE FROM items WHERE id = ANY($1::uuid[])`, pq.Array(ids))
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
