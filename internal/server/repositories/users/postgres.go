// Package users provides the PostgreSQL-backed user store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
)

const emailConstraint = "users_email_key"

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and fills CreatedAt. A duplicate email yields
// common.ErrEmailTaken.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, firstname, lastname, email, password_hash, birth_date, is_valid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.BirthDate, user.IsValid).
		Scan(&user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, firstname, lastname, email, password_hash, birth_date, is_valid, created_at FROM users
		 WHERE id = $1
		 `
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, firstname, lastname, email, password_hash, birth_date, is_valid, created_at FROM users
		 WHERE email = $1
		 `
	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.BirthDate, &u.IsValid, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// FindByIDWithTodolist loads the user and its todo-list (if any), locking
// the user row so concurrent todo-list creations for the same user queue up.
func (r *PostgresRepository) FindByIDWithTodolist(ctx context.Context, id string) (*models.UserWithTodolist, error) {
	query :=
		`SELECT u.id, u.firstname, u.lastname, u.email, u.password_hash, u.birth_date, u.is_valid, u.created_at,
		        t.id, t.name, t.created_at
		 FROM users u
		 LEFT JOIN todolists t ON t.user_id = u.id
		 WHERE u.id = $1
		 FOR UPDATE OF u
		 `

	u := &models.User{}
	var (
		listID, listName sql.NullString
		listCreatedAt    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.BirthDate, &u.IsValid, &u.CreatedAt,
		&listID, &listName, &listCreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	res := &models.UserWithTodolist{User: u}
	if listID.Valid {
		res.Todolist = &models.Todolist{
			ID:        listID.String,
			Name:      listName.String,
			UserID:    u.ID,
			CreatedAt: listCreatedAt.Time,
		}
	}
	return res, nil
}

func (r *PostgresRepository) SetValid(ctx context.Context, id string, valid bool) error {
	query := `UPDATE users SET is_valid = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, valid)
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
