// Package common defines shared constants and sentinel errors used across
// the todolist server layers. Callers should use errors.Is to match these
// values; most of them are returned wrapped with extra detail.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Item admission and update errors.
	ErrCapacityExceeded         = errors.New("todolist has reached its maximum number of items")
	ErrTooSoonAfterLastCreation = errors.New("an item was created too recently in this todolist")
	ErrInvalidFields            = errors.New("invalid fields")
	ErrContentTooLong           = errors.New("item content is too long")
	ErrNameNotUnique            = errors.New("item name must be unique in its todolist")
	ErrPersistenceFailure       = errors.New("item was not created")
	ErrItemNotFound             = errors.New("item not found")

	// ErrUnknownValidationFailure means the validator reported a failure
	// without any constraint detail. It should never happen.
	ErrUnknownValidationFailure = errors.New("unknown validation error")

	// Todolist and user errors.
	ErrTodolistNotFound       = errors.New("todolist not found")
	ErrUserAlreadyHasTodolist = errors.New("user already has a todolist")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserNotAllowed         = errors.New("user is not allowed to create items")
	ErrEmailTaken             = errors.New("email already registered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
