// Package models defines server-side data models persisted in the database.
package models

import "time"

// User owns at most one Todolist. Only IsValid changes after creation.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstname" validate:"required,max=255"`
	LastName     string    `json:"lastname" validate:"required,max=255"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	BirthDate    time.Time `json:"birthDate" validate:"required"`
	IsValid      bool      `json:"isValid"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserDraft is the registration input. Password is plain text and is
// hashed before it reaches the store.
type UserDraft struct {
	FirstName string    `json:"firstname" validate:"required,max=255"`
	LastName  string    `json:"lastname" validate:"required,max=255"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"password" validate:"required,min=8,max=40"`
	BirthDate time.Time `json:"birthDate" validate:"required"`
}

// UserWithTodolist is a user together with its todo-list relation.
// Todolist is nil when the user owns none.
type UserWithTodolist struct {
	User     *User
	Todolist *Todolist
}
