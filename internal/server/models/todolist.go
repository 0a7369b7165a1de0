package models

import "time"

type Todolist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type TodolistDraft struct {
	Name   string `json:"name" validate:"required,max=255"`
	UserID string `json:"userId" validate:"required,uuid"`
}

// TodolistWithItems is a todo-list with its items, newest first.
type TodolistWithItems struct {
	Todolist *Todolist `json:"todolist"`
	Items    []*Item   `json:"items"`
}
