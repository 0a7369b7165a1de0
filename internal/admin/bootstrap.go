package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

const birthDateLayout = "2006-01-02"

type registrar interface {
	Register(ctx context.Context, draft models.UserDraft) (*models.User, error)
}

type todolistCreator interface {
	Create(ctx context.Context, draft models.TodolistDraft) (*models.Todolist, error)
}

// Bootstrap prompts for a new user, registers it and, when a list name is
// given, creates the user's todo-list.
func Bootstrap(ctx context.Context, in io.Reader, w io.Writer, users registrar, lists todolistCreator) (*models.User, error) {
	reader := bufio.NewReader(in)

	var draft models.UserDraft
	var err error

	if draft.FirstName, err = GetSimpleText(reader, "First name", w); err != nil {
		return nil, err
	}
	if draft.LastName, err = GetSimpleText(reader, "Last name", w); err != nil {
		return nil, err
	}
	if draft.Email, err = GetSimpleText(reader, "Email", w); err != nil {
		return nil, err
	}

	birth, err := GetSimpleText(reader, "Birth date (YYYY-MM-DD)", w)
	if err != nil {
		return nil, err
	}
	if draft.BirthDate, err = time.Parse(birthDateLayout, birth); err != nil {
		return nil, fmt.Errorf("birth date: %w", err)
	}

	if draft.Password, err = GetPassword(w); err != nil {
		return nil, err
	}

	user, err := users.Register(ctx, draft)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "User %s registered\n", user.ID)

	name, err := GetSimpleText(reader, "Todo-list name (empty to skip)", w)
	if err != nil || name == "" {
		return user, nil
	}

	list, err := lists.Create(ctx, models.TodolistDraft{Name: name, UserID: user.ID})
	if err != nil {
		return user, fmt.Errorf("create todolist: %w", err)
	}
	fmt.Fprintf(w, "Todo-list %s created\n", list.ID)
	return user, nil
}
