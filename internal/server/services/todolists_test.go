package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/models"
)

func TestTodolistCreate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	store := newMemStore(func() time.Time { return baseTime })
	user := store.addUser(&models.User{Email: "ada@example.com", IsValid: true})
	svc := NewTodolistService(db, &fakeRepoManager{store: store})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	list, err := svc.Create(ctx, models.TodolistDraft{Name: "groceries", UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, user.ID, list.UserID)
	assert.NotEmpty(t, list.ID)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(ctx, models.TodolistDraft{Name: "second", UserID: user.ID})
	require.ErrorIs(t, err, common.ErrUserAlreadyHasTodolist)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(ctx, models.TodolistDraft{Name: "orphan", UserID: uuid.NewString()})
	require.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = svc.Create(ctx, models.TodolistDraft{Name: "", UserID: "nope"})
	require.ErrorIs(t, err, common.ErrInvalidFields)
	assert.Contains(t, err.Error(), "name should not be empty")
	assert.Contains(t, err.Error(), "userId must be a UUID")

	lists, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTodolistGetRename(t *testing.T) {
	db, _ := newSQLMockDB(t)
	store := newMemStore(func() time.Time { return baseTime })
	user := store.addUser(&models.User{Email: "ada@example.com"})
	list := store.addTodolist(user.ID)
	store.addItem(list.ID, "milk", "", baseTime)
	svc := NewTodolistService(db, &fakeRepoManager{store: store})
	ctx := context.Background()

	got, err := svc.Get(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, list.ID, got.Todolist.ID)
	assert.Len(t, got.Items, 1)

	_, err = svc.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, common.ErrTodolistNotFound)
	_, err = svc.Get(ctx, "bad")
	require.ErrorIs(t, err, common.ErrTodolistNotFound)

	renamed, err := svc.Rename(ctx, list.ID, "weekend")
	require.NoError(t, err)
	assert.Equal(t, "weekend", renamed.Name)

	_, err = svc.Rename(ctx, list.ID, strings.Repeat("x", 256))
	require.ErrorIs(t, err, common.ErrInvalidFields)

	_, err = svc.Rename(ctx, uuid.NewString(), "x")
	require.ErrorIs(t, err, common.ErrTodolistNotFound)
}

func TestTodolistDelete_RemovesItemsInBulk(t *testing.T) {
	db, mock := newSQLMockDB(t)
	store := newMemStore(func() time.Time { return baseTime })
	user := store.addUser(&models.User{Email: "ada@example.com"})
	list := store.addTodolist(user.ID)
	other := store.addTodolist(uuid.NewString())
	a := store.addItem(list.ID, "a", "", baseTime)
	b := store.addItem(list.ID, "b", "", baseTime)
	store.addItem(other.ID, "keep", "", baseTime)
	svc := NewTodolistService(db, &fakeRepoManager{store: store})

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(context.Background(), list.ID))

	assert.ElementsMatch(t, []string{a.ID, b.ID}, store.deleteManyIDs)
	assert.Equal(t, 0, store.countItems(list.ID))
	assert.Equal(t, 1, store.countItems(other.ID))

	mock.ExpectBegin()
	mock.ExpectRollback()
	require.ErrorIs(t, svc.Delete(context.Background(), list.ID), common.ErrTodolistNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTodolistEnsureOwner(t *testing.T) {
	db, _ := newSQLMockDB(t)
	store := newMemStore(func() time.Time { return baseTime })
	user := store.addUser(&models.User{Email: "ada@example.com"})
	list := store.addTodolist(user.ID)
	svc := NewTodolistService(db, &fakeRepoManager{store: store})
	ctx := context.Background()

	require.NoError(t, svc.EnsureOwner(ctx, list.ID, user.ID))
	require.ErrorIs(t, svc.EnsureOwner(ctx, list.ID, uuid.NewString()), common.ErrTodolistNotFound)
	require.ErrorIs(t, svc.EnsureOwner(ctx, uuid.NewString(), user.ID), common.ErrTodolistNotFound)
	require.ErrorIs(t, svc.EnsureOwner(ctx, "bad", user.ID), common.ErrTodolistNotFound)
}
