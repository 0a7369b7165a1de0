package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/items"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/todolists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore backs every fake repository. All three repos share it so a
// service sees its own writes across stores.
type memStore struct {
	mu        sync.Mutex
	clock     func() time.Time
	users     map[string]*models.User
	todolists map[string]*models.Todolist
	items     map[string]*models.Item

	// failure injection
	itemsFindErr   error
	itemsCreateNil bool
	userFindErr    error
	deleteManyIDs  []string
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		clock:     clock,
		users:     map[string]*models.User{},
		todolists: map[string]*models.Todolist{},
		items:     map[string]*models.Item{},
	}
}

func (m *memStore) addUser(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addTodolist(userID string) *models.Todolist {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &models.Todolist{ID: uuid.NewString(), Name: "groceries", UserID: userID, CreatedAt: m.clock()}
	m.todolists[l.ID] = l
	return l
}

func (m *memStore) addItem(todolistID, name, content string, createdAt time.Time) *models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := &models.Item{ID: uuid.NewString(), Name: name, Content: content, TodolistID: todolistID, CreatedAt: createdAt}
	m.items[it.ID] = it
	return it
}

func (m *memStore) countItems(todolistID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.TodolistID == todolistID {
			n++
		}
	}
	return n
}

func (m *memStore) itemsOf(todolistID string) []*models.Item {
	out := []*models.Item{}
	for _, it := range m.items {
		if it.TodolistID == todolistID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// --- fake repository manager ---

type fakeRepoManager struct {
	store         *memStore
	migrationsErr error
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return f.migrationsErr }

func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository { return &fakeUsersRepo{f.store} }

func (f *fakeRepoManager) Todolists(dbx.DBTX) todolists.Repository {
	return &fakeTodolistsRepo{f.store}
}

func (f *fakeRepoManager) Items(dbx.DBTX) items.Repository { return &fakeItemsRepo{f.store} }

// --- users ---

type fakeUsersRepo struct{ s *memStore }

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	u.CreatedAt = r.s.clock()
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r *fakeUsersRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userFindErr != nil {
		return nil, r.s.userFindErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) FindByIDWithTodolist(_ context.Context, id string) (*models.UserWithTodolist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := &models.UserWithTodolist{User: u}
	for _, l := range r.s.todolists {
		if l.UserID == id {
			out.Todolist = l
		}
	}
	return out, nil
}

func (r *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) SetValid(_ context.Context, id string, valid bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsValid = valid
	return nil
}

// --- todolists ---

type fakeTodolistsRepo struct{ s *memStore }

func (r *fakeTodolistsRepo) Create(_ context.Context, l *models.Todolist) (*models.Todolist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.CreatedAt = r.s.clock()
	cp := *l
	r.s.todolists[l.ID] = &cp
	return l, nil
}

func (r *fakeTodolistsRepo) FindByID(_ context.Context, id string) (*models.Todolist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.todolists[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeTodolistsRepo) FindByIDWithItems(ctx context.Context, id string) (*models.TodolistWithItems, error) {
	l, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return &models.TodolistWithItems{Todolist: l, Items: r.s.itemsOf(id)}, nil
}

func (r *fakeTodolistsRepo) LockByID(ctx context.Context, id string) (*models.Todolist, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTodolistsRepo) List(_ context.Context, userID string) ([]*models.Todolist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Todolist{}
	for _, l := range r.s.todolists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeTodolistsRepo) Update(_ context.Context, id string, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.todolists[id]
	if !ok {
		return common.ErrorNotFound
	}
	l.Name = name
	return nil
}

func (r *fakeTodolistsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.todolists[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.todolists, id)
	return nil
}

// --- items ---

type fakeItemsRepo struct{ s *memStore }

func (r *fakeItemsRepo) Create(_ context.Context, it *models.Item) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.itemsCreateNil {
		return nil, nil
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = r.s.clock()
	}
	cp := *it
	r.s.items[it.ID] = &cp
	return it, nil
}

func (r *fakeItemsRepo) FindByID(_ context.Context, id string) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *fakeItemsRepo) FindByTodolist(_ context.Context, todolistID string) ([]*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.itemsFindErr != nil {
		return nil, r.s.itemsFindErr
	}
	return r.s.itemsOf(todolistID), nil
}

func (r *fakeItemsRepo) FindLatestByTodolist(_ context.Context, todolistID string) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.itemsOf(todolistID)
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	return list[0], nil
}

func (r *fakeItemsRepo) UpdateByID(_ context.Context, id string, name string, content string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return 0, nil
	}
	it.Name, it.Content = name, content
	return 1, nil
}

func (r *fakeItemsRepo) DeleteByID(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return 0, nil
	}
	delete(r.s.items, id)
	return 1, nil
}

func (r *fakeItemsRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleteManyIDs = append(r.s.deleteManyIDs, ids...)
	var n int64
	for _, id := range ids {
		if _, ok := r.s.items[id]; ok {
			delete(r.s.items, id)
			n++
		}
	}
	return n, nil
}

// --- mail ---

type sentMail struct {
	To, Body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) SendMail(_ context.Context, recipient, template string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.sent = append(f.sent, sentMail{To: recipient, Body: template})
	return true, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeGate struct{ err error }

func (g fakeGate) CanCreateItems(context.Context, string) error { return g.err }

var errBoom = errors.New("boom")
