package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/metrics"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/services"
)

const secret = "test-secret"

// ---- fakes ----

type fakeUsers struct {
	registered *models.User
	err        error
	token      string
}

func (f *fakeUsers) Register(_ context.Context, d models.UserDraft) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-new", Email: d.Email, FirstName: d.FirstName}, nil
}
func (f *fakeUsers) Login(context.Context, string, string) (string, error) { return f.token, f.err }
func (f *fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Email: "ada@example.com"}, nil
}

type fakeTodolists struct {
	owners    map[string]string
	createErr error
	deleted   []string
}

func (f *fakeTodolists) Create(_ context.Context, d models.TodolistDraft) (*models.Todolist, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Todolist{ID: "t-new", Name: d.Name, UserID: d.UserID}, nil
}
func (f *fakeTodolists) Get(_ context.Context, id string) (*models.TodolistWithItems, error) {
	return &models.TodolistWithItems{Todolist: &models.Todolist{ID: id}, Items: []*models.Item{}}, nil
}
func (f *fakeTodolists) List(_ context.Context, userID string) ([]*models.Todolist, error) {
	out := []*models.Todolist{}
	for id, owner := range f.owners {
		if owner == userID {
			out = append(out, &models.Todolist{ID: id, UserID: owner})
		}
	}
	return out, nil
}
func (f *fakeTodolists) Rename(_ context.Context, id, name string) (*models.Todolist, error) {
	return &models.Todolist{ID: id, Name: name}, nil
}
func (f *fakeTodolists) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeTodolists) EnsureOwner(_ context.Context, todolistID, userID string) error {
	if f.owners[todolistID] != userID {
		return common.ErrTodolistNotFound
	}
	return nil
}

type fakeItems struct {
	byID      map[string]*models.Item
	createErr error
	updateErr error
}

func (f *fakeItems) Create(_ context.Context, d models.ItemDraft) (*models.Item, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Item{ID: "i-new", Name: d.Name, Content: d.Content, TodolistID: d.TodolistID}, nil
}
func (f *fakeItems) Get(_ context.Context, id string) (*models.Item, error) {
	it, ok := f.byID[id]
	if !ok {
		return nil, common.ErrItemNotFound
	}
	return it, nil
}
func (f *fakeItems) ListByTodolist(_ context.Context, todolistID string) ([]*models.Item, error) {
	out := []*models.Item{}
	for _, it := range f.byID {
		if it.TodolistID == todolistID {
			out = append(out, it)
		}
	}
	return out, nil
}
func (f *fakeItems) Update(_ context.Context, id string, _ models.ItemPatch) (*models.UpdateResult, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.UpdateResult{ID: id, Affected: 1}, nil
}
func (f *fakeItems) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

type fakeExports struct{}

func (fakeExports) Export(_ context.Context, id string) (*services.Export, error) {
	return &services.Export{Key: "exports/" + id, URL: "https://s3.local/" + id}, nil
}

// ---- helpers ----

type testAPI struct {
	handler   http.Handler
	todolists *fakeTodolists
	items     *fakeItems
	users     *fakeUsers
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ts := &fakeTodolists{owners: map[string]string{"t1": "u1", "t2": "u2"}}
	is := &fakeItems{byID: map[string]*models.Item{
		"i1": {ID: "i1", Name: "milk", TodolistID: "t1"},
		"i2": {ID: "i2", Name: "beer", TodolistID: "t2"},
	}}
	us := &fakeUsers{token: "tok"}
	h := NewHandler(us, ts, is, fakeExports{}, logging.Nop())
	srv := NewServer(":0", h, logging.Nop(), Options{Secret: secret, Metrics: metrics.New()})
	return &testAPI{handler: srv.Handler(), todolists: ts, items: is, users: us}
}

func (a *testAPI) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		token, err := auth.GenerateToken(userID, []byte(secret), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ---- tests ----

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/todolists", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errorBody{StatusCode: 401, Message: "authentication required"}, decodeError(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/todolists", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/users", "", `{"firstname":"Ada","email":"ada@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(t, http.MethodPost, "/users", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/login", "", `{"email":"ada@example.com","password":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accessToken":"tok"}`, rec.Body.String())

	api.users.err = common.ErrorUnauthorized
	rec = api.do(t, http.MethodPost, "/auth/login", "", `{"email":"ada@example.com","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.users.err = common.ErrEmailTaken
	rec = api.do(t, http.MethodPost, "/users", "", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetUser_OnlySelf(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/users/u1", "u1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/users/u2", "u1", "").Code)
}

func TestTodolistRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/todolists", "u3", `{"name":"groceries"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u3"`)

	api.todolists.createErr = fmt.Errorf("%w", common.ErrUserAlreadyHasTodolist)
	rec = api.do(t, http.MethodPost, "/todolists", "u1", `{"name":"again"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.ErrUserAlreadyHasTodolist.Error(), decodeError(t, rec).Message)

	api.todolists.createErr = common.ErrUserNotFound
	rec = api.do(t, http.MethodPost, "/todolists", "ghost", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/todolists", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"t1"`)
	assert.NotContains(t, rec.Body.String(), `"id":"t2"`)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/todolists/t1", "u1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/todolists/t2", "u1", "").Code)

	rec = api.do(t, http.MethodPut, "/todolists/t1", "u1", `{"name":"weekend"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"weekend"`)

	rec = api.do(t, http.MethodPost, "/todolists/t1/export", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"url":"https://s3.local/t1"`)

	rec = api.do(t, http.MethodGet, "/todolists/t1/items", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"i1"`)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/todolists/t2", "u1", "").Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/todolists/t1", "u1", "").Code)
	assert.Equal(t, []string{"t1"}, api.todolists.deleted)
}

func TestCreateItem_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "created", want: http.StatusCreated},
		{name: "capacity", err: fmt.Errorf("%w: 10 of 10 items", common.ErrCapacityExceeded), want: http.StatusBadRequest},
		{name: "too soon", err: common.ErrTooSoonAfterLastCreation, want: http.StatusBadRequest},
		{name: "invalid", err: common.ErrInvalidFields, want: http.StatusBadRequest},
		{name: "content", err: common.ErrContentTooLong, want: http.StatusBadRequest},
		{name: "unique", err: common.ErrNameNotUnique, want: http.StatusBadRequest},
		{name: "persistence", err: common.ErrPersistenceFailure, want: http.StatusBadRequest},
		{name: "not allowed", err: common.ErrUserNotAllowed, want: http.StatusBadRequest},
		{name: "internal", err: fmt.Errorf("db error: %w", context.DeadlineExceeded), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			api.items.createErr = tt.err

			rec := api.do(t, http.MethodPost, "/items", "u1", `{"name":"eggs","todolistId":"t1"}`)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.Equal(t, errorBody{StatusCode: 500, Message: "internal server error"}, decodeError(t, rec))
			}
			if tt.err != nil && tt.want == http.StatusBadRequest {
				assert.Equal(t, tt.err.Error(), decodeError(t, rec).Message)
			}
		})
	}
}

func TestCreateItem_OtherTenantsList(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/items", "u1", `{"name":"eggs","todolistId":"t2"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemRoutes(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/items/i1", "u1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/items/i2", "u1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/items/nope", "u1", "").Code)

	rec := api.do(t, http.MethodPut, "/items/i1", "u1", `{"name":"oat milk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"i1","affected":1}`, rec.Body.String())

	api.items.updateErr = common.ErrNameNotUnique
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/items/i1", "u1", `{"name":"x"}`).Code)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/items/i2", "u1", "").Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/items/i1", "u1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/items/i1", "u1", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `todolist_http_requests_total{method="GET",route="GET /health",status="200"} 1`)
}
