package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/services"
)

type userSvc interface {
	Register(ctx context.Context, draft models.UserDraft) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

type todolistSvc interface {
	Create(ctx context.Context, draft models.TodolistDraft) (*models.Todolist, error)
	Get(ctx context.Context, id string) (*models.TodolistWithItems, error)
	List(ctx context.Context, userID string) ([]*models.Todolist, error)
	Rename(ctx context.Context, id string, name string) (*models.Todolist, error)
	Delete(ctx context.Context, id string) error
	EnsureOwner(ctx context.Context, todolistID, userID string) error
}

type itemSvc interface {
	Create(ctx context.Context, draft models.ItemDraft) (*models.Item, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	ListByTodolist(ctx context.Context, todolistID string) ([]*models.Item, error)
	Update(ctx context.Context, id string, patch models.ItemPatch) (*models.UpdateResult, error)
	Delete(ctx context.Context, id string) error
}

type exportSvc interface {
	Export(ctx context.Context, todolistID string) (*services.Export, error)
}

// Handler serves the REST API. Every todo-list and item route checks that
// the caller owns the todo-list involved.
type Handler struct {
	users     userSvc
	todolists todolistSvc
	items     itemSvc
	exports   exportSvc
	logger    logging.Logger
}

func NewHandler(us userSvc, ts todolistSvc, is itemSvc, es exportSvc, logger logging.Logger) *Handler {
	return &Handler{users: us, todolists: ts, items: is, exports: es, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type todolistRequest struct {
	Name string `json:"name"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), h.logger, w, err)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var draft models.UserDraft
	if err := decode(r, &draft); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

// HandleGetUser only returns the caller's own record.
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id != userIDFrom(r) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleCreateTodolist(w http.ResponseWriter, r *http.Request) {
	var req todolistRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.todolists.Create(r.Context(), models.TodolistDraft{Name: req.Name, UserID: userIDFrom(r)})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *Handler) HandleListTodolists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.todolists.List(r.Context(), userIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *Handler) HandleGetTodolist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.todolists.EnsureOwner(r.Context(), id, userIDFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.todolists.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleRenameTodolist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.todolists.EnsureOwner(r.Context(), id, userIDFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	var req todolistRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.todolists.Rename(r.Context(), id, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleDeleteTodolist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.todolists.EnsureOwner(r.Context(), id, userIDFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.todolists.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleExportTodolist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.todolists.EnsureOwner(r.Context(), id, userIDFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	exp, err := h.exports.Export(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.todolists.EnsureOwner(r.Context(), id, userIDFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.items.ListByTodolist(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	var draft models.ItemDraft
	if err := decode(r, &draft); err != nil {
		h.fail(w, r, err)
		return
	}

	if draft.TodolistID != "" {
		if err := h.todolists.EnsureOwner(r.Context(), draft.TodolistID, userIDFrom(r)); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	item, err := h.items.Create(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	var patch models.ItemPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.items.Update(r.Context(), item.ID, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	if err := h.items.Delete(r.Context(), item.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedItem loads the item named in the path and writes the error response
// itself when the item is missing or belongs to another user.
func (h *Handler) ownedItem(w http.ResponseWriter, r *http.Request) (*models.Item, bool) {
	item, err := h.items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if err := h.todolists.EnsureOwner(r.Context(), item.TodolistID, userIDFrom(r)); err != nil {
		if errors.Is(err, common.ErrTodolistNotFound) {
			err = common.ErrItemNotFound
		}
		h.fail(w, r, err)
		return nil, false
	}
	return item, true
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
