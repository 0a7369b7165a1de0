package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/metrics"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/items"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/validation"
)

// CreationGate decides whether items may be added to a todo-list at all.
type CreationGate interface {
	CanCreateItems(ctx context.Context, todolistID string) error
}

// ItemLimits are the admission limits of a todo-list.
type ItemLimits struct {
	MaxItems         int
	Cooldown         time.Duration
	MaxContentLength int
}

// ItemService runs the admission pipeline on creation and the reduced
// pipeline on update. Each pipeline holds the todo-list row lock for its
// whole check-then-write sequence.
type ItemService struct {
	options
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    *Notifier
	gate        CreationGate
	limits      ItemLimits
}

func NewItemService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, notifier *Notifier, gate CreationGate, opts ...Option) *ItemService {
	return &ItemService{
		options:     newOptions("items", opts),
		db:          db,
		repomanager: m,
		notifier:    notifier,
		gate:        gate,
		limits: ItemLimits{
			MaxItems:         cfg.MaxItemsPerTodolist,
			Cooldown:         cfg.CreationCooldown,
			MaxContentLength: cfg.MaxContentLength,
		},
	}
}

// Create admits a new item. Checks run in this order and stop at the first
// failure: capacity, cooldown since the latest item, field validation,
// content length, name uniqueness. The capacity notification runs after
// commit and never fails the creation.
func (s *ItemService) Create(ctx context.Context, draft models.ItemDraft) (*models.Item, error) {
	if draft.TodolistID == "" {
		return nil, s.rejected(fmt.Errorf("%w: todolistId should not be empty", common.ErrInvalidFields))
	}
	if err := uuid.Validate(draft.TodolistID); err != nil {
		return nil, s.rejected(common.ErrTodolistNotFound)
	}

	if s.gate != nil {
		if err := s.gate.CanCreateItems(ctx, draft.TodolistID); err != nil {
			return nil, s.rejected(err)
		}
	}

	var created *models.Item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Todolists(tx).LockByID(ctx, draft.TodolistID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTodolistNotFound
			}
			return err
		}

		repo := s.repomanager.Items(tx)
		current, err := repo.FindByTodolist(ctx, draft.TodolistID)
		if err != nil {
			return err
		}

		if err := s.checkCapacity(current); err != nil {
			return err
		}
		if err := s.checkCooldown(ctx, repo, draft.TodolistID, current); err != nil {
			return err
		}
		if err := validation.Check(s.validator, draft); err != nil {
			return err
		}
		if _, err := s.checkContentLength(draft.Content); err != nil {
			return err
		}
		candidate := &models.Item{
			ID:         uuid.NewString(),
			Name:       draft.Name,
			Content:    draft.Content,
			TodolistID: draft.TodolistID,
			CreatedAt:  s.now(),
		}
		if err := checkUniqueName(current, candidate, ""); err != nil {
			return err
		}

		saved, err := repo.Create(ctx, candidate)
		if err != nil {
			return err
		}
		if saved == nil {
			return common.ErrPersistenceFailure
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	s.metrics.ObserveAdmission(metrics.OutcomeAccepted, "")
	s.logger.Info(ctx, "item created", "item_id", created.ID, "todolist_id", created.TodolistID)

	if s.notifier != nil {
		if _, err := s.notifier.MaybeNotify(ctx, created.TodolistID); err != nil {
			s.logger.Warn(ctx, "capacity notification failed", "todolist_id", created.TodolistID, "error", err)
		}
	}

	return created, nil
}

// Update applies patch to the item. Capacity and cooldown are not checked.
// The merged item must pass field validation, be unique by name (its own
// stored record is left out of the set) and respect the content length.
func (s *ItemService) Update(ctx context.Context, id string, patch models.ItemPatch) (*models.UpdateResult, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, common.ErrItemNotFound
	}

	var result *models.UpdateResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Items(tx)
		item, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrItemNotFound
			}
			return err
		}

		if _, err := s.repomanager.Todolists(tx).LockByID(ctx, item.TodolistID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrItemNotFound
			}
			return err
		}

		current, err := repo.FindByTodolist(ctx, item.TodolistID)
		if err != nil {
			return err
		}

		merged := patch.Apply(*item)
		if err := validation.Check(s.validator, models.ItemDraft{
			Name:       merged.Name,
			Content:    merged.Content,
			TodolistID: merged.TodolistID,
		}); err != nil {
			return err
		}
		if err := checkUniqueName(current, &merged, item.ID); err != nil {
			return err
		}
		if _, err := s.checkContentLength(merged.Content); err != nil {
			return err
		}

		n, err := repo.UpdateByID(ctx, id, merged.Name, merged.Content)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ErrItemNotFound
		}
		result = &models.UpdateResult{ID: id, Affected: n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "item updated", "item_id", id)
	return result, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, common.ErrItemNotFound
	}
	item, err := s.repomanager.Items(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// ListByTodolist returns the items of a todo-list, newest first.
func (s *ItemService) ListByTodolist(ctx context.Context, todolistID string) ([]*models.Item, error) {
	if err := uuid.Validate(todolistID); err != nil {
		return nil, common.ErrTodolistNotFound
	}
	if _, err := s.repomanager.Todolists(s.db).FindByID(ctx, todolistID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTodolistNotFound
		}
		return nil, err
	}
	return s.repomanager.Items(s.db).FindByTodolist(ctx, todolistID)
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	if err := uuid.Validate(id); err != nil {
		return common.ErrItemNotFound
	}
	n, err := s.repomanager.Items(s.db).DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrItemNotFound
	}
	s.logger.Info(ctx, "item deleted", "item_id", id)
	return nil
}

// Remove deletes the given items with one bulk statement and returns how
// many rows went away.
func (s *ItemService) Remove(ctx context.Context, list []*models.Item) (int64, error) {
	return removeItems(ctx, s.repomanager.Items(s.db), list)
}

func removeItems(ctx context.Context, repo items.Repository, list []*models.Item) (int64, error) {
	ids := make([]string, 0, len(list))
	for _, it := range list {
		ids = append(ids, it.ID)
	}
	return repo.DeleteMany(ctx, ids)
}

func (s *ItemService) checkCapacity(current []*models.Item) error {
	if len(current) >= s.limits.MaxItems {
		return fmt.Errorf("%w: %d of %d items", common.ErrCapacityExceeded, len(current), s.limits.MaxItems)
	}
	return nil
}

// checkCooldown refuses a creation while the latest item of the list is
// younger than the cooldown. An elapsed time equal to the cooldown passes.
func (s *ItemService) checkCooldown(ctx context.Context, repo items.Repository, todolistID string, current []*models.Item) error {
	if len(current) == 0 {
		return nil
	}
	latest, err := repo.FindLatestByTodolist(ctx, todolistID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	if latest.CreatedAt.IsZero() {
		return nil
	}

	// CreatedAt is stamped from the same clock on insert.
	elapsed := s.now().Sub(latest.CreatedAt)
	if elapsed < s.limits.Cooldown {
		return fmt.Errorf("%w: last item created %s ago, limit is %s",
			common.ErrTooSoonAfterLastCreation, elapsed.Truncate(time.Second), s.limits.Cooldown)
	}
	return nil
}

// checkContentLength reports false for empty content, which is not
// checked. Length is counted in runes.
func (s *ItemService) checkContentLength(content string) (bool, error) {
	if content == "" {
		return false, nil
	}
	if n := utf8.RuneCountInString(content); n >= s.limits.MaxContentLength {
		return true, fmt.Errorf("%w: %d characters, must be less than %d", common.ErrContentTooLong, n, s.limits.MaxContentLength)
	}
	return true, nil
}

// checkUniqueName appends candidate to current (minus excludeID), drops
// later duplicates by name and fails if anything was dropped.
func checkUniqueName(current []*models.Item, candidate *models.Item, excludeID string) error {
	set := make([]*models.Item, 0, len(current)+1)
	for _, it := range current {
		if excludeID != "" && it.ID == excludeID {
			continue
		}
		set = append(set, it)
	}
	set = append(set, candidate)

	if len(uniqueByName(set)) != len(set) {
		return fmt.Errorf("%w: %q", common.ErrNameNotUnique, candidate.Name)
	}
	return nil
}

func uniqueByName(list []*models.Item) []*models.Item {
	seen := make(map[string]struct{}, len(list))
	out := make([]*models.Item, 0, len(list))
	for _, it := range list {
		if _, ok := seen[it.Name]; ok {
			continue
		}
		seen[it.Name] = struct{}{}
		out = append(out, it)
	}
	return out
}

func (s *ItemService) rejected(err error) error {
	reason := rejectionReason(err)
	outcome := metrics.OutcomeRejected
	if reason == "" {
		outcome, reason = metrics.OutcomeFailed, "internal"
	}
	s.metrics.ObserveAdmission(outcome, reason)
	return err
}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{common.ErrCapacityExceeded, "capacity_exceeded"},
	{common.ErrTooSoonAfterLastCreation, "too_soon"},
	{common.ErrInvalidFields, "invalid_fields"},
	{common.ErrUnknownValidationFailure, "unknown_validation"},
	{common.ErrContentTooLong, "content_too_long"},
	{common.ErrNameNotUnique, "name_not_unique"},
	{common.ErrPersistenceFailure, "persistence_failure"},
	{common.ErrTodolistNotFound, "todolist_not_found"},
	{common.ErrUserNotFound, "user_not_found"},
	{common.ErrUserNotAllowed, "user_not_allowed"},
}

func rejectionReason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ""
}
