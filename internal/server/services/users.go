package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/validation"
)

// minCreatorAge is the youngest age allowed to add items.
const minCreatorAge = 13

type UserService struct {
	options
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cfg         *config.Config
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...Option) *UserService {
	return &UserService{options: newOptions("users", opts), db: db, repomanager: m, cfg: cfg}
}

// Register stores a new, valid user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, draft models.UserDraft) (*models.User, error) {
	if err := validation.Check(s.validator, draft); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(draft.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		ID:           uuid.NewString(),
		FirstName:    draft.FirstName,
		LastName:     draft.LastName,
		Email:        draft.Email,
		PasswordHash: hash,
		BirthDate:    draft.BirthDate,
		IsValid:      true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login returns an access token. Unknown emails and wrong passwords both
// yield ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", common.ErrorUnauthorized
	}

	return auth.GenerateToken(user.ID, []byte(s.cfg.SecretKey), s.cfg.AccessTokenValidityDuration)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, common.ErrUserNotFound
	}
	user, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) SetValid(ctx context.Context, id string, valid bool) error {
	if err := uuid.Validate(id); err != nil {
		return common.ErrUserNotFound
	}
	if err := s.repomanager.Users(s.db).SetValid(ctx, id, valid); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return err
	}
	return nil
}

// CanCreateItems allows item creation only when the todo-list owner is a
// valid user with well-formed fields who is at least 13 years old.
func (s *UserService) CanCreateItems(ctx context.Context, todolistID string) error {
	list, err := s.repomanager.Todolists(s.db).FindByID(ctx, todolistID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrTodolistNotFound
		}
		return err
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, list.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return err
	}

	if !user.IsValid {
		return common.ErrUserNotAllowed
	}
	if violations, err := s.validator.Validate(user); err != nil || len(violations) > 0 {
		return common.ErrUserNotAllowed
	}
	if ageAt(user.BirthDate, s.now()) < minCreatorAge {
		return common.ErrUserNotAllowed
	}
	return nil
}

func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
