package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/utils"
)

// UserService implements the admin user panel.
type UserService struct {
	store    repository.Store
	tasks    *TaskService
	logger   *zap.Logger
	hashCost int
}

// NewUserService creates a new UserService. tasks performs the task cleanup
// when a user is deleted.
func NewUserService(store repository.Store, tasks *TaskService, logger *zap.Logger) *UserService {
	return &UserService{
		store:    store,
		tasks:    tasks,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

// CreateUserInput represents an admin-created account.
type CreateUserInput struct {
	RegisterInput
	Role models.UserRole
}

// UpdateUserInput represents changed user fields. Empty values are left unchanged.
type UpdateUserInput struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Role      *models.UserRole
}

// DeleteUserResult reports what was removed with the user.
type DeleteUserResult struct {
	TasksDeleted     int `json:"tasks_deleted"`
	CommentsRedacted int `json:"comments_redacted"`
}

// ListUsers returns a page of users.
func (s *UserService) ListUsers(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.store.Users().List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateUser creates an account with the given role.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := newUser(input.RegisterInput, role)
	if err != nil {
		return nil, err
	}
	if err := ensureUnique(ctx, s.store.Users(), user.Email, user.Username, 0); err != nil {
		return nil, err
	}

	user.PasswordHash, err = hashPassword(input.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", zap.Uint64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser changes profile fields, role and optionally the password.
func (s *UserService) UpdateUser(ctx context.Context, id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if user.Username, err = validateUsername(*input.Username); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		if user.Email, err = validateEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.FirstName != nil {
		if user.FirstName, err = validatePersonName("first_name", *input.FirstName); err != nil {
			return nil, err
		}
	}
	if input.LastName != nil {
		if user.LastName, err = validatePersonName("last_name", *input.LastName); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, NewValidationError("role", "invalid role %q", *input.Role)
		}
		user.Role = *input.Role
	}

	if input.Username != nil || input.Email != nil {
		if err := ensureUnique(ctx, s.store.Users(), user.Email, user.Username, user.ID); err != nil {
			return nil, err
		}
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		if user.PasswordHash, err = hashPassword(*input.Password, s.hashCost); err != nil {
			return nil, err
		}
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user together with their tasks, and soft-deletes their
// comments on other users' tasks with admin recorded as the deleter.
func (s *UserService) DeleteUser(ctx context.Context, id uint64, admin Actor) (*DeleteUserResult, error) {
	if id == admin.ID {
		return nil, ErrCannotDeleteSelf
	}

	var result DeleteUserResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		var err error
		if result.TasksDeleted, err = s.tasks.DeleteOwnedTasks(ctx, tx, id); err != nil {
			return err
		}
		if result.CommentsRedacted, err = s.tasks.RedactAuthorComments(ctx, tx, id, admin); err != nil {
			return err
		}
		if err := tx.Users().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		if !IsBusinessError(err) {
			s.logger.Error("delete user failed", zap.Error(err), zap.Uint64("user_id", id))
		}
		return nil, err
	}

	s.logger.Info("user deleted",
		zap.Uint64("user_id", id),
		zap.Uint64("admin_id", admin.ID),
		zap.Int("tasks_deleted", result.TasksDeleted),
		zap.Int("comments_redacted", result.CommentsRedacted),
	)
	return &result, nil
}
