package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
)

var validate = validator.New()

// AuthService handles authentication related business logic.
type AuthService struct {
	users    repository.UserRepository
	hashCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{
		users:    users,
		hashCost: bcrypt.DefaultCost,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a regular user.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	user, err := newUser(input, models.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := ensureUnique(ctx, s.users, user.Email, user.Username, 0); err != nil {
		return nil, err
	}

	user.PasswordHash, err = hashPassword(input.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication. Login is an email
// address or a username.
type LoginInput struct {
	Login    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.users.FindByEmailOrUsername(ctx, input.Login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func newUser(input RegisterInput, role models.UserRole) (*models.User, error) {
	username, err := validateUsername(input.Username)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	firstName, err := validatePersonName("first_name", input.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := validatePersonName("last_name", input.LastName)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if !role.Valid() {
		return nil, NewValidationError("role", "invalid role %q", role)
	}

	return &models.User{
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	}, nil
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < constants.MinUsernameLength || n > constants.MaxUsernameLength {
		return "", NewValidationError("username", "username must be %d to %d characters",
			constants.MinUsernameLength, constants.MaxUsernameLength)
	}
	if strings.ContainsAny(username, " \t\n@") {
		return "", NewValidationError("username", "username must not contain spaces or @")
	}
	return username, nil
}

func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if validate.Var(email, "required,email") != nil {
		return "", NewValidationError("email", "invalid email address")
	}
	return email, nil
}

func validatePersonName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < constants.MinPersonNameLength || n > constants.MaxPersonNameLength {
		return "", NewValidationError(field, "%s must be %d to %d characters",
			field, constants.MinPersonNameLength, constants.MaxPersonNameLength)
	}
	return name, nil
}

func ensureUnique(ctx context.Context, users repository.UserRepository, email, username string, excludeID uint64) error {
	emailTaken, usernameTaken, err := users.ExistsByEmailOrUsername(ctx, email, username, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if emailTaken {
		return ErrEmailTaken
	}
	if usernameTaken {
		return ErrUsernameTaken
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
