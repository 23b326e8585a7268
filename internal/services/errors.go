package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every business error returned by this package unwraps to one of them.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrTaskNotFound     = newKindError(ErrNotFound, "task not found")
	ErrCommentNotFound  = newKindError(ErrNotFound, "comment not found")
	ErrSubtaskNotFound  = newKindError(ErrNotFound, "subtask not found")
	ErrUserNotFound     = newKindError(ErrNotFound, "user not found")
	ErrCategoryNotFound = newKindError(ErrNotFound, "category not found")

	ErrNotTaskOwner            = newKindError(ErrPermissionDenied, "only the task owner can perform this action")
	ErrTaskNotPublic           = newKindError(ErrPermissionDenied, "only the owner can comment on a private task")
	ErrNotCommentAuthor        = newKindError(ErrPermissionDenied, "only the comment author can edit this comment")
	ErrCommentDeletePermission = newKindError(ErrPermissionDenied, "only the comment author or an admin can delete this comment")
	ErrAdminRequired           = newKindError(ErrPermissionDenied, "administrator privileges required")
	ErrCannotDeleteSelf        = newKindError(ErrPermissionDenied, "administrators cannot delete their own account")

	ErrCommentDeleted     = newKindError(ErrInvalidState, "comment has been deleted")
	ErrAINoTasksGenerated = newKindError(ErrInvalidState, "AI did not generate any tasks")
	ErrAINoValidTasks     = newKindError(ErrInvalidState, "no valid tasks could be created from AI output")

	ErrTaskModified  = newKindError(ErrConflict, "task was modified concurrently, reload and retry")
	ErrUsernameTaken = newKindError(ErrConflict, "username already exists")
	ErrEmailTaken    = newKindError(ErrConflict, "email already exists")

	ErrPasswordTooShort = &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
)

var (
	ErrInvalidCredentials     = errors.New("invalid email/username or password")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
)

// ValidationError reports the field that violated a constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsBusinessError reports whether err is one of the expected kinds rather than
// a persistence or programming failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidCredentials)
}
