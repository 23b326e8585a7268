package dto

import (
	"strings"
	"time"

	"github.com/yukikurage/taskboard/internal/models"
)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest accepts the email or the username under any of the three keys
type LoginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns the first non-empty login key
func (r LoginRequest) Identifier() string {
	for _, v := range []string{r.Login, r.Email, r.Username} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// SubtaskRequest is one subtask of a task payload
type SubtaskRequest struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	Status  models.TaskStatus `json:"status"`
	DueDate *time.Time        `json:"due_date"`
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	Visibility  models.Visibility   `json:"visibility"`
	Category    string              `json:"category"`
	Tags        []string            `json:"tags"`
	Subtasks    []SubtaskRequest    `json:"subtasks"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/:id. Absent keys stay nil.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
	Visibility  *models.Visibility   `json:"visibility"`
	Category    *string              `json:"category"`
	Tags        *[]string            `json:"tags"`
	Subtasks    *[]SubtaskRequest    `json:"subtasks"`
}

// AddSubtaskRequest is the body of POST /api/tasks/:id/subtasks
type AddSubtaskRequest struct {
	Title   string     `json:"title" binding:"required"`
	DueDate *time.Time `json:"due_date"`
}

// CommentRequest is the body of comment create and edit
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// VoteRequest is the body of POST /api/tasks/:id/comments/:commentId/vote
type VoteRequest struct {
	Type string `json:"type" binding:"required"`
}

// GenerateTasksRequest is the body of POST /api/tasks/generate
type GenerateTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	RegisterRequest
	Role models.UserRole `json:"role"`
}

// UpdateUserRequest is the body of PUT /api/users/:id
type UpdateUserRequest struct {
	Username  *string          `json:"username"`
	Email     *string          `json:"email"`
	Password  *string          `json:"password"`
	FirstName *string          `json:"first_name"`
	LastName  *string          `json:"last_name"`
	Role      *models.UserRole `json:"role"`
}
