package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/utils"
)

// ErrVersionConflict is returned by Save when the stored task changed since it was loaded.
var ErrVersionConflict = errors.New("repository: task version conflict")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListPublic retrieves public tasks of every owner
	ListPublic(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListByOwner returns every task owned by a user
	ListByOwner(ctx context.Context, ownerID uint64) ([]models.Task, error)

	// ListWithComments returns tasks that may hold comments written by the author
	ListWithComments(ctx context.Context, authorID uint64) ([]models.Task, error)

	// Save replaces the task document if its version is unchanged
	Save(ctx context.Context, task *models.Task) error

	// Delete removes a task
	Delete(ctx context.Context, id uint64) error

	// CategoryCounts groups tasks by normalized category
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OwnerID    *uint64
	Visibility *models.Visibility
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	Category   string
	Tag        string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Search     string
	SortBy     string
	SortAsc    bool
	Pagination utils.PaginationParams
}

// CategoryCount is one group of the category recount.
type CategoryCount struct {
	Name  string
	Count int64
}

// CategoryRepository defines the interface for the category ledger table
type CategoryRepository interface {
	// Increment adds one to the named category, creating it at count 1
	Increment(ctx context.Context, name string) error

	// Decrement subtracts one and removes the row once it reaches zero
	Decrement(ctx context.Context, name string) error

	// ReplaceAll deletes every category and inserts the given counts
	ReplaceAll(ctx context.Context, counts []CategoryCount) error

	// List returns categories ordered by count then name
	List(ctx context.Context) ([]models.Category, error)

	// FindByName finds a category by normalized name
	FindByName(ctx context.Context, name string) (*models.Category, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmailOrUsername finds a user whose email or username equals login
	FindByEmailOrUsername(ctx context.Context, login string) (*models.User, error)

	// ExistsByEmailOrUsername reports which of the two values are already taken,
	// ignoring the user with excludeID
	ExistsByEmailOrUsername(ctx context.Context, email, username string, excludeID uint64) (emailTaken, usernameTaken bool, err error)

	// List retrieves users with pagination
	List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error)

	// Update saves changed user fields
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user
	Delete(ctx context.Context, id uint64) error
}

// Store bundles the repositories and runs them inside a shared transaction.
type Store interface {
	Tasks() TaskRepository
	Categories() CategoryRepository
	Users() UserRepository

	// Transaction runs fn against a Store bound to one database transaction
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
