package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yukikurage/taskboard/internal/database"
	"github.com/yukikurage/taskboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns maps accepted sort keys to ORDER BY expressions.
var sortColumns = map[string]string{
	"created_at": "tasks.created_at",
	"updated_at": "tasks.updated_at",
	"title":      "tasks.title",
	"status":     "tasks.status",
	"priority":   "CASE tasks.priority WHEN 'critical' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END",
	"due_date":   "tasks.due_date",
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in any
// supported dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// IsSortKey reports whether key is accepted by TaskFilter.SortBy.
func IsSortKey(key string) bool {
	_, ok := sortColumns[key]
	return ok
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.OwnerID != nil {
		query = query.Where("tasks.owner_id = ?", *filter.OwnerID)
	}
	if filter.Visibility != nil {
		query = query.Where("tasks.visibility = ?", *filter.Visibility)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("tasks.category = ?", models.NormalizeCategory(filter.Category))
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array, so match the quoted element.
		quoted, err := json.Marshal(filter.Tag)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode tag filter: %w", err)
		}
		query = query.Where("tasks.tags LIKE ? ESCAPE '!'", "%"+escapeLike(string(quoted))+"%")
	}
	if filter.DueBefore != nil {
		query = query.Where("tasks.due_date <= ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueAfter)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("LOWER(tasks.title) LIKE ? ESCAPE '!' OR LOWER(tasks.description) LIKE ? ESCAPE '!'", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(orderClause(filter))
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	var tasks []models.Task
	if err := listQuery.Preload("Owner").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListPublic retrieves public tasks of every owner
func (r *GormTaskRepository) ListPublic(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	public := models.VisibilityPublic
	filter.Visibility = &public
	filter.OwnerID = nil
	return r.List(ctx, filter)
}

// ListByOwner returns every task owned by a user
func (r *GormTaskRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListWithComments returns tasks whose comment document mentions the author id.
// Callers still match comments by AuthorID.
func (r *GormTaskRepository) ListWithComments(ctx context.Context, authorID uint64) ([]models.Task, error) {
	var tasks []models.Task
	pattern := fmt.Sprintf(`%%"author_id":%d,%%`, authorID)
	if err := r.db.WithContext(ctx).Where("comments LIKE ?", pattern).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save replaces the task document. The update only matches the version the
// task was loaded with; on success the in-memory version is advanced.
func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	current := task.Version
	task.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(task).
		Where("version = ?", current).
		Select("*").
		Omit("ID", "OwnerID", "CreatedAt", clause.Associations).
		Updates(task)
	if result.Error != nil {
		task.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		task.Version = current
		return ErrVersionConflict
	}

	return nil
}

// Delete removes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}

// CategoryCounts groups tasks by normalized category
func (r *GormTaskRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("LOWER(TRIM(category)) AS name, COUNT(*) AS count").
		Where("category IS NOT NULL AND TRIM(category) <> ''").
		Group("LOWER(TRIM(category))").
		Order("name").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func orderClause(filter TaskFilter) string {
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		return "tasks.created_at DESC, tasks.id DESC"
	}
	if filter.SortBy == "due_date" {
		return fmt.Sprintf("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, %s %s, tasks.id", column, direction)
	}
	return fmt.Sprintf("%s %s, tasks.id %s", column, direction, direction)
}
