package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/utils"
)

// TaskService handles task business logic. Every mutation loads the task
// inside a transaction and saves it with a version check.
type TaskService struct {
	store     repository.Store
	suggester TaskSuggester
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewTaskService creates a new TaskService. suggester may be nil.
func NewTaskService(store repository.Store, suggester TaskSuggester, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:     store,
		suggester: suggester,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SubtaskInput is one subtask of a create or update payload. ID refers to an
// existing subtask; unknown ids are treated as new subtasks.
type SubtaskInput struct {
	ID      string
	Title   string
	Status  models.TaskStatus
	DueDate *time.Time
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	Visibility  models.Visibility
	Category    string
	Tags        []string
	Subtasks    []SubtaskInput
}

// UpdateTaskInput represents a partial update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	Visibility   *models.Visibility
	Category     *string
	Tags         *[]string
	Subtasks     *[]SubtaskInput
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
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

// ListTasks returns the actor's own tasks
func (s *TaskService) ListTasks(ctx context.Context, actor Actor, input ListTasksInput) ([]models.Task, int64, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, 0, err
	}
	filter.OwnerID = &actor.ID

	tasks, total, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// ListPublicTasks returns public tasks of every user
func (s *TaskService) ListPublicTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.store.Tasks().ListPublic(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list public tasks: %w", err)
	}
	return tasks, total, nil
}

func (in ListTasksInput) filter() (repository.TaskFilter, error) {
	if in.Status != nil {
		if err := validateStatus("status", *in.Status); err != nil {
			return repository.TaskFilter{}, err
		}
	}
	if in.Priority != nil {
		if err := validatePriority(*in.Priority); err != nil {
			return repository.TaskFilter{}, err
		}
	}
	if in.SortBy != "" && !repository.IsSortKey(in.SortBy) {
		return repository.TaskFilter{}, NewValidationError("sort", "cannot sort by %q", in.SortBy)
	}

	return repository.TaskFilter{
		Status:     in.Status,
		Priority:   in.Priority,
		Category:   in.Category,
		Tag:        strings.TrimSpace(in.Tag),
		DueBefore:  in.DueBefore,
		DueAfter:   in.DueAfter,
		Search:     in.Search,
		SortBy:     in.SortBy,
		SortAsc:    in.SortAsc,
		Pagination: in.Pagination,
	}, nil
}

// GetTask returns a task the actor may read, comments in display order.
// Private tasks of other users are reported as not found.
func (s *TaskService) GetTask(ctx context.Context, taskID uint64, actor Actor) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, taskID, "Owner")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !actor.CanRead(task) {
		return nil, ErrTaskNotFound
	}

	task.Comments = NewCommentStore(task).Ordered()
	return task, nil
}

// GetHistory returns the audit trail of a readable task, oldest first.
func (s *TaskService) GetHistory(ctx context.Context, taskID uint64, actor Actor) ([]models.HistoryEntry, error) {
	task, err := s.GetTask(ctx, taskID, actor)
	if err != nil {
		return nil, err
	}
	if task.History == nil {
		return []models.HistoryEntry{}, nil
	}
	return task.History, nil
}

// CreateTask validates input and stores a task owned by the actor.
func (s *TaskService) CreateTask(ctx context.Context, actor Actor, input CreateTaskInput) (*models.Task, error) {
	task, err := s.newTask(actor, input)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return NewCategoryLedger(tx).Increment(ctx, task.Category)
	})
	if err != nil {
		s.logFailure("create task", err, zap.Uint64("actor_id", actor.ID))
		return nil, err
	}

	return s.GetTask(ctx, task.ID, actor)
}

func (s *TaskService) newTask(actor Actor, input CreateTaskInput) (*models.Task, error) {
	title, err := validateRequired("title", input.Title, constants.MaxTitleLength)
	if err != nil {
		return nil, err
	}
	description, err := validateOptional("description", input.Description, constants.MaxDescriptionLength)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if err := validateStatus("status", status); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if err := validatePriority(priority); err != nil {
		return nil, err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if err := validateVisibility(visibility); err != nil {
		return nil, err
	}

	category, err := normalizeCategoryInput(input.Category)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.resolveSubtasks(nil, input.Subtasks)
	if err != nil {
		return nil, err
	}

	return &models.Task{
		OwnerID:     actor.ID,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     utcPtr(input.DueDate),
		Visibility:  visibility,
		Category:    category,
		Tags:        tags,
		Subtasks:    subtasks,
		Comments:    []models.Comment{},
		History:     []models.HistoryEntry{},
	}, nil
}

// UpdateTask applies a partial update by the owner. The ledger, the history
// and the fields change together or not at all.
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, actor Actor, input UpdateTaskInput) (*models.Task, error) {
	return s.mutate(ctx, "update task", taskID, actor, func(tx repository.Store, task *models.Task) error {
		if !task.IsOwnedBy(actor.ID) {
			return ErrNotTaskOwner
		}

		change, err := s.normalizeUpdate(task, input)
		if err != nil {
			return err
		}

		return s.applyUpdate(ctx, tx, task, change, actor)
	})
}

// ToggleVisibility switches a task between private and public.
func (s *TaskService) ToggleVisibility(ctx context.Context, taskID uint64, actor Actor) (*models.Task, error) {
	return s.mutate(ctx, "toggle visibility", taskID, actor, func(tx repository.Store, task *models.Task) error {
		if !task.IsOwnedBy(actor.ID) {
			return ErrNotTaskOwner
		}

		next := models.VisibilityPublic
		if task.IsPublic() {
			next = models.VisibilityPrivate
		}

		return s.applyUpdate(ctx, tx, task, TaskChange{Visibility: &next}, actor)
	})
}

// DeleteTask removes a task owned by the actor and releases its category.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64, actor Actor) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := s.load(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !task.IsOwnedBy(actor.ID) {
			return ErrNotTaskOwner
		}
		return s.deleteTask(ctx, tx, task)
	})
	if err != nil {
		s.logFailure("delete task", err, zap.Uint64("task_id", taskID), zap.Uint64("actor_id", actor.ID))
		return err
	}
	return nil
}

// DeleteOwnedTasks removes every task of ownerID within tx.
func (s *TaskService) DeleteOwnedTasks(ctx context.Context, tx repository.Store, ownerID uint64) (int, error) {
	tasks, err := tx.Tasks().ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks of user %d: %w", ownerID, err)
	}

	for i := range tasks {
		if err := s.deleteTask(ctx, tx, &tasks[i]); err != nil {
			return 0, err
		}
	}
	return len(tasks), nil
}

func (s *TaskService) deleteTask(ctx context.Context, tx repository.Store, task *models.Task) error {
	if err := NewCategoryLedger(tx).Decrement(ctx, task.Category); err != nil {
		return err
	}
	if err := tx.Tasks().Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AddComment adds a comment. Owners may comment on any of their tasks,
// other users only on public tasks.
func (s *TaskService) AddComment(ctx context.Context, taskID uint64, actor Actor, content string) (*models.Comment, error) {
	var comment models.Comment
	_, err := s.mutate(ctx, "add comment", taskID, actor, func(_ repository.Store, task *models.Task) error {
		if !actor.CanRead(task) {
			return ErrTaskNotFound
		}
		if !task.IsOwnedBy(actor.ID) && !task.IsPublic() {
			return ErrTaskNotPublic
		}

		var err error
		comment, err = s.comments(task).Add(actor, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// EditComment replaces the content of the actor's own comment.
func (s *TaskService) EditComment(ctx context.Context, taskID uint64, commentID string, actor Actor, content string) (*models.Comment, error) {
	var comment models.Comment
	_, err := s.mutate(ctx, "edit comment", taskID, actor, func(_ repository.Store, task *models.Task) error {
		if !actor.CanRead(task) {
			return ErrTaskNotFound
		}

		var err error
		comment, err = s.comments(task).Edit(commentID, content, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment soft-deletes a comment by its author or an admin.
func (s *TaskService) DeleteComment(ctx context.Context, taskID uint64, commentID string, actor Actor) (*models.Comment, error) {
	var comment models.Comment
	_, err := s.mutate(ctx, "delete comment", taskID, actor, func(_ repository.Store, task *models.Task) error {
		if !actor.CanRead(task) {
			return ErrTaskNotFound
		}

		var err error
		comment, err = s.comments(task).SoftDelete(commentID, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// VoteComment toggles the actor's vote on a comment.
func (s *TaskService) VoteComment(ctx context.Context, taskID uint64, commentID string, actor Actor, vote VoteType) (*VoteResult, error) {
	var result VoteResult
	_, err := s.mutate(ctx, "vote comment", taskID, actor, func(_ repository.Store, task *models.Task) error {
		if !actor.CanRead(task) {
			return ErrTaskNotFound
		}

		var err error
		result, err = s.comments(task).Vote(commentID, actor.ID, vote)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RedactAuthorComments soft-deletes every live comment of authorID within tx,
// recording admin as the deleter.
func (s *TaskService) RedactAuthorComments(ctx context.Context, tx repository.Store, authorID uint64, admin Actor) (int, error) {
	tasks, err := tx.Tasks().ListWithComments(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("failed to find comments of user %d: %w", authorID, err)
	}

	redacted := 0
	for i := range tasks {
		task := &tasks[i]
		store := s.comments(task)

		changed := false
		for _, c := range task.Comments {
			if c.AuthorID != authorID || c.Deleted {
				continue
			}
			if _, err := store.SoftDelete(c.ID, admin); err != nil {
				return 0, err
			}
			changed = true
			redacted++
		}

		if !changed {
			continue
		}
		if err := s.save(ctx, tx, task); err != nil {
			return 0, err
		}
	}
	return redacted, nil
}

// AddSubtask appends a subtask to the owner's task.
func (s *TaskService) AddSubtask(ctx context.Context, taskID uint64, actor Actor, title string, dueDate *time.Time) (*models.Task, error) {
	return s.mutateSubtasks(ctx, "add subtask", taskID, actor, func(st *SubtaskStore) error {
		_, err := st.Add(title, dueDate)
		return err
	})
}

// ToggleSubtask flips a subtask between done and todo.
func (s *TaskService) ToggleSubtask(ctx context.Context, taskID uint64, subtaskID string, actor Actor) (*models.Task, error) {
	return s.mutateSubtasks(ctx, "toggle subtask", taskID, actor, func(st *SubtaskStore) error {
		_, err := st.Toggle(subtaskID)
		return err
	})
}

// RemoveSubtask deletes a subtask.
func (s *TaskService) RemoveSubtask(ctx context.Context, taskID uint64, subtaskID string, actor Actor) (*models.Task, error) {
	return s.mutateSubtasks(ctx, "remove subtask", taskID, actor, func(st *SubtaskStore) error {
		_, err := st.Remove(subtaskID)
		return err
	})
}

func (s *TaskService) mutateSubtasks(ctx context.Context, op string, taskID uint64, actor Actor, fn func(st *SubtaskStore) error) (*models.Task, error) {
	return s.mutate(ctx, op, taskID, actor, func(_ repository.Store, task *models.Task) error {
		if !task.IsOwnedBy(actor.ID) {
			return ErrNotTaskOwner
		}

		before := slices.Clone(task.Subtasks)
		if err := fn(&SubtaskStore{task: task, newID: s.newID}); err != nil {
			return err
		}

		entries := s.recorder().DiffSubtasks(before, task.Subtasks, actor)
		task.History = append(task.History, entries...)
		return nil
	})
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

// GenerateTasks asks the suggester for draft tasks. Drafts are not stored.
func (s *TaskService) GenerateTasks(ctx context.Context, actor Actor, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text, err := validateRequired("text", input.Text, constants.MaxAIInputTextLength)
	if err != nil {
		return nil, err
	}

	aiTasks, err := s.suggester.SuggestTasks(ctx, text)
	if err != nil {
		s.logger.Error("task suggestion failed", zap.Error(err), zap.Uint64("actor_id", actor.ID))
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" || len([]rune(aiTask.Title)) > constants.MaxTitleLength {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}
		if category, err := normalizeCategoryInput(aiTask.Category); err == nil {
			aiTask.Category = category
		} else {
			aiTask.Category = ""
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// mutate loads the task inside a transaction, runs fn and saves the result
// with a version check. The returned task lists comments in display order.
func (s *TaskService) mutate(ctx context.Context, op string, taskID uint64, actor Actor, fn func(tx repository.Store, task *models.Task) error) (*models.Task, error) {
	var result *models.Task
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := s.load(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := fn(tx, task); err != nil {
			return err
		}
		if err := s.save(ctx, tx, task); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		s.logFailure(op, err, zap.Uint64("task_id", taskID), zap.Uint64("actor_id", actor.ID))
		return nil, err
	}
	result.Comments = NewCommentStore(result).Ordered()
	return result, nil
}

func (s *TaskService) load(ctx context.Context, tx repository.Store, taskID uint64) (*models.Task, error) {
	task, err := tx.Tasks().FindByID(ctx, taskID, "Owner")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, tx repository.Store, task *models.Task) error {
	if err := tx.Tasks().Save(ctx, task); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrTaskModified
		}
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// applyUpdate adjusts the ledger, records history against the untouched task
// and then applies the change.
func (s *TaskService) applyUpdate(ctx context.Context, tx repository.Store, task *models.Task, change TaskChange, actor Actor) error {
	if change.Category != nil {
		previous := models.NormalizeCategory(task.Category)
		if *change.Category != previous {
			ledger := NewCategoryLedger(tx)
			if err := ledger.Decrement(ctx, previous); err != nil {
				return err
			}
			if err := ledger.Increment(ctx, *change.Category); err != nil {
				return err
			}
		}
	}

	entries := s.recorder().Diff(task, change, actor)
	applyChange(task, change)
	task.History = append(task.History, entries...)

	return nil
}

func (s *TaskService) normalizeUpdate(prior *models.Task, input UpdateTaskInput) (TaskChange, error) {
	var change TaskChange

	if input.Title != nil {
		title, err := validateRequired("title", *input.Title, constants.MaxTitleLength)
		if err != nil {
			return TaskChange{}, err
		}
		change.Title = &title
	}
	if input.Description != nil {
		description, err := validateOptional("description", *input.Description, constants.MaxDescriptionLength)
		if err != nil {
			return TaskChange{}, err
		}
		change.Description = &description
	}
	if input.Status != nil {
		if err := validateStatus("status", *input.Status); err != nil {
			return TaskChange{}, err
		}
		change.Status = input.Status
	}
	if input.Priority != nil {
		if err := validatePriority(*input.Priority); err != nil {
			return TaskChange{}, err
		}
		change.Priority = input.Priority
	}
	if input.ClearDueDate {
		change.DueDateSet = true
	} else if input.DueDate != nil {
		change.DueDateSet = true
		change.DueDate = utcPtr(input.DueDate)
	}
	if input.Visibility != nil {
		if err := validateVisibility(*input.Visibility); err != nil {
			return TaskChange{}, err
		}
		change.Visibility = input.Visibility
	}
	if input.Category != nil {
		category, err := normalizeCategoryInput(*input.Category)
		if err != nil {
			return TaskChange{}, err
		}
		change.Category = &category
	}
	if input.Tags != nil {
		tags, err := normalizeTags(*input.Tags)
		if err != nil {
			return TaskChange{}, err
		}
		change.Tags = &tags
	}
	if input.Subtasks != nil {
		subtasks, err := s.resolveSubtasks(prior.Subtasks, *input.Subtasks)
		if err != nil {
			return TaskChange{}, err
		}
		change.Subtasks = &subtasks
	}

	return change, nil
}

// resolveSubtasks validates incoming subtasks and assigns ids. An id is kept
// only when it names a prior subtask not already claimed earlier in the list.
func (s *TaskService) resolveSubtasks(prior []models.Subtask, inputs []SubtaskInput) ([]models.Subtask, error) {
	priorByID := make(map[string]models.Subtask, len(prior))
	for _, st := range prior {
		priorByID[st.ID] = st
	}
	claimed := make(map[string]struct{}, len(inputs))

	result := make([]models.Subtask, 0, len(inputs))
	for i, in := range inputs {
		title, err := validateRequired(fmt.Sprintf("subtasks[%d].title", i), in.Title, constants.MaxTitleLength)
		if err != nil {
			return nil, err
		}

		subtask := models.Subtask{Title: title, DueDate: utcPtr(in.DueDate)}

		old, matched := priorByID[in.ID]
		if _, taken := claimed[in.ID]; matched && !taken {
			subtask.ID = in.ID
			claimed[in.ID] = struct{}{}
		} else {
			subtask.ID = s.newID()
			matched = false
		}

		switch {
		case in.Status != "":
			if err := validateStatus(fmt.Sprintf("subtasks[%d].status", i), in.Status); err != nil {
				return nil, err
			}
			subtask.Status = in.Status
		case matched:
			subtask.Status = old.Status
		default:
			subtask.Status = models.TaskStatusTodo
		}

		result = append(result, subtask)
	}

	return result, nil
}

func applyChange(task *models.Task, change TaskChange) {
	if change.Title != nil {
		task.Title = *change.Title
	}
	if change.Description != nil {
		task.Description = *change.Description
	}
	if change.Status != nil {
		task.Status = *change.Status
	}
	if change.Priority != nil {
		task.Priority = *change.Priority
	}
	if change.DueDateSet {
		task.DueDate = change.DueDate
	}
	if change.Visibility != nil {
		task.Visibility = *change.Visibility
	}
	if change.Category != nil {
		task.Category = *change.Category
	}
	if change.Tags != nil {
		task.Tags = slices.Clone(*change.Tags)
	}
	if change.Subtasks != nil {
		task.Subtasks = slices.Clone(*change.Subtasks)
	}
}

func (s *TaskService) comments(task *models.Task) *CommentStore {
	return newCommentStore(task, s.now, s.newID)
}

func (s *TaskService) recorder() *ChangeHistoryRecorder {
	return &ChangeHistoryRecorder{now: s.now, newID: s.newID}
}

// logFailure logs errors that are not ordinary business outcomes.
func (s *TaskService) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, ErrTaskModified):
		s.logger.Warn(op+": concurrent modification", fields...)
	case IsBusinessError(err):
		return
	default:
		s.logger.Error(op+" failed", fields...)
	}
}
