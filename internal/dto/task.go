package dto

import (
	"time"

	"github.com/yukikurage/taskboard/internal/models"
)

// SubtaskDTO represents a subtask in API responses
type SubtaskDTO struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	Status  models.TaskStatus `json:"status"`
	DueDate *time.Time        `json:"due_date,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                uint64              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Status            models.TaskStatus   `json:"status"`
	Priority          models.TaskPriority `json:"priority"`
	DueDate           *time.Time          `json:"due_date"`
	Visibility        models.Visibility   `json:"visibility"`
	Category          string              `json:"category,omitempty"`
	Tags              []string            `json:"tags"`
	OwnerID           uint64              `json:"owner_id"`
	Owner             *UserSummaryDTO     `json:"owner,omitempty"`
	Subtasks          []SubtaskDTO        `json:"subtasks"`
	Comments          []CommentDTO        `json:"comments"`
	CompletedSubtasks int                 `json:"completed_subtasks"`
	Progress          int                 `json:"progress"`
	Overdue           bool                `json:"overdue"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID                uint64              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Status            models.TaskStatus   `json:"status"`
	Priority          models.TaskPriority `json:"priority"`
	DueDate           *time.Time          `json:"due_date"`
	Visibility        models.Visibility   `json:"visibility"`
	Category          string              `json:"category,omitempty"`
	Tags              []string            `json:"tags"`
	OwnerID           uint64              `json:"owner_id"`
	Owner             *UserSummaryDTO     `json:"owner,omitempty"`
	SubtaskCount      int                 `json:"subtask_count"`
	CompletedSubtasks int                 `json:"completed_subtasks"`
	Progress          int                 `json:"progress"`
	Overdue           bool                `json:"overdue"`
	CommentCount      int                 `json:"comment_count"`
	CreatedAt         time.Time           `json:"created_at"`
}

// Viewer describes who receives a response. Privileged viewers see the
// content of deleted comments.
type Viewer struct {
	UserID     uint64
	Privileged bool
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO. Comments keep the order of task.Comments.
func ToTaskDTO(task models.Task, viewer Viewer, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		Status:            task.Status,
		Priority:          task.Priority,
		DueDate:           task.DueDate,
		Visibility:        task.Visibility,
		Category:          task.Category,
		Tags:              nonNilTags(task.Tags),
		OwnerID:           task.OwnerID,
		Subtasks:          make([]SubtaskDTO, len(task.Subtasks)),
		Comments:          make([]CommentDTO, len(task.Comments)),
		CompletedSubtasks: task.CompletedSubtasks(),
		Progress:          task.Progress(),
		Overdue:           task.IsOverdue(now),
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}

	// Include owner if preloaded
	if task.Owner != nil {
		owner := ToUserSummaryDTO(*task.Owner)
		dto.Owner = &owner
	}

	for i, st := range task.Subtasks {
		dto.Subtasks[i] = ToSubtaskDTO(st)
	}
	for i, c := range task.Comments {
		dto.Comments[i] = ToCommentDTO(c, viewer)
	}

	return dto
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task, now time.Time) TaskListItemDTO {
	dto := TaskListItemDTO{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		Status:            task.Status,
		Priority:          task.Priority,
		DueDate:           task.DueDate,
		Visibility:        task.Visibility,
		Category:          task.Category,
		Tags:              nonNilTags(task.Tags),
		OwnerID:           task.OwnerID,
		SubtaskCount:      len(task.Subtasks),
		CompletedSubtasks: task.CompletedSubtasks(),
		Progress:          task.Progress(),
		Overdue:           task.IsOverdue(now),
		CommentCount:      liveComments(task.Comments),
		CreatedAt:         task.CreatedAt,
	}

	if task.Owner != nil {
		owner := ToUserSummaryDTO(*task.Owner)
		dto.Owner = &owner
	}

	return dto
}

// ToTaskListItemDTOs converts a slice of tasks
func ToTaskListItemDTOs(tasks []models.Task, now time.Time) []TaskListItemDTO {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task, now)
	}
	return items
}

// ToSubtaskDTO converts a Subtask to SubtaskDTO
func ToSubtaskDTO(st models.Subtask) SubtaskDTO {
	return SubtaskDTO{
		ID:      st.ID,
		Title:   st.Title,
		Status:  st.Status,
		DueDate: st.DueDate,
	}
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func liveComments(comments []models.Comment) int {
	n := 0
	for _, c := range comments {
		if !c.Deleted {
			n++
		}
	}
	return n
}
