package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Task is the root aggregate. Subtasks, comments and history are embedded
// documents stored as JSON columns on the task row.
type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	OwnerID     uint64         `gorm:"not null;index" json:"owner_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(20);not null;default:'todo';index" json:"status"`
	Priority    TaskPriority   `gorm:"type:varchar(20);not null;default:'medium';index" json:"priority"`
	DueDate     *time.Time     `gorm:"index" json:"due_date"`
	Visibility  Visibility     `gorm:"type:varchar(20);not null;default:'private';index" json:"visibility"`
	Category    string         `gorm:"type:varchar(15);index" json:"category"`
	Tags        []string       `gorm:"serializer:json" json:"tags"`
	Subtasks    []Subtask      `gorm:"serializer:json" json:"subtasks"`
	Comments    []Comment      `gorm:"serializer:json" json:"comments"`
	History     []HistoryEntry `gorm:"serializer:json" json:"history"`
	Version     uint64         `gorm:"not null;default:1" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// IsOwnedBy reports whether userID owns the task.
func (t *Task) IsOwnedBy(userID uint64) bool {
	return userID != 0 && t.OwnerID == userID
}

// IsPublic reports whether the task is readable by any authenticated user.
func (t *Task) IsPublic() bool {
	return t.Visibility == VisibilityPublic
}

// CompletedSubtasks counts subtasks in the done state.
func (t *Task) CompletedSubtasks() int {
	done := 0
	for _, st := range t.Subtasks {
		if st.Status == TaskStatusDone {
			done++
		}
	}
	return done
}

// Progress returns the rounded percentage of completed subtasks.
func (t *Task) Progress() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	return (t.CompletedSubtasks()*100 + len(t.Subtasks)/2) / len(t.Subtasks)
}

// IsOverdue reports whether the due date has passed on an unfinished task.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusDone || t.Status == TaskStatusCancelled {
		return false
	}
	return now.After(*t.DueDate)
}

// NormalizeCategory trims and lower-cases a category name.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
