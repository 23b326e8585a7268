package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
)

// SubtaskStore mutates the checklist embedded in one task.
type SubtaskStore struct {
	task  *models.Task
	newID func() string
}

// NewSubtaskStore wraps the subtasks of task.
func NewSubtaskStore(task *models.Task) *SubtaskStore {
	return &SubtaskStore{task: task, newID: uuid.NewString}
}

// Add appends a todo subtask.
func (s *SubtaskStore) Add(title string, dueDate *time.Time) (models.Subtask, error) {
	title, err := validateRequired("title", title, constants.MaxTitleLength)
	if err != nil {
		return models.Subtask{}, err
	}

	subtask := models.Subtask{
		ID:      s.newID(),
		Title:   title,
		Status:  models.TaskStatusTodo,
		DueDate: utcPtr(dueDate),
	}
	s.task.Subtasks = append(s.task.Subtasks, subtask)

	return subtask, nil
}

// Toggle flips a done subtask back to todo and any other status to done.
func (s *SubtaskStore) Toggle(subtaskID string) (models.Subtask, error) {
	for i := range s.task.Subtasks {
		st := &s.task.Subtasks[i]
		if st.ID != subtaskID {
			continue
		}
		if st.Status == models.TaskStatusDone {
			st.Status = models.TaskStatusTodo
		} else {
			st.Status = models.TaskStatusDone
		}
		return *st, nil
	}
	return models.Subtask{}, ErrSubtaskNotFound
}

// Remove deletes a subtask.
func (s *SubtaskStore) Remove(subtaskID string) (models.Subtask, error) {
	for i, st := range s.task.Subtasks {
		if st.ID == subtaskID {
			s.task.Subtasks = append(s.task.Subtasks[:i:i], s.task.Subtasks[i+1:]...)
			return st, nil
		}
	}
	return models.Subtask{}, ErrSubtaskNotFound
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
