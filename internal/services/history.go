package services

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/yukikurage/taskboard/internal/models"
)

// History field names for subtask entries.
const (
	FieldSubtaskAdded   = "subtask.added"
	FieldSubtaskUpdated = "subtask.updated"
	FieldSubtaskRemoved = "subtask.removed"
)

// TaskChange is a validated partial update. Nil fields are not part of the
// update. DueDate is only applied when DueDateSet is true, so a nil DueDate
// with DueDateSet clears it.
type TaskChange struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDateSet  bool
	DueDate     *time.Time
	Visibility  *models.Visibility
	Category    *string
	Tags        *[]string
	Subtasks    *[]models.Subtask
}

type trackedField struct {
	name    string
	current func(t *models.Task) any
	next    func(c TaskChange) (any, bool)
}

// trackedFields lists the scalar fields that produce history, in emission order.
var trackedFields = []trackedField{
	{
		name:    "title",
		current: func(t *models.Task) any { return t.Title },
		next: func(c TaskChange) (any, bool) {
			if c.Title == nil {
				return nil, false
			}
			return *c.Title, true
		},
	},
	{
		name:    "description",
		current: func(t *models.Task) any { return t.Description },
		next: func(c TaskChange) (any, bool) {
			if c.Description == nil {
				return nil, false
			}
			return *c.Description, true
		},
	},
	{
		name:    "status",
		current: func(t *models.Task) any { return string(t.Status) },
		next: func(c TaskChange) (any, bool) {
			if c.Status == nil {
				return nil, false
			}
			return string(*c.Status), true
		},
	},
	{
		name:    "priority",
		current: func(t *models.Task) any { return string(t.Priority) },
		next: func(c TaskChange) (any, bool) {
			if c.Priority == nil {
				return nil, false
			}
			return string(*c.Priority), true
		},
	},
	{
		name:    "due_date",
		current: func(t *models.Task) any { return dueDateValue(t.DueDate) },
		next: func(c TaskChange) (any, bool) {
			if !c.DueDateSet {
				return nil, false
			}
			return dueDateValue(c.DueDate), true
		},
	},
	{
		name:    "visibility",
		current: func(t *models.Task) any { return string(t.Visibility) },
		next: func(c TaskChange) (any, bool) {
			if c.Visibility == nil {
				return nil, false
			}
			return string(*c.Visibility), true
		},
	},
	{
		name:    "category",
		current: func(t *models.Task) any { return models.NormalizeCategory(t.Category) },
		next: func(c TaskChange) (any, bool) {
			if c.Category == nil {
				return nil, false
			}
			return models.NormalizeCategory(*c.Category), true
		},
	},
}

// ChangeHistoryRecorder turns a change into audit entries. It must see the
// task before the change is applied.
type ChangeHistoryRecorder struct {
	now   func() time.Time
	newID func() string
}

// NewChangeHistoryRecorder creates a recorder using wall clock time and random ids.
func NewChangeHistoryRecorder() *ChangeHistoryRecorder {
	return &ChangeHistoryRecorder{now: time.Now, newID: uuid.NewString}
}

// Diff returns the entries describing how change differs from prior.
func (r *ChangeHistoryRecorder) Diff(prior *models.Task, change TaskChange, editor Actor) []models.HistoryEntry {
	at := r.now().UTC()
	var entries []models.HistoryEntry

	for _, f := range trackedFields {
		next, ok := f.next(change)
		if !ok {
			continue
		}
		if current := f.current(prior); current != next {
			entries = append(entries, r.entry(f.name, current, next, "", editor, at))
		}
	}

	if change.Tags != nil && !sameTagSet(prior.Tags, *change.Tags) {
		entries = append(entries, r.entry("tags", copyTags(prior.Tags), copyTags(*change.Tags), "", editor, at))
	}

	if change.Subtasks != nil {
		entries = append(entries, r.diffSubtasks(prior.Subtasks, *change.Subtasks, editor, at)...)
	}

	return entries
}

// DiffSubtasks compares two subtask lists matched by id.
func (r *ChangeHistoryRecorder) DiffSubtasks(prior, next []models.Subtask, editor Actor) []models.HistoryEntry {
	return r.diffSubtasks(prior, next, editor, r.now().UTC())
}

func (r *ChangeHistoryRecorder) diffSubtasks(prior, next []models.Subtask, editor Actor, at time.Time) []models.HistoryEntry {
	priorByID := make(map[string]models.Subtask, len(prior))
	for _, st := range prior {
		priorByID[st.ID] = st
	}

	var entries []models.HistoryEntry
	seen := make(map[string]struct{}, len(next))

	for _, st := range next {
		seen[st.ID] = struct{}{}

		old, matched := priorByID[st.ID]
		if !matched {
			added := map[string]any{"title": st.Title}
			if st.DueDate != nil {
				added["due_date"] = dueDateValue(st.DueDate)
			}
			entries = append(entries, r.entry(FieldSubtaskAdded, nil, added, st.ID, editor, at))
			continue
		}

		oldValues := map[string]any{}
		newValues := map[string]any{}
		if old.Title != st.Title {
			oldValues["title"], newValues["title"] = old.Title, st.Title
		}
		if old.Status != st.Status {
			oldValues["status"], newValues["status"] = string(old.Status), string(st.Status)
		}
		if oldDue, newDue := dueDateValue(old.DueDate), dueDateValue(st.DueDate); oldDue != newDue {
			oldValues["due_date"], newValues["due_date"] = oldDue, newDue
		}
		if len(newValues) > 0 {
			entries = append(entries, r.entry(FieldSubtaskUpdated, oldValues, newValues, st.ID, editor, at))
		}
	}

	for _, st := range prior {
		if _, kept := seen[st.ID]; kept {
			continue
		}
		removed := map[string]any{"title": st.Title, "status": string(st.Status)}
		entries = append(entries, r.entry(FieldSubtaskRemoved, removed, nil, st.ID, editor, at))
	}

	return entries
}

func (r *ChangeHistoryRecorder) entry(field string, oldValue, newValue any, subtaskID string, editor Actor, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:         r.newID(),
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		SubtaskID:  subtaskID,
		EditorID:   editor.ID,
		EditorName: editor.Name,
		ChangedAt:  at,
	}
}

// dueDateValue renders a due date as the value stored in history.
func dueDateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func sameTagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := slices.Sorted(slices.Values(a))
	sortedB := slices.Sorted(slices.Values(b))
	return slices.Equal(sortedA, sortedB)
}

func copyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}
