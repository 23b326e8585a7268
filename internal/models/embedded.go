package models

import "time"

// Subtask is a checklist item embedded in a task.
type Subtask struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Status  TaskStatus `json:"status"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// Comment is a discussion entry embedded in a task. A user id appears in at
// most one of Upvoters and Downvoters.
type Comment struct {
	ID            string     `json:"id"`
	AuthorID      uint64     `json:"author_id"`
	AuthorName    string     `json:"author_name"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"created_at"`
	Edited        bool       `json:"edited"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
	Deleted       bool       `json:"deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	DeletedByID   *uint64    `json:"deleted_by_id,omitempty"`
	DeletedByName string     `json:"deleted_by_name,omitempty"`
	Upvoters      []uint64   `json:"upvoters"`
	Downvoters    []uint64   `json:"downvoters"`
}

// Score is the number of upvotes minus the number of downvotes.
func (c Comment) Score() int {
	return len(c.Upvoters) - len(c.Downvoters)
}

// VoteOf returns "up", "down" or "" for the given user.
func (c Comment) VoteOf(userID uint64) string {
	for _, id := range c.Upvoters {
		if id == userID {
			return "up"
		}
	}
	for _, id := range c.Downvoters {
		if id == userID {
			return "down"
		}
	}
	return ""
}

// HistoryEntry is an immutable audit record of one change to a task.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Field      string    `json:"field"`
	OldValue   any       `json:"old_value"`
	NewValue   any       `json:"new_value"`
	SubtaskID  string    `json:"subtask_id,omitempty"`
	EditorID   uint64    `json:"editor_id"`
	EditorName string    `json:"editor_name"`
	ChangedAt  time.Time `json:"changed_at"`
}
