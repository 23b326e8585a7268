package dto

import (
	"time"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
)

// CommentDTO represents a comment in API responses. Voter ids are not exposed.
type CommentDTO struct {
	ID            string     `json:"id"`
	AuthorID      uint64     `json:"author_id"`
	AuthorName    string     `json:"author_name"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"created_at"`
	Edited        bool       `json:"edited"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
	Deleted       bool       `json:"deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	DeletedByName string     `json:"deleted_by_name,omitempty"`
	Upvotes       int        `json:"upvotes"`
	Downvotes     int        `json:"downvotes"`
	Score         int        `json:"score"`
	UserVote      string     `json:"user_vote,omitempty"`
}

// ToCommentDTO converts a Comment for viewer. Deleted content is replaced by
// a placeholder unless the viewer is privileged.
func ToCommentDTO(c models.Comment, viewer Viewer) CommentDTO {
	dto := CommentDTO{
		ID:         c.ID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
		Edited:     c.Edited,
		EditedAt:   c.EditedAt,
		Deleted:    c.Deleted,
		DeletedAt:  c.DeletedAt,
		Upvotes:    len(c.Upvoters),
		Downvotes:  len(c.Downvoters),
		Score:      c.Score(),
		UserVote:   c.VoteOf(viewer.UserID),
	}

	if c.Deleted {
		dto.DeletedByName = c.DeletedByName
		if !viewer.Privileged {
			dto.Content = constants.DeletedCommentPlaceholder
		}
	}

	return dto
}
