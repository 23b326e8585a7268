package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yukikurage/taskboard/internal/models"
)

// VoteType is the direction of a comment vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// ParseVoteType accepts only "up" and "down".
func ParseVoteType(value string) (VoteType, error) {
	switch VoteType(value) {
	case VoteUp, VoteDown:
		return VoteType(value), nil
	}
	return "", NewValidationError("type", "vote type must be \"up\" or \"down\"")
}

// VoteResult is the comment's tally after a vote.
type VoteResult struct {
	CommentID string `json:"comment_id"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
	UserVote  string `json:"user_vote"`
}

// CommentStore mutates the comments embedded in one task. It does not persist
// anything; callers save the task afterwards.
type CommentStore struct {
	task  *models.Task
	now   func() time.Time
	newID func() string
}

// NewCommentStore wraps the comments of task.
func NewCommentStore(task *models.Task) *CommentStore {
	return newCommentStore(task, time.Now, uuid.NewString)
}

func newCommentStore(task *models.Task, now func() time.Time, newID func() string) *CommentStore {
	return &CommentStore{task: task, now: now, newID: newID}
}

// Add appends a comment by author.
func (s *CommentStore) Add(author Actor, content string) (models.Comment, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ID:         s.newID(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Content:    content,
		CreatedAt:  s.now().UTC(),
		Upvoters:   []uint64{},
		Downvoters: []uint64{},
	}
	s.task.Comments = append(s.task.Comments, comment)

	return comment, nil
}

// Edit replaces the content of a live comment. Only the author may edit.
func (s *CommentStore) Edit(commentID, content string, editorID uint64) (models.Comment, error) {
	comment, err := s.find(commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if comment.AuthorID != editorID {
		return models.Comment{}, ErrNotCommentAuthor
	}
	if comment.Deleted {
		return models.Comment{}, ErrCommentDeleted
	}

	content, err = validateCommentContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	editedAt := s.now().UTC()
	comment.Content = content
	comment.Edited = true
	comment.EditedAt = &editedAt

	return *comment, nil
}

// SoftDelete marks a comment deleted. The content stays stored.
func (s *CommentStore) SoftDelete(commentID string, actor Actor) (models.Comment, error) {
	comment, err := s.find(commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin {
		return models.Comment{}, ErrCommentDeletePermission
	}
	if comment.Deleted {
		return models.Comment{}, ErrCommentDeleted
	}

	deletedAt := s.now().UTC()
	deleterID := actor.ID
	comment.Deleted = true
	comment.DeletedAt = &deletedAt
	comment.DeletedByID = &deleterID
	comment.DeletedByName = actor.Name

	return *comment, nil
}

// Vote toggles voterID's vote. Repeating the same vote cancels it and the
// opposite vote switches sides.
func (s *CommentStore) Vote(commentID string, voterID uint64, vote VoteType) (VoteResult, error) {
	comment, err := s.find(commentID)
	if err != nil {
		return VoteResult{}, err
	}
	if comment.Deleted {
		return VoteResult{}, ErrCommentDeleted
	}

	var hadUp, hadDown bool
	comment.Upvoters, hadUp = without(comment.Upvoters, voterID)
	comment.Downvoters, hadDown = without(comment.Downvoters, voterID)

	switch vote {
	case VoteUp:
		if !hadUp {
			comment.Upvoters = append(comment.Upvoters, voterID)
		}
	case VoteDown:
		if !hadDown {
			comment.Downvoters = append(comment.Downvoters, voterID)
		}
	}

	return VoteResult{
		CommentID: comment.ID,
		Upvotes:   len(comment.Upvoters),
		Downvotes: len(comment.Downvoters),
		Score:     comment.Score(),
		UserVote:  comment.VoteOf(voterID),
	}, nil
}

// Ordered returns live comments by score, highest first, followed by deleted
// comments. Ties keep creation order.
func (s *CommentStore) Ordered() []models.Comment {
	live := make([]models.Comment, 0, len(s.task.Comments))
	var deleted []models.Comment
	for _, c := range s.task.Comments {
		if c.Deleted {
			deleted = append(deleted, c)
			continue
		}
		live = append(live, c)
	}

	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Score() > live[j].Score()
	})

	return append(live, deleted...)
}

func (s *CommentStore) find(commentID string) (*models.Comment, error) {
	for i := range s.task.Comments {
		if s.task.Comments[i].ID == commentID {
			return &s.task.Comments[i], nil
		}
	}
	return nil, ErrCommentNotFound
}

// without returns ids minus id and whether id was present.
func without(ids []uint64, id uint64) ([]uint64, bool) {
	result := make([]uint64, 0, len(ids))
	found := false
	for _, v := range ids {
		if v == id {
			found = true
			continue
		}
		result = append(result, v)
	}
	return result, found
}
