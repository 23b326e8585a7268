package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/testutil"
	"github.com/yukikurage/taskboard/internal/utils"
)

type fakeSuggester struct {
	tasks []GeneratedTask
	err   error
	input string
}

func (f *fakeSuggester) SuggestTasks(_ context.Context, text string) ([]GeneratedTask, error) {
	f.input = text
	return f.tasks, f.err
}

// TaskServiceTestSuite runs TaskService against an in-memory database
type TaskServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	store *repository.GormStore
	svc   *TaskService
	now   time.Time

	owner Actor
	other Actor
	admin Actor
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.store = repository.NewStore(s.db)
	s.now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s.svc = NewTaskService(s.store, nil, zap.NewNop())
	s.svc.now = func() time.Time { return s.now }
	s.svc.newID = sequentialIDs("id")

	s.owner = ActorFromUser(testutil.CreateUser(s.T(), s.db, "owner", models.RoleUser))
	s.other = ActorFromUser(testutil.CreateUser(s.T(), s.db, "other", models.RoleUser))
	s.admin = ActorFromUser(testutil.CreateUser(s.T(), s.db, "admin", models.RoleAdmin))
}

func (s *TaskServiceTestSuite) createTask(actor Actor, input CreateTaskInput) *models.Task {
	task, err := s.svc.CreateTask(s.ctx, actor, input)
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) reload(id uint64) *models.Task {
	task, err := s.store.Tasks().FindByID(s.ctx, id)
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) ledger() map[string]int64 {
	return ledgerCounts(s.T(), s.store)
}

func (s *TaskServiceTestSuite) TestCreateTask_Normalizes() {
	due := time.Date(2025, 3, 20, 18, 0, 0, 0, time.FixedZone("JST", 9*3600))

	task := s.createTask(s.owner, CreateTaskInput{
		Title:    "  Quarterly report ",
		Category: "Travail ",
		Tags:     []string{" report", "report", "", "q4"},
		DueDate:  &due,
		Subtasks: []SubtaskInput{{Title: "Collect data"}, {Title: "Draw charts", Status: models.TaskStatusDone}},
	})

	s.Equal("Quarterly report", task.Title)
	s.Equal(models.TaskStatusTodo, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.Equal(models.VisibilityPrivate, task.Visibility)
	s.Equal("travail", task.Category)
	s.Equal([]string{"report", "q4"}, task.Tags)
	s.Require().NotNil(task.Owner)
	s.Equal("owner", task.Owner.Username)
	s.Require().NotNil(task.DueDate)
	s.True(task.DueDate.Equal(due))

	s.Require().Len(task.Subtasks, 2)
	s.NotEmpty(task.Subtasks[0].ID)
	s.NotEqual(task.Subtasks[0].ID, task.Subtasks[1].ID)
	s.Equal(models.TaskStatusTodo, task.Subtasks[0].Status)
	s.Equal(models.TaskStatusDone, task.Subtasks[1].Status)
	s.Equal(50, task.Progress())
	s.Empty(task.History)

	s.Equal(map[string]int64{"travail": 1}, s.ledger())
}

func (s *TaskServiceTestSuite) TestCreateTask_Validation() {
	tests := []struct {
		name  string
		input CreateTaskInput
		field string
	}{
		{name: "blank title", input: CreateTaskInput{Title: "   "}, field: "title"},
		{name: "long title", input: CreateTaskInput{Title: strings.Repeat("a", 201)}, field: "title"},
		{name: "bad status", input: CreateTaskInput{Title: "t", Status: "finished"}, field: "status"},
		{name: "bad priority", input: CreateTaskInput{Title: "t", Priority: "urgent"}, field: "priority"},
		{name: "bad visibility", input: CreateTaskInput{Title: "t", Visibility: "team"}, field: "visibility"},
		{name: "long category", input: CreateTaskInput{Title: "t", Category: strings.Repeat("c", 16)}, field: "category"},
		{name: "too many tags", input: CreateTaskInput{Title: "t", Tags: manyTags(21)}, field: "tags"},
		{name: "blank subtask", input: CreateTaskInput{Title: "t", Subtasks: []SubtaskInput{{Title: " "}}}, field: "subtasks[0].title"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.CreateTask(s.ctx, s.owner, tt.input)

			var validationErr *ValidationError
			s.Require().ErrorAs(err, &validationErr)
			s.Equal(tt.field, validationErr.Field)
		})
	}

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&count).Error)
	s.Zero(count)
	s.Empty(s.ledger())
}

func manyTags(n int) []string {
	tags := make([]string, n)
	for i := range tags {
		tags[i] = strings.Repeat("t", i+1)
	}
	return tags
}

// Moving a task to another category moves its count.
func (s *TaskServiceTestSuite) TestUpdateTask_CategoryMovesLedgerCount() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Trip", Category: "Travail "})
	s.Equal(map[string]int64{"travail": 1}, s.ledger())

	updated, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Category: strPtr("Perso")})
	s.Require().NoError(err)

	s.Equal("perso", updated.Category)
	s.Equal(map[string]int64{"perso": 1}, s.ledger())

	s.Require().Len(updated.History, 1)
	s.Equal("category", updated.History[0].Field)
	s.Equal("travail", updated.History[0].OldValue)
	s.Equal("perso", updated.History[0].NewValue)
}

func (s *TaskServiceTestSuite) TestUpdateTask_SameCategoryKeepsLedger() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Trip", Category: "work"})

	updated, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Category: strPtr(" WORK")})
	s.Require().NoError(err)

	s.Empty(updated.History)
	s.Equal(map[string]int64{"work": 1}, s.ledger())
}

// History only grows and earlier entries never change.
func (s *TaskServiceTestSuite) TestUpdateTask_HistoryIsAppendOnly() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "A"})

	_, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Title: strPtr("B")})
	s.Require().NoError(err)

	first := s.reload(task.ID).History
	s.Require().Len(first, 1)
	s.Equal("title", first[0].Field)
	s.Equal("A", first[0].OldValue)
	s.Equal("B", first[0].NewValue)
	s.Equal("owner", first[0].EditorName)

	s.now = s.now.Add(time.Minute)
	_, err = s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Title: strPtr("A")})
	s.Require().NoError(err)

	second := s.reload(task.ID).History
	s.Require().Len(second, 2)
	s.Equal(first[0].ID, second[0].ID)
	s.Equal(first[0].OldValue, second[0].OldValue)
	s.Equal(first[0].NewValue, second[0].NewValue)
	s.True(first[0].ChangedAt.Equal(second[0].ChangedAt))
	s.Equal("B", second[1].OldValue)
	s.Equal("A", second[1].NewValue)
	s.True(second[1].ChangedAt.After(second[0].ChangedAt))
}

// A status change on a kept subtask and one addition.
func (s *TaskServiceTestSuite) TestUpdateTask_SubtaskHistory() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Steps", Subtasks: []SubtaskInput{{Title: "Step1"}}})
	stepID := task.Subtasks[0].ID

	subtasks := []SubtaskInput{
		{ID: stepID, Title: "Step1", Status: models.TaskStatusDone},
		{Title: "Step2"},
	}
	updated, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Subtasks: &subtasks})
	s.Require().NoError(err)

	s.Require().Len(updated.Subtasks, 2)
	s.Equal(stepID, updated.Subtasks[0].ID)
	s.Equal(models.TaskStatusDone, updated.Subtasks[0].Status)
	s.Equal(models.TaskStatusTodo, updated.Subtasks[1].Status)

	history := s.reload(task.ID).History
	s.Require().Len(history, 2)
	s.Equal(FieldSubtaskUpdated, history[0].Field)
	s.Equal(stepID, history[0].SubtaskID)
	s.Equal(map[string]any{"status": "todo"}, history[0].OldValue)
	s.Equal(map[string]any{"status": "done"}, history[0].NewValue)
	s.Equal(FieldSubtaskAdded, history[1].Field)
	s.Equal(updated.Subtasks[1].ID, history[1].SubtaskID)
	for _, entry := range history {
		s.NotEqual(FieldSubtaskRemoved, entry.Field)
	}
}

func (s *TaskServiceTestSuite) TestUpdateTask_OmittedSubtasksAreKept() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Keep", Subtasks: []SubtaskInput{{Title: "one"}, {Title: "two"}}})

	_, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Description: strPtr("more detail")})
	s.Require().NoError(err)

	reloaded := s.reload(task.ID)
	s.Equal(task.Subtasks, reloaded.Subtasks)
	s.Equal("more detail", reloaded.Description)
}

func (s *TaskServiceTestSuite) TestUpdateTask_UnknownSubtaskIDIsNew() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Ids", Subtasks: []SubtaskInput{{Title: "one"}}})
	kept := task.Subtasks[0].ID

	subtasks := []SubtaskInput{{ID: kept, Title: "one"}, {ID: kept, Title: "dup"}, {ID: "forged", Title: "new"}}
	updated, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Subtasks: &subtasks})
	s.Require().NoError(err)

	s.Require().Len(updated.Subtasks, 3)
	s.Equal(kept, updated.Subtasks[0].ID)
	s.NotEqual(kept, updated.Subtasks[1].ID)
	s.NotEqual("forged", updated.Subtasks[2].ID)
	s.Len(updated.History, 2)
}

func (s *TaskServiceTestSuite) TestUpdateTask_DueDate() {
	due := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	task := s.createTask(s.owner, CreateTaskInput{Title: "Due", DueDate: &due})

	updated, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{ClearDueDate: true})
	s.Require().NoError(err)
	s.Nil(updated.DueDate)
	s.Require().Len(updated.History, 1)
	s.Equal("due_date", updated.History[0].Field)
	s.Equal("2025-03-05T12:00:00Z", updated.History[0].OldValue)
	s.Nil(updated.History[0].NewValue)

	s.Nil(s.reload(task.ID).DueDate)
}

// Non-owners are rejected before anything is written.
func (s *TaskServiceTestSuite) TestOwnershipGate_NoSideEffects() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Mine", Category: "work", Visibility: models.VisibilityPublic})
	before := s.reload(task.ID)

	for _, actor := range []Actor{s.other, s.admin} {
		_, err := s.svc.UpdateTask(s.ctx, task.ID, actor, UpdateTaskInput{Title: strPtr("Theirs"), Category: strPtr("home")})
		s.ErrorIs(err, ErrNotTaskOwner)
		s.ErrorIs(err, ErrPermissionDenied)

		err = s.svc.DeleteTask(s.ctx, task.ID, actor)
		s.ErrorIs(err, ErrNotTaskOwner)

		_, err = s.svc.ToggleVisibility(s.ctx, task.ID, actor)
		s.ErrorIs(err, ErrNotTaskOwner)

		_, err = s.svc.AddSubtask(s.ctx, task.ID, actor, "sneaky", nil)
		s.ErrorIs(err, ErrNotTaskOwner)
	}

	after := s.reload(task.ID)
	s.Equal(before.Title, after.Title)
	s.Equal(before.Version, after.Version)
	s.Empty(after.History)
	s.Empty(after.Subtasks)
	s.Equal(map[string]int64{"work": 1}, s.ledger())
}

func (s *TaskServiceTestSuite) TestUpdateTask_ValidationLeavesTaskUntouched() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Stable", Category: "work"})

	_, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{
		Title:    strPtr("Changed"),
		Category: strPtr("home"),
		Tags:     &[]string{strings.Repeat("x", 3), ""},
		Status:   statusPtr("finished"),
	})
	s.ErrorIs(err, ErrValidation)

	after := s.reload(task.ID)
	s.Equal("Stable", after.Title)
	s.Empty(after.History)
	s.Equal(map[string]int64{"work": 1}, s.ledger())
}

func statusPtr(status models.TaskStatus) *models.TaskStatus { return &status }

func (s *TaskServiceTestSuite) TestUpdateTask_NotFound() {
	_, err := s.svc.UpdateTask(s.ctx, 999, s.owner, UpdateTaskInput{Title: strPtr("x")})
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestSave_VersionConflict() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Race"})

	first := s.reload(task.ID)
	stale := s.reload(task.ID)

	first.Title = "first writer"
	s.Require().NoError(s.svc.save(s.ctx, s.store, first))

	stale.Title = "second writer"
	err := s.svc.save(s.ctx, s.store, stale)
	s.ErrorIs(err, ErrTaskModified)
	s.ErrorIs(err, ErrConflict)

	s.Equal("first writer", s.reload(task.ID).Title)
}

func (s *TaskServiceTestSuite) TestDeleteTask_ReleasesCategory() {
	first := s.createTask(s.owner, CreateTaskInput{Title: "one", Category: "work"})
	second := s.createTask(s.owner, CreateTaskInput{Title: "two", Category: "Work"})
	s.Equal(map[string]int64{"work": 2}, s.ledger())

	s.Require().NoError(s.svc.DeleteTask(s.ctx, first.ID, s.owner))
	s.Equal(map[string]int64{"work": 1}, s.ledger())

	s.Require().NoError(s.svc.DeleteTask(s.ctx, second.ID, s.owner))
	s.Empty(s.ledger())

	_, err := s.store.Tasks().FindByID(s.ctx, first.ID)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))

	s.ErrorIs(s.svc.DeleteTask(s.ctx, first.ID, s.owner), ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestToggleVisibility() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Share me"})

	toggled, err := s.svc.ToggleVisibility(s.ctx, task.ID, s.owner)
	s.Require().NoError(err)
	s.Equal(models.VisibilityPublic, toggled.Visibility)
	s.Require().Len(toggled.History, 1)
	s.Equal("visibility", toggled.History[0].Field)

	toggled, err = s.svc.ToggleVisibility(s.ctx, task.ID, s.owner)
	s.Require().NoError(err)
	s.Equal(models.VisibilityPrivate, toggled.Visibility)
	s.Len(toggled.History, 2)
}

func (s *TaskServiceTestSuite) TestGetTask_Visibility() {
	private := s.createTask(s.owner, CreateTaskInput{Title: "secret"})
	public := s.createTask(s.owner, CreateTaskInput{Title: "open", Visibility: models.VisibilityPublic})

	_, err := s.svc.GetTask(s.ctx, private.ID, s.other)
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.svc.GetTask(s.ctx, private.ID, s.admin)
	s.NoError(err)

	_, err = s.svc.GetTask(s.ctx, public.ID, s.other)
	s.NoError(err)

	_, err = s.svc.GetHistory(s.ctx, private.ID, s.other)
	s.ErrorIs(err, ErrNotFound)
}

func (s *TaskServiceTestSuite) TestComments_AccessRules() {
	private := s.createTask(s.owner, CreateTaskInput{Title: "secret"})
	public := s.createTask(s.owner, CreateTaskInput{Title: "open", Visibility: models.VisibilityPublic})

	_, err := s.svc.AddComment(s.ctx, private.ID, s.other, "let me in")
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.svc.AddComment(s.ctx, private.ID, s.admin, "admin here")
	s.ErrorIs(err, ErrTaskNotPublic)

	own, err := s.svc.AddComment(s.ctx, private.ID, s.owner, "note to self")
	s.Require().NoError(err)
	s.Equal("note to self", own.Content)

	comment, err := s.svc.AddComment(s.ctx, public.ID, s.other, "nice")
	s.Require().NoError(err)
	s.Equal(s.other.ID, comment.AuthorID)

	_, err = s.svc.EditComment(s.ctx, public.ID, comment.ID, s.owner, "not yours")
	s.ErrorIs(err, ErrNotCommentAuthor)

	edited, err := s.svc.EditComment(s.ctx, public.ID, comment.ID, s.other, "very nice")
	s.Require().NoError(err)
	s.True(edited.Edited)

	_, err = s.svc.DeleteComment(s.ctx, public.ID, comment.ID, s.owner)
	s.ErrorIs(err, ErrCommentDeletePermission)

	_, err = s.svc.EditComment(s.ctx, public.ID, "missing", s.other, "x")
	s.ErrorIs(err, ErrCommentNotFound)

	stored := s.reload(public.ID)
	s.Require().Len(stored.Comments, 1)
	s.Equal("very nice", stored.Comments[0].Content)
	s.Empty(stored.History, "comments do not produce history")
}

// Soft-deleted comments stay in the document and reject edits and votes.
func (s *TaskServiceTestSuite) TestComments_SoftDeleteIsPermanent() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "open", Visibility: models.VisibilityPublic})
	comment, err := s.svc.AddComment(s.ctx, task.ID, s.other, "regrettable")
	s.Require().NoError(err)

	deleted, err := s.svc.DeleteComment(s.ctx, task.ID, comment.ID, s.admin)
	s.Require().NoError(err)
	s.Equal("admin", deleted.DeletedByName)

	_, err = s.svc.EditComment(s.ctx, task.ID, comment.ID, s.other, "fixed")
	s.ErrorIs(err, ErrInvalidState)

	_, err = s.svc.VoteComment(s.ctx, task.ID, comment.ID, s.owner, VoteUp)
	s.ErrorIs(err, ErrInvalidState)

	_, err = s.svc.DeleteComment(s.ctx, task.ID, comment.ID, s.other)
	s.ErrorIs(err, ErrCommentDeleted)

	stored := s.reload(task.ID)
	s.Require().Len(stored.Comments, 1)
	s.True(stored.Comments[0].Deleted)
	s.Equal("regrettable", stored.Comments[0].Content)
}

func (s *TaskServiceTestSuite) TestVoteComment() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "open", Visibility: models.VisibilityPublic})
	comment, err := s.svc.AddComment(s.ctx, task.ID, s.owner, "vote")
	s.Require().NoError(err)

	result, err := s.svc.VoteComment(s.ctx, task.ID, comment.ID, s.other, VoteUp)
	s.Require().NoError(err)
	s.Equal(1, result.Score)

	result, err = s.svc.VoteComment(s.ctx, task.ID, comment.ID, s.other, VoteUp)
	s.Require().NoError(err)
	s.Equal(0, result.Score)

	result, err = s.svc.VoteComment(s.ctx, task.ID, comment.ID, s.other, VoteDown)
	s.Require().NoError(err)
	s.Equal(-1, result.Score)
	s.Equal("down", result.UserVote)

	stored := s.reload(task.ID).Comments[0]
	s.Empty(stored.Upvoters)
	s.Equal([]uint64{s.other.ID}, stored.Downvoters)
}

func (s *TaskServiceTestSuite) TestGetTask_OrdersComments() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "open", Visibility: models.VisibilityPublic})
	first, err := s.svc.AddComment(s.ctx, task.ID, s.owner, "first")
	s.Require().NoError(err)
	second, err := s.svc.AddComment(s.ctx, task.ID, s.owner, "second")
	s.Require().NoError(err)

	_, err = s.svc.VoteComment(s.ctx, task.ID, second.ID, s.other, VoteUp)
	s.Require().NoError(err)
	_, err = s.svc.DeleteComment(s.ctx, task.ID, first.ID, s.owner)
	s.Require().NoError(err)
	third, err := s.svc.AddComment(s.ctx, task.ID, s.other, "third")
	s.Require().NoError(err)

	got, err := s.svc.GetTask(s.ctx, task.ID, s.other)
	s.Require().NoError(err)
	s.Require().Len(got.Comments, 3)
	s.Equal(second.ID, got.Comments[0].ID)
	s.Equal(third.ID, got.Comments[1].ID)
	s.Equal(first.ID, got.Comments[2].ID)
}

func (s *TaskServiceTestSuite) TestMutations_OrderCommentsLikeGetTask() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "open", Visibility: models.VisibilityPublic})
	first, err := s.svc.AddComment(s.ctx, task.ID, s.owner, "first")
	s.Require().NoError(err)
	second, err := s.svc.AddComment(s.ctx, task.ID, s.owner, "second")
	s.Require().NoError(err)
	_, err = s.svc.VoteComment(s.ctx, task.ID, second.ID, s.other, VoteUp)
	s.Require().NoError(err)

	title := "renamed"
	updated, err := s.svc.UpdateTask(s.ctx, task.ID, s.owner, UpdateTaskInput{Title: &title})
	s.Require().NoError(err)
	s.Require().Len(updated.Comments, 2)
	s.Equal(second.ID, updated.Comments[0].ID)
	s.Equal(first.ID, updated.Comments[1].ID)

	toggled, err := s.svc.ToggleVisibility(s.ctx, task.ID, s.owner)
	s.Require().NoError(err)
	s.Equal(second.ID, toggled.Comments[0].ID)

	withSubtask, err := s.svc.AddSubtask(s.ctx, task.ID, s.owner, "step", nil)
	s.Require().NoError(err)
	s.Equal(second.ID, withSubtask.Comments[0].ID)

	stored := s.reload(task.ID)
	s.Equal(first.ID, stored.Comments[0].ID, "stored order stays creation order")
}

func (s *TaskServiceTestSuite) TestSubtaskOperations() {
	task := s.createTask(s.owner, CreateTaskInput{Title: "Checklist"})

	updated, err := s.svc.AddSubtask(s.ctx, task.ID, s.owner, "Buy milk", nil)
	s.Require().NoError(err)
	s.Require().Len(updated.Subtasks, 1)
	subtaskID := updated.Subtasks[0].ID

	updated, err = s.svc.ToggleSubtask(s.ctx, task.ID, subtaskID, s.owner)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, updated.Subtasks[0].Status)
	s.Equal(100, updated.Progress())

	_, err = s.svc.ToggleSubtask(s.ctx, task.ID, "missing", s.owner)
	s.ErrorIs(err, ErrSubtaskNotFound)

	updated, err = s.svc.RemoveSubtask(s.ctx, task.ID, subtaskID, s.owner)
	s.Require().NoError(err)
	s.Empty(updated.Subtasks)

	history := s.reload(task.ID).History
	s.Require().Len(history, 3)
	s.Equal(FieldSubtaskAdded, history[0].Field)
	s.Equal(FieldSubtaskUpdated, history[1].Field)
	s.Equal(FieldSubtaskRemoved, history[2].Field)
	for _, entry := range history {
		s.Equal(subtaskID, entry.SubtaskID)
	}
}

func (s *TaskServiceTestSuite) TestListTasks() {
	s.createTask(s.owner, CreateTaskInput{Title: "Write report", Category: "work", Tags: []string{"urgent"}, Priority: models.TaskPriorityHigh})
	s.createTask(s.owner, CreateTaskInput{Title: "Groceries", Category: "home", Visibility: models.VisibilityPublic})
	s.createTask(s.other, CreateTaskInput{Title: "Other report", Visibility: models.VisibilityPublic, Tags: []string{"urgent"}})
	s.createTask(s.other, CreateTaskInput{Title: "Hidden"})

	own, total, err := s.svc.ListTasks(s.ctx, s.owner, ListTasksInput{})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(own, 2)

	byCategory, _, err := s.svc.ListTasks(s.ctx, s.owner, ListTasksInput{Category: "WORK"})
	s.Require().NoError(err)
	s.Require().Len(byCategory, 1)
	s.Equal("Write report", byCategory[0].Title)

	byTag, _, err := s.svc.ListTasks(s.ctx, s.owner, ListTasksInput{Tag: "urgent"})
	s.Require().NoError(err)
	s.Len(byTag, 1)

	searched, _, err := s.svc.ListPublicTasks(s.ctx, ListTasksInput{Search: "REPORT"})
	s.Require().NoError(err)
	s.Require().Len(searched, 1)
	s.Equal("Other report", searched[0].Title)

	public, total, err := s.svc.ListPublicTasks(s.ctx, ListTasksInput{SortBy: "title", SortAsc: true})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Require().Len(public, 2)
	s.Equal("Groceries", public[0].Title)
	s.Equal("Other report", public[1].Title)

	paged, total, err := s.svc.ListTasks(s.ctx, s.owner, ListTasksInput{Pagination: utils.NewPaginationParams(2, 1)})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(paged, 1)

	_, _, err = s.svc.ListTasks(s.ctx, s.owner, ListTasksInput{SortBy: "owner_id; DROP TABLE tasks"})
	s.ErrorIs(err, ErrValidation)

	_, _, err = s.svc.ListTasks(s.ctx, s.owner, ListTasksInput{Status: statusPtr("finished")})
	s.ErrorIs(err, ErrValidation)
}

func (s *TaskServiceTestSuite) TestGenerateTasks() {
	_, err := s.svc.GenerateTasks(s.ctx, s.owner, GenerateTasksInput{Text: "plan a trip"})
	s.ErrorIs(err, ErrAIServiceNotConfigured)

	past := s.now.Add(-72 * time.Hour)
	future := s.now.Add(48 * time.Hour)
	fake := &fakeSuggester{tasks: []GeneratedTask{
		{Title: "  Book flights ", Priority: "urgent", Category: "Travel", DueDate: &future},
		{Title: "   "},
		{Title: "Renew passport", Priority: models.TaskPriorityHigh, Category: strings.Repeat("x", 20), DueDate: &past},
	}}
	s.svc.suggester = fake

	drafts, err := s.svc.GenerateTasks(s.ctx, s.owner, GenerateTasksInput{Text: "  plan a trip  "})
	s.Require().NoError(err)
	s.Equal("plan a trip", fake.input)
	s.Require().Len(drafts, 2)

	s.Equal("Book flights", drafts[0].Title)
	s.Equal(models.TaskPriorityMedium, drafts[0].Priority)
	s.Equal("travel", drafts[0].Category)
	s.NotNil(drafts[0].DueDate)

	s.Equal(models.TaskPriorityHigh, drafts[1].Priority)
	s.Empty(drafts[1].Category)
	s.Nil(drafts[1].DueDate)

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&count).Error)
	s.Zero(count, "drafts are not stored")

	fake.tasks = nil
	_, err = s.svc.GenerateTasks(s.ctx, s.owner, GenerateTasksInput{Text: "nothing"})
	s.ErrorIs(err, ErrAINoTasksGenerated)

	fake.tasks = []GeneratedTask{{Title: ""}}
	_, err = s.svc.GenerateTasks(s.ctx, s.owner, GenerateTasksInput{Text: "nothing"})
	s.ErrorIs(err, ErrAINoValidTasks)

	fake.err = errors.New("upstream down")
	_, err = s.svc.GenerateTasks(s.ctx, s.owner, GenerateTasksInput{Text: "again"})
	s.Error(err)
	s.False(IsBusinessError(err))
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
