package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/testutil"
	"github.com/yukikurage/taskboard/internal/utils"
)

type TaskRepositoryTestSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	repo  TaskRepository
	owner *models.User
	other *models.User
}

func (s *TaskRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.repo = NewTaskRepository(s.db)
	s.owner = testutil.CreateUser(s.T(), s.db, "owner", models.RoleUser)
	s.other = testutil.CreateUser(s.T(), s.db, "other", models.RoleUser)
}

func (s *TaskRepositoryTestSuite) create(task models.Task) *models.Task {
	if task.OwnerID == 0 {
		task.OwnerID = s.owner.ID
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if task.Visibility == "" {
		task.Visibility = models.VisibilityPrivate
	}
	s.Require().NoError(s.repo.Create(s.ctx, &task))
	return &task
}

func (s *TaskRepositoryTestSuite) TestCreateAndFind() {
	created := s.create(models.Task{
		Title:    "Embedded",
		Tags:     []string{"a", "b"},
		Subtasks: []models.Subtask{{ID: "s-1", Title: "step", Status: models.TaskStatusTodo}},
		Comments: []models.Comment{{ID: "c-1", AuthorID: s.other.ID, Content: "hi", Upvoters: []uint64{s.owner.ID}}},
	})
	s.EqualValues(1, created.Version)

	found, err := s.repo.FindByID(s.ctx, created.ID, "Owner")
	s.Require().NoError(err)
	s.Equal([]string{"a", "b"}, found.Tags)
	s.Equal("s-1", found.Subtasks[0].ID)
	s.Equal([]uint64{s.owner.ID}, found.Comments[0].Upvoters)
	s.Require().NotNil(found.Owner)
	s.Equal("owner", found.Owner.Username)

	_, err = s.repo.FindByID(s.ctx, 999)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *TaskRepositoryTestSuite) TestSave_OptimisticVersion() {
	created := s.create(models.Task{Title: "v1"})

	first, err := s.repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	stale, err := s.repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)

	first.Title = "v2"
	first.History = []models.HistoryEntry{{ID: "h-1", Field: "title", OldValue: "v1", NewValue: "v2"}}
	s.Require().NoError(s.repo.Save(s.ctx, first))
	s.EqualValues(2, first.Version)

	stale.Title = "lost update"
	s.ErrorIs(s.repo.Save(s.ctx, stale), ErrVersionConflict)
	s.EqualValues(1, stale.Version, "version is restored after a conflict")

	stored, err := s.repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("v2", stored.Title)
	s.EqualValues(2, stored.Version)
	s.Require().Len(stored.History, 1)
	s.Equal(s.owner.ID, stored.OwnerID)
}

func (s *TaskRepositoryTestSuite) TestList_Filters() {
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.create(models.Task{Title: "Alpha report", Category: "work", Tags: []string{"urgent", "q1"}, Priority: models.TaskPriorityHigh, DueDate: &due})
	s.create(models.Task{Title: "Beta", Description: "weekly REPORT", Category: "home", Tags: []string{"urgently"}})
	s.create(models.Task{Title: "Gamma", Category: "work", Visibility: models.VisibilityPublic})
	s.create(models.Task{OwnerID: s.other.ID, Title: "Delta", Visibility: models.VisibilityPublic, Tags: []string{"urgent"}})

	ownerID := s.owner.ID
	tests := []struct {
		name   string
		filter TaskFilter
		titles []string
	}{
		{name: "owner", filter: TaskFilter{OwnerID: &ownerID, SortBy: "title", SortAsc: true}, titles: []string{"Alpha report", "Beta", "Gamma"}},
		{name: "category", filter: TaskFilter{OwnerID: &ownerID, Category: " WORK", SortBy: "title", SortAsc: true}, titles: []string{"Alpha report", "Gamma"}},
		{name: "exact tag", filter: TaskFilter{Tag: "urgent", SortBy: "title", SortAsc: true}, titles: []string{"Alpha report", "Delta"}},
		{name: "search", filter: TaskFilter{Search: "report", SortBy: "title", SortAsc: true}, titles: []string{"Alpha report", "Beta"}},
		{name: "due before", filter: TaskFilter{DueBefore: timePtr(due.Add(time.Hour))}, titles: []string{"Alpha report"}},
		{name: "due before is inclusive", filter: TaskFilter{DueBefore: timePtr(due)}, titles: []string{"Alpha report"}},
		{name: "due before excludes later", filter: TaskFilter{DueBefore: timePtr(due.Add(-time.Second))}, titles: []string{}},
		{name: "priority", filter: TaskFilter{SortBy: "priority", SortAsc: false}, titles: []string{"Alpha report", "Delta", "Gamma", "Beta"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			tasks, total, err := s.repo.List(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.EqualValues(len(tt.titles), total)
			s.Equal(tt.titles, titles(tasks))
		})
	}
}

func (s *TaskRepositoryTestSuite) TestList_WildcardsAreLiteral() {
	s.create(models.Task{Title: "50% done", Tags: []string{"a%"}})
	s.create(models.Task{Title: "500 things", Tags: []string{"ab"}})
	s.create(models.Task{Title: "snake_case", Tags: []string{"a_b", `say "hi"`}})
	s.create(models.Task{Title: "snakeXcase", Tags: []string{"axb"}})

	tests := []struct {
		name   string
		filter TaskFilter
		titles []string
	}{
		{name: "percent tag", filter: TaskFilter{Tag: "a%"}, titles: []string{"50% done"}},
		{name: "underscore tag", filter: TaskFilter{Tag: "a_b"}, titles: []string{"snake_case"}},
		{name: "quoted tag", filter: TaskFilter{Tag: `say "hi"`}, titles: []string{"snake_case"}},
		{name: "percent search", filter: TaskFilter{Search: "50%"}, titles: []string{"50% done"}},
		{name: "underscore search", filter: TaskFilter{Search: "snake_"}, titles: []string{"snake_case"}},
		{name: "escape char search", filter: TaskFilter{Search: "!"}, titles: []string{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			tasks, total, err := s.repo.List(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.EqualValues(len(tt.titles), total)
			s.Equal(tt.titles, titles(tasks))
		})
	}
}

func (s *TaskRepositoryTestSuite) TestListPublic_Pagination() {
	for _, title := range []string{"a", "b", "c"} {
		s.create(models.Task{Title: title, Visibility: models.VisibilityPublic})
	}
	s.create(models.Task{Title: "private"})

	tasks, total, err := s.repo.ListPublic(s.ctx, TaskFilter{
		SortBy:     "title",
		SortAsc:    true,
		Pagination: utils.NewPaginationParams(2, 2),
	})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Equal([]string{"c"}, titles(tasks))
}

func (s *TaskRepositoryTestSuite) TestListWithComments() {
	s.create(models.Task{Title: "commented", Comments: []models.Comment{{ID: "c-1", AuthorID: s.other.ID, Content: "x"}}})
	s.create(models.Task{Title: "quiet", Comments: []models.Comment{}})

	tasks, err := s.repo.ListWithComments(s.ctx, s.other.ID)
	s.Require().NoError(err)
	s.Equal([]string{"commented"}, titles(tasks))

	tasks, err = s.repo.ListWithComments(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *TaskRepositoryTestSuite) TestCategoryCounts() {
	s.create(models.Task{Title: "1", Category: "work"})
	s.create(models.Task{Title: "2", Category: " Work"})
	s.create(models.Task{Title: "3", Category: "home"})
	s.create(models.Task{Title: "4"})

	counts, err := s.repo.CategoryCounts(s.ctx)
	s.Require().NoError(err)
	s.Equal([]CategoryCount{{Name: "home", Count: 1}, {Name: "work", Count: 2}}, counts)
}

func (s *TaskRepositoryTestSuite) TestDelete() {
	created := s.create(models.Task{Title: "gone"})
	s.Require().NoError(s.repo.Delete(s.ctx, created.ID))

	_, err := s.repo.FindByID(s.ctx, created.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func titles(tasks []models.Task) []string {
	result := make([]string, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, t.Title)
	}
	return result
}

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskRepositorySuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryTestSuite))
}
