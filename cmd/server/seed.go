package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seedSamples bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and sample tasks",
	Long: `Create the administrator described by ADMIN_USERNAME, ADMIN_EMAIL and
ADMIN_PASSWORD if it does not exist yet, then add a few sample tasks
owned by it.

Examples:
  taskboard seed
  taskboard seed --samples=false`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedSamples, "samples", true, "create sample tasks")
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.AdminUsername == "" || a.cfg.AdminEmail == "" || a.cfg.AdminPassword == "" {
		return errors.New("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	ctx := cmd.Context()
	store := repository.NewStore(a.db)
	taskService := services.NewTaskService(store, nil, a.logger)
	userService := services.NewUserService(store, taskService, a.logger)

	admin, err := ensureAdmin(ctx, store, userService, a)
	if err != nil {
		return err
	}

	if !seedSamples {
		return nil
	}

	actor := services.ActorFromUser(admin)
	for _, input := range sampleTasks(time.Now().UTC()) {
		task, err := taskService.CreateTask(ctx, actor, input)
		if err != nil {
			return fmt.Errorf("failed to create sample task %q: %w", input.Title, err)
		}
		a.logger.Info("sample task created", zap.Uint64("task_id", task.ID), zap.String("title", task.Title))
	}

	return nil
}

func ensureAdmin(ctx context.Context, store repository.Store, users *services.UserService, a *app) (*models.User, error) {
	existing, err := store.Users().FindByUsername(ctx, a.cfg.AdminUsername)
	switch {
	case err == nil:
		a.logger.Info("admin already exists", zap.Uint64("user_id", existing.ID))
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	admin, err := users.CreateUser(ctx, services.CreateUserInput{
		RegisterInput: services.RegisterInput{
			Username:  a.cfg.AdminUsername,
			Email:     a.cfg.AdminEmail,
			Password:  a.cfg.AdminPassword,
			FirstName: "Admin",
			LastName:  "User",
		},
		Role: models.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

func sampleTasks(now time.Time) []services.CreateTaskInput {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time {
		t := now.Add(d).Truncate(time.Hour)
		return &t
	}

	return []services.CreateTaskInput{
		{
			Title:       "Finish the quarterly report",
			Description: "Compile Q4 figures, draw the charts and prepare the management presentation",
			Status:      models.TaskStatusInProgress,
			Priority:    models.TaskPriorityHigh,
			DueDate:     at(14 * day),
			Visibility:  models.VisibilityPublic,
			Category:    "work",
			Tags:        []string{"report", "urgent", "q4"},
			Subtasks: []services.SubtaskInput{
				{Title: "Collect sales data", Status: models.TaskStatusDone, DueDate: at(3 * day)},
				{Title: "Draw the charts", Status: models.TaskStatusInProgress, DueDate: at(7 * day)},
				{Title: "Write the final report", DueDate: at(13 * day)},
			},
		},
		{
			Title:       "Prepare the client meeting",
			Description: "Slides and minutes of the last sprint",
			Priority:    models.TaskPriorityMedium,
			DueDate:     at(21 * day),
			Category:    "work",
			Tags:        []string{"meeting", "client"},
			Subtasks: []services.SubtaskInput{
				{Title: "Create the slides", DueDate: at(19 * day)},
				{Title: "Write the minutes", DueDate: at(20 * day)},
			},
		},
		{
			Title:       "Weekly groceries",
			Description: "Fruit, vegetables, bread and milk",
			Priority:    models.TaskPriorityLow,
			DueDate:     at(2 * day),
			Category:    "personal",
			Tags:        []string{"groceries", "weekly"},
		},
		{
			Title:       "Build the login feature",
			Description: "Session based authentication for the web client",
			Status:      models.TaskStatusInProgress,
			Priority:    models.TaskPriorityCritical,
			DueDate:     at(10 * day),
			Visibility:  models.VisibilityPublic,
			Category:    "project",
			Tags:        []string{"development", "security"},
			Subtasks: []services.SubtaskInput{
				{Title: "Create the user model", Status: models.TaskStatusDone},
				{Title: "Add the auth routes", Status: models.TaskStatusInProgress},
				{Title: "Protect the private routes"},
				{Title: "Test the login flow"},
			},
		},
	}
}
