package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth       *AuthHandler
	Tasks      *TaskHandler
	Categories *CategoryHandler
	Users      *UserHandler
}

// NewHandlers wires services over store. suggester may be nil when AI is not configured.
func NewHandlers(store repository.Store, suggester services.TaskSuggester, logger *zap.Logger) Handlers {
	taskService := services.NewTaskService(store, suggester, logger)

	return Handlers{
		Auth:       NewAuthHandler(services.NewAuthService(store.Users())),
		Tasks:      NewTaskHandler(taskService),
		Categories: NewCategoryHandler(services.NewCategoryService(store, logger)),
		Users:      NewUserHandler(services.NewUserService(store, taskService, logger)),
	}
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r gin.IRouter, users repository.UserRepository, h Handlers) {
	useJSONFieldNames()

	requireAuth := middleware.RequireAuth(users)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Taskboard API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.Tasks.ListTasks)
			tasks.GET("/public", h.Tasks.ListPublicTasks)
			tasks.POST("", h.Tasks.CreateTask)
			tasks.POST("/generate", h.Tasks.GenerateTasks)

			task := tasks.Group("/:id")
			task.Use(middleware.RequireIDParam("id"))
			{
				task.GET("", h.Tasks.GetTask)
				task.PUT("", h.Tasks.UpdateTask)
				task.DELETE("", h.Tasks.DeleteTask)
				task.PATCH("/visibility", h.Tasks.ToggleVisibility)
				task.GET("/history", h.Tasks.GetTaskHistory)

				task.POST("/subtasks", h.Tasks.AddSubtask)
				task.PATCH("/subtasks/:subtaskId/toggle", h.Tasks.ToggleSubtask)
				task.DELETE("/subtasks/:subtaskId", h.Tasks.RemoveSubtask)

				task.POST("/comments", h.Tasks.AddComment)
				task.PUT("/comments/:commentId", h.Tasks.EditComment)
				task.DELETE("/comments/:commentId", h.Tasks.DeleteComment)
				task.POST("/comments/:commentId/vote", h.Tasks.VoteComment)
			}
		}

		// Category routes
		categories := api.Group("/categories")
		{
			categories.GET("", middleware.OptionalAuth(users), h.Categories.ListCategories)
			categories.GET("/:name", middleware.OptionalAuth(users), h.Categories.GetCategory)
			categories.POST("/sync", requireAuth, middleware.RequireAdmin(), h.Categories.SyncCategories)
		}

		// User management routes (admin)
		admin := api.Group("/users")
		admin.Use(requireAuth, middleware.RequireAdmin())
		{
			admin.GET("", h.Users.ListUsers)
			admin.POST("", h.Users.CreateUser)

			user := admin.Group("/:id")
			user.Use(middleware.RequireIDParam("id"))
			{
				user.GET("", h.Users.GetUser)
				user.PUT("", h.Users.UpdateUser)
				user.DELETE("", h.Users.DeleteUser)
			}
		}
	}
}
