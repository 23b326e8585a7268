package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/services"
	"github.com/yukikurage/taskboard/internal/utils"
)

// TaskHandler serves task, subtask and comment endpoints.
type TaskHandler struct {
	tasks *services.TaskService
	now   func() time.Time
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
		now:   time.Now,
	}
}

// ListTasks returns the current user's tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	input, err := listInputFromQuery(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, dto.ToTaskListItemDTOs(tasks, h.now()), len(tasks), input.Pagination, total)
}

// ListPublicTasks returns public tasks of every user
func (h *TaskHandler) ListPublicTasks(c *gin.Context) {
	input, err := listInputFromQuery(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, total, err := h.tasks.ListPublicTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, dto.ToTaskListItemDTOs(tasks, h.now()), len(tasks), input.Pagination, total)
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), taskID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToTaskDTO(*task, viewerOf(actor), h.now()), "")
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Visibility:  req.Visibility,
		Category:    req.Category,
		Tags:        req.Tags,
		Subtasks:    toSubtaskInputs(req.Subtasks),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, dto.ToTaskDTO(*task, viewerOf(actor), h.now()), "Task created successfully")
}

// UpdateTask applies a partial update. An explicit null due_date clears it
// and the history field may not be written.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Failed to read request body")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		apierrors.InvalidFormat(c, "Request body must be a JSON object", nil)
		return
	}
	if _, exists := fields["history"]; exists {
		apierrors.BadRequestWithDetails(c, "history cannot be modified directly", []FieldError{{
			Field:   "history",
			Message: "is read-only",
		}})
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondBindError(c, err)
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Visibility:  req.Visibility,
		Category:    req.Category,
		Tags:        req.Tags,
	}
	if raw, exists := fields["due_date"]; exists && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		input.ClearDueDate = true
	}
	if req.Subtasks != nil {
		subtasks := toSubtaskInputs(*req.Subtasks)
		input.Subtasks = &subtasks
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), taskID, actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToTaskDTO(*task, viewerOf(actor), h.now()), "Task updated successfully")
}

// DeleteTask deletes a task owned by the current user
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), taskID, actor); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, nil, "Task deleted successfully")
}

// ToggleVisibility switches a task between private and public
func (h *TaskHandler) ToggleVisibility(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.ToggleVisibility(c.Request.Context(), taskID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToTaskDTO(*task, viewerOf(actor), h.now()),
		fmt.Sprintf("Task is now %s", task.Visibility))
}

// GetTaskHistory returns the change history of a task
func (h *TaskHandler) GetTaskHistory(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.tasks.GetHistory(c.Request.Context(), taskID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	count := len(history)
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: history, Count: &count})
}

// GenerateTasks suggests draft tasks from free text. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	drafts, err := h.tasks.GenerateTasks(c.Request.Context(), actor, services.GenerateTasksInput{Text: req.Text})
	if err != nil {
		respondError(c, err)
		return
	}

	count := len(drafts)
	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    drafts,
		Count:   &count,
		Message: fmt.Sprintf("Generated %d task suggestions", count),
	})
}

func toSubtaskInputs(reqs []dto.SubtaskRequest) []services.SubtaskInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]services.SubtaskInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = services.SubtaskInput{
			ID:      r.ID,
			Title:   r.Title,
			Status:  r.Status,
			DueDate: r.DueDate,
		}
	}
	return inputs
}

// listInputFromQuery reads filter, sort and pagination query parameters
func listInputFromQuery(c *gin.Context) (services.ListTasksInput, error) {
	input := services.ListTasksInput{
		Category:   c.Query("category"),
		Tag:        c.Query("tag"),
		Search:     strings.TrimSpace(c.Query("q")),
		SortBy:     c.Query("sort"),
		Pagination: utils.GetPaginationParams(c),
	}

	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}

	switch order := strings.ToLower(c.Query("order")); order {
	case "", "desc":
	case "asc":
		input.SortAsc = true
	default:
		return input, fmt.Errorf("invalid order %q, expected asc or desc", order)
	}

	var err error
	if input.DueBefore, err = parseQueryTime(c, "due_before"); err != nil {
		return input, err
	}
	if input.DueAfter, err = parseQueryTime(c, "due_after"); err != nil {
		return input, err
	}

	return input, nil
}

func parseQueryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q, expected RFC 3339 or YYYY-MM-DD", key, raw)
}
