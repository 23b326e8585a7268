package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/dto"
)

// AddSubtask appends a subtask to a task
func (h *TaskHandler) AddSubtask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AddSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.AddSubtask(c.Request.Context(), taskID, actor, req.Title, req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, dto.ToTaskDTO(*task, viewerOf(actor), h.now()), "Subtask added successfully")
}

// ToggleSubtask flips a subtask between done and todo
func (h *TaskHandler) ToggleSubtask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.ToggleSubtask(c.Request.Context(), taskID, c.Param("subtaskId"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToTaskDTO(*task, viewerOf(actor), h.now()), "")
}

// RemoveSubtask deletes a subtask from a task
func (h *TaskHandler) RemoveSubtask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.RemoveSubtask(c.Request.Context(), taskID, c.Param("subtaskId"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToTaskDTO(*task, viewerOf(actor), h.now()), "Subtask removed successfully")
}
