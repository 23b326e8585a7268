package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/services"
)

// AddComment posts a comment on a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.tasks.AddComment(c.Request.Context(), taskID, actor, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, dto.ToCommentDTO(*comment, viewerOf(actor)), "Comment added successfully")
}

// EditComment replaces the content of the current user's comment
func (h *TaskHandler) EditComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.tasks.EditComment(c.Request.Context(), taskID, c.Param("commentId"), actor, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToCommentDTO(*comment, viewerOf(actor)), "Comment updated successfully")
}

// DeleteComment soft-deletes a comment
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	comment, err := h.tasks.DeleteComment(c.Request.Context(), taskID, c.Param("commentId"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.ToCommentDTO(*comment, viewerOf(actor)), "Comment deleted successfully")
}

// VoteComment casts, switches or cancels the current user's vote
func (h *TaskHandler) VoteComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	vote, err := services.ParseVoteType(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.tasks.VoteComment(c.Request.Context(), taskID, c.Param("commentId"), actor, vote)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result, "")
}
