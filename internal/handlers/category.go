package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/services"
)

type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListCategories returns every category with its live task count
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	count := len(categories)
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: categories, Count: &count})
}

// GetCategory returns one category by name
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categories.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, category, "")
}

// SyncCategories rebuilds category counts from the tasks
func (h *CategoryHandler) SyncCategories(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	categories, err := h.categories.Sync(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	count := len(categories)
	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    categories,
		Count:   &count,
		Message: "Categories synchronized successfully",
	})
}
