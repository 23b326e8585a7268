package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"explicit", "page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"negative page", "page=-2&limit=5", PaginationParams{Page: 1, Limit: 5, Offset: 0}},
		{"limit too large", "page=2&limit=500", PaginationParams{Page: 2, Limit: 20, Offset: 20}},
		{"garbage", "page=abc&limit=xyz", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/api/tasks?"+tt.query, nil)

			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestNewPaginationResponse(t *testing.T) {
	params := NewPaginationParams(1, 20)

	assert.Equal(t, 0, NewPaginationResponse(params, 0).TotalPages)
	assert.Equal(t, 1, NewPaginationResponse(params, 20).TotalPages)
	assert.Equal(t, 2, NewPaginationResponse(params, 21).TotalPages)
}
