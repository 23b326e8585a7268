package dto

import "github.com/yukikurage/taskboard/internal/utils"

// Response is the envelope of every successful API response
type Response struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message,omitempty"`
	Data       interface{}               `json:"data,omitempty"`
	Count      *int                      `json:"count,omitempty"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// NewResponse wraps data in a success envelope
func NewResponse(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// NewListResponse wraps a page of items with its count and pagination metadata
func NewListResponse(data interface{}, count int, pagination *utils.PaginationResponse) Response {
	return Response{Success: true, Data: data, Count: &count, Pagination: pagination}
}
