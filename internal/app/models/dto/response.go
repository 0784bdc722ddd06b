package dto

import "time"

// APIResponse is the standard success envelope.
type APIResponse struct {
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp" example:"2026-08-30T12:01:05.123Z"`
}

// PaginationInfo describes one page of a collection response.
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"5"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"42"`
}

// RecordListResponse is the collection endpoint payload.
type RecordListResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
