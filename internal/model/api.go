package model

import (
	"time"
)

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ValidationErrorResponse is returned when a form fails its schema.
type ValidationErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Report  *ErrorReport `json:"report"`
}

// ListEvent types published on the change feed.
const (
	EventListCreated  = "list_created"
	EventListUpdated  = "list_updated"
	EventListDeleted  = "list_deleted"
	EventItemsChanged = "items_changed"
	EventPing         = "ping"
	EventPong         = "pong"
	EventError        = "error"
)

// ListEvent is a message sent to change feed subscribers.
type ListEvent struct {
	Type      string       `json:"type"`
	ListID    string       `json:"listId,omitempty"`
	List      *ProductList `json:"list,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewListEvent creates a change event for a list. list may be nil.
func NewListEvent(eventType, listID string, list *ProductList) ListEvent {
	return ListEvent{
		Type:      eventType,
		ListID:    listID,
		List:      list,
		Timestamp: time.Now().UTC(),
	}
}
