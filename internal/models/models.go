// Package models defines the task domain records and the request/response
// shapes exchanged by the HTTP API.
package models

import "time"

// Task is a single task record as stored in the document store and
// returned by the API. The ID is generated by the store; UserID is the
// owner's identity and is assigned once at creation.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterRequest carries the credentials for a new account. The password
// length follows the credential provider's minimum policy.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterResponse reports the provider-assigned UID of the new user.
type RegisterResponse struct {
	Message string `json:"message"`
	UserUID string `json:"user_uid"`
}

// LoginResponse carries the bearer token issued by the credential store.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateTaskRequest is the body of POST /task.
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// UpdateTaskRequest is the body of PUT /task/{task_id}. Nil fields are
// left untouched; provided fields are merged into the stored record.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TaskResponse acknowledges a mutation of the given task.
type TaskResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// ErrorResponse is the uniform error body returned by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	StorageTypeUnknown = iota
	StorageTypeMongo
	StorageTypeMemory
)
