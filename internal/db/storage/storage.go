// Package storage declares the contract implemented by the task document
// store backends.
package storage

import (
	"context"
	"errors"

	"github.com/taskbox/taskbox/internal/models"
)

// ErrTaskNotFound is returned when a task does not exist for the given
// owner. Backends must not distinguish between an absent task and a task
// owned by someone else: both look the same to the caller.
var ErrTaskNotFound = errors.New("task not found")

// Storage persists task records keyed by owner id. Every read and every
// mutation is filtered by the owner, so a valid task id alone never grants
// access.
type Storage interface {
	// ListTasks returns all tasks owned by userID. An empty slice is a
	// valid result, not an error.
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)

	// CreateTask persists the task and returns it with the generated id
	// and the store-assigned timestamps filled in.
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// UpdateTask merges the non-nil fields of patch into the task.
	// Returns ErrTaskNotFound when the task is absent or not owned by
	// userID.
	UpdateTask(ctx context.Context, userID, taskID string, patch models.UpdateTaskRequest) error

	// DeleteTask removes the task. Deleting an absent or non-owned task
	// returns ErrTaskNotFound.
	DeleteTask(ctx context.Context, userID, taskID string) error

	// CompleteTask marks the task completed. Completing an already
	// completed task succeeds again with the same result.
	CompleteTask(ctx context.Context, userID, taskID string) error

	Ping(ctx context.Context) error

	Close() error
}
