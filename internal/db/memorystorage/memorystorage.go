// Package memorystorage provides a map-backed implementation of the task
// storage. It backs local runs and handler tests when no document store is
// configured; nothing survives a restart.
package memorystorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/taskbox/taskbox/internal/db/storage"
	"github.com/taskbox/taskbox/internal/models"
)

// MemoryStorage keeps task records in a map keyed by task id.
type MemoryStorage struct {
	// mu guards tasks: the backend is shared by concurrent handlers.
	mu    sync.RWMutex
	tasks map[string]models.Task
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		tasks: map[string]models.Task{},
	}, nil
}

// ListTasks returns all tasks owned by userID ordered by creation time.
func (theStorage *MemoryStorage) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	owned := funk.Filter(
		funk.Values(theStorage.tasks),
		func(task models.Task) bool {
			return task.UserID == userID
		},
	).([]models.Task)

	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})

	return owned, nil
}

// CreateTask stores the task under a fresh id and returns the stored record.
func (theStorage *MemoryStorage) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	now := time.Now().UTC()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now

	theStorage.tasks[task.ID] = task

	return task, nil
}

// findOwned returns the task only when it exists and belongs to userID.
// Callers must hold mu.
func (theStorage *MemoryStorage) findOwned(userID, taskID string) (models.Task, bool) {
	task, found := theStorage.tasks[taskID]
	if !found || task.UserID != userID {
		return models.Task{}, false
	}

	return task, true
}

// UpdateTask merges the non-nil fields of patch into the stored task.
func (theStorage *MemoryStorage) UpdateTask(
	ctx context.Context,
	userID,
	taskID string,
	patch models.UpdateTaskRequest,
) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	task, found := theStorage.findOwned(userID, taskID)
	if !found {
		return storage.ErrTaskNotFound
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now().UTC()

	theStorage.tasks[taskID] = task

	return nil
}

// DeleteTask removes the task owned by userID.
func (theStorage *MemoryStorage) DeleteTask(ctx context.Context, userID, taskID string) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, found := theStorage.findOwned(userID, taskID); !found {
		return storage.ErrTaskNotFound
	}

	delete(theStorage.tasks, taskID)

	return nil
}

// CompleteTask marks the task owned by userID as completed.
func (theStorage *MemoryStorage) CompleteTask(ctx context.Context, userID, taskID string) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	task, found := theStorage.findOwned(userID, taskID)
	if !found {
		return storage.ErrTaskNotFound
	}

	task.Completed = true
	task.UpdatedAt = time.Now().UTC()
	theStorage.tasks[taskID] = task

	return nil
}

// Ping always succeeds: there is nothing to reach.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory backend.
func (theStorage *MemoryStorage) Close() error {
	return nil
}
