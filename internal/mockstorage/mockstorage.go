// Package mockstorage provides a testify-based mock implementation of the
// task storage interface. It is used for unit testing the service and the
// HTTP handlers by simulating document store behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/taskbox/taskbox/internal/models"
)

// StorageMock is a testify mock that implements the storage.Storage
// interface used by the service layer.
type StorageMock struct {
	mock.Mock
}

// ListTasks mocks fetching the tasks owned by a user.
func (m *StorageMock) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	args := m.Called(ctx, userID)
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

// CreateTask mocks persisting a new task.
func (m *StorageMock) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	args := m.Called(ctx, task)
	created, _ := args.Get(0).(models.Task)
	return created, args.Error(1)
}

// UpdateTask mocks merging fields into a stored task.
func (m *StorageMock) UpdateTask(
	ctx context.Context,
	userID,
	taskID string,
	patch models.UpdateTaskRequest,
) error {
	args := m.Called(ctx, userID, taskID, patch)
	return args.Error(0)
}

// DeleteTask mocks removing a task.
func (m *StorageMock) DeleteTask(ctx context.Context, userID, taskID string) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

// CompleteTask mocks marking a task completed.
func (m *StorageMock) CompleteTask(ctx context.Context, userID, taskID string) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

// Ping mocks the document store health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the connection.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
