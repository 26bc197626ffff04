package service

import (
	"context"
	"errors"

	"github.com/taskbox/taskbox/internal/credstore"
	"github.com/taskbox/taskbox/internal/models"
)

type taskKeeper interface {
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)

	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	UpdateTask(
		ctx context.Context,
		userID,
		taskID string,
		patch models.UpdateTaskRequest,
	) error

	DeleteTask(ctx context.Context, userID, taskID string) error

	CompleteTask(ctx context.Context, userID, taskID string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	taskKeeper
	pinger
}

type credentialManager interface {
	SignUp(ctx context.Context, email, password string) (string, error)

	SignIn(ctx context.Context, email, password string) (*credstore.Session, error)
}

// ErrNothingToUpdate is returned when an update request carries no fields to apply.
var ErrNothingToUpdate = errors.New("the update request contains no fields to apply")

type Service struct {
	db          storage
	credentials credentialManager
}

func New(db storage, credentials credentialManager) *Service {
	return &Service{
		db:          db,
		credentials: credentials,
	}
}

// RegisterUser creates an account in the credential store and returns the new user's UID.
func (s *Service) RegisterUser(ctx context.Context, email, password string) (string, error) {
	return s.credentials.SignUp(ctx, email, password)
}

// LoginUser exchanges the user's credentials for an access token issued by the credential store.
func (s *Service) LoginUser(ctx context.Context, email, password string) (models.LoginResponse, error) {
	session, err := s.credentials.SignIn(ctx, email, password)
	if err != nil {
		return models.LoginResponse{}, err
	}

	return models.LoginResponse{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
	}, nil
}

func (s *Service) GetUserTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.db.ListTasks(ctx, userID)
}

// CreateTask stores a new task owned by the given user and returns the stored record.
func (s *Service) CreateTask(
	ctx context.Context,
	userID string,
	request models.CreateTaskRequest,
) (models.Task, error) {
	return s.db.CreateTask(ctx, models.Task{
		UserID:      userID,
		Title:       request.Title,
		Description: request.Description,
		Completed:   request.Completed,
	})
}

func (s *Service) UpdateTask(
	ctx context.Context,
	userID,
	taskID string,
	patch models.UpdateTaskRequest,
) error {
	if patch.Title == nil && patch.Description == nil && patch.Completed == nil {
		return ErrNothingToUpdate
	}

	return s.db.UpdateTask(ctx, userID, taskID, patch)
}

func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.db.DeleteTask(ctx, userID, taskID)
}

// CompleteTask marks the task as completed. Completing an already completed task succeeds.
func (s *Service) CompleteTask(ctx context.Context, userID, taskID string) error {
	return s.db.CompleteTask(ctx, userID, taskID)
}

// Ping checks the health of the database/storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
