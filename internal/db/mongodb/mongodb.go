// Package mongodb provides a MongoDB-based implementation of the storage
// interface for persisting task records. Task documents live in a single
// collection and are always queried together with their owner id, so the
// ownership check is part of every filter rather than a separate lookup.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskbox/taskbox/internal/db/storage"
	"github.com/taskbox/taskbox/internal/models"
)

const tasksCollection = "tasks"

// MongoDB is a MongoDB-backed implementation of the task storage.
// All persistence operations run against a single database whose name is
// fixed at construction time.
type MongoDB struct {
	client            *mongo.Client
	database          string
	connectionTimeout time.Duration
}

// taskDocument is the on-wire shape of a task inside the collection.
// The _id is generated by the store on insert.
type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d taskDocument) toModel() models.Task {
	return models.Task{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// New connects to the MongoDB deployment behind mongoURI, pings it to fail
// fast on unreachable stores, and returns a configured MongoDB instance.
func New(
	ctx context.Context,
	mongoURI string,
	database string,
	connectionTimeout time.Duration,
) (*MongoDB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/mongodb/mongodb.go/New(): error while `mongo.Connect()` calling: %w",
				err,
			)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/mongodb/mongodb.go/New(): error while `client.Ping()` calling: %w",
				err,
			)
	}

	return &MongoDB{
		client:            client,
		database:          database,
		connectionTimeout: connectionTimeout,
	}, nil
}

func (db *MongoDB) tasks() *mongo.Collection {
	return db.client.Database(db.database).Collection(tasksCollection)
}

// ownedTaskFilter builds the filter used by every single-task operation.
// A malformed task id cannot match any stored document, so it is reported
// the same way as an absent one.
func ownedTaskFilter(userID, taskID string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, storage.ErrTaskNotFound
	}

	return bson.M{"_id": objectID, "user_id": userID}, nil
}

// ListTasks returns all tasks owned by userID.
func (db *MongoDB) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	cursor, err := db.tasks().Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/mongodb/mongodb.go/ListTasks(): error while `db.tasks().Find()` calling: %w",
				err,
			)
	}
	defer cursor.Close(ctx)

	var documents []taskDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/mongodb/mongodb.go/ListTasks(): error while `cursor.All()` calling: %w",
				err,
			)
	}

	tasks := make([]models.Task, 0, len(documents))
	for _, document := range documents {
		tasks = append(tasks, document.toModel())
	}

	return tasks, nil
}

// CreateTask inserts the task and returns it with the generated id and
// the store-assigned timestamps.
func (db *MongoDB) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	now := time.Now().UTC()
	document := taskDocument{
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := db.tasks().InsertOne(ctx, document)
	if err != nil {
		return models.Task{},
			fmt.Errorf(
				"in internal/db/mongodb/mongodb.go/CreateTask(): error while `db.tasks().InsertOne()` calling: %w",
				err,
			)
	}

	document.ID = result.InsertedID.(primitive.ObjectID)

	return document.toModel(), nil
}

// UpdateTask merges the non-nil fields of patch into the task owned by
// userID. Absent and non-owned tasks are both reported as
// storage.ErrTaskNotFound.
func (db *MongoDB) UpdateTask(
	ctx context.Context,
	userID,
	taskID string,
	patch models.UpdateTaskRequest,
) error {
	filter, err := ownedTaskFilter(userID, taskID)
	if err != nil {
		return err
	}

	fields := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Completed != nil {
		fields["completed"] = *patch.Completed
	}

	result, err := db.tasks().UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf(
			"in internal/db/mongodb/mongodb.go/UpdateTask(): error while `db.tasks().UpdateOne()` calling: %w",
			err,
		)
	}
	if result.MatchedCount == 0 {
		return storage.ErrTaskNotFound
	}

	return nil
}

// DeleteTask removes the task owned by userID. Deleting an absent or
// non-owned task returns storage.ErrTaskNotFound.
func (db *MongoDB) DeleteTask(ctx context.Context, userID, taskID string) error {
	filter, err := ownedTaskFilter(userID, taskID)
	if err != nil {
		return err
	}

	result, err := db.tasks().DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/mongodb/mongodb.go/DeleteTask(): error while `db.tasks().DeleteOne()` calling: %w",
			err,
		)
	}
	if result.DeletedCount == 0 {
		return storage.ErrTaskNotFound
	}

	return nil
}

// CompleteTask marks the task completed. The update matches on the owner
// filter only, so completing an already completed task succeeds again.
func (db *MongoDB) CompleteTask(ctx context.Context, userID, taskID string) error {
	filter, err := ownedTaskFilter(userID, taskID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"completed": true, "updated_at": time.Now().UTC()}}

	result, err := db.tasks().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/mongodb/mongodb.go/CompleteTask(): error while `db.tasks().UpdateOne()` calling: %w",
			err,
		)
	}
	if result.MatchedCount == 0 {
		return storage.ErrTaskNotFound
	}

	return nil
}

// Ping checks the connection to the document store.
func (db *MongoDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.client.Ping(ctxWithTimeout, nil)
}

// Close disconnects from the document store.
func (db *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.connectionTimeout)
	defer cancel()

	if err := db.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}

	return nil
}
