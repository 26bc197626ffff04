// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskbox/taskbox/internal/auth"
	"github.com/taskbox/taskbox/internal/config"
	"github.com/taskbox/taskbox/internal/credstore"
	"github.com/taskbox/taskbox/internal/db/memorystorage"
	"github.com/taskbox/taskbox/internal/db/mongodb"
	"github.com/taskbox/taskbox/internal/ipchecker"
	"github.com/taskbox/taskbox/internal/logger"
	"github.com/taskbox/taskbox/internal/metrics"
	"github.com/taskbox/taskbox/internal/models"
	"github.com/taskbox/taskbox/internal/router"
	"github.com/taskbox/taskbox/internal/service"
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
	Close() error
}

// App encapsulates the configuration, HTTP handler, and storage backend
// needed to run the task management service.
type App struct {
	cfg         *config.Config
	db          storage
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the credential store client and the authentication middleware
// - setting up the router, metrics, and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	credentials := credstore.New(app.cfg.CredAPIBaseURL, app.cfg.CredAPIKey)

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	app.httpHandler = router.New(
		service.New(app.db, credentials),
		auth.New(credentials),
		ipChecker,
		collector,
		metrics.Handler(registry),
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.MongoURI != "" {
		return models.StorageTypeMongo
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypeMongo:
		return mongodb.New(
			context.Background(),
			cfg.MongoURI,
			cfg.MongoDatabase,
			cfg.DBConnectionTimeout,
		)
	}

	return memorystorage.New()
}
