// Package router wires the HTTP endpoints to the service layer and maps
// service errors onto the HTTP error taxonomy.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/taskbox/taskbox/internal/auth"
	"github.com/taskbox/taskbox/internal/authenticator"
	"github.com/taskbox/taskbox/internal/credstore"
	"github.com/taskbox/taskbox/internal/db/storage"
	"github.com/taskbox/taskbox/internal/gzippedhttp"
	"github.com/taskbox/taskbox/internal/ipchecker"
	"github.com/taskbox/taskbox/internal/logger"
	"github.com/taskbox/taskbox/internal/metrics"
	"github.com/taskbox/taskbox/internal/models"
	"github.com/taskbox/taskbox/internal/service"
	"github.com/taskbox/taskbox/internal/user"
)

type taskService interface {
	RegisterUser(ctx context.Context, email, password string) (string, error)

	LoginUser(ctx context.Context, email, password string) (models.LoginResponse, error)

	GetUserTasks(ctx context.Context, userID string) ([]models.Task, error)

	CreateTask(
		ctx context.Context,
		userID string,
		request models.CreateTaskRequest,
	) (models.Task, error)

	UpdateTask(
		ctx context.Context,
		userID,
		taskID string,
		patch models.UpdateTaskRequest,
	) error

	DeleteTask(ctx context.Context, userID, taskID string) error

	CompleteTask(ctx context.Context, userID, taskID string) error

	Ping(ctx context.Context) error
}

type metricsCollector interface {
	WithMetricsHTTPMiddleware(h http.Handler) http.Handler

	RecordUpstreamError(upstream string)
}

// Router holds the handlers of the HTTP API.
type Router struct {
	service   taskService
	metrics   metricsCollector
	validator *validator.Validate
}

// New mounts all endpoints and the middleware chain onto a chi mux.
// Task endpoints sit behind the bearer token guard; the metrics endpoint
// is reachable only from the trusted subnet when one is configured.
func New(
	svc taskService,
	authMiddleware authenticator.Authenticator,
	ipChecker *ipchecker.IPChecker,
	collector metricsCollector,
	metricsHandler http.Handler,
) *chi.Mux {
	theRouter := Router{
		service:   svc,
		metrics:   collector,
		validator: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		collector.WithMetricsHTTPMiddleware,
		gzippedhttp.UngzipRequest,
	)

	router.With(gzippedhttp.GzipResponse).Post(`/register`, theRouter.PostRegister)
	router.With(gzippedhttp.GzipResponse).Post(`/login`, theRouter.PostLogin)
	router.Get(`/ping`, theRouter.GetPing)
	router.Method(http.MethodGet, `/metrics`, ipChecker.Guard(metricsHandler))

	router.Group(func(guarded chi.Router) {
		guarded.Use(
			gzippedhttp.GzipResponse,
			authMiddleware.Authenticate,
		)
		guarded.Get(`/tasks`, theRouter.GetTasks)
		guarded.Post(`/task`, theRouter.PostTask)
		guarded.Put(`/task/{task_id}`, theRouter.PutTask)
		guarded.Delete(`/task/{task_id}`, theRouter.DeleteTask)
		guarded.Patch(`/task/{task_id}/complete`, theRouter.PatchTaskcomplete)
	})

	router.Options(`/options`, theRouter.OptionsProbe)
	router.Head(`/head`, theRouter.HeadProbe)
	router.Trace(`/trace`, theRouter.TraceEcho)

	return router
}

func (theRouter *Router) writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error while encoding the response:", err)
	}
}

func (theRouter *Router) writeError(response http.ResponseWriter, statusCode int, message string) {
	theRouter.writeJSON(response, statusCode, models.ErrorResponse{Error: message})
}

// authenticatedUser pulls the identity resolved by the auth middleware out
// of the request context. A request that got here without one is rejected.
func (theRouter *Router) authenticatedUser(
	response http.ResponseWriter,
	request *http.Request,
) (user.User, bool) {
	currentUser, found := auth.UserFromContext(request.Context())
	if !found {
		theRouter.writeError(response, http.StatusUnauthorized, "authentication required")
	}

	return currentUser, found
}

// handleTaskError maps storage errors onto the HTTP taxonomy: an absent or
// non-owned task is Not Found, anything else is a document store failure.
func (theRouter *Router) handleTaskError(response http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrTaskNotFound) {
		theRouter.writeError(response, http.StatusNotFound, "Task not found")
		return
	}

	theRouter.metrics.RecordUpstreamError(metrics.UpstreamDocumentStore)
	logger.Log.Debugln("Document store failure:", err)
	theRouter.writeError(response, http.StatusBadGateway, "document store unavailable")
}

// PostRegister creates an account in the credential store.
func (theRouter *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	var registration models.RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&registration); err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := theRouter.validator.Struct(registration); err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "invalid registration data")
		return
	}

	userUID, err := theRouter.service.RegisterUser(request.Context(), registration.Email, registration.Password)
	if err != nil {
		switch {
		case errors.Is(err, credstore.ErrEmailExists):
			theRouter.writeError(response, http.StatusBadRequest, "email already registered")
		case errors.Is(err, credstore.ErrWeakPassword):
			theRouter.writeError(response, http.StatusBadRequest, "password should be at least 6 characters")
		default:
			theRouter.metrics.RecordUpstreamError(metrics.UpstreamCredentialStore)
			logger.Log.Debugln("Registration failed:", err)
			theRouter.writeError(response, http.StatusBadGateway, "credential store unavailable")
		}
		return
	}

	theRouter.writeJSON(response, http.StatusOK, models.RegisterResponse{
		Message: "User registered successfully",
		UserUID: userUID,
	})
}

// PostLogin exchanges form credentials for a bearer token.
// The form carries `username` and `password` fields; the username is the
// account's email address.
func (theRouter *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "malformed form body")
		return
	}

	username := request.PostFormValue("username")
	password := request.PostFormValue("password")
	if username == "" || password == "" {
		theRouter.writeError(response, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := theRouter.service.LoginUser(request.Context(), username, password)
	if err != nil {
		if errors.Is(err, credstore.ErrInvalidCredentials) {
			theRouter.writeError(response, http.StatusUnauthorized, "Login failed")
			return
		}

		theRouter.metrics.RecordUpstreamError(metrics.UpstreamCredentialStore)
		logger.Log.Debugln("Login failed:", err)
		theRouter.writeError(response, http.StatusBadGateway, "credential store unavailable")
		return
	}

	theRouter.writeJSON(response, http.StatusOK, session)
}

// GetPing checks the health of the document store connection.
func (theRouter *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.service.Ping(request.Context()); err != nil {
		theRouter.metrics.RecordUpstreamError(metrics.UpstreamDocumentStore)
		logger.Log.Debugln("Ping failed:", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (theRouter *Router) GetTasks(response http.ResponseWriter, request *http.Request) {
	currentUser, found := theRouter.authenticatedUser(response, request)
	if !found {
		return
	}

	tasks, err := theRouter.service.GetUserTasks(request.Context(), currentUser.UID)
	if err != nil {
		theRouter.handleTaskError(response, err)
		return
	}

	theRouter.writeJSON(response, http.StatusOK, tasks)
}

func (theRouter *Router) PostTask(response http.ResponseWriter, request *http.Request) {
	currentUser, found := theRouter.authenticatedUser(response, request)
	if !found {
		return
	}

	var createRequest models.CreateTaskRequest
	if err := json.NewDecoder(request.Body).Decode(&createRequest); err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := theRouter.validator.Struct(createRequest); err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "title must not be empty")
		return
	}

	created, err := theRouter.service.CreateTask(request.Context(), currentUser.UID, createRequest)
	if err != nil {
		theRouter.handleTaskError(response, err)
		return
	}

	theRouter.writeJSON(response, http.StatusCreated, created)
}

func (theRouter *Router) PutTask(response http.ResponseWriter, request *http.Request) {
	currentUser, found := theRouter.authenticatedUser(response, request)
	if !found {
		return
	}

	taskID := chi.URLParam(request, "task_id")

	var patch models.UpdateTaskRequest
	if err := json.NewDecoder(request.Body).Decode(&patch); err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "malformed JSON body")
		return
	}

	err := theRouter.service.UpdateTask(request.Context(), currentUser.UID, taskID, patch)
	if err != nil {
		if errors.Is(err, service.ErrNothingToUpdate) {
			theRouter.writeError(response, http.StatusBadRequest, "no fields to update")
			return
		}

		theRouter.handleTaskError(response, err)
		return
	}

	theRouter.writeJSON(response, http.StatusOK, models.TaskResponse{
		Message: "Task updated successfully",
		TaskID:  taskID,
	})
}

func (theRouter *Router) DeleteTask(response http.ResponseWriter, request *http.Request) {
	currentUser, found := theRouter.authenticatedUser(response, request)
	if !found {
		return
	}

	taskID := chi.URLParam(request, "task_id")

	if err := theRouter.service.DeleteTask(request.Context(), currentUser.UID, taskID); err != nil {
		theRouter.handleTaskError(response, err)
		return
	}

	theRouter.writeJSON(response, http.StatusOK, models.TaskResponse{
		Message: "Task deleted successfully",
		TaskID:  taskID,
	})
}

func (theRouter *Router) PatchTaskcomplete(response http.ResponseWriter, request *http.Request) {
	currentUser, found := theRouter.authenticatedUser(response, request)
	if !found {
		return
	}

	taskID := chi.URLParam(request, "task_id")

	if err := theRouter.service.CompleteTask(request.Context(), currentUser.UID, taskID); err != nil {
		theRouter.handleTaskError(response, err)
		return
	}

	theRouter.writeJSON(response, http.StatusOK, models.TaskResponse{
		Message: "Task completed successfully",
		TaskID:  taskID,
	})
}

// OptionsProbe enumerates the methods the API answers to.
func (theRouter *Router) OptionsProbe(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Allow", "OPTIONS, GET, POST, PUT, DELETE, PATCH, HEAD, TRACE")
	response.WriteHeader(http.StatusNoContent)
}

// HeadProbe answers HEAD requests with headers only.
func (theRouter *Router) HeadProbe(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusOK)
}

// TraceEcho reflects the request back to the caller: the request headers
// become response headers and the request body is echoed verbatim.
// It never touches authentication or storage.
func (theRouter *Router) TraceEcho(response http.ResponseWriter, request *http.Request) {
	requestBody, err := io.ReadAll(request.Body)
	if err != nil {
		theRouter.writeError(response, http.StatusBadRequest, "unreadable request body")
		return
	}

	for name, values := range request.Header {
		// The echo's framing differs from the request's: the body arrives
		// already decompressed and the length is computed by the server.
		if name == "Content-Length" || name == "Content-Encoding" {
			continue
		}
		for _, value := range values {
			response.Header().Add(name, value)
		}
	}
	response.Header().Set("Content-Type", "message/http")
	response.WriteHeader(http.StatusOK)

	if _, err := response.Write(requestBody); err != nil {
		logger.Log.Debugln("Error while echoing the request body:", err)
	}
}
