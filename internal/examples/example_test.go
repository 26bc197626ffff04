package examples

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taskbox/taskbox/internal/auth"
	"github.com/taskbox/taskbox/internal/credstore"
	"github.com/taskbox/taskbox/internal/db/memorystorage"
	"github.com/taskbox/taskbox/internal/db/storage"
	"github.com/taskbox/taskbox/internal/ipchecker"
	"github.com/taskbox/taskbox/internal/logger"
	"github.com/taskbox/taskbox/internal/metrics"
	"github.com/taskbox/taskbox/internal/models"
	"github.com/taskbox/taskbox/internal/router"
	"github.com/taskbox/taskbox/internal/service"
	"github.com/taskbox/taskbox/internal/user"
)

var exampleUser = user.User{UID: "example-uid", Email: "ada@example.com"}

type stubAuth struct{}

func (s *stubAuth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		ctx := context.WithValue(request.Context(), auth.UserKey, exampleUser)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

type stubCredentials struct{}

func (s *stubCredentials) SignUp(ctx context.Context, email, password string) (string, error) {
	return exampleUser.UID, nil
}

func (s *stubCredentials) SignIn(ctx context.Context, email, password string) (*credstore.Session, error) {
	return &credstore.Session{
		AccessToken: "opaque-token",
		TokenType:   "bearer",
		UserUID:     exampleUser.UID,
	}, nil
}

func setupTestRouter(t *testing.T) (*httptest.Server, storage.Storage, *chi.Mux) {
	db, err := memorystorage.New()
	if t != nil {
		require.NoError(t, err)
	}

	ipChecker, err := ipchecker.New("")
	if t != nil {
		require.NoError(t, err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	theRouter := router.New(
		service.New(db, &stubCredentials{}),
		&stubAuth{},
		ipChecker,
		collector,
		metrics.Handler(registry),
	)

	err = logger.Init("debug")
	if t != nil {
		require.NoError(t, err)
	}

	return httptest.NewServer(theRouter), db, theRouter
}

func ExampleRouter_GetPing() {
	server, _, _ := setupTestRouter(nil)
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/ping", nil)
	if err != nil {
		panic(err)
	}

	client := &http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_PostRegister() {
	server, _, _ := setupTestRouter(nil)
	defer server.Close()

	payload := models.RegisterRequest{Email: "ada@example.com", Password: "s3cr3t!"}
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	req, err := http.NewRequest(http.MethodPost, server.URL+"/register", bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	re := regexp.MustCompile(`\{\s*"message"\s*:\s*"User registered successfully"\s*,\s*"user_uid"\s*:\s*"example-uid"\s*\}`)

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("re.Match(b):", re.Match(b))

	// Output:
	// Status Code: 200
	// re.Match(b): true
}

func ExampleRouter_PostLogin() {
	server, _, _ := setupTestRouter(nil)
	defer server.Close()

	form := url.Values{}
	form.Set("username", "ada@example.com")
	form.Set("password", "s3cr3t!")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	re := regexp.MustCompile(`\{\s*"access_token"\s*:\s*"opaque-token"\s*,\s*"token_type"\s*:\s*"bearer"\s*\}`)

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("re.Match(b):", re.Match(b))

	// Output:
	// Status Code: 200
	// re.Match(b): true
}

func ExampleRouter_PostTask() {
	server, _, _ := setupTestRouter(nil)
	defer server.Close()

	payload := models.CreateTaskRequest{Title: "Buy milk", Description: "2 liters"}
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	req, err := http.NewRequest(http.MethodPost, server.URL+"/task", bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	re := regexp.MustCompile(`"title"\s*:\s*"Buy milk"`)

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("re.Match(b):", re.Match(b))

	// Output:
	// Status Code: 201
	// re.Match(b): true
}

func ExampleRouter_GetTasks() {
	server, db, r := setupTestRouter(nil)
	server.Close()

	_, err := db.CreateTask(context.Background(), models.Task{
		UserID: exampleUser.UID,
		Title:  "Buy milk",
	})
	if err != nil {
		panic(err)
	}

	req, err := http.NewRequest(http.MethodGet, "/tasks", nil)
	if err != nil {
		panic(err)
	}

	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	var tasks []models.Task
	json.NewDecoder(rec.Body).Decode(&tasks)

	fmt.Println("Status Code:", rec.Code)
	fmt.Println("Number of tasks:", len(tasks))

	// Output:
	// Status Code: 200
	// Number of tasks: 1
}

func ExampleRouter_DeleteTask() {
	server, db, _ := setupTestRouter(nil)
	defer server.Close()

	task, err := db.CreateTask(context.Background(), models.Task{
		UserID: exampleUser.UID,
		Title:  "Buy milk",
	})
	if err != nil {
		panic(err)
	}

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/task/"+task.ID, nil)
	if err != nil {
		panic(err)
	}

	client := &http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	re := regexp.MustCompile(`"message"\s*:\s*"Task deleted successfully"`)

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("re.Match(b):", re.Match(b))

	// Output:
	// Status Code: 200
	// re.Match(b): true
}
