// Package auth provides the middleware that authenticates HTTP requests
// by resolving their bearer token against the external credential store.
// Authentication is stateless: no session is kept and every request is
// re-resolved with the provider.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/taskbox/taskbox/internal/credstore"
	"github.com/taskbox/taskbox/internal/logger"
	"github.com/taskbox/taskbox/internal/models"
	"github.com/taskbox/taskbox/internal/user"
)

type identityResolver interface {
	Lookup(ctx context.Context, idToken string) (*credstore.Identity, error)
}

// Auth authenticates requests against the credential store.
type Auth struct {
	credentials identityResolver
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserKey is the context key under which the resolved identity is stored.
const UserKey ContextKey = "authenticatedUser"

// New creates an Auth guard backed by the given credential store client.
func New(credentials identityResolver) *Auth {
	return &Auth{
		credentials: credentials,
	}
}

// Authenticate is an HTTP middleware that extracts the bearer token from
// the Authorization header, resolves it with the credential store and adds
// the identity to the request context. Requests without a resolvable token
// are rejected with 401 before the handler runs; a provider outage maps to
// 502 because the caller's credentials could not be judged at all.
func (a *Auth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		token, found := bearerToken(request)
		if !found {
			writeAuthError(response, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}

		identity, err := a.credentials.Lookup(request.Context(), token)
		if err != nil {
			if errors.Is(err, credstore.ErrInvalidToken) {
				writeAuthError(response, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			logger.Log.Debugln("Error calling the `a.credentials.Lookup()`: ", zap.Error(err))
			writeAuthError(response, http.StatusBadGateway, "credential store unavailable")
			return
		}

		ctx := context.WithValue(request.Context(), UserKey, user.User{
			UID:   identity.UID,
			Email: identity.Email,
		})
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserFromContext returns the identity stored by Authenticate.
func UserFromContext(ctx context.Context) (user.User, bool) {
	usr, ok := ctx.Value(UserKey).(user.User)
	return usr, ok
}

func bearerToken(request *http.Request) (string, bool) {
	const prefix = "Bearer "

	header := request.Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])

	return token, token != ""
}

func writeAuthError(response http.ResponseWriter, statusCode int, message string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	_ = json.NewEncoder(response).Encode(models.ErrorResponse{Error: message})
}
