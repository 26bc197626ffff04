// Package credstore provides the REST client for the external credential
// store (an Identity-Toolkit-compatible auth provider). The provider owns
// all user records and token lifecycles; this client only relays
// credentials and bearer tokens and maps provider error codes onto the
// process error taxonomy.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	signUpPath = "/v1/accounts:signUp"
	signInPath = "/v1/accounts:signInWithPassword"
	lookupPath = "/v1/accounts:lookup"
)

// Sentinel errors the rest of the system branches on. Provider codes that
// match none of them surface as ErrUpstream.
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password rejected by the credential store policy")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUpstream           = errors.New("credential store request failed")
)

// Client talks to the credential store. The base URL is configurable so
// tests can point the client at a local stub and deployments at the
// provider's emulator.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

// Session is the bearer credential issued on a successful sign-in.
type Session struct {
	AccessToken string
	TokenType   string
	UserUID     string
}

// Identity holds the claims the provider resolved from a bearer token.
type Identity struct {
	UID   string
	Email string
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type sessionResponse struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// New returns a Client bound to the given provider base URL and API key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		apiKey:     apiKey,
	}
}

// SignUp registers a new user and returns the provider-assigned UID.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	session, err := c.postCredentials(ctx, signUpPath, email, password)
	if err != nil {
		return "", err
	}

	return session.LocalID, nil
}

// SignIn exchanges email and password for a bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.postCredentials(ctx, signInPath, email, password)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken: session.IDToken,
		TokenType:   "bearer",
		UserUID:     session.LocalID,
	}, nil
}

// Lookup resolves a bearer token into the identity it was issued for.
// Every call reaches the provider: no token is cached or verified locally.
func (c *Client) Lookup(ctx context.Context, idToken string) (*Identity, error) {
	result := &lookupResponse{}
	apiError := &apiErrorResponse{}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(lookupRequest{IDToken: idToken}).
		SetResult(result).
		SetError(apiError).
		Post(lookupPath)
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/credstore/credstore.go/Lookup(): error while `c.httpClient.R().Post()` calling: %w: %w",
				ErrUpstream,
				err,
			)
	}
	if !response.IsSuccess() {
		return nil, mapProviderError(response.StatusCode(), apiError)
	}
	if len(result.Users) == 0 {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UID:   result.Users[0].LocalID,
		Email: result.Users[0].Email,
	}, nil
}

func (c *Client) postCredentials(
	ctx context.Context,
	path,
	email,
	password string,
) (*sessionResponse, error) {
	result := &sessionResponse{}
	apiError := &apiErrorResponse{}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(credentialsRequest{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}).
		SetResult(result).
		SetError(apiError).
		Post(path)
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/credstore/credstore.go/postCredentials(): error while `c.httpClient.R().Post()` calling: %w: %w",
				ErrUpstream,
				err,
			)
	}
	if !response.IsSuccess() {
		return nil, mapProviderError(response.StatusCode(), apiError)
	}

	return result, nil
}

// mapProviderError translates the provider's error code into a sentinel.
// Codes sometimes carry a human-readable suffix ("WEAK_PASSWORD : ..."),
// so matching happens on the first token.
func mapProviderError(statusCode int, apiError *apiErrorResponse) error {
	code, _, _ := strings.Cut(apiError.Error.Message, " ")

	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "MISSING_ID_TOKEN":
		return ErrInvalidToken
	}

	return fmt.Errorf("%w: status %d: %s", ErrUpstream, statusCode, apiError.Error.Message)
}
