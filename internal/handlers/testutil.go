package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"shotlog/internal/database"
	"shotlog/internal/middleware"
	"shotlog/internal/shots"

	"github.com/google/go-querystring/query"
)

// TestUser is the alias attached to authenticated test requests
const TestUser = "alice"

// TestContext holds common test dependencies
type TestContext struct {
	Handler   *Handler
	MockStore *database.MockStore
}

// NewTestContext creates a handler backed by a mock store
func NewTestContext() *TestContext {
	store := &database.MockStore{}
	return &TestContext{
		Handler:   NewHandler(shots.NewService(store, nil), store, Config{}),
		MockStore: store,
	}
}

// NewAuthenticatedRequest creates a request carrying TestUser
func NewAuthenticatedRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	return req.WithContext(middleware.ContextWithUser(req.Context(), TestUser))
}

// NewUnauthenticatedRequest creates a request without a user
func NewUnauthenticatedRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewFormRequest encodes v with its url tags as a form body
func NewFormRequest(method, path string, v any) *http.Request {
	values, err := query.Values(v)
	if err != nil {
		panic(err)
	}
	req := NewAuthenticatedRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// NewJSONRequest creates an authenticated request with a JSON body
func NewJSONRequest(method, path, body string) *http.Request {
	req := NewAuthenticatedRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
