package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usersvc/usersvc/common/apiutil"
	"github.com/usersvc/usersvc/internal/server"
	"github.com/usersvc/usersvc/internal/users"
	"github.com/usersvc/usersvc/pkg/models"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRouter wires a router against a fresh in-memory database
func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	logger := zaptest.NewLogger(t)
	svc, err := users.NewService(logger, db)
	require.NoError(t, err)

	return server.NewServer(logger, svc).Router()
}

func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeUser(t *testing.T, w *httptest.ResponseRecorder) models.User {
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	return user
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apiutil.ErrorResponse {
	var resp apiutil.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)
	w := performRequest(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestCreateUser(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	user := decodeUser(t, w)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, "john@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(router, http.MethodPost, "/users", `{"name":"Jane Doe","email":"john@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email_exists", decodeError(t, w).Error)
}

func TestCreateUserValidation(t *testing.T) {
	router := setupRouter(t)

	testCases := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"email":"john@example.com"}`},
		{name: "empty name", body: `{"name":"","email":"john@example.com"}`},
		{name: "missing email", body: `{"name":"John Doe"}`},
		{name: "malformed email", body: `{"name":"John Doe","email":"not-an-email"}`},
		{name: "name too long", body: fmt.Sprintf(`{"name":%q,"email":"john@example.com"}`, strings.Repeat("x", 101))},
		{name: "malformed json", body: `{"name":`},
		{name: "empty body", body: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/users", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, "validation_error", decodeError(t, w).Error)
		})
	}

	// Field errors are reported per field under the json tag name
	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"not-an-email"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	details, ok := decodeError(t, w).Details.([]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	field := details[0].(map[string]interface{})
	assert.Equal(t, "email", field["field"])
	assert.Equal(t, "email", field["rule"])

	// Rejected requests must not write anything
	w = performRequest(router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(0), resp.Total)
}

func TestGetUser(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)
	got := decodeUser(t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Email, got.Email)
}

func TestGetUserNotFound(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodGet, "/users/9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", decodeError(t, w).Error)
}

func TestGetUserInvalidID(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodGet, "/users/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
}

func TestListUsers(t *testing.T) {
	router := setupRouter(t)

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		body := fmt.Sprintf(`{"name":"User %d","email":%q}`, i, email)
		w := performRequest(router, http.MethodPost, "/users", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// Defaults: limit 10, offset 0
	w := performRequest(router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 0, resp.Offset)
	require.Len(t, resp.Users, 3)

	// Newest first
	assert.Equal(t, "c@example.com", resp.Users[0].Email)

	// Explicit paging
	w = performRequest(router, http.MethodGet, "/users?limit=2&offset=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.Limit)
	assert.Len(t, resp.Users, 2)

	w = performRequest(router, http.MethodGet, "/users?limit=2&offset=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Offset)
	assert.Len(t, resp.Users, 1)
}

func TestListUsersValidation(t *testing.T) {
	router := setupRouter(t)

	for _, query := range []string{
		"limit=0",
		"limit=101",
		"limit=abc",
		"offset=-1",
		"offset=abc",
	} {
		t.Run(query, func(t *testing.T) {
			w := performRequest(router, http.MethodGet, "/users?"+query, "")
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, "validation_error", decodeError(t, w).Error)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)

	// Name-only update keeps the email
	w = performRequest(router, http.MethodPut, fmt.Sprintf("/users/%d", created.ID), `{"name":"John Q. Doe"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	updated := decodeUser(t, w)
	assert.Equal(t, "John Q. Doe", updated.Name)
	assert.Equal(t, "john@example.com", updated.Email)

	// Email update
	w = performRequest(router, http.MethodPut, fmt.Sprintf("/users/%d", created.ID), `{"email":"john.q@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "john.q@example.com", decodeUser(t, w).Email)

	// An empty update object changes nothing
	w = performRequest(router, http.MethodPut, fmt.Sprintf("/users/%d", created.ID), `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	unchanged := decodeUser(t, w)
	assert.Equal(t, "John Q. Doe", unchanged.Name)
	assert.Equal(t, "john.q@example.com", unchanged.Email)
}

func TestUpdateUserErrors(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/users", `{"name":"First","email":"first@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = performRequest(router, http.MethodPost, "/users", `{"name":"Second","email":"second@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	second := decodeUser(t, w)

	// Unknown ID
	w = performRequest(router, http.MethodPut, "/users/9999", `{"name":"Nobody"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", decodeError(t, w).Error)

	// Email already held by another user
	w = performRequest(router, http.MethodPut, fmt.Sprintf("/users/%d", second.ID), `{"email":"first@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email_exists", decodeError(t, w).Error)

	// Invalid field values
	w = performRequest(router, http.MethodPut, fmt.Sprintf("/users/%d", second.ID), `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = performRequest(router, http.MethodPut, fmt.Sprintf("/users/%d", second.ID), `{"name":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Invalid ID syntax
	w = performRequest(router, http.MethodPut, "/users/abc", `{"name":"X"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteUser(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)

	w = performRequest(router, http.MethodDelete, fmt.Sprintf("/users/%d", created.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting again reports not found
	w = performRequest(router, http.MethodDelete, fmt.Sprintf("/users/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", decodeError(t, w).Error)
}

func TestUserLifecycle(t *testing.T) {
	router := setupRouter(t)

	// Create a user
	w := performRequest(router, http.MethodPost, "/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)

	// A second create with the same email is rejected
	w = performRequest(router, http.MethodPost, "/users", `{"name":"Someone Else","email":"john@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The listing contains exactly the created user
	w = performRequest(router, http.MethodGet, "/users?limit=5&offset=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, created.ID, resp.Users[0].ID)

	// Fetching by ID returns the matching record
	w = performRequest(router, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeUser(t, w)
	assert.Equal(t, "John Doe", got.Name)
	assert.Equal(t, "john@example.com", got.Email)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	// Prime the request counter before scraping
	performRequest(router, http.MethodGet, "/health", "")

	w := performRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "usersvc_http_requests_total")
	assert.Contains(t, w.Body.String(), "usersvc_users_created_total")
}

func TestDocsEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := performRequest(router, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "redoc")
}
