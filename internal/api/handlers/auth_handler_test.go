package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

type fakeAuth struct {
	registered []models.RegisterRequest
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if password != "correct-horse" {
		return nil, utils.E(utils.CodeUnauthorized, "fakeAuth.Login", "invalid email or password", nil)
	}
	return &models.LoginResponse{
		AccessToken: "tok",
		TokenType:   "bearer",
		User:        models.UserInfo{ID: "u1", Email: email, Role: models.RoleCandidate},
	}, nil
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	for _, r := range f.registered {
		if strings.EqualFold(r.Email, req.Email) {
			return nil, utils.E(utils.CodeConflict, "fakeAuth.Register", "email already registered", nil)
		}
	}
	f.registered = append(f.registered, req)
	return &models.UserInfo{ID: "u2", Email: req.Email, Name: req.Name, Role: models.RoleCandidate}, nil
}

func (f *fakeAuth) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	if userID != "u1" {
		return nil, utils.E(utils.CodeNotFound, "fakeAuth.Me", "user not found", nil)
	}
	return &models.UserInfo{ID: "u1", Email: "alice@example.com", Role: models.RoleCandidate}, nil
}

func (f *fakeAuth) EnsureAdmin(ctx context.Context, email, password string) error { return nil }

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&fakeAuth{})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set("user_id", u)
		}
	})
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.GET("/auth/me", h.Me)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	r := newAuthRouter()

	w := postJSON(r, "/auth/login", `{"email":"alice@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, "u1", resp.User.ID)

	w = postJSON(r, "/auth/login", `{"email":"alice@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/auth/login", `{"email":"alice@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Register(t *testing.T) {
	r := newAuthRouter()

	w := postJSON(r, "/auth/register", `{"email":"bob@example.com","password":"long-enough","name":"Bob"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Bob"`)

	w = postJSON(r, "/auth/register", `{"email":"BOB@example.com","password":"long-enough"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(r, "/auth/register", `{"email":"not-an-email","password":"long-enough"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/auth/register", `{"email":"carol@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("X-Test-User", "u1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}
