// Package testutil spins up the full HTTP stack against an in-memory record
// store for handler integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/steviecodesit/ourhome/internal/api"
	"github.com/steviecodesit/ourhome/internal/app"
	iauth "github.com/steviecodesit/ourhome/internal/auth"
	"github.com/steviecodesit/ourhome/internal/records"
	recordstest "github.com/steviecodesit/ourhome/internal/records/testutil"
	"github.com/steviecodesit/ourhome/internal/services"
	"github.com/steviecodesit/ourhome/pkg/response"
)

// Env bundles the router and services backing one handler test.
type Env struct {
	t          *testing.T
	Router     *gin.Engine
	Store      records.Store
	Users      *services.UserService
	Households *services.HouseholdService
	JWT        *iauth.JWTService
}

// Session captures the result of a register or login call.
type Session struct {
	UserID string
	Email  string
	Token  string
}

// NewEnv builds a router wired to a fresh in-memory store.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := recordstest.MustOpenTestStore(t)

	users, err := services.NewUserService(store)
	require.NoError(t, err)

	households, err := services.NewHouseholdService(store, users)
	require.NoError(t, err)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "handler-test-secret",
		Issuer:         "ourhome-test",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Server.Port = 8080
	cfg.Server.LogLevel = "error"

	router, err := api.NewRouter(cfg, jwtService, users, households)
	require.NoError(t, err)

	return &Env{
		t:          t,
		Router:     router,
		Store:      store,
		Users:      users,
		Households: households,
		JWT:        jwtService,
	}
}

// Request performs an HTTP request against the router, JSON-encoding payload
// when present and attaching the bearer token when non-empty.
func (e *Env) Request(method, path string, payload any, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// RegisterUser registers a user through the API and returns the session.
func (e *Env) RegisterUser(email, displayName string) Session {
	e.t.Helper()

	rec := e.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":       email,
		"displayName": displayName,
		"password":    "Sup3r$ecret",
	}, "")
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	decoded := DecodeResponse(e.t, rec)
	require.True(e.t, decoded.Success)

	var data struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	DecodeInto(e.t, decoded.Data, &data)
	require.NotEmpty(e.t, data.Token)

	return Session{UserID: data.User.ID, Email: data.User.Email, Token: data.Token}
}

// Login authenticates through the API and returns the session.
func (e *Env) Login(email, password string) Session {
	e.t.Helper()

	rec := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	decoded := DecodeResponse(e.t, rec)
	var data struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	DecodeInto(e.t, decoded.Data, &data)

	return Session{UserID: data.User.ID, Email: data.User.Email, Token: data.Token}
}

// DecodeResponse unmarshals the standard response envelope.
func DecodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var decoded response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return decoded
}

// DecodeInto re-marshals the envelope's data field into out.
func DecodeInto(t *testing.T, data any, out any) {
	t.Helper()

	encoded, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, out))
}
