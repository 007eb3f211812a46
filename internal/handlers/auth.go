package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/steviecodesit/ourhome/internal/auth"
	"github.com/steviecodesit/ourhome/internal/services"
	"github.com/steviecodesit/ourhome/pkg/errors"
	"github.com/steviecodesit/ourhome/pkg/logger"
	"github.com/steviecodesit/ourhome/pkg/metrics"
	"github.com/steviecodesit/ourhome/pkg/response"
)

// AuthHandler serves registration, login, and session endpoints.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=64"`
	Password    string `json:"password" validate:"required,strong_password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// NewAuthHandler wires the handler with its collaborators.
func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) (*AuthHandler, error) {
	if users == nil {
		return nil, fmt.Errorf("auth handler: user service is required")
	}
	if jwt == nil {
		return nil, fmt.Errorf("auth handler: jwt service is required")
	}
	return &AuthHandler{users: users, jwt: jwt}, nil
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	profile, err := h.users.Register(requestContext(c), services.RegisterUserInput{
		Email:       body.Email,
		DisplayName: body.DisplayName,
		Password:    body.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(profile.ID)
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to issue access token"))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":  profile.DTO(),
		"token": token,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)

	profile, err := h.users.FindByEmail(ctx, body.Email)
	if err != nil || !h.users.VerifyPassword(profile, body.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	if err := h.users.SetLoggedIn(ctx, profile.ID, true); err != nil {
		response.Error(c, err)
		return
	}
	profile.LoggedIn = true

	token, err := h.jwt.GenerateAccessToken(profile.ID)
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to issue access token"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	logger.WithModule("auth").Info("user logged in", zap.String("user_id", profile.ID))

	response.Success(c, http.StatusOK, gin.H{
		"user":  profile.DTO(),
		"token": token,
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.users.SetLoggedIn(requestContext(c), userID, false); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Logged out successfully.")
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	profile, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile.DTO())
}
