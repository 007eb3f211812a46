package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steviecodesit/ourhome/internal/app"
	iauth "github.com/steviecodesit/ourhome/internal/auth"
	"github.com/steviecodesit/ourhome/internal/handlers"
	"github.com/steviecodesit/ourhome/internal/middleware"
	"github.com/steviecodesit/ourhome/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(cfg *app.Config, jwt *iauth.JWTService, users *services.UserService, households *services.HouseholdService) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if users == nil {
		return nil, fmt.Errorf("user service must be provided")
	}
	if households == nil {
		return nil, fmt.Errorf("household service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(users, jwt)
	if err != nil {
		return nil, err
	}
	householdHandler, err := handlers.NewHouseholdHandler(households, users)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	registerHouseholdRoutes(api, householdHandler)

	return r, nil
}
