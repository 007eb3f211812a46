package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/steviecodesit/ourhome/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the user id resolved by the auth middleware.
func currentUserID(c *gin.Context) string {
	value, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		return ""
	}
	id, _ := value.(string)
	return id
}
