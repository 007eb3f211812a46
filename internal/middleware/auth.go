package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/steviecodesit/ourhome/internal/auth"
	"github.com/steviecodesit/ourhome/pkg/errors"
	"github.com/steviecodesit/ourhome/pkg/response"
)

// CtxUserIDKey holds the resolved user id in the gin request context.
const CtxUserIDKey = "userID"

// Auth resolves the bearer credential into a user id via the identity
// resolver and stores it in the request context. Resolution failures abort
// the request with 401.
func Auth(resolver iauth.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		credential := strings.TrimSpace(authz[7:])
		userID, err := resolver.Resolve(c.Request.Context(), credential)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrInvalidCredential)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}
