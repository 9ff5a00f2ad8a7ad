package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/carebridge/portal-api/internal/service/auth"
)

// Context keys set by Authenticate.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxUserType  = "userType"
)

type AuthMiddleware struct {
	authSvc authService.AuthServicer
}

func NewAuthMiddleware(authSvc authService.AuthServicer) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// Authenticate verifies the bearer token and sets user identity in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.authSvc.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(CtxUserID, claims.UserID.String())
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserType, claims.Type)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": http.StatusUnauthorized, "message": message},
	})
}
