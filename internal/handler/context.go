package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/middleware"
	"github.com/carebridge/portal-api/pkg/httputil"
)

// currentUserID pulls the authenticated user's id from the request context.
// It responds 401 and returns false when the id is missing or malformed,
// which only happens if a route skipped the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(middleware.CtxUserID)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: http.StatusUnauthorized, Message: "authentication required"},
		})
		return uuid.Nil, false
	}
	return id, true
}

func currentUserEmail(c *gin.Context) string {
	return c.GetString(middleware.CtxUserEmail)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: http.StatusBadRequest, Message: "invalid " + name},
		})
		return uuid.Nil, false
	}
	return id, true
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Code: http.StatusBadRequest, Message: message},
	})
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
