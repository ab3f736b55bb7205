package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ecowaste/admintrack/internal/middleware"
	"github.com/ecowaste/admintrack/internal/models"
	"github.com/ecowaste/admintrack/internal/services"
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

// currentSession returns the tracking session placed on the context by the
// auth middleware.
func currentSession(c *gin.Context) (*models.AdminSession, bool) {
	value, ok := c.Get(middleware.CtxSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*models.AdminSession)
	return session, ok
}

// currentAdminID returns the authenticated admin id, from either auth scheme.
func currentAdminID(c *gin.Context) (string, bool) {
	value, ok := c.Get(middleware.CtxAdminIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

// clientInfo captures the request metadata stored on tracking records.
func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
		RequestMethod: c.Request.Method,
		RequestURL:    c.Request.URL.Path,
	}
}
