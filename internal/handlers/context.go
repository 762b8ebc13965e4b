package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
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

// requireScope returns the workspace scope resolved by RequireWorkspaceMember,
// answering WORKSPACE_NOT_FOUND when the route was mounted without it.
func requireScope(c *gin.Context) (services.Scope, bool) {
	scope, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, services.ErrWorkspaceNotFound)
		return services.Scope{}, false
	}
	return scope, true
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}
