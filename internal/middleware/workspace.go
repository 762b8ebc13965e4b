package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

const (
	CtxScopeKey = "workspaceScope"

	workspaceParam = "workspaceID"
)

// WorkspaceAuthorizer verifies workspace membership.
type WorkspaceAuthorizer interface {
	Authorize(ctx context.Context, userID, workspaceID string) (services.Scope, error)
}

// RequireWorkspaceMember resolves the :workspaceID path parameter into a
// Scope for the authenticated user. Non-members get WORKSPACE_NOT_FOUND.
// It must run after Auth.
func RequireWorkspaceMember(authorizer WorkspaceAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := authorizer.Authorize(c.Request.Context(), c.GetString(CtxUserIDKey), c.Param(workspaceParam))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxScopeKey, scope)
		c.Next()
	}
}

// ScopeFromContext returns the scope stored by RequireWorkspaceMember.
func ScopeFromContext(c *gin.Context) (services.Scope, bool) {
	value, ok := c.Get(CtxScopeKey)
	if !ok {
		return services.Scope{}, false
	}
	scope, ok := value.(services.Scope)
	return scope, ok && scope.Valid()
}
