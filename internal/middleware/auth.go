package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/auditctx"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

const (
	CtxUserIDKey      = "userID"
	CtxUserKey        = "user"
	CtxSessionIDKey   = "sessionID"
	CtxAccessTokenKey = "accessToken"
)

// PrincipalResolver maps a bearer token to the identity behind it.
type PrincipalResolver interface {
	Resolve(ctx context.Context, handle string) *iauth.Principal
}

// Auth rejects requests without a bearer token that resolves to a live session.
func Auth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		principal := resolver.Resolve(c.Request.Context(), token)
		if principal == nil || principal.User == nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, principal.User.ID)
		c.Set(CtxUserKey, principal.User)
		c.Set(CtxSessionIDKey, principal.SessionID)
		c.Set(CtxAccessTokenKey, token)

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    principal.User.ID,
			Email:     principal.User.Email,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
