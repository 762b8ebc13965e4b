package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/auditctx"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/pkg/response"
)

type stubResolver map[string]*iauth.Principal

func (s stubResolver) Resolve(_ context.Context, handle string) *iauth.Principal {
	return s[handle]
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	user := &models.User{BaseModel: models.BaseModel{ID: "user-123"}, Email: "alice@example.com", IsActive: true}
	resolver := stubResolver{"good-token": {User: user, SessionID: "session-abc"}}

	r := gin.New()
	r.GET("/secure", Auth(resolver), func(c *gin.Context) {
		actor, _ := auditctx.FromContext(c.Request.Context())
		current, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetString(CtxUserIDKey),
			"session_id": c.GetString(CtxSessionIDKey),
			"actor":      actor.Email,
			"email":      current.Email,
		})
	})

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic good-token"},
		{name: "empty token", header: "Bearer    "},
		{name: "unknown token", header: "Bearer other-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			var payload response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			require.Equal(t, "UNAUTHORIZED", payload.Error.Code)
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer good-token")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "user-123", body["user_id"])
	require.Equal(t, "session-abc", body["session_id"])
	require.Equal(t, "alice@example.com", body["actor"])
	require.Equal(t, "alice@example.com", body["email"])
}
