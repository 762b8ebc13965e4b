package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(opts SecurityOptions) http.Header {
		r := gin.New()
		r.Use(SecurityHeaders(opts))
		r.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
		return w.Header()
	}

	headers := serve(SecurityOptions{})
	require.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	require.Equal(t, DefaultContentSecurityPolicy, headers.Get("Content-Security-Policy"))
	require.Equal(t, "no-referrer", headers.Get("Referrer-Policy"))
	require.Equal(t, "geolocation=(), microphone=(), camera=()", headers.Get("Permissions-Policy"))
	require.Empty(t, headers.Get("Strict-Transport-Security"))

	headers = serve(SecurityOptions{HSTS: true})
	require.Equal(t, "max-age=31536000; includeSubDomains", headers.Get("Strict-Transport-Security"))
}
