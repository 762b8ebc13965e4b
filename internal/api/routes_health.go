package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/huddle/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, handler *handlers.HealthHandler, metricsPath string) {
	for _, router := range []gin.IRouter{r, r.Group("/api")} {
		router.GET("/health", handler.Ready)
		router.GET("/health/live", handler.Live)
		router.GET("/health/ready", handler.Ready)
	}

	if metricsPath != "" {
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}
}
