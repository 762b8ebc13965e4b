package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/app"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/handlers"
	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/monitoring/checks"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/internal/storage"
)

const (
	defaultRateLimitRequests = 300
	defaultRateLimitWindow   = time.Minute
)

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	DB         *gorm.DB
	Config     *app.Config
	Auth       *iauth.Manager
	Audit      *services.AuditService
	Workspaces *services.WorkspaceService
	Events     *services.EventService
	Todos      *services.TodoService
	Notes      *services.NoteService
	Files      *services.FileService

	// Health defaults to a database-only readiness probe.
	Health *monitoring.HealthManager

	// PublicFiles serves uploads from the filesystem backend. Nil when
	// objects are fetched from the storage provider directly.
	PublicFiles *storage.FilesystemStore
	RateStore   middleware.RateStore
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return errors.New("database handle must be provided")
	case d.Config == nil:
		return errors.New("config must be provided")
	case d.Auth == nil:
		return errors.New("auth manager must be provided")
	case d.Audit == nil || d.Workspaces == nil:
		return errors.New("workspace services must be provided")
	case d.Events == nil || d.Todos == nil || d.Notes == nil || d.Files == nil:
		return errors.New("resource services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()

	metricsPath := metricsEndpoint(cfg)

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(metricsPath))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{HSTS: cfg.Server.TLS}))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middleware.NewMemoryRateStore()
	}
	requests, window := cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window
	if requests <= 0 {
		requests = defaultRateLimitRequests
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	r.Use(middleware.RateLimit(rateStore, requests, window))

	health := deps.Health
	if health == nil {
		health = monitoring.NewHealthManager(checks.Database(deps.DB, 0))
	}
	registerHealthRoutes(r, handlers.NewHealthHandler(health), metricsPath)
	if deps.PublicFiles != nil {
		r.GET("/public/files/*path", handlers.PublicFiles(deps.PublicFiles))
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(deps.Auth))

	registerAuthRoutes(r, api, handlers.NewAuthHandler(deps.Auth))
	registerWorkspaceRoutes(api, workspaceRouteDeps{
		Workspaces: handlers.NewWorkspaceHandler(deps.Workspaces, deps.Audit),
		Events:     handlers.NewEventHandler(deps.Events),
		Todos:      handlers.NewTodoHandler(deps.Todos),
		Notes:      handlers.NewNoteHandler(deps.Notes),
		Files:      handlers.NewFileHandler(deps.Files),
		Authorizer: deps.Workspaces,
	})

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func metricsEndpoint(cfg *app.Config) string {
	if !cfg.Monitoring.Prometheus.Enabled {
		return ""
	}
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		return "/metrics"
	}
	return endpoint
}
