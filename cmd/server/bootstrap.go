package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/api"
	"github.com/charlesng35/huddle/internal/app"
	"github.com/charlesng35/huddle/internal/app/maintenance"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/auth/providers"
	"github.com/charlesng35/huddle/internal/cache"
	"github.com/charlesng35/huddle/internal/database"
	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/monitoring/checks"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/internal/storage"
	"github.com/charlesng35/huddle/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Redis   *cache.RedisStore
	Cache   cache.Store
	Store   storage.ObjectStore
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, cache, storage, services and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	stack.Cache = dbStore
	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
		} else {
			stack.Cache = stack.Redis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(stack.DB, jwtSvc, cfg.Auth.SessionServiceConfig(stack.Cache))
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	provider, err := providers.NewLocalProvider(stack.DB, cfg.Auth.LocalProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise local provider: %w", err)
	}

	auditSvc, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}
	workspaceSvc, err := services.NewWorkspaceService(stack.DB, auditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise workspace service: %w", err)
	}
	eventSvc, err := services.NewEventService(stack.DB, auditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise event service: %w", err)
	}
	todoSvc, err := services.NewTodoService(stack.DB, auditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise todo service: %w", err)
	}
	noteSvc, err := services.NewNoteService(stack.DB, auditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise note service: %w", err)
	}

	manager, err := iauth.NewManager(provider, sessionSvc, iauth.WithInviteAcceptor(workspaceSvc))
	if err != nil {
		return nil, fmt.Errorf("initialise auth manager: %w", err)
	}

	var publicFiles *storage.FilesystemStore
	stack.Store, publicFiles, err = initialiseStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	log.Info("object storage ready", zap.String("backend", cfg.Storage.BackendName()))

	fileSvc, err := services.NewFileService(stack.Store, auditSvc, services.WithMaxUploadBytes(cfg.Storage.MaxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("initialise file service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		opts := []maintenance.Option{
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
			maintenance.WithWorkspaces(workspaceSvc),
		}
		if stack.Redis == nil {
			opts = append(opts, maintenance.WithCachePruner(dbStore))
		}
		stack.Cleaner = maintenance.NewCleaner(sessionSvc, auditSvc, opts...)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	var redisPinger checks.Pinger
	if stack.Redis != nil {
		redisPinger = stack.Redis
	}
	health := monitoring.NewHealthManager(
		checks.Database(stack.DB, 0),
		checks.Redis(redisPinger, cfg.Cache.Redis.Enabled, 0),
		checks.Storage(stack.Store, 0),
	)

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:          stack.DB,
		Config:      cfg,
		Auth:        manager,
		Audit:       auditSvc,
		Workspaces:  workspaceSvc,
		Events:      eventSvc,
		Todos:       todoSvc,
		Notes:       noteSvc,
		Files:       fileSvc,
		Health:      health,
		PublicFiles: publicFiles,
		RateStore:   middleware.NewCacheRateStore(stack.Cache),
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		s.Cleaner = nil
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
		s.Redis = nil
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

// initialiseStorage returns the configured object store and, for the
// filesystem backend, the same store for serving public URLs.
func initialiseStorage(ctx context.Context, cfg app.StorageConfig) (storage.ObjectStore, *storage.FilesystemStore, error) {
	switch cfg.BackendName() {
	case app.StorageBackendS3:
		store, err := storage.NewS3Store(cfg.S3ClientConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("initialise s3 storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		store, err := storage.NewFilesystemStore(cfg.Filesystem.Root, cfg.Filesystem.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("initialise filesystem storage: %w", err)
		}
		return store, store, nil
	}
}
