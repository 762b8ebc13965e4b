package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/cache"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultSessionSpec        = "@hourly"
	defaultAuditSpec          = "@daily"
	defaultWorkspaceSpec      = "@daily"
	defaultCacheSpec          = "@every 10m"
)

// Cleaner coordinates background maintenance: expired sessions, stale audit
// logs, workspaces left without members and expired cache rows.
type Cleaner struct {
	sessions   *iauth.SessionService
	audit      *services.AuditService
	workspaces *services.WorkspaceService
	cache      cache.Pruner
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger
	retention  int

	sessionSchedule   string
	auditSchedule     string
	workspaceSchedule string
	cacheSchedule     string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cache expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithWorkspaces enables the orphaned workspace purge.
func WithWorkspaces(workspaces *services.WorkspaceService) Option {
	return func(cleaner *Cleaner) {
		cleaner.workspaces = workspaces
	}
}

// WithCachePruner enables periodic pruning for stores that cannot expire entries themselves.
func WithCachePruner(pruner cache.Pruner) Option {
	return func(cleaner *Cleaner) {
		cleaner.cache = pruner
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. Any nil dependency results in the
// corresponding job being skipped.
func NewCleaner(sessions *iauth.SessionService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:          sessions,
		audit:             audit,
		now:               time.Now,
		retention:         defaultAuditRetentionDays,
		sessionSchedule:   defaultSessionSpec,
		auditSchedule:     defaultAuditSpec,
		workspaceSchedule: defaultWorkspaceSpec,
		cacheSchedule:     defaultCacheSpec,
		log:               logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

func (c *Cleaner) jobs() []job {
	var jobs []job
	if c.sessions != nil {
		jobs = append(jobs, job{"sessions", c.sessionSchedule, c.sessions.CleanupExpired})
	}
	if c.audit != nil && c.retention > 0 {
		jobs = append(jobs, job{"audit", c.auditSchedule, func(ctx context.Context) (int64, error) {
			return c.audit.CleanupOlderThan(ctx, c.retention)
		}})
	}
	if c.workspaces != nil {
		jobs = append(jobs, job{"workspaces", c.workspaceSchedule, c.workspaces.PurgeOrphans})
	}
	if c.cache != nil {
		jobs = append(jobs, job{"cache", c.cacheSchedule, func(ctx context.Context) (int64, error) {
			return c.cache.PruneExpired(ctx, c.now())
		}})
	}
	return jobs
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return nil
	}

	for _, j := range jobs {
		j := j
		if _, err := c.cron.AddFunc(j.schedule, func() {
			removed, err := j.run(context.Background())
			if err != nil {
				c.log.Warn("cleanup failed", zap.String("job", j.name), zap.Error(err))
				return
			}
			if removed > 0 {
				c.log.Info("cleanup completed", zap.String("job", j.name), zap.Int64("removed", removed))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs() {
		if _, err := j.run(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
