package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/cache"
	testutil "github.com/charlesng35/huddle/internal/database/testutil"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/crypto"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)
	workspaceSvc, err := services.NewWorkspaceService(db, auditSvc)
	require.NoError(t, err)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		RefreshLength:   16,
	})
	require.NoError(t, err)

	user := seedUser(t, db, "cleanup@example.com")

	_, expiredSession, err := sessionSvc.CreateSession(ctx, user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", expiredSession.ID).
		Update("expires_at", now.Add(-2*time.Hour)).Error)

	_, activeSession, err := sessionSvc.CreateSession(ctx, user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, auditSvc.Log(ctx, services.AuditEntry{
		Action: "test.action",
		Result: "success",
	}))
	require.NoError(t, db.Model(&models.AuditLog{}).Where("1 = 1").
		Update("created_at", now.AddDate(0, 0, -10)).Error)

	orphan := models.Workspace{Name: "Orphan", CreatedBy: user.ID}
	require.NoError(t, db.Create(&orphan).Error)

	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       "stale",
		Value:     []byte("x"),
		ExpiresAt: now.Add(-time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       "fresh",
		Value:     []byte("y"),
		ExpiresAt: now.Add(time.Hour),
	}).Error)

	c := NewCleaner(sessionSvc, auditSvc,
		WithNow(func() time.Time { return now }),
		WithAuditRetentionDays(7),
		WithWorkspaces(workspaceSvc),
		WithCachePruner(cache.NewDatabaseStore(db)),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, c.RunOnce(ctx))

	err = db.First(&models.Session{}, "id = ?", expiredSession.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, db.First(&models.Session{}, "id = ?", activeSession.ID).Error)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Zero(t, count)

	require.NoError(t, db.Model(&models.Workspace{}).Where("id = ?", orphan.ID).Count(&count).Error)
	require.Zero(t, count)

	var keys []string
	require.NoError(t, db.Model(&models.CacheEntry{}).Pluck("key", &keys).Error)
	require.Equal(t, []string{"fresh"}, keys)
}

func TestCleanerRunOnceCollectsErrors(t *testing.T) {
	first := errors.New("first")
	c := NewCleaner(nil, nil, WithCachePruner(failingPruner{err: first}))

	err := c.RunOnce(context.Background())
	require.ErrorIs(t, err, first)
	require.Len(t, multierr.Errors(err), 1)
}

func TestCleanerStartWithoutJobs(t *testing.T) {
	c := NewCleaner(nil, nil)
	require.NoError(t, c.Start())
	<-c.Stop().Done()
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	c := NewCleaner(nil, auditSvc, WithAuditSchedule("not a schedule"))
	require.Error(t, c.Start())
}

type failingPruner struct {
	err error
}

func (p failingPruner) PruneExpired(context.Context, time.Time) (int64, error) {
	return 0, p.err
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)

	user := &models.User{
		Email:    email,
		Password: hash,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
