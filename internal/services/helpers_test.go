package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/database/testutil"
	"github.com/charlesng35/huddle/internal/models"
)

type serviceFixture struct {
	db         *gorm.DB
	audit      *AuditService
	workspaces *WorkspaceService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	workspaces, err := NewWorkspaceService(db, audit)
	require.NoError(t, err)

	return &serviceFixture{db: db, audit: audit, workspaces: workspaces}
}

func (f *serviceFixture) user(t *testing.T, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Password: "hash", IsActive: true}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

// workspace creates a workspace owned by user and returns its scope.
func (f *serviceFixture) workspace(t *testing.T, user *models.User, name string) Scope {
	t.Helper()

	ctx := context.Background()
	ws, err := f.workspaces.Create(ctx, user.ID, CreateWorkspaceInput{Name: name})
	require.NoError(t, err)

	scope, err := f.workspaces.Authorize(ctx, user.ID, ws.ID)
	require.NoError(t, err)
	return scope
}
