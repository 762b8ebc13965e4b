package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/metrics"
)

const maxWorkspaceNameLength = 128

// CreateWorkspaceInput captures a new workspace and its initial invitations.
type CreateWorkspaceInput struct {
	Name         string
	InviteEmails []string
}

// WorkspaceOption customises WorkspaceService behaviour.
type WorkspaceOption func(*WorkspaceService)

// WithWorkspaceClock overrides the clock used for invite acceptance timestamps.
func WithWorkspaceClock(clock func() time.Time) WorkspaceOption {
	return func(s *WorkspaceService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WorkspaceService resolves memberships and mints scopes.
type WorkspaceService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// NewWorkspaceService constructs a WorkspaceService instance.
func NewWorkspaceService(db *gorm.DB, auditService *AuditService, opts ...WorkspaceOption) (*WorkspaceService, error) {
	if db == nil {
		return nil, errors.New("workspace service: db is required")
	}
	svc := &WorkspaceService{
		db:           db,
		auditService: auditService,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// ListForUser returns every workspace the user is a member of, ordered by name then id.
func (s *WorkspaceService) ListForUser(ctx context.Context, userID string) ([]models.Workspace, error) {
	ctx = ensureContext(ctx)

	workspaces := make([]models.Workspace, 0)
	if strings.TrimSpace(userID) == "" {
		return workspaces, nil
	}

	err := s.db.WithContext(ctx).
		Select("workspaces.*").
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Order("workspaces.name ASC").
		Order("workspaces.id ASC").
		Find(&workspaces).Error
	if err != nil {
		return nil, fmt.Errorf("workspace service: list workspaces: %w", err)
	}
	return workspaces, nil
}

// Create inserts a workspace, the creator's membership and one invite per
// distinct email in a single transaction. Duplicate names are allowed.
func (s *WorkspaceService) Create(ctx context.Context, userID string, input CreateWorkspaceInput) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("workspace name is required")
	}
	if len([]rune(name)) > maxWorkspaceNameLength {
		return nil, apperrors.NewValidation(fmt.Sprintf("workspace name must be at most %d characters", maxWorkspaceNameLength))
	}
	emails, invalid := normaliseEmails(input.InviteEmails)
	if invalid != "" {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid invite email %q", invalid))
	}

	workspace := &models.Workspace{Name: name, CreatedBy: userID}
	var invited []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.Select("id", "email").Take(&creator, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("load creator: %w", err)
		}

		if err := tx.Create(workspace).Error; err != nil {
			return fmt.Errorf("create workspace: %w", err)
		}
		if err := tx.Create(&models.WorkspaceMember{WorkspaceID: workspace.ID, UserID: userID}).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}

		created, err := insertInvites(tx, workspace.ID, userID, emails, creator.Email)
		if err != nil {
			return err
		}
		invited = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workspace service: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:      &userID,
		WorkspaceID: &workspace.ID,
		Action:      "workspace.create",
		Resource:    workspace.ID,
		Result:      "success",
		Metadata: map[string]any{
			"name":    workspace.Name,
			"invites": invited,
		},
	})

	return workspace, nil
}

// Select fetches a workspace the user belongs to. Unknown workspaces and
// workspaces without a membership both yield ErrWorkspaceNotFound.
func (s *WorkspaceService) Select(ctx context.Context, userID, workspaceID string) (*models.Workspace, error) {
	scope, err := s.Authorize(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	var workspace models.Workspace
	err = s.db.WithContext(ensureContext(ctx)).Take(&workspace, "id = ?", scope.WorkspaceID()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("workspace service: load workspace: %w", err)
	}
	return &workspace, nil
}

// Authorize verifies membership and returns the scope required by every record and file operation.
func (s *WorkspaceService) Authorize(ctx context.Context, userID, workspaceID string) (Scope, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	workspaceID = strings.TrimSpace(workspaceID)
	if userID == "" || workspaceID == "" {
		metrics.WorkspaceAccessChecks.WithLabelValues("denied").Inc()
		return Scope{}, ErrWorkspaceNotFound
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count).Error
	if err != nil {
		metrics.WorkspaceAccessChecks.WithLabelValues("error").Inc()
		return Scope{}, fmt.Errorf("workspace service: check membership: %w", err)
	}
	if count == 0 {
		metrics.WorkspaceAccessChecks.WithLabelValues("denied").Inc()
		return Scope{}, ErrWorkspaceNotFound
	}

	metrics.WorkspaceAccessChecks.WithLabelValues("allowed").Inc()
	return newScope(workspaceID, userID), nil
}

// Invite records invitations for additional emails. Pending invites and
// current members are skipped. An invite accepted by a former member is
// reopened. Only new or reopened invites are returned.
func (s *WorkspaceService) Invite(ctx context.Context, scope Scope, emails []string) ([]models.WorkspaceInvite, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	normalised, invalid := normaliseEmails(emails)
	if invalid != "" {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid invite email %q", invalid))
	}
	if len(normalised) == 0 {
		return nil, apperrors.NewValidation("at least one email is required")
	}

	var memberEmails []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN workspace_members ON workspace_members.user_id = users.id").
		Where("workspace_members.workspace_id = ? AND users.email IN ?", scope.WorkspaceID(), normalised).
		Pluck("users.email", &memberEmails).Error; err != nil {
		return nil, fmt.Errorf("workspace service: load members: %w", err)
	}

	var invited []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := insertInvites(tx, scope.WorkspaceID(), scope.UserID(), normalised, memberEmails...)
		invited = created
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("workspace service: %w", err)
	}

	invites := make([]models.WorkspaceInvite, 0, len(invited))
	if len(invited) > 0 {
		if err := s.db.WithContext(ctx).
			Where("workspace_id = ? AND email IN ?", scope.WorkspaceID(), invited).
			Order("email ASC").
			Find(&invites).Error; err != nil {
			return nil, fmt.Errorf("workspace service: reload invites: %w", err)
		}
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "workspace.invite",
		Resource: scope.WorkspaceID(),
		Metadata: map[string]any{"emails": invited},
	})
	return invites, nil
}

// ListInvites returns all invitations of the workspace, oldest first.
func (s *WorkspaceService) ListInvites(ctx context.Context, scope Scope) ([]models.WorkspaceInvite, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	invites := make([]models.WorkspaceInvite, 0)
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", scope.WorkspaceID()).
		Order("created_at ASC").
		Order("email ASC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("workspace service: list invites: %w", err)
	}
	return invites, nil
}

// AcceptInvites turns every pending invite for email into a membership of userID.
// It is idempotent and returns the number of invites accepted by this call.
func (s *WorkspaceService) AcceptInvites(ctx context.Context, userID, email string) (int, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if strings.TrimSpace(userID) == "" || email == "" {
		return 0, nil
	}

	accepted := 0
	var workspaceIDs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []models.WorkspaceInvite
		if err := tx.Where("email = ? AND accepted_at IS NULL", email).Find(&pending).Error; err != nil {
			return fmt.Errorf("load invites: %w", err)
		}

		now := s.now()
		for _, invite := range pending {
			membership := models.WorkspaceMember{WorkspaceID: invite.WorkspaceID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
				return fmt.Errorf("create membership: %w", err)
			}
			result := tx.Model(&models.WorkspaceInvite{}).
				Where("id = ? AND accepted_at IS NULL", invite.ID).
				Update("accepted_at", now)
			if result.Error != nil {
				return fmt.Errorf("mark invite accepted: %w", result.Error)
			}
			if result.RowsAffected > 0 {
				accepted++
				workspaceIDs = append(workspaceIDs, invite.WorkspaceID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("workspace service: accept invites: %w", err)
	}

	for _, workspaceID := range workspaceIDs {
		recordAudit(s.auditService, ctx, AuditEntry{
			UserID:      &userID,
			WorkspaceID: &workspaceID,
			Action:      "workspace.invite.accept",
			Resource:    workspaceID,
			Result:      "success",
			Metadata:    map[string]any{"email": email},
		})
	}
	return accepted, nil
}

// ListMembers returns the users belonging to the workspace ordered by email.
func (s *WorkspaceService) ListMembers(ctx context.Context, scope Scope) ([]models.User, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	users := make([]models.User, 0)
	if err := s.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN workspace_members ON workspace_members.user_id = users.id").
		Where("workspace_members.workspace_id = ?", scope.WorkspaceID()).
		Order("users.email ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("workspace service: list members: %w", err)
	}
	return users, nil
}

// Leave removes the caller's membership. The last member leaving deletes the
// workspace together with its records and invites.
func (s *WorkspaceService) Leave(ctx context.Context, scope Scope) error {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return err
	}

	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ? AND user_id = ?", scope.WorkspaceID(), scope.UserID()).
			Delete(&models.WorkspaceMember{}).Error; err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}

		var remaining int64
		if err := tx.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ?", scope.WorkspaceID()).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if remaining > 0 {
			return nil
		}

		if err := deleteWorkspaceTree(tx, scope.WorkspaceID()); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("workspace service: leave: %w", err)
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "workspace.leave",
		Resource: scope.WorkspaceID(),
		Metadata: map[string]any{"workspace_deleted": deleted},
	})
	return nil
}

// PurgeOrphans deletes workspaces that no longer have any member.
func (s *WorkspaceService) PurgeOrphans(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var orphanIDs []string
	if err := s.db.WithContext(ctx).Model(&models.Workspace{}).
		Where("NOT EXISTS (SELECT 1 FROM workspace_members WHERE workspace_members.workspace_id = workspaces.id)").
		Pluck("id", &orphanIDs).Error; err != nil {
		return 0, fmt.Errorf("workspace service: find orphans: %w", err)
	}

	var purged int64
	for _, id := range orphanIDs {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return deleteWorkspaceTree(tx, id)
		})
		if err != nil {
			logger.WithModule("workspaces").Warn("orphan purge failed",
				zap.String("workspace_id", id),
				zap.Error(err),
			)
			continue
		}
		purged++
	}
	return purged, nil
}

// insertInvites creates invites for emails, skipping any listed in skip and
// any already invited. It returns the emails that were newly invited.
func insertInvites(tx *gorm.DB, workspaceID, invitedBy string, emails []string, skip ...string) ([]string, error) {
	skipped := make(map[string]struct{}, len(skip))
	for _, email := range skip {
		skipped[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}

	var created []string
	for _, email := range emails {
		if _, ok := skipped[email]; ok {
			continue
		}
		reopened := tx.Model(&models.WorkspaceInvite{}).
			Where("workspace_id = ? AND email = ? AND accepted_at IS NOT NULL", workspaceID, email).
			Updates(map[string]any{"accepted_at": nil, "invited_by": invitedBy})
		if reopened.Error != nil {
			return nil, fmt.Errorf("reopen invite: %w", reopened.Error)
		}
		if reopened.RowsAffected > 0 {
			created = append(created, email)
			continue
		}

		invite := models.WorkspaceInvite{
			WorkspaceID: workspaceID,
			Email:       email,
			InvitedBy:   invitedBy,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&invite)
		if result.Error != nil {
			if isUniqueConstraintError(result.Error) {
				continue
			}
			return nil, fmt.Errorf("create invite: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			created = append(created, email)
		}
	}
	return created, nil
}

// deleteWorkspaceTree removes a workspace and every row scoped to it.
func deleteWorkspaceTree(tx *gorm.DB, workspaceID string) error {
	for _, model := range []any{
		&models.Event{},
		&models.Todo{},
		&models.Note{},
		&models.WorkspaceInvite{},
		&models.WorkspaceMember{},
	} {
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(model).Error; err != nil {
			return fmt.Errorf("delete workspace records: %w", err)
		}
	}
	if err := tx.Where("id = ?", workspaceID).Delete(&models.Workspace{}).Error; err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}
