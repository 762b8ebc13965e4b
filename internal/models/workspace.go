package models

import "time"

// Workspace is the tenant boundary every record hangs off.
type Workspace struct {
	BaseModel

	Name      string `gorm:"not null;index" json:"name"`
	CreatedBy string `gorm:"type:uuid;index" json:"created_by"`
}

// WorkspaceMember is the authorization fact that a user belongs to a workspace.
type WorkspaceMember struct {
	WorkspaceID string     `gorm:"primaryKey;type:uuid" json:"workspace_id"`
	UserID      string     `gorm:"primaryKey;type:uuid;index" json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Workspace   *Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (WorkspaceMember) TableName() string { return "workspace_members" }

// WorkspaceInvite records that a future account with Email may join the workspace.
type WorkspaceInvite struct {
	BaseModel

	WorkspaceID string     `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_invite_email" json:"workspace_id"`
	Email       string     `gorm:"not null;uniqueIndex:idx_workspace_invite_email;index" json:"email"`
	InvitedBy   string     `gorm:"type:uuid" json:"invited_by"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	Workspace   *Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (WorkspaceInvite) TableName() string { return "workspace_invites" }
