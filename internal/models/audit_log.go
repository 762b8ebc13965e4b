package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a mutation performed through the API.
type AuditLog struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	WorkspaceID *string   `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	Action      string    `gorm:"not null;index" json:"action"`
	Resource    string    `gorm:"index" json:"resource"`
	Result      string    `gorm:"not null" json:"result"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Metadata    string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
