package models

import "time"

// Event is a calendar entry owned by a workspace.
type Event struct {
	BaseModel

	WorkspaceID string     `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	StartTS     time.Time  `gorm:"column:start_ts;not null;index" json:"start_ts"`
	EndTS       time.Time  `gorm:"column:end_ts;not null" json:"end_ts"`
	Workspace   *Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
