package models

// Note is a free-form text document owned by a workspace. UpdatedAt moves on
// every content change and drives list ordering.
type Note struct {
	BaseModel

	WorkspaceID string     `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Title       string     `gorm:"not null" json:"title"`
	Content     string     `gorm:"type:text" json:"content"`
	Workspace   *Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
