package models

import "gorm.io/datatypes"

// TodoStatus is the completion state of a Todo.
type TodoStatus string

const (
	TodoStatusOpen TodoStatus = "open"
	TodoStatusDone TodoStatus = "done"
)

// Valid reports whether the status is one of the known values.
func (s TodoStatus) Valid() bool {
	return s == TodoStatusOpen || s == TodoStatusDone
}

// CanTransitionTo implements the one-way completion model: open may become
// done, done is terminal.
func (s TodoStatus) CanTransitionTo(next TodoStatus) bool {
	switch s {
	case TodoStatusOpen:
		return next == TodoStatusDone
	case TodoStatusDone:
		return next == TodoStatusDone
	default:
		return false
	}
}

// Todo is a to-do item owned by a workspace.
type Todo struct {
	BaseModel

	WorkspaceID string         `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Title       string         `gorm:"not null" json:"title"`
	Status      TodoStatus     `gorm:"type:varchar(16);not null;default:open" json:"status"`
	DueDate     datatypes.Date `gorm:"index" json:"due_date"`
	Workspace   *Workspace     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
