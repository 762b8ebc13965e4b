package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Session{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.WorkspaceInvite{},
		&models.Event{},
		&models.Todo{},
		&models.Note{},
		&models.AuditLog{},
		&models.CacheEntry{},
	}
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
