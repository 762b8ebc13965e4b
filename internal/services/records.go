package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// findInScope loads a record by id, constrained to the scope's workspace.
func findInScope[T any](ctx context.Context, db *gorm.DB, scope Scope, id string, notFound error) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, notFound
	}

	var record T
	err := db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, scope.WorkspaceID()).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// deleteInScope removes a record by id within the scope's workspace. Absent
// ids and ids owned by another workspace affect nothing.
func deleteInScope[T any](ctx context.Context, db *gorm.DB, scope Scope, id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, nil
	}

	var model T
	result := db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, scope.WorkspaceID()).
		Delete(&model)
	return result.RowsAffected, result.Error
}

func requireTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errTitleRequired
	}
	if len([]rune(title)) > maxTitleLength {
		return "", errTitleTooLong
	}
	return title, nil
}
