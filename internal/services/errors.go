package services

import (
	"net/http"

	"github.com/charlesng35/huddle/internal/database"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

var (
	// ErrWorkspaceNotFound covers both unknown workspaces and workspaces the caller is not a member of.
	ErrWorkspaceNotFound = apperrors.New("WORKSPACE_NOT_FOUND", "Workspace not found", http.StatusNotFound)
	// ErrEventNotFound indicates the event does not exist in the workspace.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrTodoNotFound indicates the to-do does not exist in the workspace.
	ErrTodoNotFound = apperrors.New("TODO_NOT_FOUND", "To-do not found", http.StatusNotFound)
	// ErrNoteNotFound indicates the note does not exist in the workspace.
	ErrNoteNotFound = apperrors.New("NOTE_NOT_FOUND", "Note not found", http.StatusNotFound)
	// ErrInvalidStatusTransition is returned for any to-do status change other than completion.
	ErrInvalidStatusTransition = apperrors.New("INVALID_STATUS_TRANSITION", "Only transition to done is allowed", http.StatusConflict)
	// ErrUploadFailed wraps object storage failures during upload; the message carries the cause.
	ErrUploadFailed = apperrors.New("UPLOAD_FAILED", "Upload failed", http.StatusBadGateway)
	// ErrUploadTooLarge is the size-limit flavour of ErrUploadFailed.
	ErrUploadTooLarge = apperrors.New("UPLOAD_FAILED", "File exceeds the upload size limit", http.StatusRequestEntityTooLarge)
	// ErrFilePathForbidden is returned when a file path lies outside the caller's workspace.
	ErrFilePathForbidden = apperrors.ErrForbidden.WithMessage("File does not belong to this workspace")
)

const maxTitleLength = 255

var (
	errTitleRequired = apperrors.NewValidation("title is required")
	errTitleTooLong  = apperrors.NewValidation("title must be at most 255 characters")
)

func isUniqueConstraintError(err error) bool {
	return database.IsUniqueViolation(err)
}
