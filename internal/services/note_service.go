package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
)

// CreateNoteInput captures a new note.
type CreateNoteInput struct {
	Title   string
	Content string
}

// NoteOption customises NoteService behaviour.
type NoteOption func(*NoteService)

// WithNoteClock overrides the clock used for updated_at.
func WithNoteClock(clock func() time.Time) NoteOption {
	return func(s *NoteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NoteService manages notes within a workspace.
type NoteService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// NewNoteService constructs a NoteService instance.
func NewNoteService(db *gorm.DB, auditService *AuditService, opts ...NoteOption) (*NoteService, error) {
	if db == nil {
		return nil, errors.New("note service: db is required")
	}
	svc := &NoteService{db: db, auditService: auditService, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Create stores a new note in the scope's workspace.
func (s *NoteService) Create(ctx context.Context, scope Scope, input CreateNoteInput) (*models.Note, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	note := &models.Note{
		BaseModel:   models.BaseModel{CreatedAt: now, UpdatedAt: now},
		WorkspaceID: scope.WorkspaceID(),
		Title:       title,
		Content:     input.Content,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, fmt.Errorf("note service: create note: %w", err)
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "note.create",
		Resource: note.ID,
		Metadata: map[string]any{"title": note.Title},
	})
	return note, nil
}

// List returns the workspace's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, scope Scope) ([]models.Note, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	notes := make([]models.Note, 0)
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", scope.WorkspaceID()).
		Order("updated_at DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("note service: list notes: %w", err)
	}
	return notes, nil
}

// Get loads a single note of the workspace.
func (s *NoteService) Get(ctx context.Context, scope Scope, id string) (*models.Note, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	note, err := findInScope[models.Note](ctx, s.db, scope, id, ErrNoteNotFound)
	if err != nil && !errors.Is(err, ErrNoteNotFound) {
		return nil, fmt.Errorf("note service: load note: %w", err)
	}
	return note, err
}

// UpdateContent replaces a note's content and moves updated_at forward.
// Concurrent writers race; the last one wins.
func (s *NoteService) UpdateContent(ctx context.Context, scope Scope, id string, content string) (*models.Note, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Note{}).
		Where("id = ? AND workspace_id = ?", id, scope.WorkspaceID()).
		Updates(map[string]any{
			"content":    content,
			"updated_at": s.now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("note service: update note: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoteNotFound
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "note.update",
		Resource: id,
		Metadata: map[string]any{"length": len(content)},
	})
	return s.Get(ctx, scope, id)
}

// Delete removes a note. Unknown ids succeed without effect.
func (s *NoteService) Delete(ctx context.Context, scope Scope, id string) error {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return err
	}

	removed, err := deleteInScope[models.Note](ctx, s.db, scope, id)
	if err != nil {
		return fmt.Errorf("note service: delete note: %w", err)
	}
	if removed > 0 {
		recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
			Action:   "note.delete",
			Resource: id,
		})
	}
	return nil
}
