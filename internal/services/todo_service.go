package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
)

// CreateTodoInput captures a new to-do. A zero DueDate means today.
type CreateTodoInput struct {
	Title   string
	DueDate time.Time
}

// TodoOption customises TodoService behaviour.
type TodoOption func(*TodoService)

// WithTodoClock overrides the clock used to default due dates.
func WithTodoClock(clock func() time.Time) TodoOption {
	return func(s *TodoService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// TodoService manages to-do items within a workspace.
type TodoService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// NewTodoService constructs a TodoService instance.
func NewTodoService(db *gorm.DB, auditService *AuditService, opts ...TodoOption) (*TodoService, error) {
	if db == nil {
		return nil, errors.New("todo service: db is required")
	}
	svc := &TodoService{db: db, auditService: auditService, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Create stores a new open to-do in the scope's workspace.
func (s *TodoService) Create(ctx context.Context, scope Scope, input CreateTodoInput) (*models.Todo, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, err
	}

	due := input.DueDate
	if due.IsZero() {
		due = s.now()
	}

	todo := &models.Todo{
		WorkspaceID: scope.WorkspaceID(),
		Title:       title,
		Status:      models.TodoStatusOpen,
		DueDate:     calendarDate(due),
	}
	if err := s.db.WithContext(ctx).Create(todo).Error; err != nil {
		return nil, fmt.Errorf("todo service: create todo: %w", err)
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "todo.create",
		Resource: todo.ID,
		Metadata: map[string]any{"title": todo.Title},
	})
	return todo, nil
}

// List returns the workspace's to-dos by due date ascending.
func (s *TodoService) List(ctx context.Context, scope Scope) ([]models.Todo, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	todos := make([]models.Todo, 0)
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", scope.WorkspaceID()).
		Order("due_date ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("todo service: list todos: %w", err)
	}
	return todos, nil
}

// Get loads a single to-do of the workspace.
func (s *TodoService) Get(ctx context.Context, scope Scope, id string) (*models.Todo, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	todo, err := findInScope[models.Todo](ctx, s.db, scope, id, ErrTodoNotFound)
	if err != nil && !errors.Is(err, ErrTodoNotFound) {
		return nil, fmt.Errorf("todo service: load todo: %w", err)
	}
	return todo, err
}

// UpdateStatus marks a to-do done. Completion is one-way: any status other
// than done is rejected with ErrInvalidStatusTransition.
func (s *TodoService) UpdateStatus(ctx context.Context, scope Scope, id string, status string) (*models.Todo, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	next := models.TodoStatus(strings.ToLower(strings.TrimSpace(status)))
	if next != models.TodoStatusDone {
		return nil, ErrInvalidStatusTransition
	}

	todo, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !todo.Status.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}
	if todo.Status == next {
		return todo, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Todo{}).
		Where("id = ? AND workspace_id = ?", todo.ID, scope.WorkspaceID()).
		Update("status", next)
	if result.Error != nil {
		return nil, fmt.Errorf("todo service: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrTodoNotFound
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "todo.complete",
		Resource: todo.ID,
		Metadata: map[string]any{"from": string(todo.Status), "to": string(next)},
	})

	return s.Get(ctx, scope, todo.ID)
}

// Delete removes a to-do. Unknown ids succeed without effect.
func (s *TodoService) Delete(ctx context.Context, scope Scope, id string) error {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return err
	}

	removed, err := deleteInScope[models.Todo](ctx, s.db, scope, id)
	if err != nil {
		return fmt.Errorf("todo service: delete todo: %w", err)
	}
	if removed > 0 {
		recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
			Action:   "todo.delete",
			Resource: id,
		})
	}
	return nil
}

func calendarDate(t time.Time) datatypes.Date {
	year, month, day := t.Date()
	return datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}
