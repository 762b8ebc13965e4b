package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
)

// CreateEventInput captures a new calendar entry. Start after end is accepted.
type CreateEventInput struct {
	Title       string
	Description string
	StartTS     time.Time
	EndTS       time.Time
}

// EventService manages calendar events within a workspace.
type EventService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewEventService constructs an EventService instance.
func NewEventService(db *gorm.DB, auditService *AuditService) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	return &EventService{db: db, auditService: auditService}, nil
}

// Create stores a new event in the scope's workspace.
func (s *EventService) Create(ctx context.Context, scope Scope, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		WorkspaceID: scope.WorkspaceID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		StartTS:     input.StartTS.UTC(),
		EndTS:       input.EndTS.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("event service: create event: %w", err)
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "event.create",
		Resource: event.ID,
		Metadata: map[string]any{"title": event.Title},
	})
	return event, nil
}

// List returns the workspace's events by start time ascending.
func (s *EventService) List(ctx context.Context, scope Scope) ([]models.Event, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0)
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", scope.WorkspaceID()).
		Order("start_ts ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("event service: list events: %w", err)
	}
	return events, nil
}

// Get loads a single event of the workspace.
func (s *EventService) Get(ctx context.Context, scope Scope, id string) (*models.Event, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	event, err := findInScope[models.Event](ctx, s.db, scope, id, ErrEventNotFound)
	if err != nil && !errors.Is(err, ErrEventNotFound) {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return event, err
}

// Delete removes an event. Unknown ids succeed without effect.
func (s *EventService) Delete(ctx context.Context, scope Scope, id string) error {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return err
	}

	removed, err := deleteInScope[models.Event](ctx, s.db, scope, id)
	if err != nil {
		return fmt.Errorf("event service: delete event: %w", err)
	}
	if removed > 0 {
		recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
			Action:   "event.delete",
			Resource: id,
		})
	}
	return nil
}
