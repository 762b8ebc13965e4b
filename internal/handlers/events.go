package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

// EventHandler manages workspace calendar events.
type EventHandler struct {
	svc *services.EventService
}

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description" validate:"max=4000"`
	StartTS     time.Time `json:"start_ts" validate:"required"`
	EndTS       time.Time `json:"end_ts" validate:"required"`
}

func NewEventHandler(svc *services.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// GET /api/workspaces/:workspaceID/events
func (h *EventHandler) List(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	events, err := h.svc.List(requestContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, events)
}

// POST /api/workspaces/:workspaceID/events
func (h *EventHandler) Create(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var body createEventRequest
	if !bindAndValidate(c, &body) {
		return
	}

	event, err := h.svc.Create(requestContext(c), scope, services.CreateEventInput{
		Title:       body.Title,
		Description: body.Description,
		StartTS:     body.StartTS,
		EndTS:       body.EndTS,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, event)
}

// DELETE /api/workspaces/:workspaceID/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(requestContext(c), scope, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
