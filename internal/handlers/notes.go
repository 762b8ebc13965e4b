package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

const maxNoteContentLength = 100_000

// NoteHandler manages workspace notes.
type NoteHandler struct {
	svc *services.NoteService
}

type createNoteRequest struct {
	Title   string `json:"title" validate:"required,notblank,max=255"`
	Content string `json:"content" validate:"max=100000"`
}

type updateNoteRequest struct {
	Content *string `json:"content" validate:"required"`
}

func NewNoteHandler(svc *services.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// GET /api/workspaces/:workspaceID/notes
func (h *NoteHandler) List(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	notes, err := h.svc.List(requestContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, notes)
}

// POST /api/workspaces/:workspaceID/notes
func (h *NoteHandler) Create(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var body createNoteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	note, err := h.svc.Create(requestContext(c), scope, services.CreateNoteInput{
		Title:   body.Title,
		Content: body.Content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, note)
}

// PATCH /api/workspaces/:workspaceID/notes/:id
func (h *NoteHandler) UpdateContent(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var body updateNoteRequest
	if !bindAndValidate(c, &body) {
		return
	}
	if len(*body.Content) > maxNoteContentLength {
		response.Error(c, errors.NewValidation("content must be at most 100000 characters"))
		return
	}

	note, err := h.svc.UpdateContent(requestContext(c), scope, c.Param("id"), *body.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, note)
}

// DELETE /api/workspaces/:workspaceID/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
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
