package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

const dueDateLayout = "2006-01-02"

// TodoHandler manages workspace to-do items.
type TodoHandler struct {
	svc *services.TodoService
}

type createTodoRequest struct {
	Title   string `json:"title" validate:"required,notblank,max=255"`
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type updateTodoRequest struct {
	Status string `json:"status" validate:"required,notblank"`
}

func NewTodoHandler(svc *services.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// GET /api/workspaces/:workspaceID/todos
func (h *TodoHandler) List(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	todos, err := h.svc.List(requestContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, todos)
}

// POST /api/workspaces/:workspaceID/todos
func (h *TodoHandler) Create(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var body createTodoRequest
	if !bindAndValidate(c, &body) {
		return
	}

	var due time.Time
	if body.DueDate != "" {
		// validated by the datetime tag
		due, _ = time.Parse(dueDateLayout, body.DueDate)
	}

	todo, err := h.svc.Create(requestContext(c), scope, services.CreateTodoInput{
		Title:   body.Title,
		DueDate: due,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, todo)
}

// PATCH /api/workspaces/:workspaceID/todos/:id
func (h *TodoHandler) UpdateStatus(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var body updateTodoRequest
	if !bindAndValidate(c, &body) {
		return
	}

	todo, err := h.svc.UpdateStatus(requestContext(c), scope, c.Param("id"), body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, todo)
}

// DELETE /api/workspaces/:workspaceID/todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
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
