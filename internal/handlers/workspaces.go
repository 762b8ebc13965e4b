package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

// WorkspaceHandler exposes the workspace directory.
type WorkspaceHandler struct {
	svc   *services.WorkspaceService
	audit *services.AuditService
}

type createWorkspaceRequest struct {
	Name         string   `json:"name" validate:"required,notblank,max=128"`
	InviteEmails []string `json:"invite_emails" validate:"omitempty,max=50"`
}

type inviteRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=50"`
}

type membershipResponse struct {
	Left bool `json:"left"`
}

func NewWorkspaceHandler(svc *services.WorkspaceService, audit *services.AuditService) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc, audit: audit}
}

// GET /api/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	workspaces, err := h.svc.ListForUser(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspaces)
}

// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var body createWorkspaceRequest
	if !bindAndValidate(c, &body) {
		return
	}

	workspace, err := h.svc.Create(requestContext(c), currentUserID(c), services.CreateWorkspaceInput{
		Name:         body.Name,
		InviteEmails: body.InviteEmails,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, workspace)
}

// GET /api/workspaces/:workspaceID
func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace, err := h.svc.Select(requestContext(c), currentUserID(c), c.Param("workspaceID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspace)
}

// DELETE /api/workspaces/:workspaceID/membership
func (h *WorkspaceHandler) Leave(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	if err := h.svc.Leave(requestContext(c), scope); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, membershipResponse{Left: true})
}

// GET /api/workspaces/:workspaceID/invites
func (h *WorkspaceHandler) ListInvites(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	invites, err := h.svc.ListInvites(requestContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invites)
}

// POST /api/workspaces/:workspaceID/invites
func (h *WorkspaceHandler) Invite(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var body inviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	invites, err := h.svc.Invite(requestContext(c), scope, body.Emails)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, invites)
}

// GET /api/workspaces/:workspaceID/members
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	members, err := h.svc.ListMembers(requestContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// GET /api/workspaces/:workspaceID/activity
func (h *WorkspaceHandler) Activity(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}

	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
		Filters:  services.AuditFilters{Action: c.Query("action")},
	}
	logs, total, err := h.audit.ListForWorkspace(requestContext(c), scope, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": logs, "total": total})
}
