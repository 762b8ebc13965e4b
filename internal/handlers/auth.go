package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

// AuthHandler exposes the session manager over HTTP.
type AuthHandler struct {
	manager *iauth.Manager
}

func NewAuthHandler(manager *iauth.Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,notblank"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.manager.Register(requestContext(c), strings.TrimSpace(req.Email), req.Password, sessionMetadata(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, session)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.manager.Authenticate(requestContext(c), strings.TrimSpace(req.Email), req.Password, sessionMetadata(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, session)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.manager.Refresh(requestContext(c), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, session)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString(middleware.CtxSessionIDKey)
	if sessionID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	h.manager.SignOutSession(requestContext(c), sessionID)
	response.Success(c, http.StatusOK, gin.H{"signed_out": true})
}

// POST /api/auth/logout/all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.manager.SignOutEverywhere(requestContext(c), userID); err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"signed_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := h.manager.CurrentUser(requestContext(c), c.GetString(middleware.CtxAccessTokenKey))
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func sessionMetadata(c *gin.Context) iauth.SessionMetadata {
	return iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
