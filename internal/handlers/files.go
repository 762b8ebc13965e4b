package handlers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/internal/storage"
	appErrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

const uploadFormField = "file"

// uploadFormOverhead allows for multipart boundaries and part headers on top
// of the file size limit.
const uploadFormOverhead int64 = 64 << 10

// FileHandler manages workspace files.
type FileHandler struct {
	svc *services.FileService
}

func NewFileHandler(svc *services.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// GET /api/workspaces/:workspaceID/files
func (h *FileHandler) List(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	files, err := h.svc.List(requestContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

// POST /api/workspaces/:workspaceID/files (multipart field "file")
func (h *FileHandler) Upload(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.MaxUploadBytes()+uploadFormOverhead)

	header, err := c.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, services.ErrUploadTooLarge)
			return
		}
		response.Error(c, appErrors.NewValidation("file is required"))
		return
	}
	if header.Size > h.svc.MaxUploadBytes() {
		response.Error(c, services.ErrUploadTooLarge)
		return
	}

	body, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("unable to read uploaded file"))
		return
	}
	defer body.Close()

	record, err := h.svc.Upload(requestContext(c), scope, services.UploadInput{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// DELETE /api/workspaces/:workspaceID/files?path=
func (h *FileHandler) Delete(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}

	filePath := strings.TrimSpace(c.Query("path"))
	if filePath == "" {
		response.Error(c, appErrors.NewValidation("path is required"))
		return
	}
	if err := h.svc.Delete(requestContext(c), scope, filePath); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// PublicFiles serves objects of the filesystem backend at their public URL.
func PublicFiles(store *storage.FilesystemStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		objectPath := strings.TrimPrefix(c.Param("path"), "/")
		fh, err := store.Open(objectPath)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidPath) || errors.Is(err, os.ErrNotExist) {
				response.Error(c, appErrors.ErrNotFound)
				return
			}
			response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
			return
		}
		defer fh.Close()

		info, err := fh.Stat()
		if err != nil || info.IsDir() {
			response.Error(c, appErrors.ErrNotFound)
			return
		}

		c.Header("Content-Disposition", "inline")
		c.Header("X-Content-Type-Options", "nosniff")
		http.ServeContent(c.Writer, c.Request, path.Base(objectPath), info.ModTime(), fh)
	}
}
