package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/storage"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/metrics"
)

// DefaultMaxUploadBytes bounds uploads when no explicit limit is configured.
const DefaultMaxUploadBytes int64 = 25 << 20

const maxFileNameLength = 200

// UploadInput describes a file to be stored. Size may be -1 when unknown.
type UploadInput struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// FileOption customises FileService behaviour.
type FileOption func(*FileService)

// WithMaxUploadBytes overrides the upload size limit. Non-positive values are ignored.
func WithMaxUploadBytes(limit int64) FileOption {
	return func(s *FileService) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

// FileService stores workspace files in object storage. The store is the
// only source of truth; nothing is persisted in the database.
type FileService struct {
	store          storage.ObjectStore
	auditService   *AuditService
	maxUploadBytes int64
	log            *zap.Logger
}

// NewFileService constructs a FileService instance.
func NewFileService(store storage.ObjectStore, auditService *AuditService, opts ...FileOption) (*FileService, error) {
	if store == nil {
		return nil, errors.New("file service: object store is required")
	}
	svc := &FileService{
		store:          store,
		auditService:   auditService,
		maxUploadBytes: DefaultMaxUploadBytes,
		log:            logger.WithModule("files"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// MaxUploadBytes returns the configured upload size limit.
func (s *FileService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload streams the body to {workspaceID}/{uuid}_{name}.
func (s *FileService) Upload(ctx context.Context, scope Scope, input UploadInput) (*models.FileRecord, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}
	if input.Body == nil {
		return nil, ErrUploadFailed.WithMessage("file body is required")
	}
	if input.Size > s.maxUploadBytes {
		metrics.FileUploads.WithLabelValues("failure").Inc()
		return nil, ErrUploadTooLarge
	}

	name := sanitiseFileName(input.Name)
	objectName := uuid.NewString() + "_" + name
	objectPath := scope.Prefix() + objectName

	size := input.Size
	if size <= 0 {
		size = -1
	}
	body := &cappedReader{r: input.Body, remaining: s.maxUploadBytes}

	if err := s.store.Put(ctx, objectPath, body, size, input.ContentType); err != nil {
		metrics.FileUploads.WithLabelValues("failure").Inc()
		if body.exceeded || errors.Is(err, errUploadCapExceeded) {
			if cleanupErr := s.store.Delete(ctx, objectPath); cleanupErr != nil {
				s.log.Warn("failed to remove oversized upload", zap.String("path", objectPath), zap.Error(cleanupErr))
			}
			return nil, ErrUploadTooLarge
		}
		s.log.Error("upload failed", zap.String("path", objectPath), zap.Error(err))
		return nil, ErrUploadFailed.WithMessage(err.Error()).WithInternal(err)
	}
	metrics.FileUploads.WithLabelValues("success").Inc()

	written := s.maxUploadBytes - body.remaining
	record := &models.FileRecord{
		ID:          objectName,
		WorkspaceID: scope.WorkspaceID(),
		Path:        objectPath,
		Name:        name,
		Size:        &written,
		PublicURL:   s.store.PublicURL(objectPath),
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "file.upload",
		Resource: objectPath,
		Metadata: map[string]any{"name": name, "size": written},
	})
	return record, nil
}

// List returns the workspace's files ordered by name. Storage failures are
// logged and answered with an empty list.
func (s *FileService) List(ctx context.Context, scope Scope) ([]models.FileRecord, error) {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return nil, err
	}

	records := make([]models.FileRecord, 0)
	objects, err := s.store.List(ctx, scope.Prefix())
	if err != nil {
		metrics.FileListFailures.Inc()
		s.log.Warn("file listing failed; returning empty list",
			zap.String("workspace_id", scope.WorkspaceID()),
			zap.Error(err),
		)
		return records, nil
	}

	for _, object := range objects {
		objectName := strings.TrimPrefix(object.Name, scope.Prefix())
		if objectName == "" || strings.Contains(objectName, "/") {
			continue
		}
		objectPath := scope.Prefix() + objectName
		records = append(records, models.FileRecord{
			ID:          objectName,
			WorkspaceID: scope.WorkspaceID(),
			Path:        objectPath,
			Name:        displayName(objectName),
			Size:        object.Size,
			PublicURL:   s.store.PublicURL(objectPath),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name == records[j].Name {
			return records[i].ID < records[j].ID
		}
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Delete removes a file. The path must lie under the workspace prefix;
// anything else is rejected before storage is touched.
func (s *FileService) Delete(ctx context.Context, scope Scope, filePath string) error {
	ctx = ensureContext(ctx)
	if err := scope.check(); err != nil {
		return err
	}

	cleaned, err := storage.CleanPath(filePath)
	if err != nil {
		return ErrFilePathForbidden
	}
	if !strings.HasPrefix(cleaned, scope.Prefix()) || cleaned == strings.TrimSuffix(scope.Prefix(), "/") {
		return ErrFilePathForbidden
	}

	if err := s.store.Delete(ctx, cleaned); err != nil {
		return fmt.Errorf("file service: delete object: %w", err)
	}

	recordScopedAudit(s.auditService, ctx, scope, AuditEntry{
		Action:   "file.delete",
		Resource: cleaned,
	})
	return nil
}

var errUploadCapExceeded = errors.New("upload exceeds size limit")

// cappedReader fails once more than remaining bytes have been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		c.exceeded = true
		return 0, errUploadCapExceeded
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		c.exceeded = true
		return n, errUploadCapExceeded
	}
	return n, err
}

// sanitiseFileName keeps the base name. Letters and digits of any script
// survive along with '.', '-' and '_'; everything else becomes an underscore.
func sanitiseFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return "file"
	}
	if runes := []rune(cleaned); len(runes) > maxFileNameLength {
		cleaned = string(runes[len(runes)-maxFileNameLength:])
	}
	return cleaned
}

// displayName strips the random upload prefix from an object name.
func displayName(objectName string) string {
	prefix, rest, ok := strings.Cut(objectName, "_")
	if !ok || rest == "" {
		return objectName
	}
	if _, err := uuid.Parse(prefix); err != nil {
		return objectName
	}
	return rest
}
