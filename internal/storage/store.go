package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrInvalidPath is returned for object paths that are empty or escape the store.
var ErrInvalidPath = errors.New("storage: invalid object path")

// ObjectInfo describes a stored object. Size is nil when the backend does not report it.
type ObjectInfo struct {
	Name string
	Size *int64
}

// ObjectStore is the object storage collaborator used by the file repository.
type ObjectStore interface {
	// Put streams body to path. size may be -1 when unknown.
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	// List returns the direct children of prefix; Name is relative to prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PublicURL resolves the externally reachable URL of path.
	PublicURL(path string) string
	// Delete removes paths. Missing objects are not an error.
	Delete(ctx context.Context, paths ...string) error
}

// CleanPath normalises an object path and rejects traversal.
func CleanPath(path string) (string, error) {
	path = strings.TrimSpace(strings.ReplaceAll(path, "\\", "/"))
	path = strings.Trim(path, "/")
	if path == "" {
		return "", ErrInvalidPath
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", ErrInvalidPath
		}
	}
	return path, nil
}

func joinURL(base, path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

func ptr[T any](v T) *T {
	return &v
}
