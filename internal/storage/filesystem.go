package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var _ ObjectStore = (*FilesystemStore)(nil)

// FilesystemStore persists objects below a root directory. Public URLs point
// at PublicBaseURL, which the HTTP layer serves from the same root.
type FilesystemStore struct {
	root    string
	baseURL string
}

// NewFilesystemStore initialises a filesystem-backed store rooted at dir.
func NewFilesystemStore(dir, publicBaseURL string) (*FilesystemStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filesystem store: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem store: ensure root directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("filesystem store: resolve root: %w", err)
	}
	return &FilesystemStore{root: abs, baseURL: strings.TrimSpace(publicBaseURL)}, nil
}

// Root returns the absolute root directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

// Put writes body to a temporary file and renames it into place.
func (s *FilesystemStore) Put(ctx context.Context, path string, body io.Reader, _ int64, _ string) error {
	fullPath, err := s.absolute(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filesystem store: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("filesystem store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filesystem store: write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filesystem store: close object: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return fmt.Errorf("filesystem store: commit object: %w", err)
	}
	return nil
}

// List returns regular files directly below prefix, sorted by name.
func (s *FilesystemStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	dir, err := s.absolute(prefix)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []ObjectInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filesystem store: list %s: %w", prefix, err)
	}

	out := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info := ObjectInfo{Name: entry.Name()}
		if stat, err := entry.Info(); err == nil {
			info.Size = ptr(stat.Size())
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PublicURL joins the configured base URL and path.
func (s *FilesystemStore) PublicURL(path string) string {
	clean, err := CleanPath(path)
	if err != nil {
		return ""
	}
	return joinURL(s.baseURL, clean)
}

// Delete removes each path, ignoring missing files.
func (s *FilesystemStore) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		fullPath, err := s.absolute(path)
		if err != nil {
			return err
		}
		if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("filesystem store: delete object: %w", err)
		}
	}
	return nil
}

// Open returns a reader for the stored object.
func (s *FilesystemStore) Open(path string) (*os.File, error) {
	fullPath, err := s.absolute(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("filesystem store: open object: %w", err)
	}
	return fh, nil
}

func (s *FilesystemStore) absolute(path string) (string, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(fullPath, s.root+string(os.PathSeparator)) {
		return "", ErrInvalidPath
	}
	return fullPath, nil
}
