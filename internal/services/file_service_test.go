package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/storage"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

type failingObjectStore struct {
	putErr    error
	listErr   error
	deleteErr error
	deleted   []string
}

func (s *failingObjectStore) Put(_ context.Context, _ string, body io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	_, err := io.Copy(io.Discard, body)
	return err
}

func (s *failingObjectStore) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, s.listErr
}

func (s *failingObjectStore) PublicURL(path string) string {
	return "https://files.example.com/" + path
}

func (s *failingObjectStore) Delete(_ context.Context, paths ...string) error {
	s.deleted = append(s.deleted, paths...)
	return s.deleteErr
}

func newFileFixture(t *testing.T) (*serviceFixture, *storage.FilesystemStore) {
	t.Helper()

	f := newServiceFixture(t)
	store, err := storage.NewFilesystemStore(t.TempDir(), "http://localhost:8080/public/files")
	require.NoError(t, err)
	return f, store
}

func TestFileServiceUploadAndList(t *testing.T) {
	f, store := newFileFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	svc, err := NewFileService(store, f.audit)
	require.NoError(t, err)

	first, err := svc.Upload(ctx, scope, UploadInput{Name: "report.pdf", Size: 5, Body: strings.NewReader("hello")})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, scope, UploadInput{Name: "report.pdf", Size: -1, Body: strings.NewReader("again!")})
	require.NoError(t, err)

	require.NotEqual(t, first.Path, second.Path)
	require.True(t, strings.HasPrefix(first.Path, scope.Prefix()))
	require.True(t, strings.HasSuffix(first.Path, "_report.pdf"))
	require.Equal(t, "report.pdf", first.Name)
	require.Equal(t, int64(5), *first.Size)
	require.Equal(t, "http://localhost:8080/public/files/"+first.Path, first.PublicURL)

	data, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(first.Path)))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	files, err := svc.List(ctx, scope)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, file := range files {
		require.Equal(t, "report.pdf", file.Name)
		require.Equal(t, scope.WorkspaceID(), file.WorkspaceID)
		require.NotNil(t, file.Size)
	}
}

func TestFileServiceSanitisesNames(t *testing.T) {
	require.Equal(t, "passwd", sanitiseFileName("../../etc/passwd"))
	require.Equal(t, "my_file__1_.txt", sanitiseFileName("my file (1).txt"))
	require.Equal(t, "file", sanitiseFileName(""))
	require.Equal(t, "file", sanitiseFileName(".."))
	require.Equal(t, "env", sanitiseFileName(".env"))
	require.Equal(t, "résumé.pdf", sanitiseFileName("résumé.pdf"))
	require.Equal(t, "報告_2024.txt", sanitiseFileName("報告 2024.txt"))
	require.Equal(t, "a_b", sanitiseFileName("a\tb"))
	require.Equal(t, "a_b", sanitiseFileName("a\x00b"))
	require.Len(t, []rune(sanitiseFileName(strings.Repeat("é", maxFileNameLength+10))), maxFileNameLength)
	require.Equal(t, "notes.md", displayName("0b6f6f2e-4f3c-4c6e-9c1a-3f1f5d2b7a10_notes.md"))
	require.Equal(t, "plain_name.md", displayName("plain_name.md"))
}

func TestFileServiceListIsolatedAndFailsOpen(t *testing.T) {
	f, store := newFileFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	aliceScope := f.workspace(t, alice, "A")
	bobScope := f.workspace(t, bob, "B")

	svc, err := NewFileService(store, nil)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, aliceScope, UploadInput{Name: "a.txt", Body: strings.NewReader("a")})
	require.NoError(t, err)

	files, err := svc.List(ctx, bobScope)
	require.NoError(t, err)
	require.Empty(t, files)

	broken, err := NewFileService(&failingObjectStore{listErr: errors.New("bucket unreachable")}, nil)
	require.NoError(t, err)
	files, err = broken.List(ctx, aliceScope)
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)
}

func TestFileServiceUploadFailure(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	svc, err := NewFileService(&failingObjectStore{putErr: errors.New("connection reset")}, nil)
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), scope, UploadInput{Name: "a.txt", Body: strings.NewReader("a")})
	require.ErrorIs(t, err, ErrUploadFailed)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "UPLOAD_FAILED", appErr.Code)
	require.Contains(t, appErr.Message, "connection reset")
}

func TestFileServiceUploadSizeLimit(t *testing.T) {
	f, store := newFileFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	svc, err := NewFileService(store, nil, WithMaxUploadBytes(4))
	require.NoError(t, err)
	require.Equal(t, int64(4), svc.MaxUploadBytes())

	_, err = svc.Upload(ctx, scope, UploadInput{Name: "big.bin", Size: 10, Body: strings.NewReader("0123456789")})
	require.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = svc.Upload(ctx, scope, UploadInput{Name: "big.bin", Size: -1, Body: strings.NewReader("0123456789")})
	require.ErrorIs(t, err, ErrUploadTooLarge)

	files, err := svc.List(ctx, scope)
	require.NoError(t, err)
	require.Empty(t, files)

	exact, err := svc.Upload(ctx, scope, UploadInput{Name: "ok.bin", Size: -1, Body: strings.NewReader("0123")})
	require.NoError(t, err)
	require.Equal(t, int64(4), *exact.Size)
}

func TestFileServiceDelete(t *testing.T) {
	f, store := newFileFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	aliceScope := f.workspace(t, alice, "A")
	bobScope := f.workspace(t, bob, "B")

	svc, err := NewFileService(store, f.audit)
	require.NoError(t, err)

	record, err := svc.Upload(ctx, aliceScope, UploadInput{Name: "a.txt", Body: strings.NewReader("a")})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, bobScope, record.Path), ErrFilePathForbidden)
	require.ErrorIs(t, svc.Delete(ctx, aliceScope, aliceScope.WorkspaceID()+"/../"+bobScope.WorkspaceID()+"/x"), ErrFilePathForbidden)
	require.ErrorIs(t, svc.Delete(ctx, aliceScope, aliceScope.WorkspaceID()), ErrFilePathForbidden)

	files, err := svc.List(ctx, aliceScope)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, svc.Delete(ctx, aliceScope, record.Path))
	require.NoError(t, svc.Delete(ctx, aliceScope, record.Path))

	files, err = svc.List(ctx, aliceScope)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestFileServiceDeletePropagatesStorageErrors(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	stub := &failingObjectStore{deleteErr: errors.New("permission denied")}
	svc, err := NewFileService(stub, nil)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), scope, scope.Prefix()+"x.txt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "permission denied")
	require.Equal(t, []string{scope.Prefix() + "x.txt"}, stub.deleted)
}
