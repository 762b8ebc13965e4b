package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/api"
	"github.com/charlesng35/huddle/internal/app"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/auth/providers"
	sharedtestutil "github.com/charlesng35/huddle/internal/database/testutil"
	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/internal/storage"
	"github.com/charlesng35/huddle/pkg/response"
)

// DefaultPassword satisfies the local provider's password policy.
const DefaultPassword = "Secret123!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Router     *gin.Engine
	Config     *app.Config
	Store      *storage.FilesystemStore
	Workspaces *services.WorkspaceService
}

// EnvOption customises the configuration used by NewEnv.
type EnvOption func(*app.Config)

// WithMaxUploadBytes lowers the upload limit for size-limit tests.
func WithMaxUploadBytes(limit int64) EnvOption {
	return func(cfg *app.Config) {
		cfg.Storage.MaxUploadBytes = limit
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Server: app.ServerConfig{
			CORSOrigins: []string{"*"},
			RateLimit:   app.RateLimitConfig{Requests: 10000, Window: time.Minute},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Session: app.SessionSettings{
				RefreshTTL:    24 * time.Hour,
				RefreshLength: 48,
			},
		},
		Storage: app.StorageConfig{
			Backend:        app.StorageBackendFilesystem,
			MaxUploadBytes: services.DefaultMaxUploadBytes,
			Filesystem: app.FilesystemStorageConfig{
				Root:          t.TempDir(),
				PublicBaseURL: "http://localhost/public/files",
			},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, cfg.Auth.SessionServiceConfig(nil))
	require.NoError(t, err)
	provider, err := providers.NewLocalProvider(db, cfg.Auth.LocalProviderConfig())
	require.NoError(t, err)

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)
	workspaceSvc, err := services.NewWorkspaceService(db, auditSvc)
	require.NoError(t, err)
	eventSvc, err := services.NewEventService(db, auditSvc)
	require.NoError(t, err)
	todoSvc, err := services.NewTodoService(db, auditSvc)
	require.NoError(t, err)
	noteSvc, err := services.NewNoteService(db, auditSvc)
	require.NoError(t, err)

	store, err := storage.NewFilesystemStore(cfg.Storage.Filesystem.Root, cfg.Storage.Filesystem.PublicBaseURL)
	require.NoError(t, err)
	fileSvc, err := services.NewFileService(store, auditSvc, services.WithMaxUploadBytes(cfg.Storage.MaxUploadBytes))
	require.NoError(t, err)

	manager, err := iauth.NewManager(provider, sessionSvc, iauth.WithInviteAcceptor(workspaceSvc))
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		DB:          db,
		Config:      cfg,
		Auth:        manager,
		Audit:       auditSvc,
		Workspaces:  workspaceSvc,
		Events:      eventSvc,
		Todos:       todoSvc,
		Notes:       noteSvc,
		Files:       fileSvc,
		PublicFiles: store,
		RateStore:   middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)

	return &Env{
		T:          t,
		DB:         db,
		Router:     router,
		Config:     cfg,
		Store:      store,
		Workspaces: workspaceSvc,
	}
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// SessionResult bundles the JSON response from register, login and refresh.
type SessionResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         UserPayload `json:"user"`
}

// Register creates an account through the API and returns the issued session.
func (e *Env) Register(email, password string) SessionResult {
	e.T.Helper()
	return e.authenticate("/api/auth/register", http.StatusCreated, email, password)
}

// Login authenticates using the local provider and returns the issued session.
func (e *Env) Login(email, password string) SessionResult {
	e.T.Helper()
	return e.authenticate("/api/auth/login", http.StatusOK, email, password)
}

func (e *Env) authenticate(path string, status int, email, password string) SessionResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, path, map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, status, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result SessionResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.AccessToken)
	require.NotEmpty(e.T, result.RefreshToken)
	return result
}

// CreateWorkspace creates a workspace for the token's user and returns its id.
func (e *Env) CreateWorkspace(token, name string, invites ...string) string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/workspaces", map[string]any{
		"name":          name,
		"invite_emails": invites,
	}, token)
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var workspace struct {
		ID string `json:"id"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &workspace)
	require.NotEmpty(e.T, workspace.ID)
	return workspace.ID
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, token)
}

// Upload posts a multipart form with a single "file" field.
func (e *Env) Upload(path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(e.T, err)
	_, err = part.Write(content)
	require.NoError(e.T, err)
	require.NoError(e.T, writer.Close())

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.serve(req, token)
}

func (e *Env) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
