package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/handlers/testutil"
)

type todoPayload struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Status  string    `json:"status"`
	DueDate time.Time `json:"due_date"`
}

type workspacePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestTodoLifecycleEndToEnd(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Register("a@x.com", testutil.DefaultPassword)
	workspaceID := env.CreateWorkspace(session.AccessToken, "Team")
	todos := "/api/workspaces/" + workspaceID + "/todos"

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	resp := env.Request(http.MethodPost, todos, map[string]string{
		"title":    "Ship v1",
		"due_date": tomorrow,
	}, session.AccessToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created todoPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &created)
	require.Equal(t, "open", created.Status)

	resp = env.Request(http.MethodPatch, todos+"/"+created.ID, map[string]string{"status": "done"}, session.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, todos, nil, session.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var listed []todoPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, "Ship v1", listed[0].Title)
	require.Equal(t, "done", listed[0].Status)
	require.Equal(t, tomorrow, listed[0].DueDate.UTC().Format("2006-01-02"))

	resp = env.Request(http.MethodPatch, todos+"/"+created.ID, map[string]string{"status": "open"}, session.AccessToken)
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
	require.Equal(t, "INVALID_STATUS_TRANSITION", testutil.DecodeResponse(t, resp).Error.Code)
}

func TestWorkspaceRoutesRequireAuthentication(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/api/workspaces", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/workspaces", nil, "garbage")
	require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com", testutil.DefaultPassword)
	outsider := env.Register("outsider@example.com", testutil.DefaultPassword)

	workspaceID := env.CreateWorkspace(owner.AccessToken, "Private")
	resp := env.Request(http.MethodPost, "/api/workspaces/"+workspaceID+"/notes", map[string]string{
		"title":   "Secret",
		"content": "hidden",
	}, owner.AccessToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	for _, path := range []string{
		"/api/workspaces/" + workspaceID,
		"/api/workspaces/" + workspaceID + "/notes",
		"/api/workspaces/" + workspaceID + "/todos",
		"/api/workspaces/" + workspaceID + "/files",
		"/api/workspaces/does-not-exist/events",
	} {
		resp = env.Request(http.MethodGet, path, nil, outsider.AccessToken)
		require.Equal(t, http.StatusNotFound, resp.Code, path)
		require.Equal(t, "WORKSPACE_NOT_FOUND", testutil.DecodeResponse(t, resp).Error.Code, path)
	}

	resp = env.Request(http.MethodGet, "/api/workspaces", nil, outsider.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var listed []workspacePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &listed)
	require.Empty(t, listed)
}

func TestInvitesAreAcceptedOnRegister(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("lead@example.com", testutil.DefaultPassword)
	workspaceID := env.CreateWorkspace(owner.AccessToken, "Launch", "Friend@Example.com", "lead@example.com")

	resp := env.Request(http.MethodGet, "/api/workspaces/"+workspaceID+"/invites", nil, owner.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var invites []struct {
		Email string `json:"email"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &invites)
	require.Len(t, invites, 1)
	require.Equal(t, "friend@example.com", invites[0].Email)

	friend := env.Register("friend@example.com", testutil.DefaultPassword)

	resp = env.Request(http.MethodGet, "/api/workspaces", nil, friend.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var listed []workspacePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, "Launch", listed[0].Name)

	resp = env.Request(http.MethodGet, "/api/workspaces/"+workspaceID+"/members", nil, friend.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var members []testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &members)
	require.Len(t, members, 2)
}

func TestWorkspaceCreateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Register("v@example.com", testutil.DefaultPassword)

	resp := env.Request(http.MethodPost, "/api/workspaces", map[string]any{"name": "   "}, session.AccessToken)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPost, "/api/workspaces", map[string]any{
		"name":          "Team",
		"invite_emails": []string{"broken"},
	}, session.AccessToken)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	require.Equal(t, "VALIDATION_ERROR", testutil.DecodeResponse(t, resp).Error.Code)
}

func TestLeaveWorkspace(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Register("solo@example.com", testutil.DefaultPassword)
	workspaceID := env.CreateWorkspace(session.AccessToken, "Solo")

	resp := env.Request(http.MethodDelete, "/api/workspaces/"+workspaceID+"/membership", nil, session.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/workspaces/"+workspaceID, nil, session.AccessToken)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestWorkspaceActivity(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Register("audit@example.com", testutil.DefaultPassword)
	workspaceID := env.CreateWorkspace(session.AccessToken, "Audited")

	resp := env.Request(http.MethodPost, "/api/workspaces/"+workspaceID+"/todos", map[string]string{
		"title": "Write report",
	}, session.AccessToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/workspaces/"+workspaceID+"/activity?action=todo.create", nil, session.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var activity struct {
		Items []struct {
			Action string `json:"action"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &activity)
	require.EqualValues(t, 1, activity.Total)
	require.Equal(t, "todo.create", activity.Items[0].Action)
}
