package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/models"
)

func TestTodoServiceCreateDefaultsDueDate(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	today := time.Date(2025, 6, 15, 22, 30, 0, 0, time.UTC)
	svc, err := NewTodoService(f.db, f.audit, WithTodoClock(func() time.Time { return today }))
	require.NoError(t, err)

	todo, err := svc.Create(context.Background(), scope, CreateTodoInput{Title: "Ship it"})
	require.NoError(t, err)
	require.Equal(t, models.TodoStatusOpen, todo.Status)
	require.True(t, time.Time(todo.DueDate).Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestTodoServiceListOrdersByDueDate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	svc, err := NewTodoService(f.db, f.audit)
	require.NoError(t, err)

	late, err := svc.Create(ctx, scope, CreateTodoInput{Title: "Later", DueDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	soon, err := svc.Create(ctx, scope, CreateTodoInput{Title: "Soon", DueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	todos, err := svc.List(ctx, scope)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	require.Equal(t, soon.ID, todos[0].ID)
	require.Equal(t, late.ID, todos[1].ID)
}

func TestTodoServiceStatusIsOneWay(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	scope := f.workspace(t, alice, "Team")

	svc, err := NewTodoService(f.db, f.audit)
	require.NoError(t, err)

	todo, err := svc.Create(ctx, scope, CreateTodoInput{Title: "Finish"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, scope, todo.ID, "open")
	require.ErrorIs(t, err, ErrInvalidStatusTransition)
	_, err = svc.UpdateStatus(ctx, scope, todo.ID, "archived")
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	done, err := svc.UpdateStatus(ctx, scope, todo.ID, "done")
	require.NoError(t, err)
	require.Equal(t, models.TodoStatusDone, done.Status)

	again, err := svc.UpdateStatus(ctx, scope, todo.ID, " DONE ")
	require.NoError(t, err)
	require.Equal(t, models.TodoStatusDone, again.Status)

	_, err = svc.UpdateStatus(ctx, scope, todo.ID, "open")
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	logs, _, err := f.audit.ListForWorkspace(ctx, scope, AuditListOptions{Filters: AuditFilters{Action: "todo.complete"}})
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestTodoServiceCrossWorkspaceUpdate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	aliceScope := f.workspace(t, alice, "A")
	bobScope := f.workspace(t, bob, "B")

	svc, err := NewTodoService(f.db, f.audit)
	require.NoError(t, err)

	todo, err := svc.Create(ctx, aliceScope, CreateTodoInput{Title: "Private"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, bobScope, todo.ID, "done")
	require.ErrorIs(t, err, ErrTodoNotFound)

	require.NoError(t, svc.Delete(ctx, bobScope, todo.ID))

	reloaded, err := svc.Get(ctx, aliceScope, todo.ID)
	require.NoError(t, err)
	require.Equal(t, models.TodoStatusOpen, reloaded.Status)

	require.NoError(t, svc.Delete(ctx, aliceScope, todo.ID))
	require.NoError(t, svc.Delete(ctx, aliceScope, todo.ID))
	_, err = svc.Get(ctx, aliceScope, todo.ID)
	require.ErrorIs(t, err, ErrTodoNotFound)
}
