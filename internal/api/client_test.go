package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/api"
	"tasktracker/internal/model"
	"tasktracker/internal/testutil"
)

func newClient(t *testing.T, b *testutil.Backend) *api.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c, err := api.New(b.URL(), jar)
	require.NoError(t, err)
	return c
}

func loggedIn(t *testing.T, b *testutil.Backend, username string, admin bool) (*api.Client, int) {
	t.Helper()
	id := b.AddUser(username, "secret", admin)
	c := newClient(t, b)
	_, err := c.Login(context.Background(), username, "secret")
	require.NoError(t, err)
	return c, id
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := api.New("localhost:5000", nil)
	assert.Error(t, err)
	_, err = api.New("/api", nil)
	assert.Error(t, err)
}

func TestMe_WithoutSessionIsUnauthenticated(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthenticated)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusFound, apiErr.Status)
}

func TestLogin_SessionCarriesToLaterRequests(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("ada", "secret", true)
	c := newClient(t, b)
	ctx := context.Background()

	msg, err := c.Login(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Login successful!", msg)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", me.Username)
	assert.True(t, me.IsAdmin)
}

func TestLogin_ServerErrorSurfacedVerbatim(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("ada", "secret", false)
	c := newClient(t, b)

	_, err := c.Login(context.Background(), "ada", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect password.", err.Error())
	assert.NotErrorIs(t, err, api.ErrUnauthenticated)
}

func TestRegister(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(t, b)
	ctx := context.Background()

	msg, err := c.Register(ctx, "grace", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Registration successful!", msg)

	_, err = c.Register(ctx, "grace", "pw")
	assert.EqualError(t, err, "User grace is already registered.")
}

func TestTaskCRUD(t *testing.T) {
	b := testutil.NewBackend(t)
	c, _ := loggedIn(t, b, "ada", false)
	ctx := context.Background()

	require.NoError(t, c.CreateTask(ctx, api.TaskInput{
		Title:    "Write report",
		Priority: model.PriorityHigh,
		DueDate:  "2025-03-10",
		Tags:     "work",
	}))

	tasks, err := c.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	got := tasks[0]
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, model.StatusTodo, got.Status)
	assert.Equal(t, "2025-03-10", got.DueDate.String())

	require.NoError(t, c.UpdateTask(ctx, got.ID, api.TaskInput{Title: "Write final report", Priority: model.PriorityLow}))
	require.NoError(t, c.SetStatus(ctx, got.ID, model.StatusInProgress))

	stored, ok := b.Task(got.ID)
	require.True(t, ok)
	assert.Equal(t, "Write final report", stored.Title)
	assert.Equal(t, model.StatusInProgress, stored.Status)
	assert.True(t, stored.DueDate.IsZero(), "full update clears the due date")

	require.NoError(t, c.DeleteTask(ctx, got.ID))
	tasks, err = c.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	err = c.DeleteTask(ctx, got.ID)
	assert.EqualError(t, err, "Task not found")
}

func TestError_FallbackMessage(t *testing.T) {
	b := testutil.NewBackend(t)
	c, _ := loggedIn(t, b, "ada", false)
	b.Fail(http.MethodGet, "/api/tasks", http.StatusInternalServerError, "")

	_, err := c.ListTasks(context.Background())
	assert.EqualError(t, err, "Request failed")
}

func TestUsers_AdminListAndDelete(t *testing.T) {
	b := testutil.NewBackend(t)
	c, adminID := loggedIn(t, b, "root", true)
	other := b.AddUser("bob", "pw", false)
	ctx := context.Background()

	list, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminID, list.CurrentUserID)
	assert.Len(t, list.Users, 2)

	_, err = c.DeleteUser(ctx, adminID)
	assert.EqualError(t, err, "You cannot delete your own account.")

	msg, err := c.DeleteUser(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "User bob has been deleted.", msg)
	assert.False(t, b.UserExists(other))
}

func TestUsers_NonAdminForbidden(t *testing.T) {
	b := testutil.NewBackend(t)
	c, _ := loggedIn(t, b, "bob", false)

	_, err := c.ListUsers(context.Background())
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusFound, apiErr.Status)
	assert.Equal(t, "Admin access required.", apiErr.Message)
	assert.ErrorIs(t, err, api.ErrForbidden)
	assert.NotErrorIs(t, err, api.ErrUnauthenticated)
}

func TestError_RedirectTarget(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		location string
		want     error
	}{
		{"login page", http.StatusFound, "/auth/login", api.ErrUnauthenticated},
		{"absolute login url", http.StatusFound, "http://localhost:5000/auth/login?next=%2F", api.ErrUnauthenticated},
		{"index", http.StatusFound, "/", api.ErrForbidden},
		{"unauthorized", http.StatusUnauthorized, "", api.ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, "", api.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &api.Error{Status: tt.status, Location: tt.location}
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Nil(t, (&api.Error{Status: http.StatusBadRequest}).Unwrap())
}

func TestLogin_RejectedFormPageIsAnError(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"bare form", "text/html", `<form id="login-form"></form>`, "Request failed"},
		{"flashed error", "text/html", `<div class="alert alert-error"> Incorrect username. </div><form id="login-form"></form>`, "Incorrect username."},
		{"json without success", "application/json", `{"message":"nope"}`, "Request failed"},
		{"json with error", "application/json", `{"success":false,"error":"Locked"}`, "Locked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)
			c, err := api.New(srv.URL, nil)
			require.NoError(t, err)

			msg, err := c.Login(context.Background(), "ada", "secret")
			assert.EqualError(t, err, tt.want)
			assert.Empty(t, msg)

			msg, err = c.Register(context.Background(), "ada", "secret")
			assert.EqualError(t, err, tt.want)
			assert.Empty(t, msg)
		})
	}
}

func TestLogout_DropsSession(t *testing.T) {
	b := testutil.NewBackend(t)
	c, _ := loggedIn(t, b, "ada", false)
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx))
	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthenticated)
}

func TestRequests_AreRecordedOnce(t *testing.T) {
	b := testutil.NewBackend(t)
	c, _ := loggedIn(t, b, "ada", false)

	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count(http.MethodGet, "/api/tasks"))
	assert.Equal(t, 1, b.Count(http.MethodPost, "/auth/login"))
}
