package ui

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/api"
	"tasktracker/internal/app"
	"tasktracker/internal/testutil"
)

type adminFixture struct {
	backend *testutil.Backend
	admin   *app.Admin
	selfID  int
	bobID   int
}

func newAdminFixture(t *testing.T) (*adminFixture, tea.Model) {
	t.Helper()
	b := testutil.NewBackend(t)
	b.Now = func() time.Time { return fixedNow }
	selfID := b.AddUser("ada", "secret", true)
	bobID := b.AddUser("bob", "secret", false)

	a := app.NewAdmin(loggedInClient(t, b, "ada"))
	var m tea.Model = NewAdminPanel(a, testConfig(t))
	m = drive(t, m, m.Init())
	return &adminFixture{backend: b, admin: a, selfID: selfID, bobID: bobID}, m
}

func TestAdminPanel_ListsUsersWithTotals(t *testing.T) {
	_, m := newAdminFixture(t)

	view := m.View()
	assert.Contains(t, view, "Users: 2 • Admins: 1")
	assert.Contains(t, view, "ada")
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "🔒 you")
}

func TestAdminPanel_OwnRowIsLocked(t *testing.T) {
	f, m := newAdminFixture(t)

	m = press(t, m, "d")

	assert.Equal(t, 0, f.admin.PendingDeleteID)
	assert.Contains(t, m.View(), "Your own account cannot be deleted here.")
	assert.True(t, f.backend.UserExists(f.selfID))
}

func TestAdminPanel_DeleteConfirmsThenReloads(t *testing.T) {
	f, m := newAdminFixture(t)

	m = press(t, m, "j", "d")
	require.Equal(t, f.bobID, f.admin.PendingDeleteID)
	assert.Contains(t, m.View(), `Delete user "bob"? y/n`)

	m = press(t, m, "y")

	assert.False(t, f.backend.UserExists(f.bobID))
	assert.Contains(t, m.View(), "User bob has been deleted.")
	assert.Contains(t, m.View(), "Users: 1 • Admins: 1")
	assert.NotContains(t, m.View(), "Deleting...")
}

func TestAdminPanel_FailedDeleteClearsStatus(t *testing.T) {
	f, m := newAdminFixture(t)
	f.backend.Fail(http.MethodDelete, "/auth/api/users/"+strconv.Itoa(f.bobID), http.StatusNotFound, "User not found.")

	m = press(t, m, "j", "d", "y")

	view := m.View()
	assert.Contains(t, view, "User not found.")
	assert.NotContains(t, view, "Deleting...")
	assert.True(t, f.backend.UserExists(f.bobID))
}

type noUsers struct{}

func (noUsers) ListUsers(context.Context) (api.UserList, error) {
	return api.UserList{CurrentUserID: 1}, nil
}

func (noUsers) DeleteUser(context.Context, int) (string, error) {
	return "", nil
}

func TestAdminPanel_EmptyList(t *testing.T) {
	var m tea.Model = NewAdminPanel(app.NewAdmin(noUsers{}), testConfig(t))
	m = drive(t, m, m.Init())

	view := m.View()
	assert.Contains(t, view, "Users: 0 • Admins: 0")
	assert.Contains(t, view, "No users found")

	m = press(t, m, "d")
	assert.NotContains(t, m.View(), "y/n")
}

func TestAdminPanel_RegularUserStaysSignedIn(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("bob", "secret", false)

	var m tea.Model = NewAdminPanel(app.NewAdmin(loggedInClient(t, b, "bob")), testConfig(t))
	m = drive(t, m, m.Init())

	assert.NotEqual(t, OutcomeLogin, m.(AdminPanel).Outcome())
	assert.Contains(t, m.View(), "Admin access required.")
}

func TestAdminPanel_FadeDoneDropsRow(t *testing.T) {
	f, m := newAdminFixture(t)
	m = press(t, m, "j", "d")

	// Apply the delete by hand so the row is still fading when we look.
	eff := f.admin.ConfirmDelete()
	require.NotNil(t, eff)
	m, _ = m.Update(eventMsg{event: eff(t.Context())})
	assert.True(t, f.admin.Fading[f.bobID])

	m, _ = m.Update(fadeDoneMsg{id: f.bobID})
	assert.NotContains(t, m.View(), "bob  ")
	assert.Empty(t, f.admin.Fading)
}

func TestAdminPanel_CancelKeepsUser(t *testing.T) {
	f, m := newAdminFixture(t)

	m = press(t, m, "j", "d", "n")

	assert.Equal(t, 0, f.admin.PendingDeleteID)
	assert.True(t, f.backend.UserExists(f.bobID))
	assert.Contains(t, m.View(), "Delete cancelled")
}

func TestAdminPanel_EscGoesBack(t *testing.T) {
	_, m := newAdminFixture(t)

	m = press(t, m, "esc")
	assert.Equal(t, OutcomeDashboard, m.(AdminPanel).Outcome())
}
