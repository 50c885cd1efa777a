package app_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/app"
)

func runAdmin(a *app.Admin, eff app.Effect) {
	for eff != nil {
		eff = a.Apply(eff(context.Background()))
	}
}

func TestAdmin_OwnRowCannotBeDeleted(t *testing.T) {
	f := newFixture(t, true)
	bob := f.backend.AddUser("bob", "pw", false)
	carol := f.backend.AddUser("carol", "pw", true)

	a := app.NewAdmin(f.client)
	runAdmin(a, a.Load())

	require.True(t, a.Loaded)
	assert.Equal(t, f.userID, a.CurrentUserID)
	assert.False(t, a.CanDelete(f.userID))
	assert.True(t, a.CanDelete(bob))
	assert.True(t, a.CanDelete(carol))

	users, admins := a.Totals()
	assert.Equal(t, 3, users)
	assert.Equal(t, 2, admins)

	assert.ErrorIs(t, a.RequestDelete(f.userID), app.ErrSelfDelete)
	assert.Equal(t, 0, a.PendingDeleteID)
	assert.Nil(t, a.ConfirmDelete())
}

func TestAdmin_DeleteFadesRowAndReloads(t *testing.T) {
	f := newFixture(t, true)
	bob := f.backend.AddUser("bob", "pw", false)

	a := app.NewAdmin(f.client)
	runAdmin(a, a.Load())

	require.NoError(t, a.RequestDelete(bob))
	eff := a.ConfirmDelete()
	require.NotNil(t, eff)

	follow := a.Apply(eff(context.Background()))
	assert.True(t, a.Fading[bob], "row fades before the reload lands")
	assert.Equal(t, []string{"User bob has been deleted."}, messages(a.Notices.All()))

	runAdmin(a, follow)
	assert.False(t, a.Fading[bob])
	users, _ := a.Totals()
	assert.Equal(t, 1, users)
	assert.Equal(t, 2, f.backend.Count(http.MethodGet, "/auth/api/users"))
}

func TestAdmin_FinishFadeRemovesRowLocally(t *testing.T) {
	f := newFixture(t, true)
	bob := f.backend.AddUser("bob", "pw", false)

	a := app.NewAdmin(f.client)
	runAdmin(a, a.Load())
	require.NoError(t, a.RequestDelete(bob))
	a.Apply(a.ConfirmDelete()(context.Background()))

	a.FinishFade(bob)
	_, ok := a.User(bob)
	assert.False(t, ok)
	assert.Empty(t, a.Fading)
}

func TestAdmin_ServerErrorBecomesNotice(t *testing.T) {
	f := newFixture(t, true)
	bob := f.backend.AddUser("bob", "pw", false)
	f.backend.Fail(http.MethodDelete, "/auth/api/users/2", http.StatusNotFound, "User not found.")

	a := app.NewAdmin(f.client)
	runAdmin(a, a.Load())
	require.NoError(t, a.RequestDelete(bob))
	runAdmin(a, a.ConfirmDelete())

	notices := a.Notices.All()
	require.Len(t, notices, 1)
	assert.Equal(t, app.LevelError, notices[0].Level)
	assert.Equal(t, "User not found.", notices[0].Message)
	assert.Empty(t, a.Fading)
}

func TestAdmin_CancelDelete(t *testing.T) {
	f := newFixture(t, true)
	bob := f.backend.AddUser("bob", "pw", false)

	a := app.NewAdmin(f.client)
	runAdmin(a, a.Load())
	require.NoError(t, a.RequestDelete(bob))
	a.CancelDelete()

	assert.Nil(t, a.ConfirmDelete())
	assert.True(t, f.backend.UserExists(bob))
}

func TestAdmin_RegularUserIsTurnedAway(t *testing.T) {
	f := newFixture(t, false)

	a := app.NewAdmin(f.client)
	runAdmin(a, a.Load())

	assert.False(t, a.Loaded)
	assert.Equal(t, []string{"Admin access required."}, messages(a.Notices.All()))
}
