package app

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"tasktracker/internal/api"
	"tasktracker/internal/model"
)

var ErrSelfDelete = errors.New("you cannot delete yourself")

type UserAPI interface {
	ListUsers(ctx context.Context) (api.UserList, error)
	DeleteUser(ctx context.Context, id int) (string, error)
}

type UsersLoaded struct {
	List api.UserList
	Err  error
}

type UserDeleted struct {
	ID      int
	Message string
	Err     error
}

func (UsersLoaded) event() {}
func (UserDeleted) event() {}

// Admin is the user-management panel. The acting admin's own row never
// offers a delete.
type Admin struct {
	Users         []model.User
	CurrentUserID int
	Loaded        bool

	PendingDeleteID int
	// Fading holds rows that were deleted and are on their way out.
	Fading map[int]bool

	Notices Notices

	client UserAPI
}

func NewAdmin(client UserAPI) *Admin {
	return &Admin{client: client, Fading: map[int]bool{}}
}

func (a *Admin) Load() Effect {
	return func(ctx context.Context) Event {
		list, err := a.client.ListUsers(ctx)
		return UsersLoaded{List: list, Err: err}
	}
}

func (a *Admin) CanDelete(id int) bool {
	return id != a.CurrentUserID
}

func (a *Admin) User(id int) (model.User, bool) {
	for _, u := range a.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// Totals counts all users and admins, for the stat cards.
func (a *Admin) Totals() (users, admins int) {
	for _, u := range a.Users {
		if u.IsAdmin {
			admins++
		}
	}
	return len(a.Users), admins
}

func (a *Admin) RequestDelete(id int) error {
	if !a.CanDelete(id) {
		return ErrSelfDelete
	}
	if _, ok := a.User(id); !ok {
		return nil
	}
	a.PendingDeleteID = id
	return nil
}

func (a *Admin) CancelDelete() {
	a.PendingDeleteID = 0
}

func (a *Admin) ConfirmDelete() Effect {
	id := a.PendingDeleteID
	if id == 0 {
		return nil
	}
	a.PendingDeleteID = 0
	return func(ctx context.Context) Event {
		msg, err := a.client.DeleteUser(ctx, id)
		return UserDeleted{ID: id, Message: msg, Err: err}
	}
}

// FinishFade drops a faded row without waiting for the reload.
func (a *Admin) FinishFade(id int) {
	if !a.Fading[id] {
		return
	}
	delete(a.Fading, id)
	for i, u := range a.Users {
		if u.ID == id {
			a.Users = append(a.Users[:i], a.Users[i+1:]...)
			return
		}
	}
}

func (a *Admin) Apply(ev Event) Effect {
	switch ev := ev.(type) {
	case UsersLoaded:
		if ev.Err != nil {
			log.WithError(ev.Err).Warn("load users")
			if errors.Is(ev.Err, api.ErrForbidden) {
				a.Notices.Error(ev.Err.Error())
				return nil
			}
			a.Notices.Error("Failed to load users")
			return nil
		}
		a.Users = ev.List.Users
		a.CurrentUserID = ev.List.CurrentUserID
		a.Loaded = true
		for id := range a.Fading {
			if _, ok := a.User(id); !ok {
				delete(a.Fading, id)
			}
		}
		return nil

	case UserDeleted:
		if ev.Err != nil {
			log.WithError(ev.Err).WithField("user_id", ev.ID).Info("delete user failed")
			a.Notices.Error(ev.Err.Error())
			return nil
		}
		a.Notices.Success(ev.Message)
		a.Fading[ev.ID] = true
		return a.Load()
	}
	return nil
}
