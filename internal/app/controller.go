// Package app owns the dashboard's state and turns UI actions into backend
// calls. It never blocks: Dispatch and Apply mutate State synchronously and
// hand back an Effect for the caller to run off the UI loop. Every mutation
// that succeeds is followed by a full refresh of the task list.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"tasktracker/internal/api"
	"tasktracker/internal/board"
	"tasktracker/internal/model"
)

// TaskAPI is the part of the backend the dashboard talks to.
type TaskAPI interface {
	Me(ctx context.Context) (model.User, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in api.TaskInput) error
	UpdateTask(ctx context.Context, id int, in api.TaskInput) error
	SetStatus(ctx context.Context, id int, status model.Status) error
	DeleteTask(ctx context.Context, id int) error
	Logout(ctx context.Context) error
}

// Effect is a unit of blocking work. Its Event goes back through Apply.
type Effect func(ctx context.Context) Event

type Event interface {
	event()
}

type UserLoaded struct {
	User model.User
	Err  error
}

type TasksLoaded struct {
	Tasks []model.Task
	Err   error
}

type mutationKind int

const (
	mutationSave mutationKind = iota
	mutationToggle
	mutationDelete
)

type MutationDone struct {
	kind    mutationKind
	success string
	Err     error
}

type LoggedOut struct {
	Err error
}

func (UserLoaded) event()   {}
func (TasksLoaded) event()  {}
func (MutationDone) event() {}
func (LoggedOut) event()    {}

// State replaces the page-level globals of a browser client.
type State struct {
	Tasks       []model.Task
	CurrentUser *model.User
	Loaded      bool

	FormOpen      bool
	EditingTaskID int

	// PendingDeleteID is set by a delete request and consumed by the
	// confirmation. Nothing else dispatches a delete.
	PendingDeleteID int

	Query   board.Query
	Notices Notices

	NeedsLogin bool
	LoggedOut  bool
}

type Controller struct {
	State State

	client TaskAPI
	now    func() time.Time
}

func New(client TaskAPI, query board.Query) *Controller {
	return &Controller{
		State:  State{Query: query},
		client: client,
		now:    time.Now,
	}
}

// SetClock replaces time.Now, for tests.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Controller) Now() time.Time {
	return c.now()
}

// Visible is the filtered, sorted and searched list the board renders.
func (c *Controller) Visible() []model.Task {
	return board.Apply(c.State.Tasks, c.State.Query, c.now())
}

func (c *Controller) Task(id int) (model.Task, bool) {
	for _, t := range c.State.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Start loads the current user; once that succeeds Apply chains the first
// task refresh.
func (c *Controller) Start() Effect {
	return func(ctx context.Context) Event {
		u, err := c.client.Me(ctx)
		return UserLoaded{User: u, Err: err}
	}
}

// Refresh re-fetches the whole task list. It is the only way State.Tasks
// changes.
func (c *Controller) Refresh() Effect {
	return func(ctx context.Context) Event {
		tasks, err := c.client.ListTasks(ctx)
		return TasksLoaded{Tasks: tasks, Err: err}
	}
}

type Action int

const (
	ActionReload Action = iota
	ActionNewTask
	ActionEditTask
	ActionCloseForm
	ActionSaveTask
	ActionToggleStatus
	ActionRequestDelete
	ActionConfirmDelete
	ActionCancelDelete
	ActionSetFilter
	ActionSetSort
	ActionSetSearch
	ActionToggleTab
	ActionResize
	ActionDismissNotice
	ActionLogout
)

// Command carries an Action and whichever argument it needs.
type Command struct {
	Action   Action
	TaskID   int
	Input    api.TaskInput
	Filter   board.Filter
	Sort     board.Sort
	Text     string
	Status   model.Status
	Width    int
	NoticeID int
}

type handler func(c *Controller, cmd Command) Effect

var dispatchTable = map[Action]handler{
	ActionReload:        func(c *Controller, _ Command) Effect { return c.Refresh() },
	ActionNewTask:       (*Controller).openNewForm,
	ActionEditTask:      (*Controller).openEditForm,
	ActionCloseForm:     (*Controller).closeForm,
	ActionSaveTask:      (*Controller).saveTask,
	ActionToggleStatus:  (*Controller).toggleStatus,
	ActionRequestDelete: (*Controller).requestDelete,
	ActionConfirmDelete: (*Controller).confirmDelete,
	ActionCancelDelete:  (*Controller).cancelDelete,
	ActionSetFilter:     (*Controller).setFilter,
	ActionSetSort:       (*Controller).setSort,
	ActionSetSearch:     (*Controller).setSearch,
	ActionToggleTab:     (*Controller).toggleTab,
	ActionResize:        (*Controller).resize,
	ActionDismissNotice: (*Controller).dismissNotice,
	ActionLogout:        (*Controller).logout,
}

// Dispatch runs the handler for cmd.Action. A nil Effect means the action
// completed locally.
func (c *Controller) Dispatch(cmd Command) Effect {
	h, ok := dispatchTable[cmd.Action]
	if !ok {
		log.WithField("action", cmd.Action).Warn("unhandled action")
		return nil
	}
	return h(c, cmd)
}

// Apply folds a finished Effect back into State and returns any follow-up.
func (c *Controller) Apply(ev Event) Effect {
	switch ev := ev.(type) {
	case UserLoaded:
		if ev.Err != nil {
			log.WithError(ev.Err).Warn("load current user")
			c.State.NeedsLogin = true
			c.State.Notices.Error(ev.Err.Error())
			return nil
		}
		u := ev.User
		c.State.CurrentUser = &u
		return c.Refresh()

	case TasksLoaded:
		if ev.Err != nil {
			log.WithError(ev.Err).Warn("load tasks")
			if errors.Is(ev.Err, api.ErrUnauthenticated) {
				c.State.NeedsLogin = true
			}
			c.State.Notices.Error("Failed to load tasks")
			return nil
		}
		c.State.Tasks = ev.Tasks
		c.State.Loaded = true
		return nil

	case MutationDone:
		if ev.Err != nil {
			log.WithError(ev.Err).Info("mutation failed")
			if errors.Is(ev.Err, api.ErrUnauthenticated) {
				c.State.NeedsLogin = true
			}
			c.State.Notices.Error(ev.Err.Error())
			return nil
		}
		if ev.kind == mutationSave {
			c.State.FormOpen = false
			c.State.EditingTaskID = 0
		}
		if ev.success != "" {
			c.State.Notices.Success(ev.success)
		}
		return c.Refresh()

	case LoggedOut:
		if ev.Err != nil {
			log.WithError(ev.Err).Warn("logout request failed")
		}
		c.State.LoggedOut = true
		return nil
	}
	return nil
}

func (c *Controller) mutate(kind mutationKind, success string, call func(ctx context.Context) error) Effect {
	return func(ctx context.Context) Event {
		return MutationDone{kind: kind, success: success, Err: call(ctx)}
	}
}

func (c *Controller) openNewForm(Command) Effect {
	c.State.FormOpen = true
	c.State.EditingTaskID = 0
	return nil
}

func (c *Controller) openEditForm(cmd Command) Effect {
	if _, ok := c.Task(cmd.TaskID); !ok {
		return nil
	}
	c.State.FormOpen = true
	c.State.EditingTaskID = cmd.TaskID
	return nil
}

func (c *Controller) closeForm(Command) Effect {
	c.State.FormOpen = false
	c.State.EditingTaskID = 0
	return nil
}

func (c *Controller) saveTask(cmd Command) Effect {
	in := cmd.Input
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		c.State.Notices.Error("Title is required")
		return nil
	}
	priority, err := model.ParsePriority(string(in.Priority))
	if err != nil {
		c.State.Notices.Error(err.Error())
		return nil
	}
	in.Priority = priority
	due, err := model.ParseDate(in.DueDate)
	if err != nil {
		c.State.Notices.Error("Invalid due date, use YYYY-MM-DD")
		return nil
	}
	in.DueDate = due.String()

	if id := c.State.EditingTaskID; id != 0 {
		return c.mutate(mutationSave, "Task updated successfully", func(ctx context.Context) error {
			return c.client.UpdateTask(ctx, id, in)
		})
	}
	return c.mutate(mutationSave, "Task created successfully", func(ctx context.Context) error {
		return c.client.CreateTask(ctx, in)
	})
}

func (c *Controller) toggleStatus(cmd Command) Effect {
	t, ok := c.Task(cmd.TaskID)
	if !ok {
		return nil
	}
	next := model.NextStatus(t.Status)
	return c.mutate(mutationToggle, "", func(ctx context.Context) error {
		return c.client.SetStatus(ctx, t.ID, next)
	})
}

func (c *Controller) requestDelete(cmd Command) Effect {
	if _, ok := c.Task(cmd.TaskID); !ok {
		return nil
	}
	c.State.PendingDeleteID = cmd.TaskID
	return nil
}

func (c *Controller) confirmDelete(Command) Effect {
	id := c.State.PendingDeleteID
	if id == 0 {
		return nil
	}
	c.State.PendingDeleteID = 0
	if c.State.FormOpen && c.State.EditingTaskID == id {
		c.State.FormOpen = false
		c.State.EditingTaskID = 0
	}
	return c.mutate(mutationDelete, "Task deleted successfully", func(ctx context.Context) error {
		return c.client.DeleteTask(ctx, id)
	})
}

func (c *Controller) cancelDelete(Command) Effect {
	c.State.PendingDeleteID = 0
	return nil
}

func (c *Controller) setFilter(cmd Command) Effect {
	c.State.Query.Filter = cmd.Filter
	return nil
}

func (c *Controller) setSort(cmd Command) Effect {
	c.State.Query.Sort = cmd.Sort
	return nil
}

func (c *Controller) setSearch(cmd Command) Effect {
	c.State.Query.Search = cmd.Text
	return nil
}

// toggleTab selects a status tab, or clears it when it is already selected.
func (c *Controller) toggleTab(cmd Command) Effect {
	if c.State.Query.Tab == cmd.Status {
		c.State.Query.Tab = ""
	} else {
		c.State.Query.Tab = cmd.Status
	}
	return nil
}

func (c *Controller) resize(cmd Command) Effect {
	c.State.Query.Width = cmd.Width
	return nil
}

func (c *Controller) dismissNotice(cmd Command) Effect {
	c.State.Notices.Dismiss(cmd.NoticeID)
	return nil
}

func (c *Controller) logout(Command) Effect {
	return func(ctx context.Context) Event {
		return LoggedOut{Err: c.client.Logout(ctx)}
	}
}
