package ui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasktracker/internal/app"
	"tasktracker/internal/board"
	"tasktracker/internal/config"
	"tasktracker/internal/model"
)

type Dashboard struct {
	ctl    *app.Controller
	cfg    config.Config
	styles styles
	light  bool

	column int
	cursor int

	form      *formState
	searching bool
	input     textinput.Model
	search    textinput.Model
	bar       progress.Model

	width   int
	height  int
	outcome Outcome
}

func NewDashboard(ctl *app.Controller, cfg config.Config) Dashboard {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 40

	si := textinput.New()
	si.Placeholder = "Search title, description, tags"
	si.Prompt = "/ "
	si.CharLimit = 128
	si.Width = 40
	si.SetValue(ctl.State.Query.Search)

	return Dashboard{
		ctl:    ctl,
		cfg:    cfg,
		styles: newStyles(darkTheme),
		input:  ti,
		search: si,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(30)),
		width:  cfg.NarrowWidth,
	}
}

// RunDashboard blocks until the user quits, logs out or switches screens.
func RunDashboard(ctl *app.Controller, cfg config.Config) (Outcome, error) {
	program := tea.NewProgram(NewDashboard(ctl, cfg), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return OutcomeQuit, err
	}
	return final.(Dashboard).Outcome(), nil
}

func (m Dashboard) Outcome() Outcome {
	return m.outcome
}

func (m Dashboard) Init() tea.Cmd {
	return runEffect(m.ctl.Start())
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.ctl.State.PendingDeleteID != 0 {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.form != nil {
			return m.updateFormMode(msg.String(), msg)
		}
		if m.searching {
			return m.updateSearchMode(msg.String(), msg)
		}
		return m.updateBoardMode(msg.String())
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-10, 10)
		m.bar.Width = min(max(msg.Width-40, 10), 40)
		m.ctl.Dispatch(app.Command{Action: app.ActionResize, Width: msg.Width})
		return m.settle(nil)
	case eventMsg:
		return m.settle(runEffect(m.ctl.Apply(msg.event)))
	case noticeExpiredMsg:
		m.ctl.Dispatch(app.Command{Action: app.ActionDismissNotice, NoticeID: msg.id})
	}
	return m, nil
}

// settle brings the view-local state back in line with the controller
// after anything that may have changed it.
func (m Dashboard) settle(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	st := &m.ctl.State
	if m.form != nil && !st.FormOpen {
		m.form = nil
		m.input.Blur()
		m.input.SetValue("")
	}
	if st.Query.Narrow() && st.Query.Tab != "" {
		m.column = slices.Index(model.Statuses, st.Query.Tab)
	}
	m.cursor = clampCursor(m.cursor, len(m.columnTasks()))

	cmds := []tea.Cmd{cmd, expire(&st.Notices, m.cfg.NoticeTTL())}
	switch {
	case st.NeedsLogin:
		m.outcome = OutcomeLogin
		cmds = append(cmds, tea.Quit)
	case st.LoggedOut:
		m.outcome = OutcomeLoggedOut
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

func (m Dashboard) buckets() map[model.Status][]model.Task {
	return board.Bucket(m.ctl.Visible())
}

func (m Dashboard) columnTasks() []model.Task {
	return m.buckets()[model.Statuses[m.column]]
}

func (m Dashboard) selected() (model.Task, bool) {
	tasks := m.columnTasks()
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	return tasks[clampCursor(m.cursor, len(tasks))], true
}

func (m Dashboard) updateBoardMode(key string) (tea.Model, tea.Cmd) {
	keys := m.cfg.Keys
	switch key {
	case keys.Quit:
		return m, tea.Quit
	case keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.columnTasks()))
	case keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.columnTasks()))
	case keys.Left, "left":
		m.moveColumn(-1)
	case keys.Right, "right":
		m.moveColumn(1)
	case keys.Add:
		m.ctl.Dispatch(app.Command{Action: app.ActionNewTask})
		return m.openForm(newForm())
	case keys.Edit, keys.Confirm:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.ctl.Dispatch(app.Command{Action: app.ActionEditTask, TaskID: t.ID})
		return m.openForm(editForm(t))
	case keys.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.settle(runEffect(m.ctl.Dispatch(app.Command{Action: app.ActionToggleStatus, TaskID: t.ID})))
	case keys.Delete:
		if t, ok := m.selected(); ok {
			m.ctl.Dispatch(app.Command{Action: app.ActionRequestDelete, TaskID: t.ID})
		}
	case keys.Search:
		m.searching = true
		m.search.Focus()
	case keys.Filter:
		next := board.Filters[wrapIndex(slices.Index(board.Filters, m.ctl.State.Query.Filter)+1, len(board.Filters))]
		m.ctl.Dispatch(app.Command{Action: app.ActionSetFilter, Filter: next})
		return m.settle(nil)
	case keys.Sort:
		next := board.Sorts[wrapIndex(slices.Index(board.Sorts, m.ctl.State.Query.Sort)+1, len(board.Sorts))]
		m.ctl.Dispatch(app.Command{Action: app.ActionSetSort, Sort: next})
		return m.settle(nil)
	case keys.TabTodo:
		return m.toggleTab(model.StatusTodo)
	case keys.TabInProgress:
		return m.toggleTab(model.StatusInProgress)
	case keys.TabDone:
		return m.toggleTab(model.StatusDone)
	case keys.Reload:
		return m, runEffect(m.ctl.Dispatch(app.Command{Action: app.ActionReload}))
	case keys.Theme:
		m.light = !m.light
		if m.light {
			m.styles = newStyles(lightTheme)
		} else {
			m.styles = newStyles(darkTheme)
		}
	case keys.Admin:
		if u := m.ctl.State.CurrentUser; u != nil && u.IsAdmin {
			m.outcome = OutcomeAdmin
			return m, tea.Quit
		}
	case keys.Logout:
		return m, runEffect(m.ctl.Dispatch(app.Command{Action: app.ActionLogout}))
	}
	return m, nil
}

func (m *Dashboard) moveColumn(delta int) {
	q := m.ctl.State.Query
	if q.Narrow() && q.Tab != "" {
		return
	}
	m.column = min(max(m.column+delta, 0), len(model.Statuses)-1)
	m.cursor = clampCursor(m.cursor, len(m.columnTasks()))
}

func (m Dashboard) toggleTab(s model.Status) (tea.Model, tea.Cmd) {
	if !m.ctl.State.Query.Narrow() {
		return m, nil
	}
	m.ctl.Dispatch(app.Command{Action: app.ActionToggleTab, Status: s})
	return m.settle(nil)
}

func (m Dashboard) openForm(f *formState) (tea.Model, tea.Cmd) {
	m.form = f
	m.input.SetValue(f.current())
	m.input.Placeholder = f.index.label()
	m.input.Focus()
	return m, nil
}

func (m Dashboard) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.ctl.Dispatch(app.Command{Action: app.ActionCloseForm})
		return m.settle(nil)
	case "tab", "down":
		m.shiftField(1)
		return m, nil
	case "shift+tab", "up":
		m.shiftField(-1)
		return m, nil
	case "ctrl+s":
		m.form.set(m.input.Value())
		return m.saveForm()
	case "ctrl+d":
		if m.form.taskID != 0 {
			m.form.set(m.input.Value())
			m.ctl.Dispatch(app.Command{Action: app.ActionRequestDelete, TaskID: m.form.taskID})
		}
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.set(m.input.Value())
		if m.form.last() {
			return m.saveForm()
		}
		m.shiftField(1)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Dashboard) shiftField(delta int) {
	m.form.set(m.input.Value())
	m.form.move(delta)
	m.input.SetValue(m.form.current())
	m.input.Placeholder = m.form.index.label()
}

func (m Dashboard) saveForm() (tea.Model, tea.Cmd) {
	eff := m.ctl.Dispatch(app.Command{Action: app.ActionSaveTask, Input: m.form.input()})
	return m.settle(runEffect(eff))
}

func (m Dashboard) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.ctl.Dispatch(app.Command{Action: app.ActionSetSearch})
		return m.settle(nil)
	case m.cfg.Keys.Confirm, "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.ctl.Dispatch(app.Command{Action: app.ActionSetSearch, Text: m.search.Value()})
		m.cursor = 0
		next, settleCmd := m.settle(nil)
		return next, tea.Batch(cmd, settleCmd)
	}
}

func (m Dashboard) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", m.cfg.Keys.Confirm:
		return m.settle(runEffect(m.ctl.Dispatch(app.Command{Action: app.ActionConfirmDelete})))
	case "n", "N", m.cfg.Keys.Cancel, "esc":
		m.ctl.Dispatch(app.Command{Action: app.ActionCancelDelete})
	}
	return m, nil
}

func (m Dashboard) deletePrompt() string {
	t, ok := m.ctl.Task(m.ctl.State.PendingDeleteID)
	if !ok {
		return ""
	}
	return fmt.Sprintf("Delete %q? This cannot be undone. y/n", model.Escape(t.Title))
}
