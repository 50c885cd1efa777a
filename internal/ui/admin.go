package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tasktracker/internal/api"
	"tasktracker/internal/app"
	"tasktracker/internal/config"
	"tasktracker/internal/model"
)

const (
	fadeDuration = 300 * time.Millisecond
	adminHint    = "d to delete, esc to go back to the board."
)

type fadeDoneMsg struct {
	id int
}

// AdminPanel lists every account and lets an admin delete the others.
type AdminPanel struct {
	admin   *app.Admin
	cfg     config.Config
	styles  styles
	cursor  int
	status  string
	outcome Outcome
}

func NewAdminPanel(a *app.Admin, cfg config.Config) AdminPanel {
	return AdminPanel{
		admin:  a,
		cfg:    cfg,
		styles: newStyles(darkTheme),
		status: adminHint,
	}
}

func RunAdmin(a *app.Admin, cfg config.Config) (Outcome, error) {
	program := tea.NewProgram(NewAdminPanel(a, cfg), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return OutcomeQuit, err
	}
	return final.(AdminPanel).Outcome(), nil
}

func (m AdminPanel) Outcome() Outcome {
	return m.outcome
}

func (m AdminPanel) Init() tea.Cmd {
	return runEffect(m.admin.Load())
}

func (m AdminPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.admin.PendingDeleteID != 0 {
			return m.updateDeleteConfirm(key)
		}
		return m.updateListMode(key)
	case eventMsg:
		if _, ok := msg.event.(app.UserDeleted); ok {
			m.status = adminHint
		}
		cmds := []tea.Cmd{runEffect(m.admin.Apply(msg.event))}
		if ev, ok := msg.event.(app.UserDeleted); ok && ev.Err == nil {
			id := ev.ID
			cmds = append(cmds, tea.Tick(fadeDuration, func(time.Time) tea.Msg {
				return fadeDoneMsg{id: id}
			}))
		}
		if ev, ok := msg.event.(app.UsersLoaded); ok && errors.Is(ev.Err, api.ErrUnauthenticated) {
			m.outcome = OutcomeLogin
			cmds = append(cmds, tea.Quit)
		}
		m.cursor = clampCursor(m.cursor, len(m.admin.Users))
		cmds = append(cmds, expire(&m.admin.Notices, m.cfg.NoticeTTL()))
		return m, tea.Batch(cmds...)
	case fadeDoneMsg:
		m.admin.FinishFade(msg.id)
		m.cursor = clampCursor(m.cursor, len(m.admin.Users))
	case noticeExpiredMsg:
		m.admin.Notices.Dismiss(msg.id)
	}
	return m, nil
}

func (m AdminPanel) updateListMode(key string) (tea.Model, tea.Cmd) {
	keys := m.cfg.Keys
	switch key {
	case keys.Quit:
		return m, tea.Quit
	case keys.Cancel, "esc":
		m.outcome = OutcomeDashboard
		return m, tea.Quit
	case keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.admin.Users))
	case keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.admin.Users))
	case keys.Reload:
		return m, runEffect(m.admin.Load())
	case keys.Delete:
		if len(m.admin.Users) == 0 {
			return m, nil
		}
		u := m.admin.Users[m.cursor]
		if err := m.admin.RequestDelete(u.ID); errors.Is(err, app.ErrSelfDelete) {
			m.status = "Your own account cannot be deleted here."
			return m, nil
		}
		m.status = fmt.Sprintf("Delete user %q? y/n", model.Escape(u.Username))
	}
	return m, nil
}

func (m AdminPanel) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", m.cfg.Keys.Confirm:
		m.status = "Deleting..."
		return m, runEffect(m.admin.ConfirmDelete())
	case "n", "N", m.cfg.Keys.Cancel, "esc":
		m.admin.CancelDelete()
		m.status = "Delete cancelled"
	}
	return m, nil
}

func (m AdminPanel) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.title.Render("User Management"))
	b.WriteString("\n")
	if !m.admin.Loaded {
		b.WriteString(s.muted.Render("Loading users..."))
		b.WriteString("\n")
	} else {
		users, admins := m.admin.Totals()
		b.WriteString(s.muted.Render(fmt.Sprintf("Users: %d • Admins: %d", users, admins)))
		b.WriteString("\n\n")
		if len(m.admin.Users) == 0 {
			b.WriteString(s.muted.Render("No users found"))
			b.WriteString("\n")
		}
		for i, u := range m.admin.Users {
			b.WriteString(m.renderRow(u, i == m.cursor))
			b.WriteString("\n")
		}
	}

	for _, n := range m.admin.Notices.All() {
		b.WriteString("\n")
		b.WriteString(s.notice(n))
	}
	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	k := m.cfg.Keys
	b.WriteString(s.muted.Render(fmt.Sprintf("%s/%s move • %s delete • %s reload • %s back • %s quit",
		k.Up, k.Down, k.Delete, k.Reload, k.Cancel, k.Quit)))
	return b.String()
}

func (m AdminPanel) renderRow(u model.User, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	action := "[delete]"
	if !m.admin.CanDelete(u.ID) {
		action = "🔒 you"
	}
	row := fmt.Sprintf("%s #%-4d %-24s %-6s %s", cursor, u.ID, model.Escape(u.Username), role, action)
	if m.admin.Fading[u.ID] {
		return m.styles.faded.Render(row)
	}
	return row
}
