package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"tasktracker/internal/board"
	"tasktracker/internal/config"
	"tasktracker/internal/model"
)

func (m Dashboard) View() string {
	var b strings.Builder
	s := m.styles
	st := m.ctl.State
	now := m.ctl.Now()

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if !st.Loaded {
		b.WriteString(s.muted.Render("Loading tasks..."))
		b.WriteString("\n")
	} else {
		progress := board.Progress(st.Tasks)
		fmt.Fprintf(&b, "%s %s\n", m.bar.ViewAs(float64(progress)/100), s.title.Render(fmt.Sprintf("%d%% complete", progress)))
		b.WriteString(m.renderQuery())
		b.WriteString("\n")
		if st.Query.Narrow() {
			b.WriteString(m.renderTabs())
			b.WriteString("\n")
		}
		b.WriteString(m.renderBoard())
		b.WriteString("\n")
		b.WriteString(renderStats(s, board.ComputeStats(st.Tasks, now)))
		b.WriteString("\n")
	}

	for _, n := range st.Notices.All() {
		b.WriteString(s.notice(n))
		b.WriteString("\n")
	}

	switch {
	case st.PendingDeleteID != 0:
		b.WriteString(s.modal.Render(m.deletePrompt()))
		b.WriteString("\n")
	case m.form != nil:
		body := m.form.render(s) + "\nField: " + m.form.index.label() + "\n" + m.input.View()
		b.WriteString(s.modal.Render(body))
		b.WriteString("\n")
		b.WriteString(s.muted.Render(formHelp(m.form.taskID != 0)))
		b.WriteString("\n")
	case m.searching:
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	b.WriteString(s.muted.Render(renderHelp(m.cfg.Keys, m.isAdmin())))
	return b.String()
}

func (m Dashboard) isAdmin() bool {
	u := m.ctl.State.CurrentUser
	return u != nil && u.IsAdmin
}

func (m Dashboard) renderHeader() string {
	s := m.styles
	line := s.title.Render("TaskTracker") + "  " + s.muted.Render(board.DashboardContext(m.ctl.Now()).String())
	if u := m.ctl.State.CurrentUser; u != nil {
		who := model.Escape(u.Username)
		if u.IsAdmin {
			who += " (admin)"
		}
		line += "  " + s.columnHdr.Render(who)
	}
	return line
}

func (m Dashboard) renderQuery() string {
	q := m.ctl.State.Query
	parts := []string{
		"Filter: " + q.Filter.Label(),
		"Sort: " + q.Sort.Label(),
	}
	if strings.TrimSpace(q.Search) != "" {
		parts = append(parts, fmt.Sprintf("Search: %q", q.Search))
	}
	return m.styles.muted.Render(strings.Join(parts, " • "))
}

// renderTabs draws the status tabs shown on narrow terminals. Their counts
// come from the unfiltered list, like the column headers.
func (m Dashboard) renderTabs() string {
	counts := board.Counts(m.ctl.State.Tasks)
	keys := []string{m.cfg.Keys.TabTodo, m.cfg.Keys.TabInProgress, m.cfg.Keys.TabDone}
	tabs := make([]string, 0, len(model.Statuses))
	for i, status := range model.Statuses {
		label := fmt.Sprintf("[%s] %s (%d)", keys[i], status.Label(), counts[status])
		if m.ctl.State.Query.Tab == status {
			tabs = append(tabs, m.styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Dashboard) renderBoard() string {
	q := m.ctl.State.Query
	buckets := m.buckets()
	counts := board.Counts(m.ctl.State.Tasks)

	if q.Narrow() {
		width := max(m.width-4, 20)
		var cols []string
		for i, status := range model.Statuses {
			if q.Tab != "" && q.Tab != status {
				continue
			}
			cols = append(cols, m.renderColumn(i, buckets[status], counts[status], width))
		}
		return lipgloss.JoinVertical(lipgloss.Left, cols...)
	}

	width := max((m.width-6)/len(model.Statuses), 24)
	cols := make([]string, len(model.Statuses))
	for i, status := range model.Statuses {
		cols[i] = m.renderColumn(i, buckets[status], counts[status], width)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Dashboard) renderColumn(index int, tasks []model.Task, count, width int) string {
	s := m.styles
	status := model.Statuses[index]
	focused := index == m.column

	var b strings.Builder
	header := fmt.Sprintf("%s (%d)", status.Label(), count)
	if focused {
		b.WriteString(s.title.Render(header))
	} else {
		b.WriteString(s.columnHdr.Render(header))
	}
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString(s.muted.Render("No tasks"))
	}
	inner := width - 4
	for i, t := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderCard(t, focused && i == m.cursor, inner))
	}
	return s.column.Width(width).Render(b.String())
}

func (m Dashboard) renderCard(t model.Task, selected bool, width int) string {
	s := m.styles
	now := m.ctl.Now()
	overdue := model.IsOverdue(t, now)

	title := fmt.Sprintf("%s %s", checkbox(t.Status), ansi.Truncate(model.Escape(t.Title), max(width-6, 8), "…"))
	if t.Status == model.StatusDone {
		title = s.done.Render(title)
	}

	meta := []string{priorityStyle(t.Priority).Render(strings.ToUpper(priorityLabel(t.Priority)))}
	if overdue {
		meta = append(meta, s.badge.Render("Overdue"))
	}
	lines := []string{title, strings.Join(meta, " ")}

	if desc := firstLine(model.Escape(t.Description)); desc != "" {
		lines = append(lines, s.muted.Render(ansi.Truncate(desc, max(width-2, 8), "…")))
	}

	var extra []string
	if !t.DueDate.IsZero() {
		due := "Due " + t.DueDate.String()
		if overdue {
			due = s.overdue.Render(due)
		}
		extra = append(extra, due)
	}
	if tags := strings.TrimSpace(model.Escape(t.Tags)); tags != "" {
		extra = append(extra, s.muted.Render("#"+tags))
	}
	if len(extra) > 0 {
		lines = append(lines, strings.Join(extra, "  "))
	}

	body := strings.Join(lines, "\n")
	if selected {
		return s.selected.Width(width).Render(body)
	}
	return s.card.Width(width).Render(body)
}

func renderStats(s styles, st board.Stats) string {
	return s.muted.Render(fmt.Sprintf(
		"Open %d • To Do %d • In Progress %d • Due today %d/%d (%.0f%%) • Overdue %d/%d (%.0f%%) • Completed today %d/%d",
		st.Open, st.Todo, st.InProgress,
		st.DueToday, st.Open, board.Ratio(st.DueToday, st.Open)*100,
		st.Overdue, st.Open, board.Ratio(st.Overdue, st.Open)*100,
		st.CompletedToday, st.Workload,
	))
}

func renderHelp(k config.Keymap, admin bool) string {
	help := fmt.Sprintf("%s/%s/%s/%s move • %s add • %s edit • %s toggle • %s delete • %s search • %s filter • %s sort • %s reload • %s theme • %s logout • %s quit",
		k.Left, k.Down, k.Up, k.Right, k.Add, k.Edit, keyName(k.Toggle), k.Delete, k.Search, k.Filter, k.Sort, k.Reload, k.Theme, k.Logout, k.Quit)
	if admin {
		help += fmt.Sprintf(" • %s admin", k.Admin)
	}
	return help
}

func formHelp(editing bool) string {
	help := "tab/shift+tab move • enter next/save • ctrl+s save • esc cancel"
	if editing {
		help += " • ctrl+d delete"
	}
	return help
}

func checkbox(s model.Status) string {
	switch s {
	case model.StatusDone:
		return "[x]"
	case model.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh, model.PriorityLow:
		return string(p)
	default:
		return string(model.PriorityMedium)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
