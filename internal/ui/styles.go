package ui

import (
	"github.com/charmbracelet/lipgloss"

	"tasktracker/internal/app"
	"tasktracker/internal/model"
)

type theme struct {
	text    lipgloss.Color
	muted   lipgloss.Color
	accent  lipgloss.Color
	border  lipgloss.Color
	success lipgloss.Color
	danger  lipgloss.Color
}

var (
	darkTheme = theme{
		text:    lipgloss.Color("#e5e7eb"),
		muted:   lipgloss.Color("#6b7280"),
		accent:  lipgloss.Color("#818cf8"),
		border:  lipgloss.Color("#374151"),
		success: lipgloss.Color("#10b981"),
		danger:  lipgloss.Color("#ef4444"),
	}
	lightTheme = theme{
		text:    lipgloss.Color("#111827"),
		muted:   lipgloss.Color("#9ca3af"),
		accent:  lipgloss.Color("#4f46e5"),
		border:  lipgloss.Color("#d1d5db"),
		success: lipgloss.Color("#059669"),
		danger:  lipgloss.Color("#dc2626"),
	}
)

type styles struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	column    lipgloss.Style
	columnHdr lipgloss.Style
	card      lipgloss.Style
	selected  lipgloss.Style
	done      lipgloss.Style
	overdue   lipgloss.Style
	badge     lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	modal     lipgloss.Style
	faded     lipgloss.Style
}

func newStyles(t theme) styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(t.accent),
		muted:     lipgloss.NewStyle().Foreground(t.muted),
		column:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.border).Padding(0, 1),
		columnHdr: lipgloss.NewStyle().Bold(true).Foreground(t.text),
		card:      lipgloss.NewStyle().Foreground(t.text).PaddingLeft(1),
		selected:  lipgloss.NewStyle().Foreground(t.text).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.accent),
		done:      lipgloss.NewStyle().Faint(true).Strikethrough(true),
		overdue:   lipgloss.NewStyle().Bold(true).Foreground(t.danger),
		badge:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(t.danger).Padding(0, 1),
		tab:       lipgloss.NewStyle().Foreground(t.muted).Padding(0, 1),
		activeTab: lipgloss.NewStyle().Bold(true).Foreground(t.accent).Underline(true).Padding(0, 1),
		success:   lipgloss.NewStyle().Foreground(t.success),
		failure:   lipgloss.NewStyle().Foreground(t.danger),
		modal:     lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(t.accent).Padding(0, 2),
		faded:     lipgloss.NewStyle().Faint(true).Foreground(t.muted),
	}
}

func priorityStyle(p model.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(model.PriorityColor(p)))
}

func (s styles) notice(n app.Notice) string {
	if n.Level == app.LevelError {
		return s.failure.Render("✗ " + model.Escape(n.Message))
	}
	return s.success.Render("✓ " + model.Escape(n.Message))
}
