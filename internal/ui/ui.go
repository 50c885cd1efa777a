// Package ui draws the dashboard and the admin panel with Bubble Tea. All
// state lives in internal/app; the models here translate keys into app
// commands and run the resulting effects as tea.Cmds.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tasktracker/internal/app"
)

// Outcome tells the caller why a program exited.
type Outcome int

const (
	OutcomeQuit Outcome = iota
	OutcomeLogin
	OutcomeLoggedOut
	OutcomeAdmin
	OutcomeDashboard
)

type eventMsg struct {
	event app.Event
}

type noticeExpiredMsg struct {
	id int
}

func runEffect(eff app.Effect) tea.Cmd {
	if eff == nil {
		return nil
	}
	return func() tea.Msg {
		return eventMsg{event: eff(context.Background())}
	}
}

// expire schedules the dismissal of every notice pushed since the last call.
func expire(n *app.Notices, ttl time.Duration) tea.Cmd {
	var cmds []tea.Cmd
	for _, notice := range n.Fresh() {
		id := notice.ID
		cmds = append(cmds, tea.Tick(ttl, func(time.Time) tea.Msg {
			return noticeExpiredMsg{id: id}
		}))
	}
	return tea.Batch(cmds...)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
