package model

import (
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// IsOverdue reports whether t is open and due before the start of now's day.
func IsOverdue(t Task, now time.Time) bool {
	if t.DueDate.IsZero() || t.Status == StatusDone {
		return false
	}
	return t.DueDate.Before(DateOf(now))
}

// IsDueToday reports whether t is open and due on now's calendar day.
func IsDueToday(t Task, now time.Time) bool {
	if t.DueDate.IsZero() || t.Status == StatusDone {
		return false
	}
	return t.DueDate == DateOf(now)
}

// PriorityRank orders high before medium before low. Unknown priorities
// rank as medium, matching PriorityColor.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

func PriorityColor(p Priority) string {
	switch p {
	case PriorityHigh:
		return "#ff1744"
	case PriorityLow:
		return "#059669"
	default:
		return "#f59e0b"
	}
}

// NextStatus is the checkbox cycle: todo -> in_progress -> done -> todo.
func NextStatus(s Status) Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Escape makes server-provided text safe to print: escape sequences are
// stripped and remaining control characters other than newline and tab
// are dropped.
func Escape(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
