package board

import (
	"fmt"
	"math"
	"time"

	"tasktracker/internal/model"
)

// Stats backs the quick-stat cards under the board.
type Stats struct {
	Total          int
	Open           int
	Todo           int
	InProgress     int
	DueToday       int
	Overdue        int
	CompletedToday int
	// Workload is everything touched today: open tasks plus the ones
	// completed today.
	Workload int
}

func ComputeStats(tasks []model.Task, now time.Time) Stats {
	st := Stats{Total: len(tasks)}
	today := model.DateOf(now)
	for _, t := range tasks {
		switch t.Status {
		case model.StatusTodo:
			st.Todo++
		case model.StatusInProgress:
			st.InProgress++
		case model.StatusDone:
			if !t.UpdatedAt.IsZero() && model.DateOf(t.UpdatedAt.In(now.Location())) == today {
				st.CompletedToday++
			}
		}
		if t.Status != model.StatusDone {
			st.Open++
		}
		if model.IsDueToday(t, now) {
			st.DueToday++
		}
		if model.IsOverdue(t, now) {
			st.Overdue++
		}
	}
	st.Workload = st.Open + st.CompletedToday
	return st
}

// Ratio is n's share of of, scaled against at least 1 so an empty
// denominator yields 0 instead of NaN.
func Ratio(n, of int) float64 {
	return float64(n) / float64(max(of, 1))
}

// Context is the greeting line at the top of the dashboard.
type Context struct {
	Greeting string
	Date     string
	Week     int
}

func DashboardContext(now time.Time) Context {
	greeting := "Good Evening"
	switch h := now.Hour(); {
	case h < 12:
		greeting = "Good Morning"
	case h < 18:
		greeting = "Good Afternoon"
	}
	return Context{
		Greeting: greeting,
		Date:     now.Format("Monday, Jan 2"),
		Week:     WeekNumber(now),
	}
}

// WeekNumber counts weeks from the first of January, with the week
// containing Jan 1 being week 1 regardless of its weekday.
func WeekNumber(now time.Time) int {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	pastDays := now.Sub(start).Hours() / 24
	return int(math.Ceil((pastDays + float64(start.Weekday()) + 1) / 7))
}

func (c Context) String() string {
	return fmt.Sprintf("%s, %s • Week %d", c.Greeting, c.Date, c.Week)
}
