// Package board derives what the dashboard shows from the full task list:
// the filtered, sorted and searched cards, the per-status buckets, and the
// header counts and progress that always come from the unfiltered list.
package board

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"tasktracker/internal/model"
)

type Filter string

const (
	FilterAll          Filter = "all"
	FilterHighPriority Filter = "high_priority"
	FilterOverdue      Filter = "overdue"
	FilterDueToday     Filter = "due_today"
)

var Filters = []Filter{FilterAll, FilterHighPriority, FilterOverdue, FilterDueToday}

type Sort string

const (
	SortDueDate   Sort = "due_date"
	SortPriority  Sort = "priority"
	SortCreatedAt Sort = "created_at"
)

var Sorts = []Sort{SortDueDate, SortPriority, SortCreatedAt}

func ParseFilter(v string) (Filter, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (want one of %s)", v, joinNames(Filters))
}

func ParseSort(v string) (Sort, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return SortDueDate, nil
	}
	for _, s := range Sorts {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown sort %q (want one of %s)", v, joinNames(Sorts))
}

func (f Filter) Label() string {
	switch f {
	case FilterHighPriority:
		return "High priority"
	case FilterOverdue:
		return "Overdue"
	case FilterDueToday:
		return "Due today"
	default:
		return "All tasks"
	}
}

func (s Sort) Label() string {
	switch s {
	case SortPriority:
		return "Priority"
	case SortCreatedAt:
		return "Newest"
	default:
		return "Due date"
	}
}

// Query is everything the engine needs besides the tasks and the clock.
type Query struct {
	Filter Filter
	Sort   Sort
	Search string
	// Tab narrows to a single status, but only while the viewport is
	// narrower than Breakpoint.
	Tab        model.Status
	Width      int
	Breakpoint int
}

func (q Query) Narrow() bool {
	return q.Width < q.Breakpoint
}

// Apply returns the display list for q. tasks is never modified.
func Apply(tasks []model.Task, q Query, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Tab != "" && q.Narrow() && t.Status != q.Tab {
			continue
		}
		if !matchesFilter(t, q.Filter, now) {
			continue
		}
		out = append(out, t)
	}

	sortTasks(out, q.Sort, now)

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	if needle == "" {
		return out
	}
	return slices.DeleteFunc(out, func(t model.Task) bool {
		return !matchesSearch(t, needle)
	})
}

func matchesFilter(t model.Task, f Filter, now time.Time) bool {
	switch f {
	case FilterHighPriority:
		return t.Priority == model.PriorityHigh
	case FilterOverdue:
		return model.IsOverdue(t, now)
	case FilterDueToday:
		return model.IsDueToday(t, now)
	default:
		return true
	}
}

func matchesSearch(t model.Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) ||
		strings.Contains(strings.ToLower(t.Tags), needle)
}

func sortTasks(tasks []model.Task, s Sort, now time.Time) {
	switch s {
	case SortDueDate:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return compareDue(a.DueDate, b.DueDate)
		})
	case SortPriority:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			if c := cmp.Compare(model.PriorityRank(a.Priority), model.PriorityRank(b.Priority)); c != 0 {
				return c
			}
			return compareOverdue(model.IsOverdue(a, now), model.IsOverdue(b, now))
		})
	case SortCreatedAt:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	}
}

// compareDue orders dated tasks ascending and undated ones last.
func compareDue(a, b model.Date) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}

func compareOverdue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// Bucket groups tasks by status, preserving order within each bucket.
func Bucket(tasks []model.Task) map[model.Status][]model.Task {
	out := make(map[model.Status][]model.Task, len(model.Statuses))
	for _, s := range model.Statuses {
		out[s] = nil
	}
	for _, t := range tasks {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}

// Counts is meant for the unfiltered list: column headers show totals.
func Counts(tasks []model.Task) map[model.Status]int {
	out := make(map[model.Status]int, len(model.Statuses))
	for _, s := range model.Statuses {
		out[s] = 0
	}
	for _, t := range tasks {
		out[t.Status]++
	}
	return out
}

// Progress is the rounded share of done tasks, 0 for an empty list.
func Progress(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == model.StatusDone {
			done++
		}
	}
	return int(float64(done)/float64(len(tasks))*100 + 0.5)
}

func joinNames[T ~string](vals []T) string {
	names := make([]string, len(vals))
	for i, v := range vals {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
