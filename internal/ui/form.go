package ui

import (
	"fmt"
	"strings"

	"tasktracker/internal/api"
	"tasktracker/internal/model"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldTags
	fieldCount
)

func (f formField) label() string {
	switch f {
	case fieldTitle:
		return "title"
	case fieldDescription:
		return "description"
	case fieldPriority:
		return "priority (low/medium/high)"
	case fieldDue:
		return "due date (YYYY-MM-DD)"
	case fieldTags:
		return "tags (comma separated)"
	default:
		return ""
	}
}

// formState buffers the task form while it is open. The input widget only
// ever holds the focused field.
type formState struct {
	taskID int
	values [fieldCount]string
	index  formField
}

func newForm() *formState {
	f := &formState{}
	f.values[fieldPriority] = string(model.PriorityMedium)
	return f
}

func editForm(t model.Task) *formState {
	f := &formState{taskID: t.ID}
	f.values[fieldTitle] = t.Title
	f.values[fieldDescription] = t.Description
	f.values[fieldPriority] = string(t.Priority)
	f.values[fieldDue] = t.DueDate.String()
	f.values[fieldTags] = t.Tags
	return f
}

func (f *formState) heading() string {
	if f.taskID != 0 {
		return "Edit Task"
	}
	return "Add New Task"
}

func (f *formState) current() string {
	return f.values[f.index]
}

func (f *formState) set(v string) {
	f.values[f.index] = v
}

func (f *formState) move(delta int) {
	f.index = formField(wrapIndex(int(f.index)+delta, int(fieldCount)))
}

func (f *formState) last() bool {
	return f.index == fieldCount-1
}

func (f *formState) input() api.TaskInput {
	return api.TaskInput{
		Title:       f.values[fieldTitle],
		Description: strings.TrimSpace(f.values[fieldDescription]),
		Priority:    model.Priority(strings.ToLower(strings.TrimSpace(f.values[fieldPriority]))),
		DueDate:     strings.TrimSpace(f.values[fieldDue]),
		Tags:        strings.TrimSpace(f.values[fieldTags]),
	}
}

func (f *formState) render(s styles) string {
	var b strings.Builder
	b.WriteString(s.title.Render(f.heading()))
	b.WriteString("\n\n")
	for i := formField(0); i < fieldCount; i++ {
		prefix := " "
		if i == f.index {
			prefix = ">"
		}
		val := f.values[i]
		if strings.TrimSpace(val) == "" {
			val = s.muted.Render("(empty)")
		} else {
			val = model.Escape(val)
		}
		fmt.Fprintf(&b, "%s %-26s : %s\n", prefix, i.label(), val)
	}
	return b.String()
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
