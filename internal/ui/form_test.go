package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tasktracker/internal/model"
)

func TestForm_NewDefaultsToMediumPriority(t *testing.T) {
	f := newForm()
	assert.Equal(t, "Add New Task", f.heading())
	assert.Equal(t, model.PriorityMedium, f.input().Priority)
}

func TestForm_EditPrefillsFields(t *testing.T) {
	f := editForm(model.Task{
		ID:          7,
		Title:       "pay rent",
		Description: "before the 5th",
		Priority:    model.PriorityHigh,
		DueDate:     model.Date{Year: 2025, Month: time.April, Day: 1},
		Tags:        "home",
	})
	assert.Equal(t, "Edit Task", f.heading())

	in := f.input()
	assert.Equal(t, "pay rent", in.Title)
	assert.Equal(t, "before the 5th", in.Description)
	assert.Equal(t, model.PriorityHigh, in.Priority)
	assert.Equal(t, "2025-04-01", in.DueDate)
	assert.Equal(t, "home", in.Tags)
}

func TestForm_MoveWraps(t *testing.T) {
	f := newForm()
	f.move(-1)
	assert.Equal(t, fieldTags, f.index)
	assert.True(t, f.last())
	f.move(1)
	assert.Equal(t, fieldTitle, f.index)
}

func TestForm_InputNormalisesPriority(t *testing.T) {
	f := newForm()
	f.values[fieldPriority] = "  HIGH "
	assert.Equal(t, model.PriorityHigh, f.input().Priority)
}

func TestClampCursor(t *testing.T) {
	assert.Equal(t, 0, clampCursor(3, 0))
	assert.Equal(t, 0, clampCursor(-1, 4))
	assert.Equal(t, 3, clampCursor(9, 4))
	assert.Equal(t, 2, clampCursor(2, 4))
}
