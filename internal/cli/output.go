package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tasktracker/internal/model"
)

func escape(s string) string {
	return model.Escape(s)
}

func printTasks(w io.Writer, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := t.DueDate.String()
		if model.IsOverdue(t, now) {
			due += " (overdue)"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Status.Label(),
			string(t.Priority),
			due,
			escape(t.Title),
			escape(t.Tags),
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PRIORITY", "DUE", "TITLE", "TAGS").
		Rows(rows...)
	fmt.Fprintln(w, tbl.Render())
}

func printTask(w io.Writer, t model.Task, now time.Time) {
	fmt.Fprintf(w, "#%d %s\n", t.ID, escape(t.Title))
	fmt.Fprintf(w, "Status   : %s\n", t.Status.Label())
	fmt.Fprintf(w, "Priority : %s\n", t.Priority)
	if !t.DueDate.IsZero() {
		due := t.DueDate.String()
		if model.IsOverdue(t, now) {
			due += " (overdue)"
		} else if model.IsDueToday(t, now) {
			due += " (today)"
		}
		fmt.Fprintf(w, "Due      : %s\n", due)
	}
	if t.Tags != "" {
		fmt.Fprintf(w, "Tags     : %s\n", escape(t.Tags))
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created  : %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printUsers(w io.Writer, users []model.User, currentID int) {
	rows := make([][]string, 0, len(users))
	admins := 0
	for _, u := range users {
		role := "user"
		if u.IsAdmin {
			role = "admin"
			admins++
		}
		note := ""
		if u.ID == currentID {
			note = "you"
		}
		rows = append(rows, []string{strconv.Itoa(u.ID), escape(u.Username), role, note})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "USERNAME", "ROLE", "").
		Rows(rows...)
	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintf(w, "Users: %d • Admins: %d\n", len(users), admins)
}
