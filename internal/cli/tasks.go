package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"tasktracker/internal/api"
	"tasktracker/internal/app"
	"tasktracker/internal/board"
	"tasktracker/internal/model"
)

func tasksCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Work with tasks without opening the dashboard",
	}
	cmd.AddCommand(listCmd(o))
	cmd.AddCommand(showCmd(o))
	cmd.AddCommand(addCmd(o))
	cmd.AddCommand(toggleCmd(o))
	cmd.AddCommand(deleteCmd(o))
	return cmd
}

// runSync executes eff and every follow-up on the calling goroutine.
func runSync(ctx context.Context, ctl *app.Controller, eff app.Effect) {
	for eff != nil {
		eff = ctl.Apply(eff(ctx))
	}
}

// loadBoard fetches the current user and then the task list.
func loadBoard(cmd *cobra.Command, e *env) (*app.Controller, error) {
	ctl := app.New(e.client, e.query())
	runSync(cmd.Context(), ctl, ctl.Start())
	if ctl.State.NeedsLogin {
		return nil, api.ErrUnauthenticated
	}
	if !ctl.State.Loaded {
		return nil, noticeError(ctl.State.Notices.All())
	}
	return ctl, nil
}

// report prints success notices and turns the first error notice into an
// error.
func report(cmd *cobra.Command, n []app.Notice) error {
	if err := noticeError(n); err != nil {
		return err
	}
	for _, notice := range n {
		fmt.Fprintln(cmd.OutOrStdout(), escape(notice.Message))
	}
	return nil
}

func noticeError(n []app.Notice) error {
	for _, notice := range n {
		if notice.Level == app.LevelError {
			return errors.New(notice.Message)
		}
	}
	return nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func listCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks, filtered and sorted like the board",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, _ []string, e *env) error {
			ctl, err := loadBoard(cmd, e)
			if err != nil {
				return err
			}
			q := ctl.State.Query
			if v, _ := cmd.Flags().GetString("filter"); v != "" {
				if q.Filter, err = board.ParseFilter(v); err != nil {
					return err
				}
			}
			if v, _ := cmd.Flags().GetString("sort"); v != "" {
				if q.Sort, err = board.ParseSort(v); err != nil {
					return err
				}
			}
			q.Search, _ = cmd.Flags().GetString("search")

			tasks := board.Apply(ctl.State.Tasks, q, ctl.Now())
			if v, _ := cmd.Flags().GetString("status"); v != "" {
				status, err := model.ParseStatus(v)
				if err != nil {
					return err
				}
				tasks = board.Bucket(tasks)[status]
			}
			printTasks(cmd.OutOrStdout(), tasks, ctl.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d tasks • %d%% complete\n",
				len(tasks), len(ctl.State.Tasks), board.Progress(ctl.State.Tasks))
			return nil
		}),
	}
	cmd.Flags().String("filter", "", "all, high_priority, overdue or due_today")
	cmd.Flags().String("sort", "", "due_date, priority or created_at")
	cmd.Flags().String("search", "", "match title, description or tags")
	cmd.Flags().String("status", "", "only todo, in_progress or done")
	return cmd
}

func showCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task, description rendered as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(o, func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctl, err := loadBoard(cmd, e)
			if err != nil {
				return err
			}
			t, ok := ctl.Task(id)
			if !ok {
				return fmt.Errorf("task %d not found", id)
			}
			printTask(cmd.OutOrStdout(), t, ctl.Now())
			if desc := strings.TrimSpace(t.Description); desc != "" {
				fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(escape(desc)))
			}
			return nil
		}),
	}
}

func renderMarkdown(s string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return s
	}
	out, err := r.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimRight(out, "\n")
}

func addCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(o, func(cmd *cobra.Command, args []string, e *env) error {
			in := api.TaskInput{Title: strings.Join(args, " ")}
			in.Description, _ = cmd.Flags().GetString("description")
			priority, _ := cmd.Flags().GetString("priority")
			in.Priority = model.Priority(priority)
			in.DueDate, _ = cmd.Flags().GetString("due")
			in.Tags, _ = cmd.Flags().GetString("tags")

			ctl := app.New(e.client, e.query())
			ctl.Dispatch(app.Command{Action: app.ActionNewTask})
			runSync(cmd.Context(), ctl, ctl.Dispatch(app.Command{Action: app.ActionSaveTask, Input: in}))
			return report(cmd, ctl.State.Notices.All())
		}),
	}
	cmd.Flags().String("description", "", "task description (markdown)")
	cmd.Flags().String("priority", string(model.PriorityMedium), "low, medium or high")
	cmd.Flags().String("due", "", "due date, YYYY-MM-DD")
	cmd.Flags().String("tags", "", "comma separated tags")
	return cmd
}

func toggleCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Advance a task: todo, in progress, done, back to todo",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(o, func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctl, err := loadBoard(cmd, e)
			if err != nil {
				return err
			}
			if _, ok := ctl.Task(id); !ok {
				return fmt.Errorf("task %d not found", id)
			}
			runSync(cmd.Context(), ctl, ctl.Dispatch(app.Command{Action: app.ActionToggleStatus, TaskID: id}))
			if err := noticeError(ctl.State.Notices.All()); err != nil {
				return err
			}
			t, _ := ctl.Task(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", id, t.Status.Label())
			return nil
		}),
	}
}

func deleteCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task after confirming",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(o, func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctl, err := loadBoard(cmd, e)
			if err != nil {
				return err
			}
			t, ok := ctl.Task(id)
			if !ok {
				return fmt.Errorf("task %d not found", id)
			}
			ctl.Dispatch(app.Command{Action: app.ActionRequestDelete, TaskID: id})

			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				confirmed, err = confirm(fmt.Sprintf("Delete %q?", escape(t.Title)))
				if err != nil && !isAbort(err) {
					return err
				}
			}
			if !confirmed {
				ctl.Dispatch(app.Command{Action: app.ActionCancelDelete})
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			runSync(cmd.Context(), ctl, ctl.Dispatch(app.Command{Action: app.ActionConfirmDelete}))
			return report(cmd, ctl.State.Notices.All())
		}),
	}
	cmd.Flags().BoolP("yes", "y", false, "confirm without prompting")
	return cmd
}

func confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description("This cannot be undone.").
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}
