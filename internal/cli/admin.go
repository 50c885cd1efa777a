package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tasktracker/internal/api"
	"tasktracker/internal/app"
	"tasktracker/internal/ui"
)

func adminCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Open the user management panel (admins only)",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, args []string, e *env) error {
			next, err := ui.RunAdmin(app.NewAdmin(e.client), e.cfg)
			if err != nil {
				return err
			}
			switch next {
			case ui.OutcomeDashboard:
				return runDashboard(cmd, args, e)
			case ui.OutcomeLogin:
				return api.ErrUnauthenticated
			}
			return nil
		}),
	}
	cmd.AddCommand(usersCmd(o))
	cmd.AddCommand(deleteUserCmd(o))
	return cmd
}

func usersCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, _ []string, e *env) error {
			list, err := e.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), list.Users, list.CurrentUserID)
			return nil
		}),
	}
}

func runAdminSync(ctx context.Context, a *app.Admin, eff app.Effect) {
	for eff != nil {
		eff = a.Apply(eff(ctx))
	}
}

func deleteUserCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-user <id>",
		Short: "Delete another account after confirming",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(o, func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := app.NewAdmin(e.client)
			runAdminSync(cmd.Context(), a, a.Load())
			if !a.Loaded {
				return noticeError(a.Notices.All())
			}
			u, ok := a.User(id)
			if !ok {
				return fmt.Errorf("user %d not found", id)
			}
			if err := a.RequestDelete(id); err != nil {
				return err
			}

			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				confirmed, err = confirm(fmt.Sprintf("Delete user %q?", escape(u.Username)))
				if err != nil && !isAbort(err) {
					return err
				}
			}
			if !confirmed {
				a.CancelDelete()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			runAdminSync(cmd.Context(), a, a.ConfirmDelete())
			return report(cmd, a.Notices.All())
		}),
	}
	cmd.Flags().BoolP("yes", "y", false, "confirm without prompting")
	return cmd
}
