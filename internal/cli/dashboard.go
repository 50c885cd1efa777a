package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasktracker/internal/api"
	"tasktracker/internal/app"
	"tasktracker/internal/ui"
)

// runDashboard keeps switching between the board, the admin panel and the
// login prompt until the user quits or logs out.
func runDashboard(cmd *cobra.Command, _ []string, e *env) error {
	screen := ui.OutcomeDashboard
	for {
		var (
			next ui.Outcome
			err  error
		)
		switch screen {
		case ui.OutcomeAdmin:
			next, err = ui.RunAdmin(app.NewAdmin(e.client), e.cfg)
		default:
			next, err = ui.RunDashboard(app.New(e.client, e.query()), e.cfg)
		}
		if err != nil {
			return err
		}

		switch next {
		case ui.OutcomeLogin:
			if err := interactiveLogin(cmd, e); err != nil {
				if isAbort(err) {
					return api.ErrUnauthenticated
				}
				return err
			}
			screen = ui.OutcomeDashboard
		case ui.OutcomeLoggedOut:
			e.clearSession()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		case ui.OutcomeAdmin, ui.OutcomeDashboard:
			screen = next
		default:
			return nil
		}
	}
}
