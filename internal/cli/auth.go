package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type credentials struct {
	username string
	password string
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringP("password", "p", "", "password (prompted when empty)")
}

// readCredentials takes whatever the flags provide and prompts for the rest.
func readCredentials(cmd *cobra.Command, title string) (credentials, error) {
	var c credentials
	c.username, _ = cmd.Flags().GetString("username")
	c.password, _ = cmd.Flags().GetString("password")
	if c.username != "" && c.password != "" {
		return c, nil
	}
	return promptCredentials(title, c)
}

func promptCredentials(title string, c credentials) (credentials, error) {
	required := func(field string) func(string) error {
		return func(v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&c.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&c.password).
				Validate(required("password")),
		).Title(title),
	)
	if err := form.Run(); err != nil {
		return c, err
	}
	return c, nil
}

func login(cmd *cobra.Command, e *env, c credentials) error {
	msg, err := e.client.Login(cmd.Context(), c.username, c.password)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Login successful!"
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// interactiveLogin asks for credentials until the server accepts them or
// the user gives up.
func interactiveLogin(cmd *cobra.Command, e *env) error {
	title := "Log in to " + e.cfg.ServerURL
	for {
		c, err := promptCredentials(title, credentials{})
		if err != nil {
			return err
		}
		err = login(cmd, e, c)
		if err == nil {
			return nil
		}
		log.WithError(err).Info("login rejected")
		title = err.Error()
	}
}

func loginCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, _ []string, e *env) error {
			c, err := readCredentials(cmd, "Log in to "+e.cfg.ServerURL)
			if err != nil {
				return err
			}
			return login(cmd, e, c)
		}),
	}
	credentialFlags(cmd)
	return cmd
}

func registerCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account, then log in with it",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, _ []string, e *env) error {
			c, err := readCredentials(cmd, "Register at "+e.cfg.ServerURL)
			if err != nil {
				return err
			}
			msg, err := e.client.Register(cmd.Context(), c.username, c.password)
			if err != nil {
				return err
			}
			if msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return login(cmd, e, c)
		}),
	}
	credentialFlags(cmd)
	return cmd
}

func logoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, _ []string, e *env) error {
			logout(cmd, e)
			return nil
		}),
	}
}

// logout tells the server, but the local session goes away either way.
func logout(cmd *cobra.Command, e *env) {
	if err := e.client.Logout(cmd.Context()); err != nil {
		log.WithError(err).Warn("logout request failed")
	}
	e.clearSession()
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
}

func whoamiCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, _ []string, e *env) error {
			u, err := e.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			role := "user"
			if u.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d, %s)\n", escape(u.Username), u.ID, role)
			return nil
		}),
	}
}

func isAbort(err error) bool {
	return errors.Is(err, huh.ErrUserAborted)
}
