// Package cli wires configuration, logging, the session store and the API
// client together behind cobra commands.
package cli

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tasktracker/internal/api"
	"tasktracker/internal/board"
	"tasktracker/internal/config"
	"tasktracker/internal/logging"
	"tasktracker/internal/storage"
)

type options struct {
	configPath string
	serverURL  string
}

// env is everything a command needs once flags are parsed.
type env struct {
	cfg    config.Config
	store  *storage.Store
	jar    *storage.Jar
	client *api.Client
	logs   io.Closer
}

func (o *options) setup() (*env, error) {
	path := o.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.serverURL != "" {
		cfg.ServerURL = o.serverURL
	}

	logs, err := logging.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	e := &env{cfg: cfg, logs: logs}
	e.store, err = storage.Open(cfg.DBPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	e.jar, err = storage.NewJar(e.store, cfg.ServerURL)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.client, err = api.New(cfg.ServerURL, e.jar)
	if err != nil {
		e.Close()
		return nil, err
	}
	log.WithField("server", cfg.ServerURL).Debug("session ready")
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.WithError(err).Warn("close session store")
		}
	}
	if e.logs != nil {
		logging.Discard()
		e.logs.Close()
	}
}

// query is the board's starting point from the configured defaults.
// Validate has already vetted both names.
func (e *env) query() board.Query {
	filter, _ := board.ParseFilter(e.cfg.DefaultFilter)
	sort, _ := board.ParseSort(e.cfg.DefaultSort)
	return board.Query{Filter: filter, Sort: sort, Breakpoint: e.cfg.NarrowWidth}
}

func (e *env) clearSession() {
	if err := e.jar.Clear(e.cfg.ServerURL); err != nil {
		log.WithError(err).Warn("clear session")
	}
}

// withEnv adapts a command body that needs an env into a cobra RunE.
func withEnv(o *options, run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := o.setup()
		if err != nil {
			return err
		}
		defer e.Close()
		err = run(cmd, args, e)
		if errors.Is(err, api.ErrUnauthenticated) {
			return fmt.Errorf("%w: run `tasktracker login` first", err)
		}
		return err
	}
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "tasktracker",
		Short: "TaskTracker - a kanban dashboard for your terminal",
		Long: `TaskTracker talks to a TaskTracker server and shows your tasks as a
three-column board. Run it without a subcommand to open the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withEnv(opts, runDashboard),
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $TASKTRACKER_CONFIG or the user config dir)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "server base URL, overrides server_url")

	root.AddCommand(loginCmd(opts))
	root.AddCommand(registerCmd(opts))
	root.AddCommand(logoutCmd(opts))
	root.AddCommand(whoamiCmd(opts))
	root.AddCommand(tasksCmd(opts))
	root.AddCommand(adminCmd(opts))
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
