package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/attendance"
	"github.com/balkashynov/punchclock/internal/clock"
	"github.com/balkashynov/punchclock/internal/config"
	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/parser"
	"github.com/balkashynov/punchclock/internal/period"
	"github.com/balkashynov/punchclock/internal/warning"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// skipSetup marks commands that run without config or store
const skipSetup = "skip-setup"

// app holds everything a command needs, built once per invocation
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  clock.Clock
	store  *db.DocumentStore

	attendance *attendance.Service
	periods    *period.Engine
	scanner    *warning.Scanner

	// flags
	configPath string
	user       string
	name       string
	team       string

	// stderr for logs, tests swap it
	logOut io.Writer
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{logOut: os.Stderr}

	rootCmd := &cobra.Command{
		Use:   "punchclock",
		Short: "A CLI attendance and time clock",
		Long: `punchclock records when you start and stop work and your breaks in between.
It reports worked time per day, week and month, and warns about overly long shifts or breaks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.punchclock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.user, "user", "", "user id (default identity.user_id)")
	rootCmd.PersistentFlags().StringVar(&a.name, "name", "", "display name (default identity.user_name)")
	rootCmd.PersistentFlags().StringVar(&a.team, "team", "", "team id (default identity.team_id)")

	// Add subcommands here
	rootCmd.AddCommand(newInCmd(a))
	rootCmd.AddCommand(newOutCmd(a))
	rootCmd.AddCommand(newBreakCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newSummaryCmd(a))
	rootCmd.AddCommand(newWarningsCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newBackfillCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.SetHelpCommand(newHelpCmd())

	return rootCmd
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads config and opens the store
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(a.logOut)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.clock = clock.Real(loc)

	store, err := db.Open(cfg.StoreOptions(a.logger))
	if err != nil {
		return err
	}
	a.store = store

	a.attendance = attendance.NewService(store, a.clock, a.logger)
	a.periods = period.NewEngine(store, cfg.Period(), a.clock, a.logger)
	a.scanner = warning.NewScanner(store, a.clock, cfg.Warning())
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// identity resolves who the command acts for, flags first
type identity struct {
	user string
	name string
	team string
}

func (a *app) identity() (identity, error) {
	id := identity{
		user: firstNonEmpty(a.user, a.cfg.Identity.UserID),
		name: firstNonEmpty(a.name, a.cfg.Identity.UserName),
		team: firstNonEmpty(a.team, a.cfg.Identity.TeamID),
	}
	if id.user == "" {
		return identity{}, errors.New("no user configured: pass --user or set identity.user_id")
	}

	var err error
	if id.user, err = parser.NormalizeID("user", id.user); err != nil {
		return identity{}, err
	}
	if id.team != "" {
		if id.team, err = parser.NormalizeID("team", id.team); err != nil {
			return identity{}, err
		}
	}
	if id.name == "" {
		id.name = id.user
	}
	return id, nil
}

// rejected prints lifecycle rejections and swallows them; other errors pass through
func rejected(cmd *cobra.Command, err error) error {
	if attendance.IsConflict(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "❌ %s\n", err)
		return nil
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
