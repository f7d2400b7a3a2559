package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/warning"
)

func newWarningsCmd(a *app) *cobra.Command {
	var (
		allTeams bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "warnings",
		Short: "List sessions past the work or break thresholds",
		Long: `List everyone who has worked at least alerts.long_work_threshold_minutes
without a break in progress, or has been on break at least
alerts.long_break_threshold_minutes. Runs regardless of alerts.enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			team := ""
			if !allTeams {
				team = firstNonEmpty(a.team, a.cfg.Identity.TeamID)
			}

			warnings, err := a.scanner.Warnings(cmd.Context(), team)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, warnings)
			}
			if len(warnings) == 0 {
				fmt.Fprintln(out, "✅ No warnings")
				return nil
			}
			for _, w := range warnings {
				fmt.Fprintf(out, "⚠️  %s\n", warning.Message(w))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&allTeams, "all-teams", false, "scan every team")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Scan for warnings on a schedule until interrupted",
		Long: `Scan every alerts.check_interval_minutes and log each warning.
Nothing is reported while alerts.enabled is false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Alerts.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "💡 Alerts are disabled; set alerts.enabled or PUNCHCLOCK_ALERTS_ENABLED=true")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := warning.NewRunner(a.scanner, warning.LogNotifier{Logger: a.logger}, a.cfg.CheckInterval(), a.logger)
			a.logger.Info("watching for warnings", "interval", a.cfg.CheckInterval())

			err := runner.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
