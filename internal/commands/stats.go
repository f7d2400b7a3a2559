package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/parser"
	"github.com/balkashynov/punchclock/internal/period"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		periodFlag string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show worked time per day for a period",
		Long: `Show worked and break time per day.

Periods: today, yesterday, this-week, last-week, this-month, last-month,
dd/mm/yyyy, dd/mm/yyyy-dd/mm/yyyy, X days, X weeks.

Examples:
  punchclock stats --period this-week
  punchclock stats --period 01/03/2026-15/03/2026 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}

			p, err := parser.ParsePeriod(periodFlag, a.clock.Now())
			if err != nil {
				return err
			}

			stats, err := a.periods.GetStats(cmd.Context(), period.Request{
				SubjectID: id.user,
				TenantID:  id.team,
				From:      p.From,
				To:        p.To,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd, p, stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodFlag, "period", "p", "this-week", "period to report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func printStats(cmd *cobra.Command, p parser.Period, stats period.Stats) {
	out := cmd.OutOrStdout()

	if stats.RecordCount == 0 {
		fmt.Fprintf(out, "No sessions for %s.\n", p.Label)
		return
	}

	fmt.Fprintf(out, "%-12s  %9s  %9s  %8s\n", "Day", "Worked", "Breaks", "Sessions")
	fmt.Fprintln(out, strings.Repeat("-", 45))
	for _, day := range stats.Days() {
		d := stats.Daily[day]
		fmt.Fprintf(out, "%-12s  %9s  %9s  %8d\n", day,
			accounting.FormatMinutes(d.WorkingTime), accounting.FormatMinutes(d.BreakTime), d.Records)
	}
	fmt.Fprintln(out, strings.Repeat("-", 45))
	fmt.Fprintf(out, "%-12s  %9s  %9s  %8d\n", "Total",
		accounting.FormatMinutes(stats.TotalWorkingTime), accounting.FormatMinutes(stats.TotalBreakTime), stats.RecordCount)
	fmt.Fprintf(out, "\n%s: %s to %s\n", p.Label, p.From.Format("Jan 2"), p.To.Format("Jan 2, 2006"))
}
