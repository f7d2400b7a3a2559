package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/parser"
	"github.com/balkashynov/punchclock/internal/period"
)

func newSummaryCmd(a *app) *cobra.Command {
	var (
		month  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a monthly timesheet by day and week",
		Long: `Show worked time for a calendar month, one row per day worked and a total per week.
Week 1 is days 1-7, week 5 is days 29-31.

Example output:
  Date         Week     Worked     Breaks
  2026-03-02      1      8h 0m     0h 30m
  ...
  Week 1                 8h 0m
  Total                 32h 0m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}

			year, m, err := parser.ParseMonth(month, a.clock.Now())
			if err != nil {
				return err
			}

			summary, err := a.periods.MonthlySummary(cmd.Context(), id.user, id.team, year, m)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as yyyy-mm or mm/yyyy (default: current month)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func printSummary(cmd *cobra.Command, s period.Summary) {
	out := cmd.OutOrStdout()
	title := fmt.Sprintf("%s %d", s.Month, s.Year)

	if len(s.Daily) == 0 {
		fmt.Fprintf(out, "No time tracked in %s.\n", title)
		return
	}

	fmt.Fprintf(out, "%-12s %5s %10s %10s\n", "Date", "Week", "Worked", "Breaks")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	for _, d := range s.Daily {
		fmt.Fprintf(out, "%-12s %5d %10s %10s\n", d.Date, d.Week,
			accounting.FormatMinutes(d.WorkingTime), accounting.FormatMinutes(d.BreakTime))
	}

	// Print week totals
	fmt.Fprintln(out, strings.Repeat("-", 40))
	for w := 1; w <= period.WeeksPerMonth; w++ {
		if total := s.Week(w); total > 0 {
			fmt.Fprintf(out, "%-18s %10s\n", fmt.Sprintf("Week %d", w), accounting.FormatMinutes(total))
		}
	}
	fmt.Fprintf(out, "%-18s %10s\n", "Total", accounting.FormatMinutes(s.TotalWorkingTime))
	fmt.Fprintf(out, "\n%s\n", title)
}
