package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/attendance"
	"github.com/balkashynov/punchclock/internal/tui"
)

func newStatusCmd(a *app) *cobra.Command {
	var (
		all    bool
		live   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether you are clocked in",
		Long: `Show the current session, or everyone clocked in with --all.

Examples:
  punchclock status
  punchclock status --live        # Live timer: b break, o clock out, q quit
  punchclock status --all --live  # Live team board`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if all {
				team := firstNonEmpty(a.team, a.cfg.Identity.TeamID)
				if live {
					return tui.RunTeam(cmd.Context(), a.attendance, a.clock, team)
				}
				employees, err := a.attendance.ActiveEmployees(cmd.Context(), team)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, employees)
				}
				if len(employees) == 0 {
					fmt.Fprintln(out, "Nobody is clocked in")
					return nil
				}
				for _, e := range employees {
					printStatus(out, e)
				}
				return nil
			}

			id, err := a.identity()
			if err != nil {
				return err
			}
			if live {
				return a.runLive(cmd, id)
			}

			st, err := a.attendance.Status(cmd.Context(), id.user, id.team)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, st)
			}
			if st == nil {
				fmt.Fprintln(out, "Not clocked in")
				return nil
			}
			printStatus(out, *st)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "show everyone clocked in for the team")
	cmd.Flags().BoolVar(&live, "live", false, "interactive live view")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	return cmd
}

func printStatus(out io.Writer, st attendance.EmployeeStatus) {
	name := firstNonEmpty(st.SubjectName, st.SubjectID)
	if st.State == attendance.StateOnBreak {
		fmt.Fprintf(out, "☕ %s on break for %s (clocked in at %s)\n",
			name, accounting.FormatMinutes(*st.BreakDuration), st.Start.Format("15:04"))
	} else {
		fmt.Fprintf(out, "🟢 %s working since %s (%s)\n",
			name, st.Start.Format("15:04"), accounting.FormatMinutes(st.WorkingDuration-st.TotalBreakTime))
	}
	if st.TotalBreakTime > 0 {
		fmt.Fprintf(out, "   Breaks so far: %s\n", accounting.FormatMinutes(st.TotalBreakTime))
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
