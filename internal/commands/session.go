package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/attendance"
	"github.com/balkashynov/punchclock/internal/parser"
	"github.com/balkashynov/punchclock/internal/tui"
)

func newInCmd(a *app) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "in",
		Short: "Clock in",
		Long: `Start a work session. Fails when you are already clocked in for the team.

Examples:
  punchclock in              # Clock in
  punchclock in --live       # Clock in and open the live timer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}

			start, err := a.attendance.PunchIn(cmd.Context(), id.user, id.name, id.team)
			if err != nil {
				return rejected(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🟢 Clocked in at %s\n", start.Format("15:04"))

			if live {
				return a.runLive(cmd, id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "open the live timer after clocking in")
	return cmd
}

func newOutCmd(a *app) *cobra.Command {
	var reportText string

	cmd := &cobra.Command{
		Use:   "out",
		Short: "Clock out",
		Long: `End the current work session. End your break first if you are on one.

Examples:
  punchclock out
  punchclock out -m "Finished the export progress:done #reports @U123"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}

			session, err := a.attendance.PunchOut(cmd.Context(), id.user, id.team)
			if err != nil {
				return rejected(cmd, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "⏹️  Clocked out at %s\n", session.End.Format("15:04"))
			fmt.Fprintf(out, "📊 Worked %s, breaks %s\n",
				accounting.FormatMinutes(accounting.WorkingTime(session)),
				accounting.FormatMinutes(accounting.TotalBreakTime(session)))

			if strings.TrimSpace(reportText) != "" {
				return a.submitReport(cmd, id, session.ID, reportText)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&reportText, "message", "m", "", "attach a work report")
	return cmd
}

func newBreakCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Start or end a break",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			start, err := a.attendance.StartBreak(cmd.Context(), id.user, id.team)
			if err != nil {
				return rejected(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "☕ Break started at %s\n", start.Format("15:04"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "End the current break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			end, minutes, err := a.attendance.EndBreak(cmd.Context(), id.user, id.team)
			if err != nil {
				return rejected(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "💼 Back at %s after %s\n", end.Format("15:04"), accounting.FormatMinutes(minutes))
			return nil
		},
	})

	return cmd
}

// submitReport parses report text and attaches it to sessionID
func (a *app) submitReport(cmd *cobra.Command, id identity, sessionID, text string) error {
	parsed := parser.ParseReport(text)
	out := cmd.OutOrStdout()
	for _, msg := range parsed.Errors {
		fmt.Fprintf(out, "⚠️  %s\n", msg)
	}

	_, err := a.attendance.SubmitReport(cmd.Context(), id.user, sessionID, attendance.Report{
		Description: parsed.Description,
		Progress:    parsed.Progress,
		ChannelID:   parsed.ChannelID,
		Mentions:    parsed.Mentions,
	})
	if err != nil {
		return rejected(cmd, err)
	}
	fmt.Fprintln(out, "📝 Report saved")
	return nil
}

func (a *app) runLive(cmd *cobra.Command, id identity) error {
	st, err := a.attendance.Status(cmd.Context(), id.user, id.team)
	if err != nil {
		return err
	}
	if st == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not clocked in")
		return nil
	}
	return tui.RunSession(cmd.Context(), a.attendance, a.clock, id.user, id.team, st)
}
