package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/period"
)

// reportLookback bounds the search for the session a report belongs to
const reportLookback = 7 * 24 * time.Hour

func newReportCmd(a *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "report <text>",
		Short: "Attach a work report to your last closed session",
		Long: `Attach a work report to a closed session, by default the most recent one.

Smart syntax:
  progress:"80% done"   Progress note (quote it when it has spaces)
  #channel              Channel the report is for
  @user                 Mention a user (repeatable)

Example:
  punchclock report "Shipped the export job progress:done #reports @U123"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}

			if sessionID == "" {
				sessionID, err = a.lastClosedSession(cmd, id)
				if err != nil {
					return err
				}
			}
			return a.submitReport(cmd, id, sessionID, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent closed session)")
	return cmd
}

func (a *app) lastClosedSession(cmd *cobra.Command, id identity) (string, error) {
	now := a.clock.Now()
	sessions, err := a.periods.GetByPeriod(cmd.Context(), period.Request{
		SubjectID: id.user,
		TenantID:  id.team,
		From:      now.Add(-reportLookback),
		To:        now,
	})
	if err != nil {
		return "", err
	}
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].End != nil {
			return sessions[i].ID, nil
		}
	}
	return "", fmt.Errorf("no closed session in the last %d days", int(reportLookback.Hours()/24))
}
