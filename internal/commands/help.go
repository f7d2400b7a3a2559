package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "help [command]",
		Short:       "Show comprehensive help for punchclock",
		Long:        `Display detailed help for all punchclock commands and flags.`,
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 0 {
				if target, _, err := cmd.Root().Find(args); err == nil && target != cmd.Root() {
					_ = target.Help()
					return
				}
			}
			showCustomHelp(cmd)
		},
	}
}

func showCustomHelp(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), `
punchclock - CLI attendance clock

COMMANDS:

  in                      Clock in
    --live                Open the live timer afterwards
  out                     Clock out (end your break first)
    -m, --message         Attach a work report
  break start             Start a break
  break end               End the current break

  status                  Show whether you are clocked in
    --all                 Everyone clocked in for the team
    --live                Live timer (b break, o clock out, q quit)
    --json                JSON output

  report <text>           Attach a work report to your last closed session
    --session             Report on a specific session id

    Smart syntax:
      progress:"80% done"   Progress note
      #channel              Report channel
      @user                 Mention a user

    Example:
      punchclock report "Shipped the export progress:done #reports @U123"

  stats                   Worked and break time per day
    -p, --period          today|yesterday|this-week|last-week|this-month|last-month,
                          dd/mm/yyyy, dd/mm/yyyy-dd/mm/yyyy, X days (default this-week)
    --json                JSON output
  summary                 Monthly timesheet by day and week
    --month               yyyy-mm or mm/yyyy (default current month)

  warnings                List long shifts and long breaks
    --all-teams           Scan every team
  watch                   Scan on a schedule and log warnings

  backfill-team <team>    Assign a team to sessions recorded without one
    --dry-run             Count only
    --batch               Documents per batch

  version                 Print version information
  help                    Show this help

GLOBAL FLAGS:

  --config                Config file (default ~/.punchclock/config.yaml)
  --user, --name, --team  Act as this user / display name / team

Settings can also come from .env or PUNCHCLOCK_* environment variables.

`)
}
