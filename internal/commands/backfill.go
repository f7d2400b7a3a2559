package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punchclock/internal/parser"
)

func newBackfillCmd(a *app) *cobra.Command {
	var (
		batchSize int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "backfill-team <team-id>",
		Short: "Assign a team to sessions recorded without one",
		Long: `Assign a team to sessions stored before teams existed.
Records are rewritten one batch at a time; use --dry-run to count them first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := parser.NormalizeID("team", args[0])
			if err != nil {
				return err
			}

			n, err := a.store.BackfillTenant(cmd.Context(), team, batchSize, dryRun)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "🔎 %d sessions without a team would move to %s\n", n, team)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "🗃️  Moved %d sessions to team %s\n", n, team)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch", 100, "documents per batch")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count without writing")
	return cmd
}
