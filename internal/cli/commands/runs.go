package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/claimwatch/fraudscan/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent scan runs",
		Long:  `Show the run history recorded in the state database, newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			store := state.NewSQLiteStore()
			if err := store.Open(cc.Cfg.StatePath); err != nil {
				return fmt.Errorf("failed to open run history store: %w", err)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Status", "Started", "Scanned", "Flagged", "Overpayment", "Output"})
			for _, run := range runs {
				t.AppendRow(table.Row{
					shortID(run.ID),
					string(run.Status),
					run.StartedAt,
					run.ProvidersScanned,
					run.ProvidersFlagged,
					fmt.Sprintf("$%.2f", run.OverpaymentUSD),
					run.OutputPath,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

// shortID truncates a run identifier for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
