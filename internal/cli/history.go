package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit uint64

func init() {
	historyCmd.Flags().Uint64Var(&historyLimit, "limit", 20, "runs to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit N]",
	Short: "Lists recent runs recorded in the ledger.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp(nil)
		if err != nil {
			return err
		}
		defer application.Close()

		runs, err := application.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Started", "Kind", "Scope", "Pages", "Failed", "Succeeded", "Skipped", "Status", "Output"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.StartedAt.In(application.Config().Location()).Format("2006-01-02 15:04"),
				run.Kind,
				run.Scope,
				run.PagesVisited,
				run.PagesFailed,
				run.Succeeded,
				run.Skipped,
				run.Status,
				run.OutputPath,
			})
		}
		t.Render()
		return nil
	},
}
