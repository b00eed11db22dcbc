package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sanitizeCmd)
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize PATH",
	Short: "Rewrites an article CSV keeping only title, date, url and board.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp(nil)
		if err != nil {
			return err
		}
		defer application.Close()

		run, err := application.Sanitize(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"File", "Rows", "Status"})
		t.AppendRow(table.Row{run.OutputPath, run.Succeeded, run.Status})
		t.Render()
		return nil
	},
}
