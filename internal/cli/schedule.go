package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs scrape and analyze for the current day on scheduler.cronExpression until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp(nil)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Run(cmd.Context())
	},
}
